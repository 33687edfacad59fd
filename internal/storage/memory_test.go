package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askwhyharsh/proxipal/internal/location"
	"github.com/askwhyharsh/proxipal/internal/relationship"
	apperrors "github.com/askwhyharsh/proxipal/pkg/errors"
)

func seedUsers(t *testing.T, m *MemoryStore, names ...string) []int64 {
	t.Helper()
	ids := make([]int64, 0, len(names))
	for _, n := range names {
		u, err := m.CreateUser(context.Background(), n, n+"@example.com", "hash")
		require.NoError(t, err)
		ids = append(ids, u.ID)
	}
	return ids
}

func TestMemoryCreateUserUniqueness(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	seedUsers(t, m, "alice")

	_, err := m.CreateUser(ctx, "alice", "other@example.com", "hash")
	assert.ErrorIs(t, err, apperrors.ErrUsernameTaken)

	_, err = m.CreateUser(ctx, "alice2", "ALICE@example.com", "hash")
	assert.ErrorIs(t, err, apperrors.ErrEmailTaken)

	exists, err := m.EmailExists(ctx, "Alice@Example.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMemorySendIsGetOrCreate(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	ids := seedUsers(t, m, "alice", "bob")
	a, b := ids[0], ids[1]

	created, err := m.SendFriendRequest(ctx, a, b)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = m.SendFriendRequest(ctx, a, b)
	require.NoError(t, err)
	assert.False(t, created)

	// The opposite direction is its own edge.
	created, err = m.SendFriendRequest(ctx, b, a)
	require.NoError(t, err)
	assert.True(t, created)

	edges, err := m.ListFriendRequests(ctx, a)
	require.NoError(t, err)
	assert.Len(t, edges, 2)
}

func TestMemorySendBlockedByAcceptedOrBlocked(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	ids := seedUsers(t, m, "alice", "bob", "carol")
	a, b, c := ids[0], ids[1], ids[2]

	_, err := m.BlockUser(ctx, b, a)
	require.NoError(t, err)
	created, err := m.SendFriendRequest(ctx, a, b)
	require.NoError(t, err)
	assert.False(t, created)

	_, err = m.SendFriendRequest(ctx, c, a)
	require.NoError(t, err)
	edges, _ := m.ListFriendRequests(ctx, c)
	_, err = m.RespondFriendRequest(ctx, edges[0].ID, a, relationship.StatusAccepted)
	require.NoError(t, err)

	created, err = m.SendFriendRequest(ctx, a, c)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestMemoryRespondGuards(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	ids := seedUsers(t, m, "alice", "bob")
	a, b := ids[0], ids[1]

	_, err := m.SendFriendRequest(ctx, a, b)
	require.NoError(t, err)
	edges, _ := m.ListFriendRequests(ctx, a)
	reqID := edges[0].ID

	_, err = m.RespondFriendRequest(ctx, reqID, a, relationship.StatusAccepted)
	assert.ErrorIs(t, err, apperrors.ErrRequestNotFound, "sender cannot accept")

	_, err = m.BlockUser(ctx, a, b)
	require.NoError(t, err)
	_, err = m.RespondFriendRequest(ctx, reqID, b, relationship.StatusAccepted)
	assert.ErrorIs(t, err, apperrors.ErrRequestNotFound, "blocked edge cannot be accepted")
}

func TestMemoryUnfriendAndUnblock(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	ids := seedUsers(t, m, "alice", "bob")
	a, b := ids[0], ids[1]

	_, err := m.SendFriendRequest(ctx, a, b)
	require.NoError(t, err)
	edges, _ := m.ListFriendRequests(ctx, a)
	_, err = m.RespondFriendRequest(ctx, edges[0].ID, b, relationship.StatusAccepted)
	require.NoError(t, err)

	ok, err := m.AreFriends(ctx, b, a)
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := m.DeleteFriendship(ctx, b, a)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = m.BlockUser(ctx, a, b)
	require.NoError(t, err)
	n, err = m.DeleteBlock(ctx, b, a)
	require.NoError(t, err)
	assert.Zero(t, n, "only the blocker can unblock")

	n, err = m.DeleteBlock(ctx, a, b)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	edges, _ = m.ListFriendRequests(ctx, a)
	assert.Empty(t, edges)
}

func TestMemoryLocationHistory(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	ids := seedUsers(t, m, "alice")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 25; i++ {
		_, err := m.SaveLocation(ctx, location.HistoryEntry{
			UserID:      ids[0],
			Coordinates: location.Coordinates{Latitude: float64(i + 1), Longitude: 1},
			RecordedAt:  base.Add(time.Duration(i) * time.Minute),
		}, nil)
		require.NoError(t, err)
	}

	entries, err := m.LocationHistory(ctx, ids[0], 20)
	require.NoError(t, err)
	require.Len(t, entries, 20)
	assert.Equal(t, 25.0, entries[0].Latitude)
	assert.Equal(t, 6.0, entries[19].Latitude)

	u, err := m.GetUserByID(ctx, ids[0])
	require.NoError(t, err)
	require.NotNil(t, u.Profile.Location)
	assert.Equal(t, 25.0, u.Profile.Location.Latitude)
	assert.Nil(t, u.Profile.Address)

	_, err = m.SaveLocation(ctx, location.HistoryEntry{UserID: 999}, nil)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestMemorySetSuperuser(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	seedUsers(t, m, "root")

	require.NoError(t, m.SetSuperuser(ctx, "root", true))
	u, err := m.GetUserByUsername(ctx, "root")
	require.NoError(t, err)
	assert.True(t, u.IsSuperuser)

	assert.ErrorIs(t, m.SetSuperuser(ctx, "ghost", true), apperrors.ErrUserNotFound)
}

func TestMemoryConcurrentSendFriendRequest(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	ids := seedUsers(t, m, "alice", "bob")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := m.SendFriendRequest(ctx, ids[0], ids[1])
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	edges, err := m.ListFriendRequests(ctx, ids[1])
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, relationship.StatusPending, edges[0].Status)
}
