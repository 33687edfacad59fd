package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/askwhyharsh/proxipal/internal/location"
	"github.com/askwhyharsh/proxipal/internal/relationship"
	"github.com/askwhyharsh/proxipal/internal/user"
	apperrors "github.com/askwhyharsh/proxipal/pkg/errors"
)

// MemoryStore keeps users, friend requests and location history in process.
// It serves local development without a database and handler tests.
type MemoryStore struct {
	mu       sync.RWMutex
	users    []user.User
	requests []relationship.FriendRequest
	history  []location.HistoryEntry
	nextUser int64
	nextReq  int64
	nextHist int64
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (m *MemoryStore) CreateUser(_ context.Context, username, email, passwordHash string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == username {
			return nil, apperrors.ErrUsernameTaken
		}
		if strings.EqualFold(u.Email, email) {
			return nil, apperrors.ErrEmailTaken
		}
	}

	m.nextUser++
	u := user.User{
		ID:           m.nextUser,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		DateJoined:   m.now().UTC(),
	}
	m.users = append(m.users, u)
	return &u, nil
}

func (m *MemoryStore) GetUserByID(_ context.Context, id int64) (*user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if i := m.userIndex(id); i >= 0 {
		u := m.users[i]
		return &u, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func (m *MemoryStore) GetUserByUsername(_ context.Context, username string) (*user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (m *MemoryStore) EmailExists(_ context.Context, email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) UsernameExists(_ context.Context, username string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) ListUsers(_ context.Context) ([]user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]user.User, len(m.users))
	copy(out, m.users)
	return out, nil
}

func (m *MemoryStore) SetSuperuser(_ context.Context, username string, superuser bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.users {
		if m.users[i].Username == username {
			m.users[i].IsSuperuser = superuser
			return nil
		}
	}
	return apperrors.ErrUserNotFound
}

func (m *MemoryStore) ListFriendRequests(_ context.Context, userID int64) ([]relationship.FriendRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []relationship.FriendRequest
	for _, r := range m.requests {
		if r.Involves(userID) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MemoryStore) SendFriendRequest(_ context.Context, fromID, toID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.requests {
		between := r.Involves(fromID) && r.Involves(toID)
		if between && (r.Status == relationship.StatusAccepted || r.Status == relationship.StatusBlocked) {
			return false, nil
		}
		if r.FromUserID == fromID && r.ToUserID == toID {
			return false, nil
		}
	}

	m.insertRequest(fromID, toID, relationship.StatusPending)
	return true, nil
}

func (m *MemoryStore) RespondFriendRequest(_ context.Context, requestID, actorID int64, status relationship.Status) (*relationship.FriendRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.requests {
		r := &m.requests[i]
		if r.ID != requestID || r.ToUserID != actorID || r.Status == relationship.StatusBlocked {
			continue
		}
		r.Status = status
		r.UpdatedAt = m.now().UTC()
		out := *r
		return &out, nil
	}
	return nil, apperrors.ErrRequestNotFound
}

func (m *MemoryStore) DeleteFriendship(_ context.Context, a, b int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.deleteWhere(func(r relationship.FriendRequest) bool {
		return r.Status == relationship.StatusAccepted && r.Involves(a) && r.Involves(b) && a != b
	}), nil
}

func (m *MemoryStore) BlockUser(_ context.Context, fromID, toID int64) (*relationship.FriendRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.requests {
		r := &m.requests[i]
		if r.FromUserID == fromID && r.ToUserID == toID {
			r.Status = relationship.StatusBlocked
			r.UpdatedAt = m.now().UTC()
			out := *r
			return &out, nil
		}
	}

	r := m.insertRequest(fromID, toID, relationship.StatusBlocked)
	return &r, nil
}

func (m *MemoryStore) DeleteBlock(_ context.Context, fromID, toID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.deleteWhere(func(r relationship.FriendRequest) bool {
		return r.FromUserID == fromID && r.ToUserID == toID && r.Status == relationship.StatusBlocked
	}), nil
}

func (m *MemoryStore) AreFriends(_ context.Context, a, b int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.requests {
		if r.Status == relationship.StatusAccepted && r.Involves(a) && r.Involves(b) && a != b {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) SaveLocation(_ context.Context, entry location.HistoryEntry, address *string) (location.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.userIndex(entry.UserID)
	if i < 0 {
		return location.HistoryEntry{}, apperrors.ErrUserNotFound
	}

	coords := entry.Coordinates
	m.users[i].Profile.Location = &coords
	if address != nil {
		addr := *address
		m.users[i].Profile.Address = &addr
	}

	m.nextHist++
	entry.ID = m.nextHist
	m.history = append(m.history, entry)
	return entry, nil
}

func (m *MemoryStore) LocationHistory(_ context.Context, userID int64, limit int) ([]location.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []location.HistoryEntry
	for _, e := range m.history {
		if e.UserID == userID {
			out = append(out, e)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RecordedAt.Equal(out[j].RecordedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].RecordedAt.After(out[j].RecordedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) Close() error {
	return nil
}

func (m *MemoryStore) userIndex(id int64) int {
	for i, u := range m.users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

func (m *MemoryStore) insertRequest(fromID, toID int64, status relationship.Status) relationship.FriendRequest {
	m.nextReq++
	now := m.now().UTC()
	r := relationship.FriendRequest{
		ID:         m.nextReq,
		FromUserID: fromID,
		ToUserID:   toID,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	m.requests = append(m.requests, r)
	return r
}

func (m *MemoryStore) deleteWhere(match func(relationship.FriendRequest) bool) int64 {
	kept := m.requests[:0]
	var deleted int64
	for _, r := range m.requests {
		if match(r) {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	m.requests = kept
	return deleted
}
