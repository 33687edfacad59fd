package storage

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askwhyharsh/proxipal/internal/location"
	"github.com/askwhyharsh/proxipal/internal/relationship"
	apperrors "github.com/askwhyharsh/proxipal/pkg/errors"
)

var userCols = []string{"id", "username", "email", "password_hash", "is_superuser", "latitude", "longitude", "address", "date_joined"}

func newMockClient(t *testing.T) (*PostgresClient, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresClientFromDB(db), mock
}

func TestCreateUser(t *testing.T) {
	p, mock := newMockClient(t)
	joined := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users (username, email, password_hash)")).
		WithArgs("alice", "alice@example.com", "hash").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(1, "alice", "alice@example.com", "hash", false, nil, nil, nil, joined))

	u, err := p.CreateUser(context.Background(), "alice", "alice@example.com", "hash")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, joined, u.DateJoined)
	assert.Nil(t, u.Profile.Location)
	assert.Nil(t, u.Profile.Address)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserUniqueViolation(t *testing.T) {
	tests := []struct {
		constraint string
		want       error
	}{
		{"users_email_key", apperrors.ErrEmailTaken},
		{"users_username_key", apperrors.ErrUsernameTaken},
	}

	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			p, mock := newMockClient(t)
			mock.ExpectQuery("INSERT INTO users").
				WillReturnError(&pq.Error{Code: uniqueViolation, Constraint: tt.constraint})

			_, err := p.CreateUser(context.Background(), "alice", "alice@example.com", "hash")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGetUserByIDWithProfile(t *testing.T) {
	p, mock := newMockClient(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(5, "bob", "bob@example.com", "hash", true, 51.5, -0.12, "London", time.Now()))

	u, err := p.GetUserByID(context.Background(), 5)
	require.NoError(t, err)
	require.NotNil(t, u.Profile.Location)
	assert.Equal(t, 51.5, u.Profile.Location.Latitude)
	assert.Equal(t, "London", *u.Profile.Address)
	assert.True(t, u.IsSuperuser)
}

func TestGetUserByIDNotFound(t *testing.T) {
	p, mock := newMockClient(t)
	mock.ExpectQuery("FROM users WHERE id").WillReturnRows(sqlmock.NewRows(userCols))

	_, err := p.GetUserByID(context.Background(), 99)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestSendFriendRequest(t *testing.T) {
	p, mock := newMockClient(t)

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (from_user_id, to_user_id) DO NOTHING")).
		WithArgs(int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO friend_requests").
		WithArgs(int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	created, err := p.SendFriendRequest(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = p.SendFriendRequest(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRespondFriendRequestNotFound(t *testing.T) {
	p, mock := newMockClient(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND to_user_id = $2 AND status <> 'blocked'")).
		WithArgs(int64(10), int64(3), "accepted").
		WillReturnRows(sqlmock.NewRows([]string{"id", "from_user_id", "to_user_id", "status", "created_at", "updated_at"}))

	_, err := p.RespondFriendRequest(context.Background(), 10, 3, relationship.StatusAccepted)
	assert.ErrorIs(t, err, apperrors.ErrRequestNotFound)
}

func TestBlockUserUpserts(t *testing.T) {
	p, mock := newMockClient(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (from_user_id, to_user_id) DO UPDATE")).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "from_user_id", "to_user_id", "status", "created_at", "updated_at"}).
			AddRow(4, 1, 2, "blocked", now, now))

	r, err := p.BlockUser(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, relationship.StatusBlocked, r.Status)
	assert.Equal(t, int64(4), r.ID)
}

func TestSaveLocation(t *testing.T) {
	p, mock := newMockClient(t)
	at := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
	addr := "Paris"

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET latitude = $2, longitude = $3, address = COALESCE($4, address)")).
		WithArgs(int64(1), 48.85, 2.35, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO location_history").
		WithArgs(int64(1), 48.85, 2.35, "u09tvw0", at).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectCommit()

	entry, err := p.SaveLocation(context.Background(), location.HistoryEntry{
		UserID:      1,
		Coordinates: location.Coordinates{Latitude: 48.85, Longitude: 2.35},
		Geohash:     "u09tvw0",
		RecordedAt:  at,
	}, &addr)
	require.NoError(t, err)
	assert.Equal(t, int64(7), entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveLocationUnknownUserRollsBack(t *testing.T) {
	p, mock := newMockClient(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users SET latitude").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := p.SaveLocation(context.Background(), location.HistoryEntry{
		UserID:      42,
		Coordinates: location.Coordinates{Latitude: 1, Longitude: 1},
	}, nil)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocationHistory(t *testing.T) {
	p, mock := newMockClient(t)
	newer := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY recorded_at DESC, id DESC")).
		WithArgs(int64(1), 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "latitude", "longitude", "geohash", "recorded_at"}).
			AddRow(2, 1, 10.0, 20.0, "s3y0zh7", newer).
			AddRow(1, 1, 11.0, 21.0, "s3y4qr2", older))

	entries, err := p.LocationHistory(context.Background(), 1, 20)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(2), entries[0].ID)
	assert.Equal(t, 10.0, entries[0].Latitude)
	assert.True(t, entries[0].RecordedAt.After(entries[1].RecordedAt))
}

func TestAreFriendsWrapsErrors(t *testing.T) {
	p, mock := newMockClient(t)
	mock.ExpectQuery("SELECT EXISTS").WillReturnError(sql.ErrConnDone)

	_, err := p.AreFriends(context.Background(), 1, 2)
	assert.ErrorIs(t, err, sql.ErrConnDone)
}
