package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/askwhyharsh/proxipal/internal/config"
	"github.com/askwhyharsh/proxipal/internal/location"
	"github.com/askwhyharsh/proxipal/internal/relationship"
	"github.com/askwhyharsh/proxipal/internal/user"
	apperrors "github.com/askwhyharsh/proxipal/pkg/errors"
)

const uniqueViolation = "23505"

type PostgresClient struct {
	db *sql.DB
}

func NewPostgresClient(ctx context.Context, cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	client := &PostgresClient{db: db}

	// Initialize schema
	if err := client.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return client, nil
}

// NewPostgresClientFromDB wraps an open handle without touching the schema.
func NewPostgresClientFromDB(db *sql.DB) *PostgresClient {
	return &PostgresClient{db: db}
}

func (p *PostgresClient) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		username      VARCHAR(150) NOT NULL,
		email         VARCHAR(254) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		is_superuser  BOOLEAN NOT NULL DEFAULT FALSE,
		latitude      DOUBLE PRECISION,
		longitude     DOUBLE PRECISION,
		address       TEXT,
		date_joined   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT users_username_key UNIQUE (username)
	);

	CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (LOWER(email));

	CREATE TABLE IF NOT EXISTS friend_requests (
		id           BIGSERIAL PRIMARY KEY,
		from_user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		to_user_id   BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		status       VARCHAR(10) NOT NULL DEFAULT 'pending'
		             CHECK (status IN ('pending', 'accepted', 'rejected', 'blocked')),
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT friend_requests_pair_key UNIQUE (from_user_id, to_user_id)
	);

	CREATE INDEX IF NOT EXISTS idx_friend_requests_to_user ON friend_requests (to_user_id);

	CREATE TABLE IF NOT EXISTS location_history (
		id          BIGSERIAL PRIMARY KEY,
		user_id     BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		latitude    DOUBLE PRECISION NOT NULL,
		longitude   DOUBLE PRECISION NOT NULL,
		geohash     VARCHAR(12) NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_location_history_user_time ON location_history (user_id, recorded_at DESC);
	`

	_, err := p.db.ExecContext(ctx, schema)
	return err
}

func (p *PostgresClient) Close() error {
	return p.db.Close()
}

func (p *PostgresClient) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// User operations

const userColumns = `id, username, email, password_hash, is_superuser, latitude, longitude, address, date_joined`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*user.User, error) {
	var (
		u        user.User
		lat, lon sql.NullFloat64
		address  sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsSuperuser, &lat, &lon, &address, &u.DateJoined); err != nil {
		return nil, err
	}
	if lat.Valid && lon.Valid {
		u.Profile.Location = &location.Coordinates{Latitude: lat.Float64, Longitude: lon.Float64}
	}
	if address.Valid {
		u.Profile.Address = &address.String
	}
	return &u, nil
}

func (p *PostgresClient) CreateUser(ctx context.Context, username, email, passwordHash string) (*user.User, error) {
	query := `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns

	u, err := scanUser(p.db.QueryRowContext(ctx, query, username, email, passwordHash))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			if strings.Contains(pqErr.Constraint, "email") {
				return nil, apperrors.ErrEmailTaken
			}
			return nil, apperrors.ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return u, nil
}

func (p *PostgresClient) GetUserByID(ctx context.Context, id int64) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(p.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

func (p *PostgresClient) GetUserByUsername(ctx context.Context, username string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	u, err := scanUser(p.db.QueryRowContext(ctx, query, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %q: %w", username, err)
	}
	return u, nil
}

func (p *PostgresClient) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := p.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))`, email,
	).Scan(&exists)
	return exists, err
}

func (p *PostgresClient) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := p.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username,
	).Scan(&exists)
	return exists, err
}

func (p *PostgresClient) ListUsers(ctx context.Context) ([]user.User, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		users = append(users, *u)
	}

	return users, rows.Err()
}

func (p *PostgresClient) SetSuperuser(ctx context.Context, username string, superuser bool) error {
	res, err := p.db.ExecContext(ctx, `UPDATE users SET is_superuser = $2 WHERE username = $1`, username, superuser)
	if err != nil {
		return fmt.Errorf("set superuser: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// Friend request operations

const requestColumns = `id, from_user_id, to_user_id, status, created_at, updated_at`

func scanRequest(row rowScanner) (*relationship.FriendRequest, error) {
	var r relationship.FriendRequest
	if err := row.Scan(&r.ID, &r.FromUserID, &r.ToUserID, &r.Status, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func (p *PostgresClient) ListFriendRequests(ctx context.Context, userID int64) ([]relationship.FriendRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM friend_requests
		WHERE from_user_id = $1 OR to_user_id = $1
		ORDER BY id
	`

	rows, err := p.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list friend requests: %w", err)
	}
	defer rows.Close()

	var requests []relationship.FriendRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("list friend requests: %w", err)
		}
		requests = append(requests, *r)
	}

	return requests, rows.Err()
}

func (p *PostgresClient) SendFriendRequest(ctx context.Context, fromID, toID int64) (bool, error) {
	query := `
		INSERT INTO friend_requests (from_user_id, to_user_id, status)
		SELECT $1, $2, 'pending'
		WHERE NOT EXISTS (
			SELECT 1 FROM friend_requests
			WHERE ((from_user_id = $1 AND to_user_id = $2) OR (from_user_id = $2 AND to_user_id = $1))
			AND status IN ('accepted', 'blocked')
		)
		ON CONFLICT (from_user_id, to_user_id) DO NOTHING
	`

	res, err := p.db.ExecContext(ctx, query, fromID, toID)
	if err != nil {
		return false, fmt.Errorf("send friend request: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (p *PostgresClient) RespondFriendRequest(ctx context.Context, requestID, actorID int64, status relationship.Status) (*relationship.FriendRequest, error) {
	query := `
		UPDATE friend_requests
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND to_user_id = $2 AND status <> 'blocked'
		RETURNING ` + requestColumns

	r, err := scanRequest(p.db.QueryRowContext(ctx, query, requestID, actorID, string(status)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("respond friend request: %w", err)
	}
	return r, nil
}

func (p *PostgresClient) DeleteFriendship(ctx context.Context, a, b int64) (int64, error) {
	query := `
		DELETE FROM friend_requests
		WHERE status = 'accepted'
		AND ((from_user_id = $1 AND to_user_id = $2) OR (from_user_id = $2 AND to_user_id = $1))
	`

	res, err := p.db.ExecContext(ctx, query, a, b)
	if err != nil {
		return 0, fmt.Errorf("delete friendship: %w", err)
	}
	return res.RowsAffected()
}

func (p *PostgresClient) BlockUser(ctx context.Context, fromID, toID int64) (*relationship.FriendRequest, error) {
	query := `
		INSERT INTO friend_requests (from_user_id, to_user_id, status)
		VALUES ($1, $2, 'blocked')
		ON CONFLICT (from_user_id, to_user_id) DO UPDATE
		SET status = 'blocked', updated_at = NOW()
		RETURNING ` + requestColumns

	r, err := scanRequest(p.db.QueryRowContext(ctx, query, fromID, toID))
	if err != nil {
		return nil, fmt.Errorf("block user: %w", err)
	}
	return r, nil
}

func (p *PostgresClient) DeleteBlock(ctx context.Context, fromID, toID int64) (int64, error) {
	res, err := p.db.ExecContext(ctx,
		`DELETE FROM friend_requests WHERE from_user_id = $1 AND to_user_id = $2 AND status = 'blocked'`,
		fromID, toID,
	)
	if err != nil {
		return 0, fmt.Errorf("delete block: %w", err)
	}
	return res.RowsAffected()
}

func (p *PostgresClient) AreFriends(ctx context.Context, a, b int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM friend_requests
			WHERE status = 'accepted'
			AND ((from_user_id = $1 AND to_user_id = $2) OR (from_user_id = $2 AND to_user_id = $1))
		)
	`

	var exists bool
	if err := p.db.QueryRowContext(ctx, query, a, b).Scan(&exists); err != nil {
		return false, fmt.Errorf("check friendship: %w", err)
	}
	return exists, nil
}

// Location operations

func (p *PostgresClient) SaveLocation(ctx context.Context, entry location.HistoryEntry, address *string) (location.HistoryEntry, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return location.HistoryEntry{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var addr sql.NullString
	if address != nil {
		addr = sql.NullString{String: *address, Valid: true}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE users SET latitude = $2, longitude = $3, address = COALESCE($4, address) WHERE id = $1`,
		entry.UserID, entry.Latitude, entry.Longitude, addr,
	)
	if err != nil {
		return location.HistoryEntry{}, fmt.Errorf("update profile location: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return location.HistoryEntry{}, apperrors.ErrUserNotFound
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO location_history (user_id, latitude, longitude, geohash, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		entry.UserID, entry.Latitude, entry.Longitude, entry.Geohash, entry.RecordedAt,
	).Scan(&entry.ID)
	if err != nil {
		return location.HistoryEntry{}, fmt.Errorf("append location history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return location.HistoryEntry{}, fmt.Errorf("commit: %w", err)
	}

	return entry, nil
}

func (p *PostgresClient) LocationHistory(ctx context.Context, userID int64, limit int) ([]location.HistoryEntry, error) {
	query := `
		SELECT id, user_id, latitude, longitude, geohash, recorded_at
		FROM location_history
		WHERE user_id = $1
		ORDER BY recorded_at DESC, id DESC
		LIMIT $2
	`

	rows, err := p.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("location history: %w", err)
	}
	defer rows.Close()

	var entries []location.HistoryEntry
	for rows.Next() {
		var e location.HistoryEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Latitude, &e.Longitude, &e.Geohash, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("location history: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
