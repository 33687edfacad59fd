package location

import (
	"context"
	"fmt"
	"time"

	"github.com/askwhyharsh/proxipal/pkg/logger"
)

// MaxHistory caps how many history entries a single query returns.
const MaxHistory = 20

// HistoryEntry is one recorded position of a user.
type HistoryEntry struct {
	Coordinates `json:"coordinates"`

	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Geohash    string    `json:"geohash"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Update is what gets broadcast to live trackers after a position change.
type Update struct {
	UserID     int64     `json:"user_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Address    string    `json:"address,omitempty"`
	Geohash    string    `json:"geohash"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Store persists the current profile position and the history log.
// SaveLocation must apply both in one transaction. A nil address leaves
// the stored address untouched.
type Store interface {
	SaveLocation(ctx context.Context, entry HistoryEntry, address *string) (HistoryEntry, error)
	LocationHistory(ctx context.Context, userID int64, limit int) ([]HistoryEntry, error)
}

// Publisher fans out location updates. It may be nil.
type Publisher interface {
	PublishLocation(ctx context.Context, update Update) error
}

type LocationService interface {
	Update(ctx context.Context, userID int64, coords Coordinates, address *string) (HistoryEntry, error)
	History(ctx context.Context, userID int64, limit int) ([]HistoryEntry, error)
}

type Service struct {
	store            Store
	publisher        Publisher
	logger           logger.Logger
	geohashPrecision uint
	historyLimit     int
	now              func() time.Time
}

func NewService(store Store, publisher Publisher, log logger.Logger, geohashPrecision uint, historyLimit int) *Service {
	if historyLimit <= 0 || historyLimit > MaxHistory {
		historyLimit = MaxHistory
	}
	return &Service{
		store:            store,
		publisher:        publisher,
		logger:           log,
		geohashPrecision: geohashPrecision,
		historyLimit:     historyLimit,
		now:              time.Now,
	}
}

// Update records a new position for userID and appends it to the history log.
func (s *Service) Update(ctx context.Context, userID int64, coords Coordinates, address *string) (HistoryEntry, error) {
	entry := HistoryEntry{
		UserID:      userID,
		Coordinates: coords,
		Geohash:     Cell(coords, s.geohashPrecision),
		RecordedAt:  s.now().UTC(),
	}

	saved, err := s.store.SaveLocation(ctx, entry, address)
	if err != nil {
		return HistoryEntry{}, fmt.Errorf("failed to save location: %w", err)
	}

	if s.publisher != nil {
		update := Update{
			UserID:     userID,
			Latitude:   coords.Latitude,
			Longitude:  coords.Longitude,
			Geohash:    saved.Geohash,
			RecordedAt: saved.RecordedAt,
		}
		if address != nil {
			update.Address = *address
		}
		// Live delivery is best effort; the position is already stored.
		if err := s.publisher.PublishLocation(ctx, update); err != nil {
			s.logger.Warn("Failed to publish location update", "user_id", userID, "error", err)
		}
	}

	return saved, nil
}

// History returns the most recent entries for userID, newest first.
func (s *Service) History(ctx context.Context, userID int64, limit int) ([]HistoryEntry, error) {
	if limit <= 0 || limit > s.historyLimit {
		limit = s.historyLimit
	}

	entries, err := s.store.LocationHistory(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get location history: %w", err)
	}

	return entries, nil
}
