package storage

import (
	"context"

	"github.com/askwhyharsh/proxipal/internal/location"
	"github.com/askwhyharsh/proxipal/internal/relationship"
	"github.com/askwhyharsh/proxipal/internal/user"
)

// Store is everything the services persist. PostgresClient and MemoryStore
// both implement it.
type Store interface {
	user.Store
	relationship.Store
	location.Store
	SetSuperuser(ctx context.Context, username string, superuser bool) error
	Close() error
}

var (
	_ Store = (*PostgresClient)(nil)
	_ Store = (*MemoryStore)(nil)
)
