// Package session defines the replication contract shared by the sync
// backends: last-writer-wins, whole-snapshot replacement of the product list
// under a short session identifier.
package session

import (
	"context"
	"errors"
	"strings"

	"github.com/bookway/stocktake/internal/domain/models"
)

// ErrSessionNotFound is returned when joining an unknown or expired session.
var ErrSessionNotFound = errors.New("session not found")

// Store is implemented by the relay, mongodb and sqlite backends. All three
// share one consistency model: UpdateSession replaces the entire products
// slice, and concurrent writers are ordered by the backend alone — the later
// write silently discards the earlier one.
type Store interface {
	// CreateSession registers a session snapshot. A colliding identifier
	// overwrites the existing session; identifiers are minted without a
	// uniqueness check.
	CreateSession(ctx context.Context, id string, data models.SessionData) error

	// JoinSession returns the current snapshot, or ErrSessionNotFound.
	JoinSession(ctx context.Context, id string) (models.SessionData, error)

	// UpdateSession replaces the session's product list and bumps its
	// lastUpdated timestamp.
	UpdateSession(ctx context.Context, id string, products []models.ProductRecord) error

	// Subscribe delivers remote product snapshots to fn until the returned
	// disposer is invoked. Backends may echo the subscriber's own writes;
	// callers must be idempotent to that echo. Backends without push delivery
	// return a no-op disposer.
	Subscribe(ctx context.Context, id string, fn func([]models.ProductRecord)) (func(), error)

	Close(ctx context.Context) error
}

// KeyPrefix namespaces session entries in keyed storage.
const KeyPrefix = "stock-session-"

// Key builds the storage key for a session identifier.
func Key(id string) string {
	return KeyPrefix + id
}

// ShareURL builds the payload handed to an out-of-band QR renderer or typed
// on the joining device.
func ShareURL(baseURL, id string) string {
	return strings.TrimSuffix(baseURL, "/") + "/join/" + id
}
