// Package syncer is the per-device adapter between local state and the
// session store: it pushes snapshots out without blocking the scan loop and
// applies incoming snapshots from the subscription.
package syncer

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bookway/stocktake/internal/domain/models"
	"github.com/bookway/stocktake/internal/session"
)

const pushTimeout = 15 * time.Second

// PushResult reports the outcome of one fire-and-forget snapshot push. A
// failed push never rolls back the local state; it is only observable here.
type PushResult struct {
	SessionID string
	Err       error
}

// Client wraps a session store for one device. The scan/confirm loop stays
// responsive because pushes run in the background; the store remains the
// single arbiter of current truth for joiners.
type Client struct {
	store  session.Store
	logger *zap.Logger

	mu          sync.Mutex
	unsubscribe func()

	results chan PushResult
}

// New builds a sync client over the given backend.
func New(store session.Store, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		store:   store,
		logger:  logger,
		results: make(chan PushResult, 16),
	}
}

// Create registers a new session with the backend. Failure is fatal to the
// transition; the caller stays in its previous state.
func (c *Client) Create(ctx context.Context, data models.SessionData) error {
	return c.store.CreateSession(ctx, data.SessionID, data)
}

// Join fetches the current snapshot for an existing session.
func (c *Client) Join(ctx context.Context, id string) (models.SessionData, error) {
	return c.store.JoinSession(ctx, id)
}

// Push sends the snapshot to the backend in the background and returns
// immediately; the caller has already applied the mutation locally. The
// outcome lands on Results. There is no retry and no rollback.
func (c *Client) Push(id string, products []models.ProductRecord) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		defer cancel()

		err := c.store.UpdateSession(ctx, id, products)
		if err != nil {
			c.logger.Warn("snapshot push failed, keeping local state",
				zap.String("session", id), zap.Error(err))
		}

		select {
		case c.results <- PushResult{SessionID: id, Err: err}:
		default:
			// Nobody is draining results; dropping the oldest outcome is
			// preferable to blocking the push goroutine.
		}
	}()
}

// Results exposes push outcomes for observers and tests.
func (c *Client) Results() <-chan PushResult {
	return c.results
}

// Watch subscribes to remote snapshots for the session, replacing any
// previous subscription so delivery callbacks never accumulate.
func (c *Client) Watch(ctx context.Context, id string, fn func([]models.ProductRecord)) error {
	unsubscribe, err := c.store.Subscribe(ctx, id, fn)
	if err != nil {
		return err
	}

	c.mu.Lock()
	prev := c.unsubscribe
	c.unsubscribe = unsubscribe
	c.mu.Unlock()

	if prev != nil {
		prev()
	}
	return nil
}

// Leave tears down the current subscription, if any. Safe to call twice.
func (c *Client) Leave() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Close leaves the session and releases the backend.
func (c *Client) Close(ctx context.Context) error {
	c.Leave()
	return c.store.Close(ctx)
}
