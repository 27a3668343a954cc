// Package hub holds the relay's in-memory session state. The relay keeps no
// persistence; a restart loses every session.
package hub

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bookway/stocktake/internal/domain/models"
)

// Subscriber channels are buffered so one slow reader cannot stall a
// broadcast; a full buffer drops the older snapshot, which is safe under
// whole-snapshot replacement.
const subscriberBuffer = 8

type memberSession struct {
	data        models.SessionData
	subscribers map[string]chan []models.ProductRecord
}

// Hub is the relay's session registry and broadcast fan-out.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]*memberSession
	logger   *zap.Logger
}

// New creates an empty hub.
func New(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		sessions: make(map[string]*memberSession),
		logger:   logger,
	}
}

// Create registers a session snapshot, overwriting any session already held
// under the same identifier. Existing subscribers survive the overwrite.
func (h *Hub) Create(id string, data models.SessionData) {
	h.mu.Lock()
	defer h.mu.Unlock()

	data.LastUpdated = time.Now().UnixMilli()
	if existing, ok := h.sessions[id]; ok {
		h.logger.Warn("session identifier collision, overwriting", zap.String("session", id))
		existing.data = data
		return
	}

	h.sessions[id] = &memberSession{
		data:        data,
		subscribers: make(map[string]chan []models.ProductRecord),
	}
	h.logger.Info("session created", zap.String("session", id))
}

// Join returns the current snapshot for the session.
func (h *Hub) Join(id string) (models.SessionData, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sess, ok := h.sessions[id]
	if !ok {
		return models.SessionData{}, false
	}
	return sess.data, true
}

// Update replaces the session's product list and broadcasts the new snapshot
// to every subscriber except the writer.
func (h *Hub) Update(id, writerID string, products []models.ProductRecord) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	sess, ok := h.sessions[id]
	if !ok {
		return false
	}

	sess.data.Products = products
	sess.data.LastUpdated = time.Now().UnixMilli()

	for clientID, ch := range sess.subscribers {
		if clientID == writerID {
			continue
		}
		select {
		case ch <- products:
		default:
			// Buffer full: evict the stale snapshot and deliver the newest.
			select {
			case <-ch:
			default:
			}
			ch <- products
		}
	}

	h.logger.Debug("products updated",
		zap.String("session", id),
		zap.String("writer", writerID),
		zap.Int("products", len(products)))
	return true
}

// Subscribe registers a member for broadcasts. The returned disposer removes
// the subscription and closes the channel; calling it more than once is safe.
func (h *Hub) Subscribe(id, clientID string) (<-chan []models.ProductRecord, func(), bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sess, ok := h.sessions[id]
	if !ok {
		return nil, nil, false
	}

	ch := make(chan []models.ProductRecord, subscriberBuffer)
	sess.subscribers[clientID] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sess, ok := h.sessions[id]; ok {
			if cur, ok := sess.subscribers[clientID]; ok && cur == ch {
				delete(sess.subscribers, clientID)
				close(ch)
			}
		}
	}
	return ch, cancel, true
}

// CleanupExpired drops sessions created more than maxAge ago, closing their
// subscriber channels, and reports how many were swept.
func (h *Hub) CleanupExpired(ctx context.Context, maxAge time.Duration) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cutoff := time.Now().Add(-maxAge).UnixMilli()
	swept := 0
	for id, sess := range h.sessions {
		if sess.data.CreatedAt >= cutoff {
			continue
		}
		for clientID, ch := range sess.subscribers {
			delete(sess.subscribers, clientID)
			close(ch)
		}
		delete(h.sessions, id)
		swept++
		h.logger.Info("expired session removed", zap.String("session", id))
	}
	return swept, nil
}

// Len reports the number of live sessions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}
