// Package counting drives the device-side workflow: spreadsheet rows in,
// column mapping, the scan/confirm/push loop, and session join for a second
// device. All matching and reconciliation is synchronous; only the sync
// client's network calls leave this process.
package counting

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bookway/stocktake/internal/domain/models"
	"github.com/bookway/stocktake/internal/inventory"
	"github.com/bookway/stocktake/internal/service/syncer"
	"github.com/bookway/stocktake/internal/session"
)

// State is the client-observed session lifecycle.
type State int

const (
	// StateSetup: no working set yet.
	StateSetup State = iota
	// StateMapping: raw rows loaded, column assignment pending.
	StateMapping
	// StateActive: working set exists, scan/confirm/push loop runs.
	StateActive
)

var (
	// ErrNoRows flags an import that produced no rows.
	ErrNoRows = errors.New("no rows loaded")
	// ErrNoProducts flags a column mapping that extracts zero products; the
	// mapping step stays active for correction.
	ErrNoProducts = errors.New("no products extracted with the selected columns")
	// ErrNotActive guards operations that need a working set.
	ErrNotActive = errors.New("no active counting session")
	// ErrNotMapping guards the mapping confirmation.
	ErrNotMapping = errors.New("no rows loaded for mapping")
)

// Service owns one device's counting state. The sync subscription delivers
// remote snapshots through applyRemote on the backend's own goroutine, so the
// working set and lifecycle fields are guarded by a mutex; matching never
// observes a half-applied snapshot.
type Service struct {
	sync   *syncer.Client
	logger *zap.Logger

	mu       sync.Mutex
	state    State
	fileName string
	rawRows  [][]string

	sessionID string
	headers   []string
	mapping   models.ColumnMapping
	products  []models.ProductRecord
	createdAt int64

	onRemote func([]models.ProductRecord)
	now      func() time.Time
}

// NewService builds the workflow service over a sync client.
func NewService(sync *syncer.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		sync:   sync,
		logger: logger,
		state:  StateSetup,
		now:    time.Now,
	}
}

// OnRemoteUpdate registers a callback fired after a remote snapshot replaces
// the working set. The registration survives Reset.
func (s *Service) OnRemoteUpdate(fn func([]models.ProductRecord)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRemote = fn
}

// LoadRows ingests raw spreadsheet rows (row 0 = header) and moves to the
// mapping step.
func (s *Service) LoadRows(rows [][]string, fileName string) error {
	if len(rows) == 0 {
		return ErrNoRows
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.rawRows = rows
	s.fileName = fileName
	s.products = nil
	s.state = StateMapping

	s.logger.Info("rows loaded", zap.String("file", fileName), zap.Int("rows", len(rows)))
	return nil
}

// Headers returns the header row loaded for mapping.
func (s *Service) Headers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.rawRows) == 0 {
		return nil
	}
	return s.rawRows[0]
}

// GuessMapping proposes a default column assignment: first column code,
// second description, third scriptic stock when present.
func (s *Service) GuessMapping() models.ColumnMapping {
	s.mu.Lock()
	defer s.mu.Unlock()

	mapping := models.ColumnMapping{CodeIndex: 0, DescIndex: 1, StockIndex: -1}
	if len(s.rawRows) > 0 && len(s.rawRows[0]) > 2 {
		mapping.StockIndex = 2
	}
	return mapping
}

// StartSession confirms the column mapping, builds the catalog, mints a
// session identifier and registers the session with the backend. A backend
// failure aborts the transition: the mapping step stays active. The
// identifier is minted without a collision check; a still-live session under
// the same identifier is silently overwritten.
func (s *Service) StartSession(ctx context.Context, mapping models.ColumnMapping) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateMapping {
		return "", ErrNotMapping
	}

	products := inventory.MapRowsToProducts(s.rawRows, mapping)
	if len(products) == 0 {
		return "", ErrNoProducts
	}

	id := session.NewID()
	data := models.SessionData{
		SessionID:       id,
		FileName:        s.fileName,
		Products:        products,
		OriginalHeaders: s.rawRows[0],
		ColumnMapping:   mapping,
		CreatedAt:       s.now().UnixMilli(),
	}

	if err := s.sync.Create(ctx, data); err != nil {
		return "", err
	}
	if err := s.sync.Watch(ctx, id, s.applyRemote); err != nil {
		return "", err
	}

	s.sessionID = id
	s.headers = data.OriginalHeaders
	s.mapping = mapping
	s.products = products
	s.createdAt = data.CreatedAt
	s.rawRows = nil
	s.state = StateActive

	s.logger.Info("session started",
		zap.String("session", id),
		zap.Int("products", len(products)))
	return id, nil
}

// JoinSession adopts an existing session's snapshot from the backend and
// enters the scan loop. A failed join leaves the local state untouched.
func (s *Service) JoinSession(ctx context.Context, id string) error {
	data, err := s.sync.Join(ctx, id)
	if err != nil {
		return err
	}
	if err := s.sync.Watch(ctx, id, s.applyRemote); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessionID = data.SessionID
	s.fileName = data.FileName
	s.headers = data.OriginalHeaders
	s.mapping = data.ColumnMapping
	s.products = data.Products
	s.createdAt = data.CreatedAt
	s.state = StateActive

	s.logger.Info("session joined",
		zap.String("session", id),
		zap.Int("products", len(data.Products)))
	return nil
}

// Scan classifies a scanned code against the working set. It never mutates
// state; the mutation happens in Confirm after the operator accepts.
func (s *Service) Scan(code string) (inventory.MatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		return inventory.MatchResult{}, ErrNotActive
	}
	return inventory.Resolve(code, s.products), nil
}

// Confirm applies the confirmed quantity (and description, for new items),
// replaces the working set and pushes the snapshot. The push is
// fire-and-forget: its outcome is observable on the sync client's Results
// channel but never rolls the local mutation back.
func (s *Service) Confirm(match inventory.MatchResult, qty int, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		return ErrNotActive
	}

	s.products = inventory.Confirm(s.products, match, qty, description)
	s.sync.Push(s.sessionID, s.products)
	return nil
}

// Adjust changes one record's counted quantity by delta, clamped at zero,
// and pushes the snapshot.
func (s *Service) Adjust(id string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		return ErrNotActive
	}

	s.products = inventory.Adjust(s.products, id, delta)
	s.sync.Push(s.sessionID, s.products)
	return nil
}

// applyRemote replaces the working set with an incoming snapshot. Replacing
// wholesale makes the echo of our own writes harmless. It runs on the
// backend's delivery goroutine; the callback fires outside the lock so it may
// call back into the service.
func (s *Service) applyRemote(products []models.ProductRecord) {
	s.mu.Lock()
	s.products = products
	fn := s.onRemote
	s.mu.Unlock()

	s.logger.Debug("remote snapshot applied", zap.Int("products", len(products)))
	if fn != nil {
		fn(products)
	}
}

// Search filters the working set by code or description substring.
func (s *Service) Search(term string) []models.ProductRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return inventory.Filter(s.products, term)
}

// Products returns the current working set.
func (s *Service) Products() []models.ProductRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products
}

// Stats summarizes counting progress.
func (s *Service) Stats() models.InventoryStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return inventory.Stats(s.products)
}

// Mapping returns the immutable column assignment of the active session.
func (s *Service) Mapping() models.ColumnMapping {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mapping
}

// OriginalHeaders returns the header row of the source spreadsheet.
func (s *Service) OriginalHeaders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.headers
}

// SessionID returns the active session identifier, empty before ACTIVE.
func (s *Service) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// FileName returns the imported file name.
func (s *Service) FileName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fileName
}

// State returns the current lifecycle state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Reset discards the session and catalog entirely and releases the
// subscription. Records are never deleted individually. The remote-update
// callback survives so a reused service keeps notifying its UI.
func (s *Service) Reset() {
	s.sync.Leave()

	s.mu.Lock()
	s.state = StateSetup
	s.fileName = ""
	s.rawRows = nil
	s.sessionID = ""
	s.headers = nil
	s.mapping = models.ColumnMapping{}
	s.products = nil
	s.createdAt = 0
	s.mu.Unlock()

	s.logger.Info("session reset")
}
