// Package relay is the broadcast session backend: a thin client of the
// shared relay process. Create and join are request/response exchanges;
// updates are plain writes that the relay re-broadcasts to every other
// member over a server-sent event stream.
package relay

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/bookway/stocktake/internal/domain/models"
	"github.com/bookway/stocktake/internal/session"
)

// Store implements session.Store against the relay HTTP API. Each Store
// carries its own member identity so the relay can skip echoing the writer;
// the connection is owned by this object, never shared process-wide.
type Store struct {
	client   *resty.Client
	stream   *resty.Client
	clientID string
	logger   *zap.Logger
}

// NewStore builds a relay client for the given base URL.
func NewStore(baseURL string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}

	base := strings.TrimSuffix(baseURL, "/")

	restyClient := resty.New()
	restyClient.
		SetBaseURL(base).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	// The event stream stays open for the lifetime of the subscription, so
	// it cannot share the request timeout above.
	streamClient := resty.New()
	streamClient.SetBaseURL(base)

	return &Store{
		client:   restyClient,
		stream:   streamClient,
		clientID: fmt.Sprintf("member-%08x", rand.Uint32()),
		logger:   logger,
	}
}

type apiResponse struct {
	Success bool                `json:"success"`
	Error   string              `json:"error"`
	Data    *models.SessionData `json:"data"`
}

// CreateSession registers the snapshot with the relay.
func (s *Store) CreateSession(ctx context.Context, id string, data models.SessionData) error {
	result := new(apiResponse)

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"sessionId": id, "data": data}).
		SetResult(result).
		SetError(result).
		Post("/api/sessions")
	if err != nil {
		return fmt.Errorf("create session %s: %w", id, err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("create session %s: relay error: %s", id, result.Error)
	}
	return nil
}

// JoinSession looks the session up on the relay.
func (s *Store) JoinSession(ctx context.Context, id string) (models.SessionData, error) {
	result := new(apiResponse)

	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(result).
		SetError(result).
		Get("/api/sessions/" + id)
	if err != nil {
		return models.SessionData{}, fmt.Errorf("join session %s: %w", id, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return models.SessionData{}, session.ErrSessionNotFound
	}
	if resp.StatusCode() >= http.StatusBadRequest || result.Data == nil {
		return models.SessionData{}, fmt.Errorf("join session %s: relay error: %s", id, result.Error)
	}
	return *result.Data, nil
}

// UpdateSession pushes the new product snapshot. The relay broadcasts it to
// every other member of the session.
func (s *Store) UpdateSession(ctx context.Context, id string, products []models.ProductRecord) error {
	result := new(apiResponse)

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"clientId": s.clientID, "products": products}).
		SetResult(result).
		SetError(result).
		Put("/api/sessions/" + id + "/products")
	if err != nil {
		return fmt.Errorf("update session %s: %w", id, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return session.ErrSessionNotFound
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("update session %s: relay error: %s", id, result.Error)
	}
	return nil
}

// Subscribe opens the event stream and delivers every products-updated
// broadcast to fn. The relay does not echo this member's own writes. The
// returned disposer tears the stream down; it must be invoked when leaving
// the session so listeners never accumulate.
func (s *Store) Subscribe(ctx context.Context, id string, fn func([]models.ProductRecord)) (func(), error) {
	streamCtx, cancel := context.WithCancel(ctx)

	resp, err := s.stream.R().
		SetContext(streamCtx).
		SetDoNotParseResponse(true).
		SetQueryParam("client", s.clientID).
		Get("/api/sessions/" + id + "/events")
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe session %s: %w", id, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		resp.RawBody().Close()
		cancel()
		return nil, session.ErrSessionNotFound
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		resp.RawBody().Close()
		cancel()
		return nil, fmt.Errorf("subscribe session %s: relay status %d", id, resp.StatusCode())
	}

	go s.readEvents(streamCtx, id, resp, fn)

	return func() {
		cancel()
		resp.RawBody().Close()
	}, nil
}

func (s *Store) readEvents(ctx context.Context, id string, resp *resty.Response, fn func([]models.ProductRecord)) {
	defer resp.RawBody().Close()

	var event, data string
	scanner := bufio.NewScanner(resp.RawBody())
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		case line == "":
			if event == "products-updated" && data != "" {
				var payload struct {
					Products []models.ProductRecord `json:"products"`
				}
				if err := json.Unmarshal([]byte(data), &payload); err != nil {
					s.logger.Warn("failed to decode broadcast", zap.String("session", id), zap.Error(err))
				} else {
					fn(payload.Products)
				}
			}
			event, data = "", ""
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		s.logger.Warn("event stream closed", zap.String("session", id), zap.Error(err))
	}
}

// ClientID exposes the member identity, primarily for tests.
func (s *Store) ClientID() string {
	return s.clientID
}

func (s *Store) Close(ctx context.Context) error {
	return nil
}
