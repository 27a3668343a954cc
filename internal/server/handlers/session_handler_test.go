package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookway/stocktake/internal/domain/models"
	"github.com/bookway/stocktake/internal/server/hub"
)

func newTestEngine() (*gin.Engine, *hub.Hub) {
	gin.SetMode(gin.TestMode)
	h := hub.New(nil)
	handler := NewSessionHandler(h, nil)

	r := gin.New()
	r.POST("/api/sessions", handler.Create)
	r.GET("/api/sessions/:id", handler.Join)
	r.PUT("/api/sessions/:id/products", handler.UpdateProducts)
	r.GET("/api/sessions/:id/events", handler.Events)
	return r, h
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestCreateSessionEndpoint(t *testing.T) {
	engine, h := newTestEngine()

	body := `{"sessionId":"123456","data":{"sessionId":"123456","fileName":"stoc.xlsx","products":[]}}`
	w := doJSON(t, engine, http.MethodPost, "/api/sessions", body)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, h.Len())
}

func TestCreateSessionRejectsMissingID(t *testing.T) {
	engine, _ := newTestEngine()

	w := doJSON(t, engine, http.MethodPost, "/api/sessions", `{"data":{}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJoinSessionEndpoint(t *testing.T) {
	engine, h := newTestEngine()
	h.Create("123456", models.SessionData{
		SessionID: "123456",
		FileName:  "stoc.xlsx",
		Products:  []models.ProductRecord{{ID: "CF280A_0", Code: "CF280A"}},
	})

	w := doJSON(t, engine, http.MethodGet, "/api/sessions/123456", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool               `json:"success"`
		Data    models.SessionData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "stoc.xlsx", resp.Data.FileName)
	require.Len(t, resp.Data.Products, 1)
	assert.Equal(t, "CF280A", resp.Data.Products[0].Code)
}

func TestJoinUnknownSessionEndpoint(t *testing.T) {
	engine, _ := newTestEngine()

	w := doJSON(t, engine, http.MethodGet, "/api/sessions/000000", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Session not found")
}

func TestUpdateProductsEndpoint(t *testing.T) {
	engine, h := newTestEngine()
	h.Create("123456", models.SessionData{SessionID: "123456"})

	body := `{"clientId":"member-1","products":[{"id":"CF280A_0","code":"CF280A","actualStock":3}]}`
	w := doJSON(t, engine, http.MethodPut, "/api/sessions/123456/products", body)
	assert.Equal(t, http.StatusAccepted, w.Code)

	data, ok := h.Join("123456")
	require.True(t, ok)
	require.Len(t, data.Products, 1)
	assert.Equal(t, 3, data.Products[0].ActualStock)
}

func TestUpdateProductsUnknownSession(t *testing.T) {
	engine, _ := newTestEngine()

	w := doJSON(t, engine, http.MethodPut, "/api/sessions/000000/products", `{"products":[]}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEventsUnknownSession(t *testing.T) {
	engine, _ := newTestEngine()

	w := doJSON(t, engine, http.MethodGet, "/api/sessions/000000/events", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEventsStreamDeliversBroadcast(t *testing.T) {
	engine, h := newTestEngine()
	h.Create("123456", models.SessionData{SessionID: "123456"})

	srv := httptest.NewServer(engine)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/sessions/123456/events?client=reader")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	go func() {
		time.Sleep(50 * time.Millisecond)
		h.Update("123456", "writer", []models.ProductRecord{{ID: "a", Code: "CF280A", ActualStock: 1}})
	}()

	buf := make([]byte, 4096)
	deadline := time.Now().Add(3 * time.Second)
	var out string
	for time.Now().Before(deadline) {
		n, err := resp.Body.Read(buf)
		out += string(buf[:n])
		if strings.Contains(out, "products-updated") && strings.Contains(out, "CF280A") {
			return
		}
		if err != nil {
			break
		}
	}
	t.Fatalf("expected products-updated event, got: %q", out)
}
