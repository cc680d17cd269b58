package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/fleet-manager/internal/adapter"
	"github.com/yourusername/fleet-manager/internal/config"
	"github.com/yourusername/fleet-manager/internal/store"
	"github.com/yourusername/fleet-manager/internal/websocket"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *adapter.Registry, store.Store) {
	t.Helper()

	cfg := &config.Config{Logging: config.LoggingConfig{Level: "error"}}

	sm, err := config.NewServerManager(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create server manager: %v", err)
	}
	def := config.ServerDefinition{ID: "test-server", Name: "Test Server", Adapter: "mock"}
	if err := sm.Add(def); err != nil {
		t.Fatalf("failed to add server definition: %v", err)
	}

	st := store.NewMemoryStore()
	registry := adapter.NewRegistry()
	registry.Put(def.ID, adapter.NewMockAdapter(def, config.SupervisorConfig{LogBufferSize: 50}, st))

	hub := websocket.NewHub()
	router := SetupRouter(cfg, sm, st, registry, hub)
	return router, registry, st
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestListServers(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	w := doRequest(router, http.MethodGet, "/api/v1/servers", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var response struct {
		Servers []map[string]interface{} `json:"servers"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(response.Servers) != 1 || response.Servers[0]["id"] != "test-server" {
		t.Errorf("unexpected server list: %v", response.Servers)
	}
	if response.Servers[0]["status"] != "stopped" {
		t.Errorf("expected stopped status, got %v", response.Servers[0]["status"])
	}
}

func TestLifecycleEndpoints(t *testing.T) {
	router, registry, st := setupTestRouter(t)

	if w := doRequest(router, http.MethodPost, "/api/v1/servers/test-server/start", ""); w.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w := doRequest(router, http.MethodGet, "/api/v1/servers/test-server/status", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"running"`) {
		t.Fatalf("status: expected running, got %d: %s", w.Code, w.Body.String())
	}

	if w := doRequest(router, http.MethodPost, "/api/v1/servers/test-server/start", ""); w.Code != http.StatusConflict {
		t.Errorf("second start: expected 409, got %d", w.Code)
	}

	if w := doRequest(router, http.MethodPost, "/api/v1/servers/test-server/command", `{"command":"help"}`); w.Code != http.StatusOK {
		t.Errorf("command: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w := doRequest(router, http.MethodPost, "/api/v1/servers/test-server/command", `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("empty command: expected 400, got %d", w.Code)
	}

	if w := doRequest(router, http.MethodGet, "/api/v1/servers/test-server/logs", ""); w.Code != http.StatusOK {
		t.Errorf("logs: expected 200, got %d", w.Code)
	}
	if w := doRequest(router, http.MethodGet, "/api/v1/servers/test-server/metrics", ""); w.Code != http.StatusOK {
		t.Errorf("metrics: expected 200, got %d", w.Code)
	}

	w = doRequest(router, http.MethodGet, "/api/v1/servers/test-server/console/history", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"command":"help"`) {
		t.Errorf("history: expected recorded command, got %d: %s", w.Code, w.Body.String())
	}

	if w := doRequest(router, http.MethodPost, "/api/v1/servers/test-server/kill", ""); w.Code != http.StatusOK {
		t.Fatalf("kill: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	a, _ := registry.Get("test-server")
	if a.GetStatus() != adapter.StatusStopped {
		t.Errorf("expected stopped after kill, got %s", a.GetStatus())
	}
	state, _ := st.GetState("test-server")
	if state.PID != nil {
		t.Errorf("expected persisted pid cleared, got %+v", state)
	}
}

func TestUnknownServerReturns404(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	for _, path := range []string{
		"/api/v1/servers/nope/status",
		"/api/v1/servers/nope/metrics",
		"/api/v1/servers/nope/logs",
	} {
		if w := doRequest(router, http.MethodGet, path, ""); w.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, w.Code)
		}
	}
	if w := doRequest(router, http.MethodPost, "/api/v1/servers/nope/start", ""); w.Code != http.StatusNotFound {
		t.Errorf("start: expected 404, got %d", w.Code)
	}
}
