package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/moviefinder/moviefinder/internal/config"
	"github.com/moviefinder/moviefinder/internal/directory/mock"
	"github.com/moviefinder/moviefinder/internal/logger"
	"github.com/moviefinder/moviefinder/internal/startup"
	"github.com/moviefinder/moviefinder/internal/websocket"
)

type fakeLogs struct {
	entries []logger.LogEntry
}

func (f *fakeLogs) GetRecentLogs() []logger.LogEntry { return f.entries }
func (f *fakeLogs) GetLogFilePath() string           { return "" }

func setupTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := config.Default()
	cfg.Directory.Provider = config.ProviderMock
	cfg.Search.DebounceMs = 0

	dir, err := mock.New(cfg.Search.PageSize)
	if err != nil {
		t.Fatalf("Failed to create mock directory: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := websocket.NewHub(zerolog.Nop())
	go hub.Run(ctx)

	logs := &fakeLogs{entries: []logger.LogEntry{
		{Level: "info", Message: "started"},
		{Level: "warn", Message: "slow directory"},
		{Level: "info", Message: "ready"},
	}}

	server, err := NewServer(cfg, dir, hub, logs, zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	t.Cleanup(func() { _ = server.scheduler.Stop() })
	return server
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	s := setupTestServer(t)

	rec := get(t, s, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("HealthCheck status = %d, want %d", rec.Code, http.StatusOK)
	}

	var response map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response["status"] != "ok" {
		t.Errorf("HealthCheck status = %q, want %q", response["status"], "ok")
	}
}

func TestGetStatus(t *testing.T) {
	s := setupTestServer(t)

	rec := get(t, s, "/api/v1/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("GetStatus status = %d, want %d", rec.Code, http.StatusOK)
	}

	var response map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response["provider"] != "mock" {
		t.Errorf("GetStatus provider = %v, want mock", response["provider"])
	}
	for _, field := range []string{"version", "startTime", "websocketClients"} {
		if _, ok := response[field]; !ok {
			t.Errorf("GetStatus missing %s field", field)
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	s := setupTestServer(t)

	rec := get(t, s, "/api/v1/status")
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("Cache-Control"); !strings.Contains(got, "no-store") {
		t.Errorf("Cache-Control = %q, want no-store", got)
	}
	if rec.Header().Get(echo.HeaderXRequestID) == "" {
		t.Error("missing request id header")
	}
}

func TestMovieRoutes(t *testing.T) {
	s := setupTestServer(t)

	tests := []struct {
		name     string
		path     string
		status   int
		contains string
	}{
		{"search", "/api/v1/movies/search?query=batman", http.StatusOK, `"hasMoreContent":true`},
		{"search second page", "/api/v1/movies/search?query=batman&page=2", http.StatusOK, `"hasMoreContent":false`},
		{"search without query", "/api/v1/movies/search", http.StatusBadRequest, ""},
		{"detail", "/api/v1/movies/tt0096895", http.StatusOK, `"title":"Batman"`},
		{"unknown title", "/api/v1/movies/tt0000000", http.StatusNotFound, ""},
		{"provider status", "/api/v1/movies/status", http.StatusOK, `"name":"mock"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, tt.path)
			if rec.Code != tt.status {
				t.Fatalf("GET %s status = %d, want %d: %s", tt.path, rec.Code, tt.status, rec.Body.String())
			}
			if tt.contains != "" && !strings.Contains(rec.Body.String(), tt.contains) {
				t.Errorf("GET %s body missing %s: %s", tt.path, tt.contains, rec.Body.String())
			}
		})
	}
}

func TestSystemRoutes(t *testing.T) {
	s := setupTestServer(t)

	rec := get(t, s, "/api/v1/system/health")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"directory"`) {
		t.Errorf("system health = %d %s", rec.Code, rec.Body.String())
	}

	rec = get(t, s, "/api/v1/system/tasks")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"directory-health"`) {
		t.Errorf("system tasks = %d %s", rec.Code, rec.Body.String())
	}

	rec = get(t, s, "/api/v1/system/logs?level=info&limit=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("system logs status = %d", rec.Code)
	}
	var entries []logger.LogEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("Failed to parse logs: %v", err)
	}
	if len(entries) != 1 || entries[0].Message != "ready" {
		t.Errorf("logs = %+v, want only the last info entry", entries)
	}

	if rec := get(t, s, "/api/v1/system/logs?limit=-1"); rec.Code != http.StatusBadRequest {
		t.Errorf("negative limit status = %d, want 400", rec.Code)
	}
}

func TestCheckDirectory(t *testing.T) {
	s := setupTestServer(t)

	if err := s.CheckDirectory(context.Background(), fastRetry()); err != nil {
		t.Fatalf("CheckDirectory() error = %v", err)
	}
	if !s.health.IsHealthy("directory", "mock") {
		t.Error("directory should be healthy after a successful check")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupTestServer(t)

	get(t, s, "/api/v1/movies/search?query=matrix")
	rec := get(t, s, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	want := `moviefinder_directory_requests_total{operation="search",outcome="ok"} 1`
	if !strings.Contains(string(body), want) {
		t.Errorf("metrics missing %s", want)
	}
}

func TestWebSocketSearch(t *testing.T) {
	s := setupTestServer(t)
	srv := httptest.NewServer(s.echo)
	defer srv.Close()

	conn, _, err := gws.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	msg := map[string]any{"type": "search:query", "payload": map[string]string{"text": "batman"}}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		if err := conn.SetReadDeadline(deadline); err != nil {
			t.Fatal(err)
		}
		var in struct {
			Type    string `json:"type"`
			Payload struct {
				Status  string            `json:"status"`
				Results []json.RawMessage `json:"results"`
			} `json:"payload"`
		}
		if err := conn.ReadJSON(&in); err != nil {
			t.Fatalf("ReadJSON() error = %v", err)
		}
		if in.Type == "search:state" && in.Payload.Status == "loaded" {
			if len(in.Payload.Results) != 10 {
				t.Errorf("first page has %d results, want 10", len(in.Payload.Results))
			}
			return
		}
	}
}

func fastRetry() startup.RetryConfig {
	return startup.RetryConfig{InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, MaxAttempts: 2, Multiplier: 1}
}
