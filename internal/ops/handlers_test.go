package ops

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"rcord/internal/gateway"
	"rcord/internal/store"
)

func newTestOps(t *testing.T) (*Server, *store.Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "db.json")
	st, err := store.Open(store.Config{Path: path})
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	srv := NewServer(Deps{
		Name:        "RCord Server",
		Version:     "test",
		ControlAddr: "127.0.0.1:8765",
		MediaAddr:   "127.0.0.1:8766",
		Store:       st,
		Registry:    gateway.NewRegistry(st),
		StartedAt:   time.Now(),
	})
	return srv, st, path
}

func TestHealthReflectsStore(t *testing.T) {
	srv, _, path := newTestOps(t)

	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body=%q", rr.Code, http.StatusOK, rr.Body.String())
	}
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("X-Content-Type-Options = %q, want nosniff", got)
	}

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("json.Unmarshal() error = %v, body=%q", err, rr.Body.String())
	}
	if body.Status != "ok" || body.Checks["store"] != "ok" {
		t.Fatalf("health = %+v, want ok", body)
	}

	// Losing the backing file degrades health.
	if err := os.Remove(path); err != nil {
		t.Fatalf("os.Remove() error = %v", err)
	}
	rr = httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("json.Unmarshal() error = %v, body=%q", err, rr.Body.String())
	}
	if body.Status != "degraded" || body.Checks["store"] != "error" {
		t.Fatalf("health = %+v, want degraded", body)
	}
}

func TestServerInfoCountsState(t *testing.T) {
	srv, st, _ := newTestOps(t)

	if _, err := st.RegisterUser("alice", "pw"); err != nil {
		t.Fatalf("RegisterUser() error = %v", err)
	}
	if _, err := st.CreateRoom("general", "alice", ""); err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}

	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/server/info", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body=%q", rr.Code, rr.Body.String())
	}

	var info serverInfoResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &info); err != nil {
		t.Fatalf("json.Unmarshal() error = %v, body=%q", err, rr.Body.String())
	}
	if info.Name != "RCord Server" || info.Version != "test" {
		t.Fatalf("info = %+v", info)
	}
	if info.ControlAddr != "127.0.0.1:8765" || info.MediaAddr != "127.0.0.1:8766" {
		t.Fatalf("info addrs = %q, %q", info.ControlAddr, info.MediaAddr)
	}
	if info.Users != 1 || info.Rooms != 1 || info.Chats != 0 {
		t.Fatalf("info counts = %d users, %d rooms, %d chats", info.Users, info.Rooms, info.Chats)
	}
	if info.OnlineSessions != 0 || info.MediaSessions != 0 {
		t.Fatalf("info sessions = %d, %d, want none", info.OnlineSessions, info.MediaSessions)
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	srv, _, _ := newTestOps(t)

	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "rcord_store_writes_total") {
		t.Fatal("metrics output missing rcord_store_writes_total")
	}
}
