package api_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/gridtime/gridtime/pkg/api"
	"github.com/gridtime/gridtime/pkg/ledger"
	"github.com/gridtime/gridtime/pkg/logging"
	"github.com/gridtime/gridtime/pkg/settings"
	"github.com/gridtime/gridtime/pkg/store"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestServer(t *testing.T) (*mux.Router, *fakeClock) {
	t.Helper()
	st := store.NewMemoryStore()
	log := logging.NewLogger(logging.ERROR, false)
	log.SetOutput(io.Discard)

	clock := &fakeClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	cache := settings.NewCache(st, 0)
	cache.SetClock(clock.Now)

	engine := ledger.New(st, cache, log)
	engine.SetClock(clock.Now)

	handler := api.NewTimerHandler(engine, log)
	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	return router, clock
}

func doRequest(router *mux.Router, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestStartTimerEndpoint(t *testing.T) {
	router, _ := newTestServer(t)

	w := doRequest(router, "POST", "/documents/client-1/timer/start", `{"description":"support call"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var result ledger.StartResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if result.Segment != "2025-03-10" || result.Start != "09:00:00 AM" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestStartTimerEmptyBody(t *testing.T) {
	router, _ := newTestServer(t)

	w := doRequest(router, "POST", "/documents/client-1/timer/start", "")
	if w.Code != http.StatusOK {
		t.Errorf("empty body should be accepted, got %d: %s", w.Code, w.Body.String())
	}
}

func TestStartTimerConflict(t *testing.T) {
	router, _ := newTestServer(t)

	if w := doRequest(router, "POST", "/documents/client-1/timer/start", ""); w.Code != http.StatusOK {
		t.Fatalf("first start: %d", w.Code)
	}
	w := doRequest(router, "POST", "/documents/client-1/timer/start", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("second start: status = %d, want 409", w.Code)
	}

	var resp struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Kind != "timer_already_running" {
		t.Errorf("kind = %q, want timer_already_running", resp.Kind)
	}
}

func TestStopTimerEndpoint(t *testing.T) {
	router, clock := newTestServer(t)

	if w := doRequest(router, "POST", "/documents/client-1/timer/start", ""); w.Code != http.StatusOK {
		t.Fatalf("start: %d", w.Code)
	}
	clock.Advance(time.Hour + 15*time.Minute + 30*time.Second)

	w := doRequest(router, "POST", "/documents/client-1/timer/stop", "")
	if w.Code != http.StatusOK {
		t.Fatalf("stop: status = %d, body %s", w.Code, w.Body.String())
	}

	var result ledger.StopResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.Duration != "01:15:30" {
		t.Errorf("duration = %q, want 01:15:30", result.Duration)
	}
}

func TestStopTimerWithExplicitEnd(t *testing.T) {
	router, _ := newTestServer(t)

	if w := doRequest(router, "POST", "/documents/client-1/timer/start", ""); w.Code != http.StatusOK {
		t.Fatalf("start: %d", w.Code)
	}

	w := doRequest(router, "POST", "/documents/client-1/timer/stop", `{"end_time":"2025-03-10T10:30:00Z"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("stop: status = %d, body %s", w.Code, w.Body.String())
	}

	var result ledger.StopResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.End != "10:30:00 AM" || result.Duration != "01:30:00" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestStopTimerBadEndTime(t *testing.T) {
	router, _ := newTestServer(t)

	w := doRequest(router, "POST", "/documents/client-1/timer/stop", `{"end_time":"half past ten"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestStopTimerIdle(t *testing.T) {
	router, _ := newTestServer(t)

	w := doRequest(router, "POST", "/documents/client-1/timer/stop", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}

	var resp struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Kind != "no_active_timer" {
		t.Errorf("kind = %q, want no_active_timer", resp.Kind)
	}
}

func TestTimerStatusEndpoint(t *testing.T) {
	router, _ := newTestServer(t)

	w := doRequest(router, "GET", "/documents/client-1/timer", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	var status ledger.Status
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatal(err)
	}
	if status.Running {
		t.Error("fresh document should be idle")
	}

	if w := doRequest(router, "POST", "/documents/client-1/timer/start", ""); w.Code != http.StatusOK {
		t.Fatalf("start: %d", w.Code)
	}
	w = doRequest(router, "GET", "/documents/client-1/timer", "")
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatal(err)
	}
	if !status.Running {
		t.Error("expected running after start")
	}
}

func TestDocumentsAreIndependent(t *testing.T) {
	router, _ := newTestServer(t)

	if w := doRequest(router, "POST", "/documents/client-1/timer/start", ""); w.Code != http.StatusOK {
		t.Fatalf("start client-1: %d", w.Code)
	}
	// A running timer on one document must not block another.
	if w := doRequest(router, "POST", "/documents/client-2/timer/start", ""); w.Code != http.StatusOK {
		t.Errorf("start client-2: status = %d, want 200", w.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestServer(t)

	w := doRequest(router, "GET", "/health", "")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}
