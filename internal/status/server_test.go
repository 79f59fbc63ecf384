package status

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/vostok/internal/connection"
	"github.com/danmuck/vostok/internal/testutil/testlog"
)

type fixedSnapshot struct {
	snap connection.Snapshot
}

func (f *fixedSnapshot) Snapshot() connection.Snapshot { return f.snap }

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestHealthAndReadiness(t *testing.T) {
	testlog.Start(t)
	src := &fixedSnapshot{snap: connection.Snapshot{State: "disconnected"}}
	s := New("127.0.0.1:0", src, nil)

	if rr := get(t, s, "/health"); rr.Code != http.StatusOK {
		t.Fatalf("health status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr := get(t, s, "/ready")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 while disconnected, got %d", rr.Code)
	}

	src.snap = connection.Snapshot{State: "connected", Addr: "10.0.0.2:1961", ConnectedAt: time.Now()}
	rr = get(t, s, "/ready")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 while connected, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode ready body: %v", err)
	}
	if body["ready"] != true || body["state"] != "connected" {
		t.Fatalf("unexpected ready body: %#v", body)
	}
}

func TestStatusReportsSnapshot(t *testing.T) {
	testlog.Start(t)
	src := &fixedSnapshot{snap: connection.Snapshot{State: "connected", Addr: "ship:1961", Prompt: "Yuri@Восток:", Queued: 2}}
	s := New("127.0.0.1:0", src, []string{"http://example.test"})

	rr := get(t, s, "/status")
	if rr.Code != http.StatusOK {
		t.Fatalf("status code=%d", rr.Code)
	}
	var snap connection.Snapshot
	if err := json.Unmarshal(rr.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Addr != "ship:1961" || snap.Prompt != "Yuri@Восток:" || snap.Queued != 2 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestMetricsEndpointExposesClientMetrics(t *testing.T) {
	testlog.Start(t)
	s := New("127.0.0.1:0", &fixedSnapshot{snap: connection.Snapshot{State: "disconnected"}}, nil)
	_ = get(t, s, "/health")

	rr := get(t, s, "/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics code=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "vostok_http_requests_total") {
		t.Fatalf("metrics body missing http counter")
	}
}

func TestTokenGuardsStatusButNotHealth(t *testing.T) {
	testlog.Start(t)
	s := New("127.0.0.1:0", &fixedSnapshot{snap: connection.Snapshot{State: "disconnected"}}, nil, WithToken("s3cret"))

	if rr := get(t, s, "/health"); rr.Code != http.StatusOK {
		t.Fatalf("health must stay open, got %d", rr.Code)
	}
	if rr := get(t, s, "/status"); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rr.Code)
	}
}
