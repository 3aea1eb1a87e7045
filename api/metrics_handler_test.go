package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/y0nigt/pacer/metrics"
)

func TestSnapshotHandler_ReturnsCounters(t *testing.T) {
	recorder := metrics.NewRecorder()
	recorder.OnAcquire("api_action", "send_message--user", 0.25)
	recorder.OnRelease("api_action", "send_message--user", 1, 0, false)

	handler := NewSnapshotHandler(recorder)

	req := httptest.NewRequest(http.MethodGet, "/metrics.json", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, "*")
	}

	var snap metrics.Snapshot
	if err := json.NewDecoder(w.Body).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Acquires != 1 {
		t.Errorf("Acquires = %d, want 1", snap.Acquires)
	}
	if snap.Releases != 1 {
		t.Errorf("Releases = %d, want 1", snap.Releases)
	}
	if len(snap.Limiters) != 1 {
		t.Errorf("len(Limiters) = %d, want 1", len(snap.Limiters))
	}
}

func TestSnapshotHandler_RejectsPost(t *testing.T) {
	handler := NewSnapshotHandler(metrics.NewRecorder())

	req := httptest.NewRequest(http.MethodPost, "/metrics.json", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
}
