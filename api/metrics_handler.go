package api

import (
	"encoding/json"
	"net/http"

	"github.com/y0nigt/pacer/metrics"
)

// SnapshotProvider defines the interface for reading aggregated counters.
type SnapshotProvider interface {
	GetSnapshot() *metrics.Snapshot
}

// SnapshotHandler handles GET /metrics.json requests.
type SnapshotHandler struct {
	provider SnapshotProvider
}

// NewSnapshotHandler creates a new snapshot handler.
func NewSnapshotHandler(provider SnapshotProvider) *SnapshotHandler {
	return &SnapshotHandler{provider: provider}
}

// ServeHTTP handles the snapshot endpoint
func (h *SnapshotHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snapshot := h.provider.GetSnapshot()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*") // Allow dashboard to fetch
	json.NewEncoder(w).Encode(snapshot)
}
