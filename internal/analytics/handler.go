package analytics

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type Handler struct {
	stats  *HitStats
	logger *slog.Logger
}

func NewHandler(stats *HitStats) *Handler {
	return &Handler{
		stats:  stats,
		logger: slog.Default().With("component", "hit-stats-handler"),
	}
}

// ServeHTTP writes the current HitSummary as JSON.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(h.stats.Summary()); err != nil {
		h.logger.Error("failed to write hit stats response", "error", err)
	}
}
