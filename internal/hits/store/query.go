package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/hits"
)

// Querier is satisfied by *Store.
type Querier interface {
	ByQuery(ctx context.Context, queryID string) ([]hits.Record, error)
	GeneCounts(ctx context.Context) (map[string]int64, error)
}

// QueryHandler serves stored hits over HTTP:
//
//	GET /hits?query=<id>   hits of one query
//	GET /hits/genes        hit count per gene
//
// It answers 503 until a Querier is attached.
type QueryHandler struct {
	mu     sync.RWMutex
	q      Querier
	logger *slog.Logger
}

func NewQueryHandler() *QueryHandler {
	return &QueryHandler{logger: slog.Default().With("component", "hit-query-handler")}
}

// Attach sets the backing store once it is connected.
func (h *QueryHandler) Attach(q Querier) {
	h.mu.Lock()
	h.q = q
	h.mu.Unlock()
}

func (h *QueryHandler) querier() Querier {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.q
}

func (h *QueryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	q := h.querier()
	if q == nil {
		h.writeError(w, http.StatusServiceUnavailable, "hit store not connected")
		return
	}

	if r.URL.Path == "/hits/genes" {
		counts, err := q.GeneCounts(r.Context())
		if err != nil {
			h.logger.Error("gene count query failed", "error", err)
			h.writeError(w, http.StatusInternalServerError, "query failed")
			return
		}
		h.writeJSON(w, http.StatusOK, counts)
		return
	}

	id := r.URL.Query().Get("query")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing query parameter")
		return
	}
	recs, err := q.ByQuery(r.Context(), id)
	if err != nil {
		h.logger.Error("hit query failed", "query", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if recs == nil {
		recs = []hits.Record{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"query": id, "hits": recs})
}

func (h *QueryHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *QueryHandler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
