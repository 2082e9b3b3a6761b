package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/health"
)

// Route is an extra endpoint mounted beside /metrics.
type Route struct {
	Pattern string
	Handler http.Handler
}

// StartServer serves /metrics and, when progress is non-nil, the liveness
// and readiness probes for the duration of a run.
func StartServer(port int, m *Metrics, progress *health.Progress, routes ...Route) (shutdown func(context.Context) error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	if progress != nil {
		mux.HandleFunc("/health/live", progress.LiveHandler())
		mux.HandleFunc("/health/ready", progress.ReadyHandler())
	}
	for _, r := range routes {
		mux.Handle(r.Pattern, r.Handler)
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><body><h1>K-mer Search Metrics</h1><p><a href="/metrics">/metrics</a></p></body></html>`)
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("metrics server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()

	return server.Shutdown
}
