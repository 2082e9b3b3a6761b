// Package cli holds the process bootstrap shared by the k-mer commands:
// configuration and flag overrides, logging, the metrics and health server,
// run tracing, and the mapping from errors to exit codes.
package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/tracing"
	"github.com/prometheus/client_golang/prometheus"
)

// Flags are the options every command accepts.
type Flags struct {
	ConfigPath  string
	MetricsPort int
	LogLevel    string
}

func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.ConfigPath, "config", "", "path to config file")
	fs.IntVar(&f.MetricsPort, "metrics", 0, "serve metrics and health probes on this port")
	fs.StringVar(&f.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	return f
}

// LoadConfig reads the config file and applies the common flag overrides.
// Validation is left to the caller once tool-specific flags are applied.
func LoadConfig(f *Flags) (*config.Config, error) {
	cfg, err := config.Load(f.ConfigPath)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrInvalidConfig, apperrors.ExitUsage, "%v", err)
	}
	if f.MetricsPort > 0 {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Port = f.MetricsPort
	}
	if f.LogLevel != "" {
		cfg.Logging.Level = f.LogLevel
	}
	return cfg, nil
}

// Runtime is the process state of one command invocation.
type Runtime struct {
	Tool     string
	RunID    string
	Config   *config.Config
	Metrics  *metrics.Metrics
	Checker  *health.Checker
	Progress *health.Progress

	span     *tracing.Span
	shutdown func(context.Context) error
	logger   *slog.Logger
}

// Start installs the logger, starts the metrics server when enabled, and
// opens the root span of the run.
func Start(ctx context.Context, tool string, cfg *config.Config, routes ...metrics.Route) (context.Context, *Runtime) {
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	r := &Runtime{
		Tool:    tool,
		RunID:   newRunID(),
		Config:  cfg,
		Metrics: metrics.New(prometheus.NewRegistry()),
		Checker: health.NewChecker(),
	}
	r.Progress = health.NewProgress(r.Checker)
	ctx = logger.WithRun(ctx, r.RunID)
	r.logger = logger.FromContext(ctx).With("tool", tool)
	if cfg.Tracing.Enabled {
		ctx, r.span = tracing.StartRun(ctx, tool, r.RunID)
	}
	if cfg.Metrics.Enabled {
		r.shutdown = metrics.StartServer(cfg.Metrics.Port, r.Metrics, r.Progress, routes...)
	}
	r.logger.Info("run started")
	return ctx, r
}

// Phase moves the run to phase and opens a span named after it.
func (r *Runtime) Phase(ctx context.Context, phase health.Phase) (context.Context, *tracing.Span) {
	r.Progress.Set(phase)
	return tracing.StartPhase(ctx, string(phase))
}

// Finish ends the run and returns the process exit code for err.
func (r *Runtime) Finish(err error) int {
	if err != nil {
		r.Progress.Set(health.PhaseFailed)
		r.logger.Error("run failed", "error", err)
	} else {
		r.Progress.Set(health.PhaseDone)
	}
	if r.span != nil {
		r.span.End()
		r.span.Log(r.logger)
	}
	if r.shutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if serr := r.shutdown(ctx); serr != nil {
			r.logger.Warn("metrics server shutdown", "error", serr)
		}
	}
	return apperrors.ExitCode(err)
}

// Usage prints msg and the flag defaults, then exits with ExitUsage.
func Usage(fs *flag.FlagSet, msg string) {
	fmt.Fprintln(os.Stderr, msg)
	fs.PrintDefaults()
	os.Exit(apperrors.ExitUsage)
}

func newRunID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}
