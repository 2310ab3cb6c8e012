// Package exporters writes collected metrics out of process.
package exporters

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultTextfileInterval is used when no interval is configured.
const DefaultTextfileInterval = 15 * time.Second

// Textfile periodically writes all registered metrics in the text exposition
// format, for pickup by node_exporter's textfile collector.
type Textfile struct {
	path     string
	interval time.Duration
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// NewTextfile creates an exporter writing the default registry to path.
func NewTextfile(path string, interval time.Duration, logger *slog.Logger) *Textfile {
	if interval <= 0 {
		interval = DefaultTextfileInterval
	}
	return &Textfile{
		path:     path,
		interval: interval,
		gatherer: prometheus.DefaultGatherer,
		logger:   logger,
	}
}

// WithGatherer replaces the source registry.
func (t *Textfile) WithGatherer(g prometheus.Gatherer) *Textfile {
	t.gatherer = g
	return t
}

// WriteOnce gathers and writes the file atomically.
func (t *Textfile) WriteOnce() error {
	return prometheus.WriteToTextfile(t.path, t.gatherer)
}

// Run writes the file every interval until ctx is done, then writes a final
// snapshot.
func (t *Textfile) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.logger.Info("Metrics textfile exporter started", "path", t.path, "interval", t.interval)
	for {
		select {
		case <-ctx.Done():
			if err := t.WriteOnce(); err != nil {
				t.logger.Warn("Final metrics write failed", "path", t.path, "error", err)
			}
			return
		case <-ticker.C:
			if err := t.WriteOnce(); err != nil {
				t.logger.Warn("Metrics write failed", "path", t.path, "error", err)
			}
		}
	}
}
