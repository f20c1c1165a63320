package linkowl

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/linkowl/linkowl-go/pkg/attribution"
	"github.com/linkowl/linkowl-go/pkg/config"
	"github.com/linkowl/linkowl-go/pkg/fingerprint"
	"github.com/linkowl/linkowl-go/pkg/metrics"
	"github.com/linkowl/linkowl-go/pkg/storage"
)

// Option configures a Tracker.
type Option func(*Tracker)

// WithConfig shares an existing credentials holder.
func WithConfig(cfg *config.Config) Option {
	return func(t *Tracker) {
		if cfg != nil {
			t.cfg = cfg
		}
	}
}

// WithBaseURL points the tracker at another attribution endpoint, for staging
// or tests. Invalid URLs are ignored.
func WithBaseURL(baseURL string) Option {
	return func(t *Tracker) {
		t.baseURL = baseURL
	}
}

// WithStore sets the key-value store install records are persisted in.
// Default is an in-process MemoryStore, which forgets everything on exit.
func WithStore(s storage.Store) Option {
	return func(t *Tracker) {
		if s != nil {
			t.store = s
		}
	}
}

// WithClient replaces the attribution client, typically with a test double.
func WithClient(b Backend) Option {
	return func(t *Tracker) {
		if b != nil {
			t.backend = b
		}
	}
}

// WithClientOptions passes options to the default attribution client.
// Ignored when WithClient is used.
func WithClientOptions(opts ...attribution.Option) Option {
	return func(t *Tracker) {
		t.clientOpts = append(t.clientOpts, opts...)
	}
}

// WithCollector sets the fingerprint collector, e.g. one wired to the host's
// device info.
func WithCollector(c *fingerprint.Collector) Option {
	return func(t *Tracker) {
		if c != nil {
			t.collector = c
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithMetrics registers Prometheus collectors on reg and feeds them.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(t *Tracker) {
		if reg != nil {
			t.metrics = metrics.New(reg)
		}
	}
}
