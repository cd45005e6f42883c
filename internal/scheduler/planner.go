package scheduler

import (
	"log/slog"

	"github.com/roach88/workplan/internal/ir"
)

// Option configures planning and building.
type Option func(*config)

type config struct {
	logger *slog.Logger
}

func newConfig(opts []Option) config {
	cfg := config{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithLogger sets the logger used for planning diagnostics.
// Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Plan groups systems, already in execution order, into batches with a
// single greedy pass. Each system joins the open batch when Check allows it;
// otherwise the open batch is closed and the system starts the next one,
// alone as Solo when it holds a storage that is not thread-mobile.
//
// A system that could not join a non-empty open batch carries the conflict
// that stopped it. The input is not modified and the output depends only on
// the input.
func Plan(systems []ir.SystemInfo, opts ...Option) []ir.BatchInfo {
	cfg := newConfig(opts)

	batches := make([]ir.BatchInfo, 0, 1)
	var open ir.BatchInfo

	for _, s := range systems {
		u := s
		u.Conflict = nil

		conflict := Check(u, open.Systems())
		if conflict == nil {
			open.Parallel = append(open.Parallel, u)
			continue
		}

		if !open.IsEmpty() {
			u.Conflict = conflict
			cfg.logger.Debug("batch closed",
				"batch", len(batches),
				"size", open.Len(),
				"next", u.Name,
				"conflict", conflict.Kind(),
			)
			batches = append(batches, closeBatch(open))
			open = ir.BatchInfo{}
		}

		if _, ok := conflict.(*ir.NotThreadMobileConflict); ok {
			open.Solo = &u
		} else {
			open.Parallel = append(open.Parallel, u)
		}
	}

	if !open.IsEmpty() {
		batches = append(batches, closeBatch(open))
	}
	return batches
}

// closeBatch normalizes an empty parallel set so reports encode it as [].
func closeBatch(b ir.BatchInfo) ir.BatchInfo {
	if b.Parallel == nil {
		b.Parallel = []ir.SystemInfo{}
	}
	return b
}
