package index

import (
	"log/slog"
	"math"
)

type options struct {
	logger     *slog.Logger
	maxEntries int
}

// Option configures a Tree.
type Option func(*options)

// WithLogger sets the logger for structural events (splits, reinsertion,
// root compaction). Defaults to a logger that discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMaxEntries sets the node capacity M. The minimum fill is ceil(M/2) and
// forced reinsertion moves floor(0.3*M) entries. M must be at least 3.
func WithMaxEntries(m int) Option {
	return func(o *options) {
		o.maxEntries = m
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:     slog.New(slog.DiscardHandler),
		maxEntries: DefaultMaxEntries,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

func minEntriesFor(maxEntries int) int {
	return int(math.Ceil(0.5 * float64(maxEntries)))
}

func reinsertCountFor(maxEntries int) int {
	return int(math.Floor(0.3 * float64(maxEntries)))
}
