package rstar

import (
	"log/slog"

	"github.com/hupe1980/rstar/codec"
	"github.com/hupe1980/rstar/storage"
)

// Compression selects the payload compression of newly written blocks.
type Compression = storage.Compression

const (
	CompressionNone = storage.CompressionNone
	CompressionLZ4  = storage.CompressionLZ4
	CompressionZSTD = storage.CompressionZSTD
)

type options struct {
	codec            codec.Codec
	metricsCollector MetricsCollector
	logger           *Logger
	blockSize        int
	compression      Compression
	cacheBytes       int64
	maxBufferedNodes int
	maxEntries       int
	recordIndex      bool
	memoryLimit      int64
	ioBytesPerSec    int64
	maxWorkers       int64
}

// Option configures Open.
type Option func(*options)

// WithCodec configures the codec used for metadata blocks of a new DB.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &rstar.BasicMetricsCollector{}
//	db, _ := rstar.Open(ctx, rstar.Memory(), 2, rstar.WithMetricsCollector(metrics))
//	// ... use db ...
//	stats := metrics.GetStats()
//	fmt.Printf("Queries: %d, blocks read: %d\n", stats.QueryCount, stats.BlocksRead)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithBlockSize sets the block size of a new DB. An existing DB keeps its
// stored block size.
func WithBlockSize(n int) Option {
	return func(o *options) {
		o.blockSize = n
	}
}

// WithCompression sets the compression of newly written blocks.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithCacheBytes bounds the decoded block cache. Zero disables caching.
func WithCacheBytes(n int64) Option {
	return func(o *options) {
		o.cacheBytes = n
	}
}

// WithMaxBufferedNodes flushes modified index blocks whenever more than n are
// buffered. Zero buffers until Flush or Close.
func WithMaxBufferedNodes(n int) Option {
	return func(o *options) {
		o.maxBufferedNodes = n
	}
}

// WithMaxEntries sets the node capacity M (at least 3).
func WithMaxEntries(m int) Option {
	return func(o *options) {
		o.maxEntries = m
	}
}

// WithoutRecordIndex skips rebuilding the record id lookup when an existing
// DB is opened. Queries work as usual; Delete only finds records inserted
// since Open.
func WithoutRecordIndex() Option {
	return func(o *options) {
		o.recordIndex = false
	}
}

// WithResourceLimits bounds the cache memory, the concurrent block reads of
// full scans and the bytes per second moved to and from the blob store. Zero
// leaves a limit unset.
func WithResourceLimits(memoryBytes, ioBytesPerSec, maxWorkers int64) Option {
	return func(o *options) {
		o.memoryLimit = memoryBytes
		o.ioBytesPerSec = ioBytesPerSec
		o.maxWorkers = maxWorkers
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		blockSize:        storage.DefaultBlockSize,
		cacheBytes:       storage.DefaultCacheBytes,
		recordIndex:      true,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

// ParseCompression parses "none", "lz4" or "zstd".
func ParseCompression(s string) (Compression, error) {
	c, err := storage.ParseCompression(s)
	if err != nil {
		return CompressionNone, translateError(err)
	}
	return c, nil
}
