package storage

import (
	"log/slog"

	"github.com/hupe1980/rstar/codec"
	"github.com/hupe1980/rstar/internal/resource"
)

const (
	// DefaultBlockSize is the size of every index and data block.
	DefaultBlockSize = 32 * 1024

	// DefaultCacheBytes bounds the decoded block cache.
	DefaultCacheBytes = 8 << 20

	minBlockSize = 512
)

type options struct {
	blockSize        int
	compression      Compression
	cacheBytes       int64
	maxBufferedNodes int
	logger           *slog.Logger
	rc               *resource.Controller
	codec            codec.Codec
}

// Option configures a BlockStore.
type Option func(*options)

// WithBlockSize sets the block size of a new store. Existing stores keep the
// block size recorded in their metadata.
func WithBlockSize(n int) Option {
	return func(o *options) {
		o.blockSize = n
	}
}

// WithCompression sets the payload compression of newly written blocks.
// Blocks written with another compression stay readable.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithCacheBytes bounds the block cache. Zero disables caching.
func WithCacheBytes(n int64) Option {
	return func(o *options) {
		o.cacheBytes = n
	}
}

// WithMaxBufferedNodes flushes the node buffer whenever it holds more than n
// nodes. Zero keeps every node buffered until Flush.
func WithMaxBufferedNodes(n int) Option {
	return func(o *options) {
		o.maxBufferedNodes = n
	}
}

// WithLogger sets the logger. Defaults to a logger that discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithResourceController shares memory, worker and IO limits with other
// components.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithCodec sets the metadata codec of a new store.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		blockSize:  DefaultBlockSize,
		cacheBytes: DefaultCacheBytes,
		logger:     slog.New(slog.DiscardHandler),
		codec:      codec.Default,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.rc == nil {
		o.rc = resource.NewController(resource.Config{})
	}
	return o
}
