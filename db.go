package rstar

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/hupe1980/rstar/blobstore"
	"github.com/hupe1980/rstar/index"
	"github.com/hupe1980/rstar/internal/ingest"
	"github.com/hupe1980/rstar/internal/query"
	"github.com/hupe1980/rstar/internal/resource"
	"github.com/hupe1980/rstar/model"
	"github.com/hupe1980/rstar/storage"
)

// Record is a named point.
type Record = model.Record

// RecordID identifies a record.
type RecordID = model.RecordID

// Neighbor is a k-NN result.
type Neighbor struct {
	Record   Record
	Distance float64
}

// QueryStats counts the blocks an indexed query read.
type QueryStats struct {
	NodesRead  int
	BlocksRead int
}

// Stats describes the tree and its storage.
type Stats struct {
	Tree    index.Stats
	Storage storage.Stats
}

// LoadOptions configures Load.
type LoadOptions struct {
	// Delimiter separates fields; "," when empty.
	Delimiter string
	// SkipHeader drops the first non-empty line.
	SkipHeader bool
	// MaxRecordsPerBlock caps the records per data block; zero fills blocks.
	MaxRecordsPerBlock int
	// Bulk rebuilds the whole tree with STR after loading instead of inserting
	// the new blocks one by one.
	Bulk bool
}

// LoadResult summarizes a Load.
type LoadResult struct {
	Records int
	Blocks  int
}

// DB is an R*-tree over named points kept in fixed-size blocks.
//
// Mutations are serialized; queries run concurrently with each other.
type DB struct {
	mu      sync.RWMutex
	backend Backend
	blobs   blobstore.BlobStore
	store   *storage.BlockStore
	tree    *index.Tree
	logger  *Logger
	metrics MetricsCollector
	closed  bool
}

// Open opens the DB kept in backend, creating it when the backend is empty.
// dims is required for a new DB; zero adopts the dimensionality of an
// existing one.
func Open(ctx context.Context, backend Backend, dims int, optFns ...Option) (*DB, error) {
	opts := applyOptions(optFns)

	blobs, err := backend.open(ctx)
	if err != nil {
		return nil, translateError(fmt.Errorf("%w: open %s backend: %w", index.ErrStorage, backend, err))
	}

	rc := resource.NewController(resource.Config{
		MemoryLimitBytes:   opts.memoryLimit,
		MaxWorkers:         opts.maxWorkers,
		IOLimitBytesPerSec: opts.ioBytesPerSec,
	})
	var wrapped blobstore.BlobStore = blobs
	if rc.HasIOLimit() {
		wrapped = blobstore.NewRateLimitedStore(blobs, rc)
	}

	store, err := storage.Open(ctx, wrapped, dims,
		storage.WithBlockSize(opts.blockSize),
		storage.WithCompression(opts.compression),
		storage.WithCacheBytes(opts.cacheBytes),
		storage.WithMaxBufferedNodes(opts.maxBufferedNodes),
		storage.WithLogger(opts.logger.Logger),
		storage.WithResourceController(rc),
		storage.WithCodec(opts.codec),
	)
	if err != nil {
		_ = closeBlobs(backend, blobs)
		return nil, translateError(err)
	}

	treeOpts := []index.Option{index.WithLogger(opts.logger.Logger)}
	if opts.maxEntries > 0 {
		if opts.maxEntries > store.NodeCapacity() {
			_ = closeBlobs(backend, blobs)
			return nil, fmt.Errorf("%w: max entries %d exceed the %d entries of a %d byte block",
				ErrInvalidArgument, opts.maxEntries, store.NodeCapacity(), store.BlockSize())
		}
		treeOpts = append(treeOpts, index.WithMaxEntries(opts.maxEntries))
	}
	tree, err := index.New(ctx, store, store.Dims(), treeOpts...)
	if err != nil {
		_ = closeBlobs(backend, blobs)
		return nil, translateError(err)
	}
	if opts.recordIndex {
		if err := tree.RebuildRecordIndex(ctx); err != nil {
			_ = closeBlobs(backend, blobs)
			return nil, translateError(err)
		}
	}

	opts.logger.InfoContext(ctx, "opened db",
		"backend", backend,
		"dims", tree.Dims(),
		"height", tree.Height(),
		"records", tree.Records().Len(),
	)
	return &DB{
		backend: backend,
		blobs:   blobs,
		store:   store,
		tree:    tree,
		logger:  opts.logger,
		metrics: opts.metricsCollector,
	}, nil
}

// Dims returns the dimensionality of the records.
func (db *DB) Dims() int { return db.tree.Dims() }

// Len returns the number of indexed records.
func (db *DB) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.tree.Records().Len()
}

// Insert stores rec in a new data block and indexes it.
func (db *DB) Insert(ctx context.Context, rec Record) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return ErrClosed
	}

	start := time.Now()
	err := translateError(db.tree.Insert(ctx, rec))
	db.metrics.RecordInsert(time.Since(start), err)
	db.logger.LogInsert(ctx, int64(rec.ID), err)
	return err
}

// Delete removes the record with id from its data block and the tree.
func (db *DB) Delete(ctx context.Context, id RecordID) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return ErrClosed
	}

	start := time.Now()
	err := translateError(db.tree.Delete(ctx, id))
	db.metrics.RecordDelete(time.Since(start), err)
	db.logger.LogDelete(ctx, int64(id), err)
	return err
}

// Get returns the indexed record with id.
func (db *DB) Get(ctx context.Context, id RecordID) (Record, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return Record{}, ErrClosed
	}

	block, ok := db.tree.Records().Get(id)
	if !ok {
		return Record{}, fmt.Errorf("%w: record %d", ErrNotFound, id)
	}
	recs, err := db.store.ReadDataBlock(ctx, block)
	if err != nil {
		return Record{}, translateError(err)
	}
	for _, r := range recs {
		if r.ID == id {
			return r, nil
		}
	}
	return Record{}, fmt.Errorf("%w: record %d not in data block %d", ErrNotFound, id, block)
}

// Load reads record lines from r into new data blocks and indexes them.
func (db *DB) Load(ctx context.Context, r io.Reader, opts LoadOptions) (LoadResult, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return LoadResult{}, ErrClosed
	}

	start := time.Now()
	res, err := ingest.LoadCSV(ctx, r, db.store, ingest.Options{
		Delimiter:          opts.Delimiter,
		SkipHeader:         opts.SkipHeader,
		MaxRecordsPerBlock: opts.MaxRecordsPerBlock,
		Logger:             db.logger.Logger,
	})
	if err != nil {
		return LoadResult{Records: res.Records, Blocks: len(res.Blocks)}, translateError(err)
	}
	out := LoadResult{Records: res.Records, Blocks: len(res.Blocks)}

	if opts.Bulk {
		_, err = db.bulkLoadLocked(ctx, start)
		return out, err
	}

	for _, b := range res.Blocks {
		if err = db.tree.InsertBlock(ctx, b.ID, b.Records); err != nil {
			break
		}
	}
	err = translateError(err)
	db.metrics.RecordBuild(res.Records, time.Since(start), err)
	db.logger.LogBuild(ctx, "incremental", res.Records, db.tree.Height(), time.Since(start), err)
	return out, err
}

// BulkLoad replaces the tree with one packed by Sort-Tile-Recursive over
// every data block in the store. It returns the number of records indexed.
func (db *DB) BulkLoad(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return 0, ErrClosed
	}
	return db.bulkLoadLocked(ctx, time.Now())
}

func (db *DB) bulkLoadLocked(ctx context.Context, start time.Time) (int, error) {
	var (
		mu    sync.Mutex
		pairs []index.BlockRecord
	)
	err := db.store.ScanDataBlocks(ctx, func(id model.BlockID, recs []model.Record) error {
		mu.Lock()
		defer mu.Unlock()
		for _, r := range recs {
			pairs = append(pairs, index.BlockRecord{Record: r, Block: id})
		}
		return nil
	})
	if err == nil {
		// Blocks arrive in any order; keep the load reproducible.
		slices.SortStableFunc(pairs, func(a, b index.BlockRecord) int {
			return cmp.Compare(a.Block, b.Block)
		})
		err = db.tree.BulkLoad(ctx, pairs)
	}
	if err == nil {
		err = db.tree.Flush(ctx)
	}
	err = translateError(err)
	db.metrics.RecordBuild(len(pairs), time.Since(start), err)
	db.logger.LogBuild(ctx, "bulk", len(pairs), db.tree.Height(), time.Since(start), err)
	if err != nil {
		return 0, err
	}
	return len(pairs), nil
}

// Build inserts every data block whose records are not yet indexed, one leaf
// entry per block. It returns the number of records indexed.
func (db *DB) Build(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return 0, ErrClosed
	}

	start := time.Now()
	n, err := db.buildLocked(ctx)
	err = translateError(err)
	db.metrics.RecordBuild(n, time.Since(start), err)
	db.logger.LogBuild(ctx, "incremental", n, db.tree.Height(), time.Since(start), err)
	return n, err
}

func (db *DB) buildLocked(ctx context.Context) (int, error) {
	ids, err := db.store.DataBlockIDs(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, id := range ids {
		recs, err := db.store.ReadDataBlock(ctx, id)
		if err != nil {
			return n, err
		}
		if len(recs) == 0 || db.tree.Records().Has(recs[0].ID) {
			continue
		}
		if err := db.tree.InsertBlock(ctx, id, recs); err != nil {
			return n, err
		}
		n += len(recs)
	}
	return n, db.tree.Flush(ctx)
}

// Range returns the records inside the box spanned by lower and upper,
// boundaries included, ordered by id.
func (db *DB) Range(ctx context.Context, lower, upper []float64) ([]Record, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return nil, ErrClosed
	}

	start := time.Now()
	var (
		res []Record
		qs  query.Stats
	)
	box, err := query.BoxFromCorners(lower, upper)
	if err == nil {
		res, qs, err = query.Range(ctx, db.store, box)
	}
	sortByID(res)
	return res, db.finishQuery(ctx, QueryRange, len(res), qs, start, err)
}

// LinearRange answers Range by scanning every data block.
func (db *DB) LinearRange(ctx context.Context, lower, upper []float64) ([]Record, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return nil, ErrClosed
	}

	start := time.Now()
	var res []Record
	box, err := query.BoxFromCorners(lower, upper)
	if err == nil {
		res, err = query.LinearRange(ctx, db.store, box)
	}
	sortByID(res)
	return res, db.finishQuery(ctx, QueryLinearRange, len(res), query.Stats{}, start, err)
}

// KNN returns the k records nearest to point by Euclidean distance, nearest
// first. Ties are broken by record id.
func (db *DB) KNN(ctx context.Context, point []float64, k int) ([]Neighbor, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return nil, ErrClosed
	}

	if k < 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidK, k)
	}
	start := time.Now()
	res, qs, err := query.KNN(ctx, db.store, point, k)
	out := toNeighbors(res)
	return out, db.finishQuery(ctx, QueryKNN, len(out), qs, start, err)
}

// LinearKNN answers KNN by scanning every data block.
func (db *DB) LinearKNN(ctx context.Context, point []float64, k int) ([]Neighbor, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return nil, ErrClosed
	}

	if k < 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidK, k)
	}
	start := time.Now()
	res, err := query.LinearKNN(ctx, db.store, point, k)
	out := toNeighbors(res)
	return out, db.finishQuery(ctx, QueryLinearKNN, len(out), query.Stats{}, start, err)
}

// Skyline returns the records no other record dominates, where smaller is
// better in every dimension, ordered by id.
func (db *DB) Skyline(ctx context.Context) ([]Record, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return nil, ErrClosed
	}

	start := time.Now()
	res, qs, err := query.Skyline(ctx, db.store)
	sortByID(res)
	return res, db.finishQuery(ctx, QuerySkyline, len(res), qs, start, err)
}

// LinearSkyline answers Skyline by scanning every data block.
func (db *DB) LinearSkyline(ctx context.Context) ([]Record, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return nil, ErrClosed
	}

	start := time.Now()
	res, err := query.LinearSkyline(ctx, db.store)
	sortByID(res)
	return res, db.finishQuery(ctx, QueryLinearSkyline, len(res), query.Stats{}, start, err)
}

func (db *DB) finishQuery(ctx context.Context, kind QueryKind, results int, qs query.Stats, start time.Time, err error) error {
	err = translateError(err)
	stats := QueryStats{NodesRead: qs.NodesRead, BlocksRead: qs.BlocksRead}
	elapsed := time.Since(start)
	db.metrics.RecordQuery(kind, stats, elapsed, err)
	db.logger.LogQuery(ctx, kind, results, stats, elapsed, err)
	return err
}

// Stats walks the tree and reports its shape together with storage counters.
func (db *DB) Stats(ctx context.Context) (Stats, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return Stats{}, ErrClosed
	}

	ts, err := db.tree.Stats(ctx)
	if err != nil {
		return Stats{}, translateError(err)
	}
	return Stats{Tree: ts, Storage: db.store.Stats()}, nil
}

// Validate checks the structural invariants of the tree. A violation is
// reported as an error matching ErrInvariant.
func (db *DB) Validate(ctx context.Context) error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return ErrClosed
	}
	return translateError(db.tree.Validate(ctx))
}

// Flush writes buffered index blocks and metadata.
func (db *DB) Flush(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return ErrClosed
	}
	return translateError(db.tree.Flush(ctx))
}

// Close flushes the DB and releases the backend. Closing twice is a no-op.
func (db *DB) Close(ctx context.Context) error {
	if db == nil {
		return nil
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return nil
	}
	db.closed = true

	var firstErr error
	if err := db.tree.Flush(ctx); err != nil {
		firstErr = translateError(err)
	}
	if err := closeBlobs(db.backend, db.blobs); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("%w: close backend: %w", ErrStorage, err)
	}
	return firstErr
}

func sortByID(recs []Record) {
	slices.SortFunc(recs, func(a, b Record) int { return cmp.Compare(a.ID, b.ID) })
}

func toNeighbors(res []query.Neighbor) []Neighbor {
	if res == nil {
		return nil
	}
	out := make([]Neighbor, len(res))
	for i, n := range res {
		out[i] = Neighbor{Record: n.Record, Distance: n.Distance}
	}
	return out
}
