package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"path"
	"slices"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/rstar/blobstore"
	"github.com/hupe1980/rstar/codec"
	"github.com/hupe1980/rstar/index"
	"github.com/hupe1980/rstar/internal/cache"
	"github.com/hupe1980/rstar/model"
)

const (
	indexPrefix = "index/"
	dataPrefix  = "data/"
)

func indexBlobName(id model.NodeID) string { return fmt.Sprintf("index/%012d", id) }

func dataBlobName(id model.BlockID) string { return fmt.Sprintf("data/%012d", id) }

// Stats describes the block store.
type Stats struct {
	BlockSize     int
	Compression   Compression
	IndexBlocks   int64
	DataBlocks    int64
	Records       int64
	BufferedNodes int
	CacheHits     int64
	CacheMisses   int64
	CacheBytes    int64
}

// BlockStore implements index.Store on a blob store.
//
// Node writes are buffered until Flush; data block writes go straight to the
// blob store. BlockStore is safe for concurrent readers alongside a single
// writer.
type BlockStore struct {
	blobs  blobstore.BlobStore
	opts   options
	logger *slog.Logger
	codec  codec.Codec
	cache  cache.BlockCache

	mu       sync.Mutex
	dims     int
	height   int
	nextNode model.NodeID
	nextData model.BlockID
	records  int64
	dirty    map[model.NodeID]*index.Node
	// metaDirty is set when counters or the height changed since the last flush.
	metaDirty bool
}

var _ index.Store = (*BlockStore)(nil)

// Open opens the block store kept in blobs, creating it when blobs holds no
// metadata. dims must match an existing store; zero adopts the stored value.
func Open(ctx context.Context, blobs blobstore.BlobStore, dims int, optFns ...Option) (*BlockStore, error) {
	opts := applyOptions(optFns)
	if opts.blockSize < minBlockSize {
		return nil, fmt.Errorf("%w: block size must be at least %d, got %d", index.ErrInvalidArgument, minBlockSize, opts.blockSize)
	}

	s := &BlockStore{
		blobs:    blobs,
		opts:     opts,
		logger:   opts.logger,
		codec:    opts.codec,
		dims:     dims,
		nextNode: index.RootID + 1,
		nextData: 1,
		dirty:    make(map[model.NodeID]*index.Node),
	}
	if opts.cacheBytes > 0 {
		s.cache = cache.NewShardedLRUBlockCache(opts.cacheBytes, opts.rc)
	}

	var im indexMeta
	c, found, err := readMeta(ctx, blobs, indexMetaName, &im)
	if err != nil {
		return nil, err
	}
	if !found {
		if dims <= 0 {
			return nil, fmt.Errorf("%w: dimensions must be positive for a new store, got %d", index.ErrInvalidArgument, dims)
		}
		s.metaDirty = true
		s.logger.Debug("created block store", "dims", dims, "block_size", opts.blockSize, "compression", opts.compression)
		return s, nil
	}

	if im.Version != metaVersion {
		return nil, fmt.Errorf("%w: unsupported metadata version %d", ErrCorrupt, im.Version)
	}
	if dims > 0 && dims != im.Dims {
		return nil, &index.ErrDimensionMismatch{Expected: im.Dims, Actual: dims}
	}
	if im.BlockSize != opts.blockSize {
		s.logger.Debug("using stored block size", "stored", im.BlockSize, "requested", opts.blockSize)
	}
	s.codec = c
	s.dims = im.Dims
	s.opts.blockSize = im.BlockSize
	s.height = im.Height
	s.nextNode = max(model.NodeID(im.Blocks)+1, index.RootID+1)

	var dm dataMeta
	if _, found, err := readMeta(ctx, blobs, dataMetaName, &dm); err != nil {
		return nil, err
	} else if found {
		s.nextData = model.BlockID(dm.Blocks) + 1
		s.records = dm.Records
	}
	// Data blocks are written through; ids written after the last flush must
	// not be handed out again.
	ids, err := s.DataBlockIDs(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 && ids[len(ids)-1] >= s.nextData {
		s.nextData = ids[len(ids)-1] + 1
		s.metaDirty = true
	}

	s.logger.Debug("opened block store", "dims", s.dims, "height", s.height,
		"nodes", s.nextNode-1, "data_blocks", s.nextData-1)
	return s, nil
}

// Dims returns the dimensionality of stored records.
func (s *BlockStore) Dims() int { return s.dims }

// BlockSize returns the size of every block.
func (s *BlockStore) BlockSize() int { return s.opts.blockSize }

// NodeCapacity returns the largest number of entries a node block holds.
func (s *BlockStore) NodeCapacity() int {
	return (payloadCapacity(s.opts.blockSize) - nodeHeaderSize) / nodeEntrySize(s.dims)
}

// RecordsFit reports whether records fit into one data block.
func (s *BlockStore) RecordsFit(records []model.Record) bool {
	return recordsSize(records) <= payloadCapacity(s.opts.blockSize)
}

// Height returns the recorded tree height, 0 for a store without a root.
func (s *BlockStore) Height(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.height, nil
}

// ReadNode returns the buffered or stored node.
func (s *BlockStore) ReadNode(ctx context.Context, id model.NodeID) (*index.Node, error) {
	s.mu.Lock()
	if n, ok := s.dirty[id]; ok {
		s.mu.Unlock()
		return n.Clone(), nil
	}
	exists := id >= index.RootID && id < s.nextNode && (id != index.RootID || s.height > 0)
	s.mu.Unlock()
	if !exists {
		return nil, fmt.Errorf("%w: node %d", index.ErrNotFound, id)
	}

	payload, err := s.readPayload(ctx, cache.KindIndex, int64(id), kindNode, indexBlobName(id))
	if err != nil {
		return nil, err
	}
	n, err := decodeNode(payload, s.dims)
	if err != nil {
		return nil, fmt.Errorf("%w: node %d: %w", ErrCorrupt, id, err)
	}
	if n.ID != id {
		return nil, fmt.Errorf("%w: block %d holds node %d", ErrCorrupt, id, n.ID)
	}
	return n, nil
}

// WriteNewNode buffers n under a fresh id.
func (s *BlockStore) WriteNewNode(ctx context.Context, n *index.Node) (model.NodeID, error) {
	if err := s.checkNodeFits(n); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextNode
	s.nextNode++
	n.ID = id
	s.dirty[id] = n.Clone()
	s.metaDirty = true
	return id, s.maybeFlushLocked(ctx)
}

// UpdateNode buffers n under its id and records height.
func (s *BlockStore) UpdateNode(ctx context.Context, n *index.Node, height int) error {
	if err := s.checkNodeFits(n); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.ID < index.RootID || n.ID >= s.nextNode {
		return fmt.Errorf("%w: node %d was never allocated", index.ErrNotFound, n.ID)
	}
	s.dirty[n.ID] = n.Clone()
	s.height = height
	s.metaDirty = true
	return s.maybeFlushLocked(ctx)
}

func (s *BlockStore) checkNodeFits(n *index.Node) error {
	if size := nodeSize(len(n.Entries), s.dims); size > payloadCapacity(s.opts.blockSize) {
		return fmt.Errorf("%w: node %d with %d entries needs %d bytes, block holds %d",
			ErrBlockOverflow, n.ID, len(n.Entries), size, payloadCapacity(s.opts.blockSize))
	}
	return nil
}

func (s *BlockStore) maybeFlushLocked(ctx context.Context) error {
	if s.opts.maxBufferedNodes > 0 && len(s.dirty) > s.opts.maxBufferedNodes {
		return s.flushLocked(ctx)
	}
	return nil
}

// ReadDataBlock returns the records of a data block.
func (s *BlockStore) ReadDataBlock(ctx context.Context, id model.BlockID) ([]model.Record, error) {
	if id < 1 {
		return nil, fmt.Errorf("%w: data block %d", index.ErrNotFound, id)
	}
	payload, err := s.readPayload(ctx, cache.KindData, int64(id), kindData, dataBlobName(id))
	if err != nil {
		return nil, err
	}
	records, err := decodeRecords(payload, s.dims)
	if err != nil {
		return nil, fmt.Errorf("%w: data block %d: %w", ErrCorrupt, id, err)
	}
	return records, nil
}

// WriteDataBlock stores records in a fresh data block.
func (s *BlockStore) WriteDataBlock(ctx context.Context, records []model.Record) (model.BlockID, error) {
	if len(records) == 0 {
		return 0, fmt.Errorf("%w: data block without records", index.ErrInvalidArgument)
	}
	payload, err := encodeRecords(records, s.dims)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	id := s.nextData
	s.nextData++
	s.metaDirty = true
	s.mu.Unlock()

	if err := s.writePayload(ctx, cache.KindData, int64(id), kindData, dataBlobName(id), payload); err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.records += int64(len(records))
	s.mu.Unlock()
	return id, nil
}

// DeleteRecordFromBlock rewrites the block without the record. A block left
// empty is removed from the blob store.
func (s *BlockStore) DeleteRecordFromBlock(ctx context.Context, block model.BlockID, id model.RecordID) ([]model.Record, error) {
	records, err := s.ReadDataBlock(ctx, block)
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(records, func(r model.Record) bool { return r.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("%w: record %d in data block %d", index.ErrNotFound, id, block)
	}
	remaining := slices.Delete(records, i, i+1)

	name := dataBlobName(block)
	if len(remaining) == 0 {
		if err := s.blobs.Delete(ctx, name); err != nil {
			return nil, storageErr("delete", name, err)
		}
		if s.cache != nil {
			s.cache.Delete(cache.Key{Kind: cache.KindData, Block: int64(block)})
		}
	} else {
		payload, err := encodeRecords(remaining, s.dims)
		if err != nil {
			return nil, err
		}
		if err := s.writePayload(ctx, cache.KindData, int64(block), kindData, name, payload); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	s.records--
	s.metaDirty = true
	s.mu.Unlock()
	return remaining, nil
}

// DataBlockIDs returns the ids of all stored data blocks in ascending order.
func (s *BlockStore) DataBlockIDs(ctx context.Context) ([]model.BlockID, error) {
	names, err := s.blobs.List(ctx, dataPrefix)
	if err != nil {
		return nil, storageErr("list", dataPrefix, err)
	}
	ids := make([]model.BlockID, 0, len(names))
	for _, name := range names {
		base := path.Base(name)
		if base == "meta" {
			continue
		}
		id, err := strconv.ParseInt(base, 10, 64)
		if err != nil {
			s.logger.Debug("skipping foreign blob", "name", name)
			continue
		}
		ids = append(ids, model.BlockID(id))
	}
	slices.Sort(ids)
	return ids, nil
}

// ScanDataBlocks reads every data block concurrently and calls fn for each.
// Calls to fn are serialized; their order is unspecified. The first error
// stops the scan.
func (s *BlockStore) ScanDataBlocks(ctx context.Context, fn func(model.BlockID, []model.Record) error) error {
	ids, err := s.DataBlockIDs(ctx)
	if err != nil {
		return err
	}

	rc := s.opts.rc
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rc.MaxWorkers())

	var fnMu sync.Mutex
	for _, id := range ids {
		g.Go(func() error {
			if err := rc.AcquireWorker(gctx); err != nil {
				return err
			}
			defer rc.ReleaseWorker()

			records, err := s.ReadDataBlock(gctx, id)
			if err != nil {
				return err
			}
			fnMu.Lock()
			defer fnMu.Unlock()
			return fn(id, records)
		})
	}
	return g.Wait()
}

// Flush writes all buffered nodes and both metadata blocks.
func (s *BlockStore) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked(ctx)
}

func (s *BlockStore) flushLocked(ctx context.Context) error {
	if len(s.dirty) == 0 && !s.metaDirty {
		return nil
	}

	ids := slices.Sorted(maps.Keys(s.dirty))
	items := make([]blobstore.Item, 0, len(ids)+2)
	payloads := make([][]byte, len(ids))
	for i, id := range ids {
		payload, err := encodeNode(s.dirty[id], s.dims)
		if err != nil {
			return err
		}
		frame, err := encodeFrame(kindNode, payload, s.opts.compression, s.opts.blockSize)
		if err != nil {
			return fmt.Errorf("node %d: %w", id, err)
		}
		payloads[i] = payload
		items = append(items, blobstore.Item{Name: indexBlobName(id), Data: frame})
	}

	im, err := encodeMeta(s.codec, indexMeta{
		Version:   metaVersion,
		Dims:      s.dims,
		BlockSize: s.opts.blockSize,
		Blocks:    int64(s.nextNode - 1),
		Height:    s.height,
	}, s.opts.blockSize)
	if err != nil {
		return err
	}
	dm, err := encodeMeta(s.codec, dataMeta{
		Version:   metaVersion,
		Dims:      s.dims,
		BlockSize: s.opts.blockSize,
		Blocks:    int64(s.nextData - 1),
		Records:   s.records,
	}, s.opts.blockSize)
	if err != nil {
		return err
	}
	items = append(items,
		blobstore.Item{Name: dataMetaName, Data: dm},
		blobstore.Item{Name: indexMetaName, Data: im},
	)

	if err := blobstore.PutBatch(ctx, s.blobs, items); err != nil {
		return storageErr("flush", indexPrefix, err)
	}

	if s.cache != nil {
		for i, id := range ids {
			s.cache.Set(ctx, cache.Key{Kind: cache.KindIndex, Block: int64(id)}, payloads[i])
		}
	}
	s.logger.Debug("flushed block store", "nodes", len(ids), "height", s.height)
	clear(s.dirty)
	s.metaDirty = false
	return nil
}

// Stats returns counters of the store.
func (s *BlockStore) Stats() Stats {
	s.mu.Lock()
	st := Stats{
		BlockSize:     s.opts.blockSize,
		Compression:   s.opts.compression,
		IndexBlocks:   int64(s.nextNode - 1),
		DataBlocks:    int64(s.nextData - 1),
		Records:       s.records,
		BufferedNodes: len(s.dirty),
	}
	s.mu.Unlock()
	if s.cache != nil {
		st.CacheHits, st.CacheMisses = s.cache.Stats()
		st.CacheBytes = s.cache.Size()
	}
	return st
}

func (s *BlockStore) readPayload(ctx context.Context, ck cache.Kind, block int64, kind blockKind, name string) ([]byte, error) {
	key := cache.Key{Kind: ck, Block: block}
	if s.cache != nil {
		if payload, ok := s.cache.Get(ctx, key); ok {
			return payload, nil
		}
	}

	buf, err := blobstore.ReadAll(ctx, s.blobs, name)
	if errors.Is(err, blobstore.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s block %d", index.ErrNotFound, kind, block)
	}
	if err != nil {
		return nil, storageErr("read", name, err)
	}
	payload, err := decodeFrame(kind, buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if s.cache != nil {
		s.cache.Set(ctx, key, payload)
	}
	return payload, nil
}

func (s *BlockStore) writePayload(ctx context.Context, ck cache.Kind, block int64, kind blockKind, name string, payload []byte) error {
	frame, err := encodeFrame(kind, payload, s.opts.compression, s.opts.blockSize)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	key := cache.Key{Kind: ck, Block: block}
	if err := s.blobs.Put(ctx, name, frame); err != nil {
		if s.cache != nil {
			s.cache.Delete(key)
		}
		return storageErr("write", name, err)
	}
	if s.cache != nil {
		s.cache.Set(ctx, key, payload)
	}
	return nil
}
