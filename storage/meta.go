package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/rstar/blobstore"
	"github.com/hupe1980/rstar/codec"
)

const metaVersion = 1

const (
	indexMetaName = "index/meta"
	dataMetaName  = "data/meta"
)

// indexMeta is the metadata block of the index namespace.
type indexMeta struct {
	Version   int `json:"version" yaml:"version"`
	Dims      int `json:"dims" yaml:"dims"`
	BlockSize int `json:"block_size" yaml:"block_size"`
	// Blocks is the number of node ids handed out, root included.
	Blocks int64 `json:"blocks" yaml:"blocks"`
	Height int   `json:"height" yaml:"height"`
}

// dataMeta is the metadata block of the data namespace.
type dataMeta struct {
	Version   int `json:"version" yaml:"version"`
	Dims      int `json:"dims" yaml:"dims"`
	BlockSize int `json:"block_size" yaml:"block_size"`
	// Blocks is the number of data block ids handed out.
	Blocks  int64 `json:"blocks" yaml:"blocks"`
	Records int64 `json:"records" yaml:"records"`
}

// Metadata payloads carry the codec name on the first line.
func encodeMeta(c codec.Codec, v any, blockSize int) ([]byte, error) {
	body, err := c.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	payload := make([]byte, 0, len(c.Name())+1+len(body))
	payload = append(payload, c.Name()...)
	payload = append(payload, '\n')
	payload = append(payload, body...)
	return encodeFrame(kindMeta, payload, CompressionNone, blockSize)
}

// readMeta loads a metadata block into v and returns the codec it was written
// with. found is false when the block does not exist.
func readMeta(ctx context.Context, blobs blobstore.BlobStore, name string, v any) (c codec.Codec, found bool, err error) {
	buf, err := blobstore.ReadAll(ctx, blobs, name)
	if errors.Is(err, blobstore.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storageErr("read", name, err)
	}
	payload, err := decodeFrame(kindMeta, buf)
	if err != nil {
		return nil, true, fmt.Errorf("%s: %w", name, err)
	}

	nameEnd := bytes.IndexByte(payload, '\n')
	if nameEnd < 0 {
		return nil, true, fmt.Errorf("%w: %s has no codec line", ErrCorrupt, name)
	}
	c, ok := codec.ByName(string(payload[:nameEnd]))
	if !ok {
		return nil, true, fmt.Errorf("%w: %s uses unknown codec %q", ErrCorrupt, name, payload[:nameEnd])
	}
	if err := c.Unmarshal(payload[nameEnd+1:], v); err != nil {
		return nil, true, fmt.Errorf("%w: %s: %w", ErrCorrupt, name, err)
	}
	return c, true, nil
}
