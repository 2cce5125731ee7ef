// Package ingest packs delimited record lines into data blocks.
package ingest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/hupe1980/rstar/model"
)

// BlockWriter is the part of the block store the loader writes to.
type BlockWriter interface {
	Dims() int
	RecordsFit(records []model.Record) bool
	WriteDataBlock(ctx context.Context, records []model.Record) (model.BlockID, error)
}

// Options configures LoadCSV.
type Options struct {
	// Delimiter separates fields; model.DefaultDelimiter when empty.
	Delimiter string
	// SkipHeader drops the first non-empty line.
	SkipHeader bool
	// MaxRecordsPerBlock caps the records of one block. Zero packs as many as
	// fit.
	MaxRecordsPerBlock int
	Logger             *slog.Logger
}

// Block is one written data block.
type Block struct {
	ID      model.BlockID
	Records []model.Record
}

// Result summarizes a load.
type Result struct {
	Blocks  []Block
	Records int
	Lines   int
}

// LoadCSV parses every line of r and writes the records greedily packed into
// data blocks. Empty lines are skipped. A malformed line aborts the load with
// an error matching model.ErrParse; blocks written before stay in the store.
func LoadCSV(ctx context.Context, r io.Reader, w BlockWriter, opts Options) (Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var (
		res     Result
		pending []model.Record
	)
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		id, err := w.WriteDataBlock(ctx, pending)
		if err != nil {
			return fmt.Errorf("write data block: %w", err)
		}
		res.Blocks = append(res.Blocks, Block{ID: id, Records: pending})
		res.Records += len(pending)
		pending = nil
		return nil
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	header := opts.SkipHeader
	for sc.Scan() {
		res.Lines++
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if header {
			header = false
			continue
		}

		rec, err := model.ParseRecord(line, opts.Delimiter, w.Dims())
		if err != nil {
			return res, fmt.Errorf("line %d: %w", res.Lines, err)
		}

		full := opts.MaxRecordsPerBlock > 0 && len(pending) >= opts.MaxRecordsPerBlock
		if full || (len(pending) > 0 && !w.RecordsFit(append(pending, rec))) {
			if err := flush(); err != nil {
				return res, err
			}
		}
		pending = append(pending, rec)
	}
	if err := sc.Err(); err != nil {
		return res, fmt.Errorf("read input: %w", err)
	}
	if err := flush(); err != nil {
		return res, err
	}

	logger.Info("ingested records", "records", res.Records, "blocks", len(res.Blocks), "lines", res.Lines)
	return res, nil
}
