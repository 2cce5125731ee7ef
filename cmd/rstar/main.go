// Command rstar loads, queries and inspects an R*-tree spatial index.
//
// Usage:
//
//	rstar [-config rstar.yaml] <command> [flags]
//
// Commands:
//
//	load     -file records.csv [-bulk] [-max-per-block n]
//	insert   -id 7 -name Athens -coords 37.98,23.72
//	delete   -id 7
//	range    -lower 35,20 -upper 40,25 [-linear]
//	knn      -point 38,23 -k 5 [-linear]
//	skyline  [-linear]
//	stats
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/rstar"
	"github.com/hupe1980/rstar/codec"
	"github.com/hupe1980/rstar/internal/config"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "rstar:", err)
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: rstar [-config file] <load|insert|delete|range|knn|skyline|stats> [flags]")
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	global := flag.NewFlagSet("rstar", flag.ContinueOnError)
	global.SetOutput(stderr)
	configPath := global.String("config", "", "path to the YAML configuration")
	global.Usage = func() {
		usage(stderr)
		global.PrintDefaults()
	}
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return flag.ErrHelp
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	cmd, cmdArgs := global.Arg(0), global.Args()[1:]
	c, ok := commands[cmd]
	if !ok {
		usage(stderr)
		return fmt.Errorf("unknown command %q", cmd)
	}

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	exec := c(fs)
	if err := fs.Parse(cmdArgs); err != nil {
		return err
	}

	db, err := openDB(ctx, cfg, stderr)
	if err != nil {
		return err
	}
	runErr := exec(ctx, &env{db: db, cfg: cfg, out: stdout})
	if err := db.Close(ctx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func openDB(ctx context.Context, cfg *config.Config, stderr io.Writer) (*rstar.DB, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	hopts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(stderr, hopts)
	if strings.EqualFold(cfg.Log.Format, "json") {
		handler = slog.NewJSONHandler(stderr, hopts)
	}

	compression, err := rstar.ParseCompression(cfg.Storage.Compression)
	if err != nil {
		return nil, err
	}
	metaCodec, ok := codec.ByName(cfg.Storage.Codec)
	if !ok {
		return nil, fmt.Errorf("unknown metadata codec %q", cfg.Storage.Codec)
	}
	backend, err := openBackend(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open backend: %w", err)
	}

	return rstar.Open(ctx, backend, cfg.Index.Dimensions,
		rstar.WithLogger(rstar.NewLogger(handler)),
		rstar.WithBlockSize(cfg.Storage.BlockSize),
		rstar.WithCompression(compression),
		rstar.WithCodec(metaCodec),
		rstar.WithCacheBytes(cfg.Storage.CacheBytes),
		rstar.WithMaxEntries(cfg.Index.MaxEntries),
		rstar.WithResourceLimits(0, cfg.Storage.IOBytesPerSec, cfg.Storage.MaxWorkers),
	)
}

type env struct {
	db  *rstar.DB
	cfg *config.Config
	out io.Writer
}

type command func(fs *flag.FlagSet) func(ctx context.Context, e *env) error

var commands = map[string]command{
	"load":    loadCmd,
	"insert":  insertCmd,
	"delete":  deleteCmd,
	"range":   rangeCmd,
	"knn":     knnCmd,
	"skyline": skylineCmd,
	"stats":   statsCmd,
}

func loadCmd(fs *flag.FlagSet) func(context.Context, *env) error {
	file := fs.String("file", "", "record file, one id,name,coords... line per record")
	bulk := fs.Bool("bulk", false, "rebuild the tree with STR bulk loading")
	perBlock := fs.Int("max-per-block", 0, "maximum records per data block (0 fills blocks)")
	return func(ctx context.Context, e *env) error {
		if *file == "" {
			return errors.New("load: -file is required")
		}
		f, err := os.Open(*file)
		if err != nil {
			return err
		}
		defer f.Close()

		start := time.Now()
		res, err := e.db.Load(ctx, f, rstar.LoadOptions{
			Delimiter:          e.cfg.Ingest.Delimiter,
			SkipHeader:         e.cfg.Ingest.SkipHeader,
			MaxRecordsPerBlock: max(*perBlock, e.cfg.Ingest.MaxRecordsPerBlock),
			Bulk:               *bulk,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(e.out, "loaded %d records into %d data blocks in %v\n", res.Records, res.Blocks, time.Since(start))
		return nil
	}
}

func insertCmd(fs *flag.FlagSet) func(context.Context, *env) error {
	id := fs.Int64("id", 0, "record id")
	name := fs.String("name", "", "record name")
	coords := fs.String("coords", "", "comma separated coordinates")
	return func(ctx context.Context, e *env) error {
		p, err := parsePoint(*coords)
		if err != nil {
			return err
		}
		start := time.Now()
		if err := e.db.Insert(ctx, rstar.Record{ID: rstar.RecordID(*id), Name: *name, Coords: p}); err != nil {
			return err
		}
		fmt.Fprintf(e.out, "inserted record %d in %v\n", *id, time.Since(start))
		return nil
	}
}

func deleteCmd(fs *flag.FlagSet) func(context.Context, *env) error {
	id := fs.Int64("id", 0, "record id")
	return func(ctx context.Context, e *env) error {
		start := time.Now()
		if err := e.db.Delete(ctx, rstar.RecordID(*id)); err != nil {
			return err
		}
		fmt.Fprintf(e.out, "deleted record %d in %v\n", *id, time.Since(start))
		return nil
	}
}

func rangeCmd(fs *flag.FlagSet) func(context.Context, *env) error {
	lowerArg := fs.String("lower", "", "lower corner, comma separated")
	upperArg := fs.String("upper", "", "upper corner, comma separated")
	linear := fs.Bool("linear", false, "also run the linear scan")
	return func(ctx context.Context, e *env) error {
		lower, err := parsePoint(*lowerArg)
		if err != nil {
			return err
		}
		upper, err := parsePoint(*upperArg)
		if err != nil {
			return err
		}
		start := time.Now()
		recs, err := e.db.Range(ctx, lower, upper)
		if err != nil {
			return err
		}
		printRecords(e.out, recs)
		fmt.Fprintf(e.out, "range query: %d records in %v\n", len(recs), time.Since(start))
		if *linear {
			start = time.Now()
			recs, err = e.db.LinearRange(ctx, lower, upper)
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "linear range query: %d records in %v\n", len(recs), time.Since(start))
		}
		return nil
	}
}

func knnCmd(fs *flag.FlagSet) func(context.Context, *env) error {
	pointArg := fs.String("point", "", "query point, comma separated")
	k := fs.Int("k", 5, "number of neighbors")
	linear := fs.Bool("linear", false, "also run the linear scan")
	return func(ctx context.Context, e *env) error {
		p, err := parsePoint(*pointArg)
		if err != nil {
			return err
		}
		start := time.Now()
		nn, err := e.db.KNN(ctx, p, *k)
		if err != nil {
			return err
		}
		for _, n := range nn {
			fmt.Fprintf(e.out, "%s, Distance: %g\n", n.Record, n.Distance)
		}
		fmt.Fprintf(e.out, "knn query: %d neighbors in %v\n", len(nn), time.Since(start))
		if *linear {
			start = time.Now()
			nn, err = e.db.LinearKNN(ctx, p, *k)
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "linear knn query: %d neighbors in %v\n", len(nn), time.Since(start))
		}
		return nil
	}
}

func skylineCmd(fs *flag.FlagSet) func(context.Context, *env) error {
	linear := fs.Bool("linear", false, "also run the linear scan")
	return func(ctx context.Context, e *env) error {
		start := time.Now()
		recs, err := e.db.Skyline(ctx)
		if err != nil {
			return err
		}
		printRecords(e.out, recs)
		fmt.Fprintf(e.out, "skyline query: %d records in %v\n", len(recs), time.Since(start))
		if *linear {
			start = time.Now()
			recs, err = e.db.LinearSkyline(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "linear skyline query: %d records in %v\n", len(recs), time.Since(start))
		}
		return nil
	}
}

func statsCmd(*flag.FlagSet) func(context.Context, *env) error {
	return func(ctx context.Context, e *env) error {
		st, err := e.db.Stats(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.out, "height: %d\n", st.Tree.Height)
		for _, l := range st.Tree.Levels {
			fmt.Fprintf(e.out, "level %d: %d nodes, %d entries\n", l.Level, l.Nodes, l.Entries)
		}
		fmt.Fprintf(e.out, "nodes: %d\nleaf entries: %d\nrecords: %d\n", st.Tree.Nodes, st.Tree.LeafEntries, st.Tree.Records)
		fmt.Fprintf(e.out, "block size: %d\ncompression: %s\nindex blocks: %d\ndata blocks: %d\n",
			st.Storage.BlockSize, st.Storage.Compression, st.Storage.IndexBlocks, st.Storage.DataBlocks)
		if err := e.db.Validate(ctx); err != nil {
			return err
		}
		fmt.Fprintln(e.out, "structure: ok")
		return nil
	}
}

func printRecords(w io.Writer, recs []rstar.Record) {
	for _, r := range recs {
		fmt.Fprintln(w, r)
	}
}

func parsePoint(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.New("missing coordinates")
	}
	parts := strings.Split(s, ",")
	p := make([]float64, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("coordinate %d: %w", i, err)
		}
		p[i] = v
	}
	return p, nil
}
