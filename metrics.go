package rstar

import (
	"sync/atomic"
	"time"
)

// QueryKind names a query family.
type QueryKind string

const (
	QueryRange         QueryKind = "range"
	QueryKNN           QueryKind = "knn"
	QuerySkyline       QueryKind = "skyline"
	QueryLinearRange   QueryKind = "linear_range"
	QueryLinearKNN     QueryKind = "linear_knn"
	QueryLinearSkyline QueryKind = "linear_skyline"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordInsert is called after each insert operation.
	// duration is the total time taken, err is nil if successful.
	RecordInsert(duration time.Duration, err error)

	// RecordDelete is called after each delete operation.
	RecordDelete(duration time.Duration, err error)

	// RecordQuery is called after each query. stats is zero for the linear
	// baselines.
	RecordQuery(kind QueryKind, stats QueryStats, duration time.Duration, err error)

	// RecordBuild is called after a bulk load or incremental build with the
	// number of records indexed.
	RecordBuild(records int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInsert(time.Duration, error)                        {}
func (NoopMetricsCollector) RecordDelete(time.Duration, error)                        {}
func (NoopMetricsCollector) RecordQuery(QueryKind, QueryStats, time.Duration, error) {}
func (NoopMetricsCollector) RecordBuild(int, time.Duration, error)                    {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	InsertCount      atomic.Int64
	InsertErrors     atomic.Int64
	InsertTotalNanos atomic.Int64
	DeleteCount      atomic.Int64
	DeleteErrors     atomic.Int64
	QueryCount       atomic.Int64
	QueryErrors      atomic.Int64
	QueryTotalNanos  atomic.Int64
	NodesRead        atomic.Int64
	BlocksRead       atomic.Int64
	BuildCount       atomic.Int64
	BuildRecords     atomic.Int64
	BuildErrors      atomic.Int64
}

// RecordInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInsert(duration time.Duration, err error) {
	b.InsertCount.Add(1)
	b.InsertTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.InsertErrors.Add(1)
	}
}

// RecordDelete implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDelete(_ time.Duration, err error) {
	b.DeleteCount.Add(1)
	if err != nil {
		b.DeleteErrors.Add(1)
	}
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(_ QueryKind, stats QueryStats, duration time.Duration, err error) {
	b.QueryCount.Add(1)
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	b.NodesRead.Add(int64(stats.NodesRead))
	b.BlocksRead.Add(int64(stats.BlocksRead))
	if err != nil {
		b.QueryErrors.Add(1)
	}
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(records int, _ time.Duration, err error) {
	b.BuildCount.Add(1)
	if err != nil {
		b.BuildErrors.Add(1)
		return
	}
	b.BuildRecords.Add(int64(records))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		InsertCount:    b.InsertCount.Load(),
		InsertErrors:   b.InsertErrors.Load(),
		InsertAvgNanos: avg(b.InsertTotalNanos.Load(), b.InsertCount.Load()),
		DeleteCount:    b.DeleteCount.Load(),
		DeleteErrors:   b.DeleteErrors.Load(),
		QueryCount:     b.QueryCount.Load(),
		QueryErrors:    b.QueryErrors.Load(),
		QueryAvgNanos:  avg(b.QueryTotalNanos.Load(), b.QueryCount.Load()),
		NodesRead:      b.NodesRead.Load(),
		BlocksRead:     b.BlocksRead.Load(),
		BuildCount:     b.BuildCount.Load(),
		BuildRecords:   b.BuildRecords.Load(),
		BuildErrors:    b.BuildErrors.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	InsertCount    int64
	InsertErrors   int64
	InsertAvgNanos int64
	DeleteCount    int64
	DeleteErrors   int64
	QueryCount     int64
	QueryErrors    int64
	QueryAvgNanos  int64
	NodesRead      int64
	BlocksRead     int64
	BuildCount     int64
	BuildRecords   int64
	BuildErrors    int64
}
