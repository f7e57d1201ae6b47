package docstore

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordCreate is called after each create operation.
	RecordCreate(duration time.Duration, err error)

	// RecordFind is called after each query operation (exists, count, find
	// variants). matched is the number of matching records.
	RecordFind(matched int, duration time.Duration, err error)

	// RecordUpdate is called after each single-record update.
	RecordUpdate(duration time.Duration, err error)

	// RecordDelete is called after each single-record delete.
	RecordDelete(duration time.Duration, err error)

	// RecordBulk is called after each bulk update/delete. touched is the
	// number of records mutated (0 when the operation failed or matched
	// nothing).
	RecordBulk(touched int, duration time.Duration, err error)

	// RecordPersist is called after each snapshot persist.
	RecordPersist(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordCreate(time.Duration, error)    {}
func (NoopMetricsCollector) RecordFind(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordUpdate(time.Duration, error)    {}
func (NoopMetricsCollector) RecordDelete(time.Duration, error)    {}
func (NoopMetricsCollector) RecordBulk(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordPersist(time.Duration, error)   {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	CreateCount       atomic.Int64
	CreateErrors      atomic.Int64
	CreateTotalNanos  atomic.Int64
	FindCount         atomic.Int64
	FindErrors        atomic.Int64
	FindMatched       atomic.Int64
	FindTotalNanos    atomic.Int64
	UpdateCount       atomic.Int64
	UpdateErrors      atomic.Int64
	DeleteCount       atomic.Int64
	DeleteErrors      atomic.Int64
	BulkCount         atomic.Int64
	BulkErrors        atomic.Int64
	BulkTouched       atomic.Int64
	PersistCount      atomic.Int64
	PersistErrors     atomic.Int64
	PersistTotalNanos atomic.Int64
}

// RecordCreate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCreate(duration time.Duration, err error) {
	b.CreateCount.Add(1)
	b.CreateTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.CreateErrors.Add(1)
	}
}

// RecordFind implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFind(matched int, duration time.Duration, err error) {
	b.FindCount.Add(1)
	b.FindMatched.Add(int64(matched))
	b.FindTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.FindErrors.Add(1)
	}
}

// RecordUpdate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordUpdate(duration time.Duration, err error) {
	b.UpdateCount.Add(1)
	if err != nil {
		b.UpdateErrors.Add(1)
	}
}

// RecordDelete implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDelete(duration time.Duration, err error) {
	b.DeleteCount.Add(1)
	if err != nil {
		b.DeleteErrors.Add(1)
	}
}

// RecordBulk implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBulk(touched int, duration time.Duration, err error) {
	b.BulkCount.Add(1)
	b.BulkTouched.Add(int64(touched))
	if err != nil {
		b.BulkErrors.Add(1)
	}
}

// RecordPersist implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPersist(duration time.Duration, err error) {
	b.PersistCount.Add(1)
	b.PersistTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.PersistErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		CreateCount:    b.CreateCount.Load(),
		CreateErrors:   b.CreateErrors.Load(),
		CreateAvgNanos: avg(b.CreateTotalNanos.Load(), b.CreateCount.Load()),
		FindCount:      b.FindCount.Load(),
		FindErrors:     b.FindErrors.Load(),
		FindMatched:    b.FindMatched.Load(),
		FindAvgNanos:   avg(b.FindTotalNanos.Load(), b.FindCount.Load()),
		UpdateCount:    b.UpdateCount.Load(),
		UpdateErrors:   b.UpdateErrors.Load(),
		DeleteCount:    b.DeleteCount.Load(),
		DeleteErrors:   b.DeleteErrors.Load(),
		BulkCount:      b.BulkCount.Load(),
		BulkErrors:     b.BulkErrors.Load(),
		BulkTouched:    b.BulkTouched.Load(),
		PersistCount:   b.PersistCount.Load(),
		PersistErrors:  b.PersistErrors.Load(),
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
	CreateCount    int64
	CreateErrors   int64
	CreateAvgNanos int64
	FindCount      int64
	FindErrors     int64
	FindMatched    int64
	FindAvgNanos   int64
	UpdateCount    int64
	UpdateErrors   int64
	DeleteCount    int64
	DeleteErrors   int64
	BulkCount      int64
	BulkErrors     int64
	BulkTouched    int64
	PersistCount   int64
	PersistErrors  int64
}
