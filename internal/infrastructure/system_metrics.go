package infrastructure

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// RuntimeMetrics records Go runtime gauges for the feature service
type RuntimeMetrics struct {
	goroutines    metric.Int64Gauge
	heapAlloc     metric.Int64Gauge
	heapSys       metric.Int64Gauge
	gcCount       metric.Int64Gauge
	processUptime metric.Float64Gauge
}

// RuntimeStats is a snapshot of runtime statistics
type RuntimeStats struct {
	Goroutines    int           `json:"goroutines"`
	HeapAllocMB   uint64        `json:"heap_alloc_mb"`
	HeapSysMB     uint64        `json:"heap_sys_mb"`
	GCCount       uint32        `json:"gc_count"`
	Uptime        time.Duration `json:"-"`
	UptimeSeconds float64       `json:"uptime_seconds"`
}

// NewRuntimeMetrics creates the runtime gauges on meter
func NewRuntimeMetrics(meter metric.Meter) (*RuntimeMetrics, error) {
	goroutines, err := meter.Int64Gauge("system_goroutines",
		metric.WithDescription("Number of active goroutines"))
	if err != nil {
		return nil, err
	}
	heapAlloc, err := meter.Int64Gauge("system_heap_alloc_bytes",
		metric.WithDescription("Bytes of allocated heap objects"), metric.WithUnit("By"))
	if err != nil {
		return nil, err
	}
	heapSys, err := meter.Int64Gauge("system_heap_sys_bytes",
		metric.WithDescription("Heap memory obtained from the OS"), metric.WithUnit("By"))
	if err != nil {
		return nil, err
	}
	gcCount, err := meter.Int64Gauge("system_gc_count",
		metric.WithDescription("Number of completed GC cycles"))
	if err != nil {
		return nil, err
	}
	uptime, err := meter.Float64Gauge("system_process_uptime_seconds",
		metric.WithDescription("Process uptime in seconds"), metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &RuntimeMetrics{
		goroutines:    goroutines,
		heapAlloc:     heapAlloc,
		heapSys:       heapSys,
		gcCount:       gcCount,
		processUptime: uptime,
	}, nil
}

// Collect reads runtime statistics and records them
func (rm *RuntimeMetrics) Collect(ctx context.Context, startTime time.Time) RuntimeStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	uptime := time.Since(startTime)
	stats := RuntimeStats{
		Goroutines:    runtime.NumGoroutine(),
		HeapAllocMB:   mem.HeapAlloc / 1024 / 1024,
		HeapSysMB:     mem.HeapSys / 1024 / 1024,
		GCCount:       mem.NumGC,
		Uptime:        uptime,
		UptimeSeconds: uptime.Seconds(),
	}

	if rm != nil {
		rm.goroutines.Record(ctx, int64(stats.Goroutines))
		rm.heapAlloc.Record(ctx, int64(mem.HeapAlloc))
		rm.heapSys.Record(ctx, int64(mem.HeapSys))
		rm.gcCount.Record(ctx, int64(mem.NumGC))
		rm.processUptime.Record(ctx, uptime.Seconds())
	}
	return stats
}

// RuntimeCollector records runtime metrics periodically
type RuntimeCollector struct {
	metrics   *RuntimeMetrics
	startTime time.Time
	interval  time.Duration
	stopCh    chan struct{}
}

// NewRuntimeCollector creates a collector sampling every interval
func NewRuntimeCollector(meter metric.Meter, interval time.Duration) (*RuntimeCollector, error) {
	metrics, err := NewRuntimeMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create runtime metrics: %w", err)
	}
	return &RuntimeCollector{
		metrics:   metrics,
		startTime: time.Now(),
		interval:  interval,
		stopCh:    make(chan struct{}),
	}, nil
}

// Start collects until ctx is done or Stop is called
func (rc *RuntimeCollector) Start(ctx context.Context) {
	ticker := time.NewTicker(rc.interval)
	defer ticker.Stop()

	rc.metrics.Collect(ctx, rc.startTime)
	for {
		select {
		case <-ticker.C:
			rc.metrics.Collect(ctx, rc.startTime)
		case <-rc.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop stops the periodic collection
func (rc *RuntimeCollector) Stop() {
	close(rc.stopCh)
}

// Snapshot returns current runtime statistics
func (rc *RuntimeCollector) Snapshot(ctx context.Context) RuntimeStats {
	return rc.metrics.Collect(ctx, rc.startTime)
}
