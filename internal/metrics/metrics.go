package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

// Gauge is a value that can go down as well as up.
type Gauge struct {
	value int64
}

func (g *Gauge) Inc() { atomic.AddInt64(&g.value, 1) }

func (g *Gauge) Dec() { atomic.AddInt64(&g.value, -1) }

func (g *Gauge) Set(n int64) { atomic.StoreInt64(&g.value, n) }

func (g *Gauge) Load() int64 { return atomic.LoadInt64(&g.value) }

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Registry names the process counters served at /metrics.
type Registry struct {
	mu       sync.RWMutex
	counters map[string]*Counter
	gauges   map[string]*Gauge
}

func NewRegistry() *Registry {
	return &Registry{
		counters: make(map[string]*Counter),
		gauges:   make(map[string]*Gauge),
	}
}

// Counter returns the named counter, creating it on first use.
func (r *Registry) Counter(name string) *Counter {
	r.mu.RLock()
	c, ok := r.counters[name]
	r.mu.RUnlock()
	if ok {
		return c
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok = r.counters[name]; !ok {
		c = &Counter{}
		r.counters[name] = c
	}
	return c
}

// Gauge returns the named gauge, creating it on first use.
func (r *Registry) Gauge(name string) *Gauge {
	r.mu.RLock()
	g, ok := r.gauges[name]
	r.mu.RUnlock()
	if ok {
		return g
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok = r.gauges[name]; !ok {
		g = &Gauge{}
		r.gauges[name] = g
	}
	return g
}

// Snapshot returns every counter and gauge value by name.
func (r *Registry) Snapshot() map[string]int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]int64, len(r.counters)+len(r.gauges))
	for name, c := range r.counters {
		out[name] = int64(c.Load())
	}
	for name, g := range r.gauges {
		out[name] = g.Load()
	}
	return out
}

// Default is the process-wide registry.
var Default = NewRegistry()

// Names used across the service.
const (
	CatalogueLoads      = "catalogue_loads_total"
	CatalogueCacheLoads = "catalogue_cache_fallbacks_total"
	OwnerWrites         = "owner_writes_total"
	OwnerWriteRetries   = "owner_write_retries_total"
	OwnerWritesPending  = "owner_writes_pending_total"
	MergeViolations     = "catalogue_merge_violations_total"
	ChangeEvents        = "owner_change_events_total"
	OrdersSubmitted     = "orders_submitted_total"
	OrdersRejectedStock = "orders_rejected_stock_total"
	OrderRecordFailures = "order_record_failures_total"
	RealtimeClients     = "realtime_clients"
	RateLimitedRequests = "rate_limited_requests_total"
)
