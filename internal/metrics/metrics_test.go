package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCounter(t *testing.T) {
	var c Counter
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Inc()
		}()
	}
	wg.Wait()
	c.Add(5)
	assert.Equal(t, uint64(55), c.Load())
}

func TestGauge(t *testing.T) {
	var g Gauge
	g.Inc()
	g.Inc()
	g.Dec()
	assert.Equal(t, int64(1), g.Load())
	g.Set(7)
	assert.Equal(t, int64(7), g.Load())
}

func TestTimer(t *testing.T) {
	timer := StartTimer()
	time.Sleep(time.Millisecond)
	assert.GreaterOrEqual(t, timer.Duration(), time.Millisecond)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Counter(OrdersSubmitted).Inc()
	r.Counter(OrdersSubmitted).Inc()
	r.Gauge(RealtimeClients).Set(3)

	assert.Same(t, r.Counter(OrdersSubmitted), r.Counter(OrdersSubmitted))
	assert.Equal(t, map[string]int64{
		OrdersSubmitted: 2,
		RealtimeClients: 3,
	}, r.Snapshot())
}
