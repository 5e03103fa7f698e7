// Package state holds the most recent snapshot and a bounded list of recent
// anomalies for readers outside the collection loop.
package state

import (
	"sync"

	"github.com/haskel/hostwatch/internal/metrics"
)

const DefaultAnomalyCapacity = 100

// Cell has a single writer and many readers. Readers see either the previous
// or the next snapshot, never a partial one.
type Cell struct {
	mu          sync.RWMutex
	latest      *metrics.Snapshot
	anomalies   []metrics.Anomaly
	capacity    int
	subscribers map[chan struct{}]struct{}
}

func NewCell(capacity int) *Cell {
	if capacity <= 0 {
		capacity = DefaultAnomalyCapacity
	}
	return &Cell{
		capacity:    capacity,
		subscribers: make(map[chan struct{}]struct{}),
	}
}

// ReplaceCurrent publishes snap and wakes subscribers. snap must not be
// modified afterwards.
func (c *Cell) ReplaceCurrent(snap *metrics.Snapshot) {
	c.mu.Lock()
	c.latest = snap
	for ch := range c.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	c.mu.Unlock()
}

// AppendAnomalies appends in order, then evicts the oldest entries beyond
// capacity.
func (c *Cell) AppendAnomalies(list []metrics.Anomaly) {
	if len(list) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.anomalies = append(c.anomalies, list...)
	if over := len(c.anomalies) - c.capacity; over > 0 {
		kept := make([]metrics.Anomaly, c.capacity)
		copy(kept, c.anomalies[over:])
		c.anomalies = kept
	}
}

// Current returns the latest snapshot, or nil before the first tick.
func (c *Cell) Current() *metrics.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest
}

// Anomalies returns a copy of the buffer, oldest first.
func (c *Cell) Anomalies() []metrics.Anomaly {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]metrics.Anomaly, len(c.anomalies))
	copy(out, c.anomalies)
	return out
}

func (c *Cell) Anomaly(id string) (metrics.Anomaly, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, a := range c.anomalies {
		if a.ID == id {
			return a, true
		}
	}
	return metrics.Anomaly{}, false
}

// Subscribe returns a channel signalled after each ReplaceCurrent. Signals
// coalesce when the reader falls behind.
func (c *Cell) Subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	c.mu.Lock()
	c.subscribers[ch] = struct{}{}
	c.mu.Unlock()
	return ch
}

func (c *Cell) Unsubscribe(ch chan struct{}) {
	c.mu.Lock()
	delete(c.subscribers, ch)
	c.mu.Unlock()
}
