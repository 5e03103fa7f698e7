package state

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/haskel/hostwatch/internal/metrics"
)

func anomaly(id string) metrics.Anomaly {
	return metrics.Anomaly{ID: id, Severity: metrics.SeverityWarning, Category: metrics.CategoryCPU}
}

func TestCell_EmptyBeforeFirstTick(t *testing.T) {
	c := NewCell(0)

	if c.Current() != nil {
		t.Error("expected nil snapshot before first publish")
	}
	if len(c.Anomalies()) != 0 {
		t.Error("expected empty anomaly buffer")
	}
	if c.capacity != DefaultAnomalyCapacity {
		t.Errorf("expected default capacity %d, got %d", DefaultAnomalyCapacity, c.capacity)
	}
}

func TestCell_ReplaceCurrent(t *testing.T) {
	c := NewCell(10)
	first := &metrics.Snapshot{CPU: metrics.CPUMetrics{GlobalUsage: 1}}
	second := &metrics.Snapshot{CPU: metrics.CPUMetrics{GlobalUsage: 2}}

	c.ReplaceCurrent(first)
	c.ReplaceCurrent(second)

	if c.Current() != second {
		t.Error("expected the latest snapshot to replace the previous one")
	}
}

func TestCell_BoundedFIFO(t *testing.T) {
	c := NewCell(DefaultAnomalyCapacity)

	for batch := 0; batch < 13; batch++ {
		list := make([]metrics.Anomaly, 10)
		for i := range list {
			list[i] = anomaly(fmt.Sprintf("a-%03d", batch*10+i))
		}
		c.AppendAnomalies(list)

		if n := len(c.Anomalies()); n > DefaultAnomalyCapacity {
			t.Fatalf("buffer exceeded capacity: %d", n)
		}
	}

	got := c.Anomalies()
	if len(got) != DefaultAnomalyCapacity {
		t.Fatalf("expected %d anomalies, got %d", DefaultAnomalyCapacity, len(got))
	}
	if got[0].ID != "a-030" {
		t.Errorf("expected oldest kept to be a-030, got %s", got[0].ID)
	}
	if got[len(got)-1].ID != "a-129" {
		t.Errorf("expected newest to be a-129, got %s", got[len(got)-1].ID)
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].ID >= got[i].ID {
			t.Fatalf("buffer reordered at %d: %s before %s", i, got[i-1].ID, got[i].ID)
		}
	}
}

func TestCell_OversizedBatch(t *testing.T) {
	c := NewCell(3)

	c.AppendAnomalies([]metrics.Anomaly{anomaly("1"), anomaly("2"), anomaly("3"), anomaly("4"), anomaly("5")})

	got := c.Anomalies()
	if len(got) != 3 || got[0].ID != "3" || got[2].ID != "5" {
		t.Errorf("expected [3 4 5], got %v", got)
	}
}

func TestCell_AnomaliesReturnsCopy(t *testing.T) {
	c := NewCell(5)
	c.AppendAnomalies([]metrics.Anomaly{anomaly("x")})

	got := c.Anomalies()
	got[0].ID = "mutated"

	if c.Anomalies()[0].ID != "x" {
		t.Error("caller mutation leaked into the buffer")
	}
}

func TestCell_AnomalyLookup(t *testing.T) {
	c := NewCell(5)
	c.AppendAnomalies([]metrics.Anomaly{anomaly("x"), anomaly("y")})

	if a, ok := c.Anomaly("y"); !ok || a.ID != "y" {
		t.Errorf("expected to find y, got %v/%v", a, ok)
	}
	if _, ok := c.Anomaly("z"); ok {
		t.Error("expected z to be missing")
	}
}

func TestCell_Subscribe(t *testing.T) {
	c := NewCell(5)
	ch := c.Subscribe()

	c.ReplaceCurrent(&metrics.Snapshot{})
	c.ReplaceCurrent(&metrics.Snapshot{})

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected notification")
	}

	c.Unsubscribe(ch)
	c.ReplaceCurrent(&metrics.Snapshot{})

	select {
	case <-ch:
		t.Error("unexpected notification after unsubscribe")
	default:
	}
}

func TestCell_ConcurrentReaders(t *testing.T) {
	c := NewCell(DefaultAnomalyCapacity)
	done := make(chan struct{})

	var wg sync.WaitGroup
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				if s := c.Current(); s != nil && s.CPU.GlobalUsage != float64(len(s.CPU.PerCoreUsage)) {
					t.Errorf("observed partially written snapshot")
					return
				}
				if n := len(c.Anomalies()); n > DefaultAnomalyCapacity {
					t.Errorf("buffer exceeded capacity: %d", n)
					return
				}
			}
		}()
	}

	for i := 0; i < 500; i++ {
		c.ReplaceCurrent(&metrics.Snapshot{CPU: metrics.CPUMetrics{
			GlobalUsage:  float64(i % 8),
			PerCoreUsage: make([]float64, i%8),
		}})
		c.AppendAnomalies([]metrics.Anomaly{anomaly(fmt.Sprint(i))})
	}
	close(done)
	wg.Wait()
}
