package monitor

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/haskel/hostwatch/internal/metrics"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type mockSource struct {
	mu    sync.Mutex
	usage []float64
	n     int
}

func (m *mockSource) CollectAll(ctx context.Context) *metrics.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.usage[m.n]
	if m.n < len(m.usage)-1 {
		m.n++
	}
	return &metrics.Snapshot{Timestamp: time.Now(), CPU: metrics.CPUMetrics{GlobalUsage: u}}
}

type mockDetector struct {
	mu     sync.Mutex
	seen   []float64
	resets int
	emit   func(*metrics.Snapshot) []metrics.Anomaly
}

func (m *mockDetector) Check(s *metrics.Snapshot) []metrics.Anomaly {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen = append(m.seen, s.CPU.GlobalUsage)
	if m.emit != nil {
		return m.emit(s)
	}
	return nil
}

func (m *mockDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++
}

type mockStore struct {
	mu        sync.Mutex
	snapshots int
	anomalies []string
	err       error
}

func (m *mockStore) StoreMetrics(ctx context.Context, s *metrics.Snapshot) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	m.snapshots++
	return int64(m.snapshots), nil
}

func (m *mockStore) StoreAnomaly(ctx context.Context, a metrics.Anomaly) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	m.anomalies = append(m.anomalies, a.ID)
	return int64(len(m.anomalies)), nil
}

type mockPublisher struct {
	mu        sync.Mutex
	current   *metrics.Snapshot
	anomalies []metrics.Anomaly
	replaced  int
}

func (m *mockPublisher) ReplaceCurrent(s *metrics.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = s
	m.replaced++
}

func (m *mockPublisher) AppendAnomalies(list []metrics.Anomaly) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.anomalies = append(m.anomalies, list...)
}

func (m *mockPublisher) replacedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.replaced
}

func TestAggregator_Tick(t *testing.T) {
	source := &mockSource{usage: []float64{42}}
	detector := &mockDetector{emit: func(s *metrics.Snapshot) []metrics.Anomaly {
		return []metrics.Anomaly{
			metrics.NewAnomaly(metrics.SeverityWarning, metrics.CategoryCPU, "a", nil),
			metrics.NewAnomaly(metrics.SeverityCritical, metrics.CategoryMemory, "b", nil),
		}
	}}
	store := &mockStore{}
	pub := &mockPublisher{}

	agg := NewAggregator(source, detector, store, pub, time.Second, testLogger())
	agg.Tick(context.Background())

	if store.snapshots != 1 {
		t.Errorf("expected 1 stored snapshot, got %d", store.snapshots)
	}
	if len(store.anomalies) != 2 {
		t.Errorf("expected 2 stored anomalies, got %d", len(store.anomalies))
	}
	if pub.current == nil || pub.current.CPU.GlobalUsage != 42 {
		t.Errorf("expected published snapshot with usage 42, got %+v", pub.current)
	}
	if len(pub.anomalies) != 2 {
		t.Errorf("expected 2 published anomalies, got %d", len(pub.anomalies))
	}
}

func TestAggregator_StoreFailureDoesNotStopPublishing(t *testing.T) {
	source := &mockSource{usage: []float64{10}}
	detector := &mockDetector{emit: func(s *metrics.Snapshot) []metrics.Anomaly {
		return []metrics.Anomaly{metrics.NewAnomaly(metrics.SeverityWarning, metrics.CategoryDisk, "x", nil)}
	}}
	store := &mockStore{err: errors.New("database is locked")}
	pub := &mockPublisher{}

	agg := NewAggregator(source, detector, store, pub, time.Second, testLogger())
	agg.Tick(context.Background())

	if pub.current == nil {
		t.Error("expected snapshot to be published despite store failure")
	}
	if len(pub.anomalies) != 1 {
		t.Errorf("expected anomaly to be published despite store failure, got %d", len(pub.anomalies))
	}
}

func TestAggregator_NilStore(t *testing.T) {
	source := &mockSource{usage: []float64{10}}
	pub := &mockPublisher{}

	agg := NewAggregator(source, &mockDetector{}, nil, pub, time.Second, testLogger())
	agg.Tick(context.Background())

	if pub.current == nil {
		t.Error("expected snapshot to be published without a store")
	}
}

func TestAggregator_TicksInOrder(t *testing.T) {
	source := &mockSource{usage: []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}}
	detector := &mockDetector{}
	pub := &mockPublisher{}

	agg := NewAggregator(source, detector, nil, pub, 5*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := agg.Start(ctx); err != nil {
		t.Fatalf("failed to start aggregator: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for pub.replacedCount() < 4 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	_ = agg.Stop()

	detector.mu.Lock()
	defer detector.mu.Unlock()
	if len(detector.seen) < 4 {
		t.Fatalf("expected at least 4 ticks, got %d", len(detector.seen))
	}
	for i, v := range detector.seen {
		if v != float64(i+1) && v != 10 {
			t.Errorf("tick %d saw usage %f, expected ticks in order", i, v)
		}
	}
}

func TestAggregator_ResetHistory(t *testing.T) {
	detector := &mockDetector{}
	agg := NewAggregator(&mockSource{usage: []float64{1}}, detector, nil, &mockPublisher{}, time.Hour, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_ = agg.Start(ctx)

	agg.ResetHistory()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		detector.mu.Lock()
		n := detector.resets
		detector.mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	_ = agg.Stop()

	if detector.resets != 1 {
		t.Errorf("expected 1 reset, got %d", detector.resets)
	}
}

func TestAggregator_StopWaitsForLoop(t *testing.T) {
	agg := NewAggregator(&mockSource{usage: []float64{1}}, &mockDetector{}, nil, &mockPublisher{}, time.Hour, testLogger())

	_ = agg.Start(context.Background())

	done := make(chan struct{})
	go func() {
		_ = agg.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not return")
	}
}
