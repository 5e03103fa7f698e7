package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/haskel/hostwatch/internal/metrics"
)

type Source interface {
	CollectAll(ctx context.Context) *metrics.Snapshot
}

type Detector interface {
	Check(current *metrics.Snapshot) []metrics.Anomaly
	Reset()
}

type Store interface {
	StoreMetrics(ctx context.Context, snap *metrics.Snapshot) (int64, error)
	StoreAnomaly(ctx context.Context, a metrics.Anomaly) (int64, error)
}

type Publisher interface {
	ReplaceCurrent(snap *metrics.Snapshot)
	AppendAnomalies(anomalies []metrics.Anomaly)
}

// Aggregator is the single writer of detector history and published state.
// Ticks run sequentially and are never abandoned midway.
type Aggregator struct {
	source    Source
	detector  Detector
	store     Store
	publisher Publisher
	interval  time.Duration
	logger    *slog.Logger

	reset   chan struct{}
	done    chan struct{}
	stopped chan struct{}
}

// NewAggregator accepts a nil store, in which case nothing is persisted.
func NewAggregator(source Source, detector Detector, store Store, publisher Publisher, interval time.Duration, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		source:    source,
		detector:  detector,
		store:     store,
		publisher: publisher,
		interval:  interval,
		logger:    logger,
		reset:     make(chan struct{}, 1),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
}

func (a *Aggregator) Start(ctx context.Context) error {
	go a.runLoop(ctx)
	a.logger.Info("aggregator started", "interval", a.interval)
	return nil
}

// Stop waits for the tick in flight to finish.
func (a *Aggregator) Stop() error {
	close(a.done)
	<-a.stopped
	a.logger.Info("aggregator stopped")
	return nil
}

// ResetHistory asks the loop to clear detector history before its next tick.
func (a *Aggregator) ResetHistory() {
	select {
	case a.reset <- struct{}{}:
	default:
	}
}

func (a *Aggregator) runLoop(ctx context.Context) {
	defer close(a.stopped)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.Tick(ctx)
	for {
		select {
		case <-ticker.C:
			a.Tick(ctx)
		case <-a.reset:
			a.detector.Reset()
			a.logger.Info("detector history cleared")
		case <-ctx.Done():
			return
		case <-a.done:
			return
		}
	}
}

// Tick runs one collect, detect, persist, publish cycle. Cancellation of ctx
// is not observed inside a tick.
func (a *Aggregator) Tick(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)

	snap := a.source.CollectAll(ctx)
	anomalies := a.detector.Check(snap)

	if a.store != nil {
		if _, err := a.store.StoreMetrics(ctx, snap); err != nil {
			a.logger.Error("failed to store metrics", "error", err)
		}
	}
	for _, an := range anomalies {
		a.logger.Warn("anomaly detected",
			"severity", an.Severity,
			"category", an.Category,
			"message", an.Message,
		)
		if a.store == nil {
			continue
		}
		if _, err := a.store.StoreAnomaly(ctx, an); err != nil {
			a.logger.Error("failed to store anomaly", "id", an.ID, "error", err)
		}
	}

	a.publisher.ReplaceCurrent(snap)
	a.publisher.AppendAnomalies(anomalies)
}
