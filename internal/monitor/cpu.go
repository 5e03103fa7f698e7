package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/load"

	"github.com/haskel/hostwatch/internal/metrics"
)

const defaultCPUSettle = 200 * time.Millisecond

// CPUSampler reads global and per-core usage from two CPU time samples taken
// a settle delay apart.
type CPUSampler struct {
	settle time.Duration
	logger *slog.Logger

	times   func(ctx context.Context, percpu bool) ([]cpu.TimesStat, error)
	loadAvg func(ctx context.Context) (*load.AvgStat, error)

	baseAt     time.Time
	baseGlobal []cpu.TimesStat
	basePerCPU []cpu.TimesStat
}

func NewCPUSampler(settle time.Duration, logger *slog.Logger) *CPUSampler {
	if settle <= 0 {
		settle = defaultCPUSettle
	}
	return &CPUSampler{
		settle:  settle,
		logger:  logger,
		times:   cpu.TimesWithContext,
		loadAvg: load.AvgWithContext,
	}
}

// Refresh records the baseline CPU times that the next Collect diffs against.
func (s *CPUSampler) Refresh(ctx context.Context) {
	global, err := s.times(ctx, false)
	if err != nil {
		s.logger.Debug("cpu times unavailable", "error", err)
	}
	perCPU, err := s.times(ctx, true)
	if err != nil {
		s.logger.Debug("per-cpu times unavailable", "error", err)
	}
	s.baseGlobal = global
	s.basePerCPU = perCPU
	s.baseAt = time.Now()
}

func (s *CPUSampler) Collect(ctx context.Context) metrics.CPUMetrics {
	if s.baseAt.IsZero() {
		s.Refresh(ctx)
	}
	if wait := s.settle - time.Since(s.baseAt); wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
		}
	}

	var result metrics.CPUMetrics

	global, err := s.times(ctx, false)
	if err != nil {
		s.logger.Debug("cpu times unavailable", "error", err)
	} else if len(global) > 0 && len(s.baseGlobal) > 0 {
		result.GlobalUsage = usageBetween(s.baseGlobal[0], global[0])
	}

	perCPU, err := s.times(ctx, true)
	if err != nil {
		s.logger.Debug("per-cpu times unavailable", "error", err)
	}
	result.PerCoreUsage = make([]float64, len(perCPU))
	for i, t := range perCPU {
		if i < len(s.basePerCPU) {
			result.PerCoreUsage[i] = usageBetween(s.basePerCPU[i], t)
		}
	}

	avg, err := s.loadAvg(ctx)
	if err != nil {
		s.logger.Debug("load average unavailable", "error", err)
	} else if avg != nil {
		result.LoadAvg = metrics.LoadAverage{One: avg.Load1, Five: avg.Load5, Fifteen: avg.Load15}
	}

	// The next tick without an explicit Refresh diffs against this sample.
	s.baseGlobal, s.basePerCPU, s.baseAt = global, perCPU, time.Now()

	return result
}

// usageBetween returns the busy share of CPU time elapsed between two samples.
func usageBetween(before, after cpu.TimesStat) float64 {
	total := totalTime(after) - totalTime(before)
	if total <= 0 {
		return 0
	}
	busyBefore := totalTime(before) - before.Idle - before.Iowait
	busyAfter := totalTime(after) - after.Idle - after.Iowait
	return metrics.ClampPercent((busyAfter - busyBefore) / total * 100)
}

// totalTime excludes guest time, which the kernel already counts in user.
func totalTime(t cpu.TimesStat) float64 {
	return t.User + t.System + t.Idle + t.Nice + t.Iowait + t.Irq + t.Softirq + t.Steal
}
