package monitor

import (
	"context"
	"log/slog"

	"github.com/shirou/gopsutil/v4/mem"

	"github.com/haskel/hostwatch/internal/metrics"
)

type MemorySampler struct {
	logger  *slog.Logger
	virtual func(ctx context.Context) (*mem.VirtualMemoryStat, error)
	swap    func(ctx context.Context) (*mem.SwapMemoryStat, error)
}

func NewMemorySampler(logger *slog.Logger) *MemorySampler {
	return &MemorySampler{
		logger:  logger,
		virtual: mem.VirtualMemoryWithContext,
		swap:    mem.SwapMemoryWithContext,
	}
}

func (s *MemorySampler) Collect(ctx context.Context) metrics.MemoryMetrics {
	var result metrics.MemoryMetrics

	v, err := s.virtual(ctx)
	if err != nil {
		s.logger.Debug("virtual memory unavailable", "error", err)
	} else if v != nil {
		result.Total = v.Total
		result.Used = v.Used
		result.Available = v.Available
		if v.Total > 0 {
			result.UsagePercent = metrics.ClampPercent(float64(v.Used) / float64(v.Total) * 100)
		}
	}

	sw, err := s.swap(ctx)
	if err != nil {
		s.logger.Debug("swap unavailable", "error", err)
	} else if sw != nil {
		result.SwapTotal = sw.Total
		result.SwapUsed = sw.Used
	}

	return result
}
