package monitor

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/haskel/hostwatch/internal/metrics"
)

// GPUSampler is implemented per vendor. Collect returns nil when no reading
// is available.
type GPUSampler interface {
	Available() bool
	Collect(ctx context.Context) *metrics.GPUMetrics
}

// NoGPU is used when GPU sampling is disabled.
type NoGPU struct{}

func (NoGPU) Available() bool                              { return false }
func (NoGPU) Collect(context.Context) *metrics.GPUMetrics { return nil }

const (
	DefaultGPUTimeout = 3 * time.Second
	nvidiaSMI         = "nvidia-smi"
	nvidiaQuery       = "--query-gpu=name,temperature.gpu,utilization.gpu,utilization.memory,memory.total,memory.used,memory.free,power.draw,fan.speed"
	nvidiaFields      = 9
)

// NvidiaSampler shells out to nvidia-smi. Every invocation is bounded by
// timeout.
type NvidiaSampler struct {
	runner    CommandRunner
	timeout   time.Duration
	available bool
	logger    *slog.Logger
}

// NewNvidiaSampler probes for nvidia-smi once.
func NewNvidiaSampler(ctx context.Context, runner CommandRunner, timeout time.Duration, logger *slog.Logger) *NvidiaSampler {
	if runner == nil {
		runner = NewExecRunner()
	}
	if timeout <= 0 {
		timeout = DefaultGPUTimeout
	}
	s := &NvidiaSampler{runner: runner, timeout: timeout, logger: logger}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if _, err := runner.Run(probeCtx, nvidiaSMI, "--version"); err != nil {
		logger.Debug("nvidia-smi not available", "error", err)
	} else {
		s.available = true
	}
	return s
}

func (s *NvidiaSampler) Available() bool {
	return s.available
}

func (s *NvidiaSampler) Collect(ctx context.Context) *metrics.GPUMetrics {
	if !s.available {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.runner.Run(ctx, nvidiaSMI, nvidiaQuery, "--format=csv,noheader,nounits")
	if err != nil {
		s.logger.Debug("nvidia-smi query failed", "error", err)
		return nil
	}
	gpu, ok := parseNvidiaRow(string(out))
	if !ok {
		s.logger.Debug("unexpected nvidia-smi output", "output", strings.TrimSpace(string(out)))
		return nil
	}
	return gpu
}

// parseNvidiaRow reads the first GPU's row. Placeholders such as [N/A] and
// unparsable columns become 0.
func parseNvidiaRow(out string) (*metrics.GPUMetrics, bool) {
	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	parts := strings.Split(strings.TrimSpace(line), ", ")
	if len(parts) < nvidiaFields {
		return nil, false
	}

	return &metrics.GPUMetrics{
		Name:          strings.TrimSpace(parts[0]),
		Temperature:   parseNvidiaValue(parts[1]),
		Usage:         metrics.ClampPercent(parseNvidiaValue(parts[2])),
		MemoryUsage:   metrics.ClampPercent(parseNvidiaValue(parts[3])),
		MemoryTotalMB: parseNvidiaValue(parts[4]),
		MemoryUsedMB:  parseNvidiaValue(parts[5]),
		MemoryFreeMB:  parseNvidiaValue(parts[6]),
		PowerDraw:     parseNvidiaValue(parts[7]),
		FanSpeed:      parseNvidiaValue(parts[8]),
	}, true
}

func parseNvidiaValue(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "[N/A]" || s == "N/A" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
