package detector

import (
	"github.com/haskel/hostwatch/internal/metrics"
)

// MetricsDelta is the change between two snapshots, current minus previous.
type MetricsDelta struct {
	CPUUsage    float64 `json:"cpu_usage"`
	MemoryUsage float64 `json:"memory_usage"`
	Temperature float64 `json:"temperature"`
	SwapUsed    int64   `json:"swap_used"`
	DiskIO      float64 `json:"disk_io"`
	Elapsed     float64 `json:"elapsed_seconds"`
}

func Delta(prev, cur *metrics.Snapshot) MetricsDelta {
	return MetricsDelta{
		CPUUsage:    cur.CPU.GlobalUsage - prev.CPU.GlobalUsage,
		MemoryUsage: cur.Memory.UsagePercent - prev.Memory.UsagePercent,
		Temperature: cur.MaxTemperature() - prev.MaxTemperature(),
		SwapUsed:    int64(cur.Memory.SwapUsed) - int64(prev.Memory.SwapUsed),
		DiskIO:      cur.MaxDiskIO() - prev.MaxDiskIO(),
		Elapsed:     cur.Timestamp.Sub(prev.Timestamp).Seconds(),
	}
}

// Rate returns delta per second, or 0 for a non-positive interval.
func Rate(delta, seconds float64) float64 {
	if seconds <= 0 {
		return 0
	}
	return delta / seconds
}

// ClassifySeverity reports the severity band value falls into. ok is false
// below the warning threshold.
func ClassifySeverity(value, warning, critical float64) (sev metrics.Severity, ok bool) {
	switch {
	case value >= critical:
		return metrics.SeverityCritical, true
	case value >= warning:
		return metrics.SeverityWarning, true
	default:
		return "", false
	}
}
