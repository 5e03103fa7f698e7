package detector

import (
	"fmt"

	"github.com/haskel/hostwatch/internal/metrics"
)

// comparativeRules run in a fixed order. Temperature crossing and swap
// activation fire on the transition only; sustained CPU fires every tick
// while both samples stay above the threshold.
func comparativeRules(prev, cur *metrics.Snapshot) []metrics.Anomaly {
	var out []metrics.Anomaly

	cpuDelta := cur.CPU.GlobalUsage - prev.CPU.GlobalUsage
	if cpuDelta > CPUSpikeThreshold {
		out = append(out, metrics.NewAnomaly(
			metrics.SeverityWarning, metrics.CategoryCPU,
			fmt.Sprintf("CPU spike detected: %.0f%% → %.0f%%", prev.CPU.GlobalUsage, cur.CPU.GlobalUsage),
			map[string]any{
				"previous": prev.CPU.GlobalUsage,
				"current":  cur.CPU.GlobalUsage,
				"delta":    cpuDelta,
			},
		))
	}

	if cur.CPU.GlobalUsage > CPUCriticalThreshold && prev.CPU.GlobalUsage > CPUCriticalThreshold {
		out = append(out, metrics.NewAnomaly(
			metrics.SeverityCritical, metrics.CategoryCPU,
			fmt.Sprintf("Sustained critical CPU usage: %.0f%%", cur.CPU.GlobalUsage),
			map[string]any{"usage": cur.CPU.GlobalUsage},
		))
	}

	memDelta := cur.Memory.UsagePercent - prev.Memory.UsagePercent
	if memDelta > MemorySpikeThreshold {
		out = append(out, metrics.NewAnomaly(
			metrics.SeverityWarning, metrics.CategoryMemory,
			fmt.Sprintf("Memory spike detected: %.0f%% → %.0f%%", prev.Memory.UsagePercent, cur.Memory.UsagePercent),
			map[string]any{
				"previous": prev.Memory.UsagePercent,
				"current":  cur.Memory.UsagePercent,
				"delta":    memDelta,
			},
		))
	}

	curTemp, prevTemp := cur.MaxTemperature(), prev.MaxTemperature()
	if curTemp > TemperatureCritical && prevTemp <= TemperatureCritical {
		out = append(out, metrics.NewAnomaly(
			metrics.SeverityCritical, metrics.CategoryTemperature,
			fmt.Sprintf("Critical temperature reached: %.0f°C", curTemp),
			map[string]any{"temperature": curTemp},
		))
	}

	if drop := prevTemp - curTemp; drop > TemperatureDropThreshold {
		out = append(out, metrics.NewAnomaly(
			metrics.SeverityWarning, metrics.CategoryTemperature,
			fmt.Sprintf("Sudden temperature drop: %.0f°C → %.0f°C", prevTemp, curTemp),
			map[string]any{
				"previous": prevTemp,
				"current":  curTemp,
				"delta":    drop,
			},
		))
	}

	if prev.Memory.SwapUsed == 0 && cur.Memory.SwapUsed > 0 {
		out = append(out, metrics.NewAnomaly(
			metrics.SeverityWarning, metrics.CategoryMemory,
			"SWAP memory activated",
			map[string]any{"swap_used": cur.Memory.SwapUsed},
		))
	}

	return out
}

func absoluteRules(cur *metrics.Snapshot, numCPUs int) []metrics.Anomaly {
	var out []metrics.Anomaly

	if cur.Memory.UsagePercent > MemoryCriticalThreshold {
		out = append(out, metrics.NewAnomaly(
			metrics.SeverityCritical, metrics.CategoryMemory,
			fmt.Sprintf("Critical memory usage: %.0f%%", cur.Memory.UsagePercent),
			map[string]any{"usage": cur.Memory.UsagePercent},
		))
	}

	if usage := cur.MaxDiskUsage(); usage > DiskCriticalThreshold {
		out = append(out, metrics.NewAnomaly(
			metrics.SeverityWarning, metrics.CategoryDisk,
			fmt.Sprintf("Critical disk usage: %.0f%%", usage),
			map[string]any{"usage": usage},
		))
	}

	if ids := cur.TimedOutDevices(); len(ids) > 0 {
		out = append(out, metrics.NewAnomaly(
			metrics.SeverityCritical, metrics.CategoryUSB,
			"USB timeout detected",
			map[string]any{"devices": ids},
		))
	}

	if io := cur.MaxDiskIO(); io > DiskIOThreshold {
		out = append(out, metrics.NewAnomaly(
			metrics.SeverityWarning, metrics.CategoryDisk,
			fmt.Sprintf("High disk I/O: %.0f MB/s", io),
			map[string]any{"io_mbs": io},
		))
	}

	threshold := float64(numCPUs) * LoadPerCoreThreshold
	if load := cur.CPU.LoadAvg.Fifteen; load > threshold {
		out = append(out, metrics.NewAnomaly(
			metrics.SeverityCritical, metrics.CategoryCPU,
			fmt.Sprintf("Critical load average: %.2f", load),
			map[string]any{
				"load_avg_15": load,
				"threshold":   threshold,
				"num_cpus":    numCPUs,
			},
		))
	}

	if gpu := cur.GPU; gpu != nil {
		out = append(out, gpuRules(gpu)...)
	}

	return out
}

func gpuRules(gpu *metrics.GPUMetrics) []metrics.Anomaly {
	var out []metrics.Anomaly

	if gpu.Temperature > GPUTemperatureCritical {
		out = append(out, metrics.NewAnomaly(
			metrics.SeverityCritical, metrics.CategoryGPU,
			fmt.Sprintf("Critical GPU temperature: %.0f°C", gpu.Temperature),
			map[string]any{"temperature": gpu.Temperature, "gpu_name": gpu.Name},
		))
	}

	if gpu.Usage > GPUUsageThreshold {
		out = append(out, metrics.NewAnomaly(
			metrics.SeverityWarning, metrics.CategoryGPU,
			fmt.Sprintf("Critical GPU usage: %.0f%%", gpu.Usage),
			map[string]any{"usage": gpu.Usage, "gpu_name": gpu.Name},
		))
	}

	if gpu.MemoryUsage > GPUMemoryThreshold {
		out = append(out, metrics.NewAnomaly(
			metrics.SeverityWarning, metrics.CategoryGPU,
			fmt.Sprintf("Critical GPU memory usage: %.0f%%", gpu.MemoryUsage),
			map[string]any{
				"memory_usage":    gpu.MemoryUsage,
				"memory_used_mb":  gpu.MemoryUsedMB,
				"memory_total_mb": gpu.MemoryTotalMB,
				"gpu_name":        gpu.Name,
			},
		))
	}

	return out
}
