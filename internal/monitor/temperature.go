package monitor

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/haskel/hostwatch/internal/metrics"
)

const (
	DefaultHwmonRoot = "/sys/class/hwmon"
	maxTempChannels  = 10
)

// TemperatureSampler walks hwmon sensor groups and reads up to ten numbered
// temperature channels from each.
type TemperatureSampler struct {
	root   string
	logger *slog.Logger
}

func NewTemperatureSampler(root string, logger *slog.Logger) *TemperatureSampler {
	if root == "" {
		root = DefaultHwmonRoot
	}
	return &TemperatureSampler{root: root, logger: logger}
}

func (s *TemperatureSampler) Collect() []metrics.Temperature {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		s.logger.Debug("hwmon unavailable", "root", s.root, "error", err)
		return []metrics.Temperature{}
	}

	temps := []metrics.Temperature{}
	for _, entry := range entries {
		temps = append(temps, s.readGroup(filepath.Join(s.root, entry.Name()))...)
	}
	return temps
}

func (s *TemperatureSampler) readGroup(dir string) []metrics.Temperature {
	name := readTrimmed(filepath.Join(dir, "name"))
	if name == "" {
		name = "unknown"
	}

	var temps []metrics.Temperature
	for i := 1; i <= maxTempChannels; i++ {
		raw := readTrimmed(filepath.Join(dir, fmt.Sprintf("temp%d_input", i)))
		if raw == "" {
			continue
		}
		milli, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}

		label := readTrimmed(filepath.Join(dir, fmt.Sprintf("temp%d_label", i)))
		if label == "" {
			label = fmt.Sprintf("Sensor %d", i)
		}

		temps = append(temps, metrics.Temperature{
			Sensor: name,
			Value:  float64(milli) / 1000,
			Label:  label,
		})
	}
	return temps
}

// CPUTemperatures keeps readings from AMD and Intel package sensors.
func CPUTemperatures(temps []metrics.Temperature) []metrics.Temperature {
	return filterSensors(temps, "k10temp", "coretemp")
}

func NVMeTemperatures(temps []metrics.Temperature) []metrics.Temperature {
	return filterSensors(temps, "nvme")
}

func GPUTemperatures(temps []metrics.Temperature) []metrics.Temperature {
	return filterSensors(temps, "amdgpu", "nvidia", "radeon")
}

func filterSensors(temps []metrics.Temperature, names ...string) []metrics.Temperature {
	var out []metrics.Temperature
	for _, t := range temps {
		for _, n := range names {
			if strings.Contains(t.Sensor, n) {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// readTrimmed returns the trimmed file content, or "" when it cannot be read.
func readTrimmed(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
