package monitor

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"

	"github.com/haskel/hostwatch/internal/metrics"
)

type fixedGPU struct{ m *metrics.GPUMetrics }

func (g fixedGPU) Available() bool                               { return g.m != nil }
func (g fixedGPU) Collect(context.Context) *metrics.GPUMetrics { return g.m }

func newFakeCollector(t *testing.T) *Collector {
	t.Helper()
	logger := testLogger()

	cpuSampler := NewCPUSampler(time.Millisecond, logger)
	cpuSampler.times = func(ctx context.Context, percpu bool) ([]cpu.TimesStat, error) {
		return []cpu.TimesStat{{User: 1, Idle: 1}}, nil
	}
	cpuSampler.loadAvg = func(ctx context.Context) (*load.AvgStat, error) {
		return &load.AvgStat{Load15: 0.7}, nil
	}

	memSampler := NewMemorySampler(logger)
	memSampler.virtual = func(ctx context.Context) (*mem.VirtualMemoryStat, error) {
		return &mem.VirtualMemoryStat{Total: 100, Used: 40, Available: 60}, nil
	}
	memSampler.swap = func(ctx context.Context) (*mem.SwapMemoryStat, error) {
		return &mem.SwapMemoryStat{}, nil
	}

	diskSampler := &DiskSampler{
		interval: time.Second,
		logger:   logger,
		partitions: func(ctx context.Context, all bool) ([]disk.PartitionStat, error) {
			return []disk.PartitionStat{{Device: "/dev/vda1", Mountpoint: "/"}}, nil
		},
		usage: func(ctx context.Context, path string) (*disk.UsageStat, error) {
			return &disk.UsageStat{Total: 10, Free: 5}, nil
		},
		ioCounters: func(ctx context.Context, names ...string) (map[string]disk.IOCountersStat, error) {
			return map[string]disk.IOCountersStat{"vda": {}}, nil
		},
	}
	if err := diskSampler.init(context.Background()); err != nil {
		t.Fatalf("disk init: %v", err)
	}

	netSampler := &NetworkSampler{
		logger: logger,
		counters: func(ctx context.Context, pernic bool) ([]net.IOCountersStat, error) {
			return []net.IOCountersStat{{Name: "eth0"}}, nil
		},
		connections: func(ctx context.Context, kind string) ([]net.ConnectionStat, error) {
			return nil, nil
		},
	}

	hwmon := t.TempDir()
	writeFile(t, filepath.Join(hwmon, "hwmon0", "name"), "k10temp")
	writeFile(t, filepath.Join(hwmon, "hwmon0", "temp1_input"), "50000")

	return &Collector{
		cpu:         cpuSampler,
		memory:      memSampler,
		disk:        diskSampler,
		network:     netSampler,
		temperature: NewTemperatureSampler(hwmon, logger),
		usb:         NewUSBSampler(filepath.Join(hwmon, "none"), "", &fakeRunner{}, logger),
		gpu:         fixedGPU{m: &metrics.GPUMetrics{Name: "fake"}},
		logger:      logger,
	}
}

func TestCollector_CollectAll(t *testing.T) {
	c := newFakeCollector(t)

	before := time.Now()
	snap := c.CollectAll(context.Background())

	if snap.Timestamp.Before(before) {
		t.Errorf("snapshot timestamp %v precedes collection start %v", snap.Timestamp, before)
	}
	if snap.CPU.LoadAvg.Fifteen != 0.7 {
		t.Errorf("expected load15 0.7, got %f", snap.CPU.LoadAvg.Fifteen)
	}
	if snap.Memory.UsagePercent != 40 {
		t.Errorf("expected memory usage 40, got %f", snap.Memory.UsagePercent)
	}
	if len(snap.Disks) != 1 || snap.Disks[0].UsagePercent != 50 {
		t.Errorf("unexpected disks: %+v", snap.Disks)
	}
	if len(snap.Temperatures) != 1 || snap.Temperatures[0].Value != 50 {
		t.Errorf("unexpected temperatures: %+v", snap.Temperatures)
	}
	if snap.USBDevices == nil || len(snap.USBDevices) != 0 {
		t.Errorf("expected empty USB list, got %v", snap.USBDevices)
	}
	if snap.GPU == nil || snap.GPU.Name != "fake" {
		t.Errorf("expected fake GPU, got %+v", snap.GPU)
	}
	if !c.GPUAvailable() {
		t.Error("expected GPU to be reported available")
	}
}

func TestCollector_PercentRanges(t *testing.T) {
	c := newFakeCollector(t)

	for i := 0; i < 3; i++ {
		snap := c.CollectAll(context.Background())
		percents := []float64{snap.CPU.GlobalUsage, snap.Memory.UsagePercent}
		percents = append(percents, snap.CPU.PerCoreUsage...)
		for _, d := range snap.Disks {
			percents = append(percents, d.UsagePercent)
		}
		for _, p := range percents {
			if p < 0 || p > 100 {
				t.Errorf("percent out of range: %f", p)
			}
		}
	}
}

func TestCoreCount(t *testing.T) {
	if n := CoreCount(context.Background()); n < 1 {
		t.Errorf("expected at least one core, got %d", n)
	}
}
