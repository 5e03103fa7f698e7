// Package monitor samples host metrics and drives the periodic
// collect-detect-publish loop.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"

	"github.com/haskel/hostwatch/internal/metrics"
)

type CollectorOptions struct {
	Interval       time.Duration
	CPUSettle      time.Duration
	HwmonRoot      string
	USBRoot        string
	KernelLogSince string
	GPUEnabled     bool
	GPUTimeout     time.Duration
	Runner         CommandRunner
}

// Collector runs every sampler once per tick and assembles a Snapshot.
type Collector struct {
	cpu         *CPUSampler
	memory      *MemorySampler
	disk        *DiskSampler
	network     *NetworkSampler
	temperature *TemperatureSampler
	usb         *USBSampler
	gpu         GPUSampler
	logger      *slog.Logger
}

// NewCollector fails only when disk enumeration is entirely unavailable.
func NewCollector(ctx context.Context, opts CollectorOptions, logger *slog.Logger) (*Collector, error) {
	if opts.Runner == nil {
		opts.Runner = NewExecRunner()
	}

	diskSampler, err := NewDiskSampler(ctx, opts.Interval, logger)
	if err != nil {
		return nil, fmt.Errorf("disk sampler: %w", err)
	}

	var gpu GPUSampler = NoGPU{}
	if opts.GPUEnabled {
		gpu = NewNvidiaSampler(ctx, opts.Runner, opts.GPUTimeout, logger)
	}

	c := &Collector{
		cpu:         NewCPUSampler(opts.CPUSettle, logger),
		memory:      NewMemorySampler(logger),
		disk:        diskSampler,
		network:     NewNetworkSampler(ctx, logger),
		temperature: NewTemperatureSampler(opts.HwmonRoot, logger),
		usb:         NewUSBSampler(opts.USBRoot, opts.KernelLogSince, opts.Runner, logger),
		gpu:         gpu,
		logger:      logger,
	}

	logger.Info("collector initialized", "gpu_available", gpu.Available())
	return c, nil
}

// CollectAll never fails; a sampler that cannot read its source contributes
// an empty value.
func (c *Collector) CollectAll(ctx context.Context) *metrics.Snapshot {
	c.cpu.Refresh(ctx)
	c.disk.Refresh(ctx)

	snap := &metrics.Snapshot{
		CPU:          c.cpu.Collect(ctx),
		Memory:       c.memory.Collect(ctx),
		Temperatures: c.temperature.Collect(),
		Disks:        c.disk.Collect(ctx),
		USBDevices:   c.usb.Collect(ctx),
		Network:      c.network.Collect(ctx),
		GPU:          c.gpu.Collect(ctx),
	}
	snap.Timestamp = time.Now()
	return snap
}

func (c *Collector) GPUAvailable() bool {
	return c.gpu.Available()
}

// CoreCount returns the number of logical CPUs.
func CoreCount(ctx context.Context) int {
	n, err := cpu.CountsWithContext(ctx, true)
	if err != nil || n <= 0 {
		return runtime.NumCPU()
	}
	return n
}
