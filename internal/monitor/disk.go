package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/shirou/gopsutil/v4/disk"

	"github.com/haskel/hostwatch/internal/metrics"
)

const bytesPerMB = 1024 * 1024

type ioCounts struct {
	readBytes  uint64
	writeBytes uint64
}

// DiskSampler reports space usage per mounted filesystem and the I/O rate of
// the whole disk backing it.
type DiskSampler struct {
	interval time.Duration
	logger   *slog.Logger

	partitions func(ctx context.Context, all bool) ([]disk.PartitionStat, error)
	usage      func(ctx context.Context, path string) (*disk.UsageStat, error)
	ioCounters func(ctx context.Context, names ...string) (map[string]disk.IOCountersStat, error)

	mounts []disk.PartitionStat
	prev   map[string]ioCounts
}

// NewDiskSampler fails when either the mount table or the I/O counters
// cannot be read.
func NewDiskSampler(ctx context.Context, interval time.Duration, logger *slog.Logger) (*DiskSampler, error) {
	s := &DiskSampler{
		interval:   interval,
		logger:     logger,
		partitions: disk.PartitionsWithContext,
		usage:      disk.UsageWithContext,
		ioCounters: disk.IOCountersWithContext,
	}
	if err := s.init(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *DiskSampler) init(ctx context.Context) error {
	mounts, err := s.partitions(ctx, false)
	if err != nil {
		return fmt.Errorf("failed to enumerate mounted filesystems: %w", err)
	}
	counters, err := s.readCounters(ctx)
	if err != nil {
		return fmt.Errorf("failed to read disk counters: %w", err)
	}
	s.mounts = dedupeMounts(mounts)
	s.prev = counters
	return nil
}

// Refresh re-enumerates mounted filesystems. The previous list is kept on
// failure.
func (s *DiskSampler) Refresh(ctx context.Context) {
	mounts, err := s.partitions(ctx, false)
	if err != nil {
		s.logger.Debug("partition refresh failed", "error", err)
		return
	}
	s.mounts = dedupeMounts(mounts)
}

func (s *DiskSampler) Collect(ctx context.Context) []metrics.DiskMetrics {
	current, err := s.readCounters(ctx)
	if err != nil {
		s.logger.Debug("disk counters unavailable", "error", err)
		current = map[string]ioCounts{}
	}

	seconds := s.interval.Seconds()
	if seconds <= 0 {
		seconds = 1
	}
	rates := make(map[string][2]float64, len(current))
	for name, cur := range current {
		prev, ok := s.prev[name]
		if !ok {
			continue
		}
		rates[name] = [2]float64{
			float64(metrics.SaturatingSub(cur.readBytes, prev.readBytes)) / bytesPerMB / seconds,
			float64(metrics.SaturatingSub(cur.writeBytes, prev.writeBytes)) / bytesPerMB / seconds,
		}
	}
	s.prev = current

	result := []metrics.DiskMetrics{}
	for _, m := range s.mounts {
		u, err := s.usage(ctx, m.Mountpoint)
		if err != nil || u == nil {
			s.logger.Debug("disk usage unavailable", "mount", m.Mountpoint, "error", err)
			continue
		}

		d := metrics.DiskMetrics{
			Name:       m.Device,
			MountPoint: m.Mountpoint,
			Total:      u.Total,
			Available:  u.Free,
			Used:       metrics.SaturatingSub(u.Total, u.Free),
		}
		if d.Total > 0 {
			d.UsagePercent = metrics.ClampPercent(float64(d.Used) / float64(d.Total) * 100)
		}
		if r, ok := lookupRate(rates, filepath.Base(m.Device)); ok {
			d.ReadMBs, d.WriteMBs = r[0], r[1]
		}
		result = append(result, d)
	}
	return result
}

// readCounters keeps whole-disk counters only, so a partition never counts
// twice against its parent.
func (s *DiskSampler) readCounters(ctx context.Context) (map[string]ioCounts, error) {
	stats, err := s.ioCounters(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]ioCounts, len(stats))
	for name, st := range stats {
		if isPartition(name) {
			continue
		}
		out[name] = ioCounts{readBytes: st.ReadBytes, writeBytes: st.WriteBytes}
	}
	return out, nil
}

// isPartition reports whether a block device name carries a partition
// suffix: sda1, vdb2, nvme0n1p3, mmcblk0p1.
func isPartition(name string) bool {
	if isNumberedDisk(name) {
		return hasPartitionSuffix(name)
	}
	return len(name) > 3 && endsInDigit(name)
}

func lookupRate(rates map[string][2]float64, device string) ([2]float64, bool) {
	if r, ok := rates[device]; ok {
		return r, true
	}
	r, ok := rates[parentDevice(device)]
	return r, ok
}

// parentDevice strips a partition suffix: sda1 -> sda, nvme0n1p2 -> nvme0n1.
func parentDevice(name string) string {
	if isNumberedDisk(name) {
		if hasPartitionSuffix(name) {
			return name[:strings.LastIndex(name, "p")]
		}
		return name
	}
	return strings.TrimRightFunc(name, unicode.IsDigit)
}

// isNumberedDisk matches device families whose whole-disk names already end
// in a digit.
func isNumberedDisk(name string) bool {
	return strings.HasPrefix(name, "nvme") || strings.HasPrefix(name, "mmcblk")
}

func hasPartitionSuffix(name string) bool {
	i := strings.LastIndex(name, "p")
	if i <= 0 || i == len(name)-1 {
		return false
	}
	for _, r := range name[i+1:] {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return unicode.IsDigit(rune(name[i-1]))
}

func endsInDigit(name string) bool {
	return name != "" && unicode.IsDigit(rune(name[len(name)-1]))
}

func dedupeMounts(mounts []disk.PartitionStat) []disk.PartitionStat {
	seen := make(map[string]bool, len(mounts))
	out := make([]disk.PartitionStat, 0, len(mounts))
	for _, m := range mounts {
		if seen[m.Mountpoint] {
			continue
		}
		seen[m.Mountpoint] = true
		out = append(out, m)
	}
	return out
}
