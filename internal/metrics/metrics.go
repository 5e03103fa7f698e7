// Package metrics defines the snapshot and anomaly records shared by the
// collection pipeline, the store and the transport layers.
package metrics

import "time"

type LoadAverage struct {
	One     float64 `json:"one"`
	Five    float64 `json:"five"`
	Fifteen float64 `json:"fifteen"`
}

type CPUMetrics struct {
	GlobalUsage  float64     `json:"global_usage"`
	PerCoreUsage []float64   `json:"per_core_usage"`
	LoadAvg      LoadAverage `json:"load_avg"`
}

type MemoryMetrics struct {
	Total        uint64  `json:"total"`
	Used         uint64  `json:"used"`
	Available    uint64  `json:"available"`
	UsagePercent float64 `json:"usage_percent"`
	SwapTotal    uint64  `json:"swap_total"`
	SwapUsed     uint64  `json:"swap_used"`
}

type Temperature struct {
	Sensor string  `json:"sensor"`
	Value  float64 `json:"value"`
	Label  string  `json:"label"`
}

type DiskMetrics struct {
	Name         string  `json:"name"`
	MountPoint   string  `json:"mount_point"`
	Total        uint64  `json:"total"`
	Used         uint64  `json:"used"`
	Available    uint64  `json:"available"`
	UsagePercent float64 `json:"usage_percent"`
	ReadMBs      float64 `json:"read_mb_s"`
	WriteMBs     float64 `json:"write_mb_s"`
}

// IO is the combined read and write rate.
func (d DiskMetrics) IO() float64 {
	return d.ReadMBs + d.WriteMBs
}

type USBDevice struct {
	ID           string `json:"id"`
	BusPath      string `json:"bus_path"`
	Manufacturer string `json:"manufacturer"`
	Product      string `json:"product"`
	Timeout      bool   `json:"timeout"`
}

type InterfaceStats struct {
	Name      string `json:"name"`
	RxBytes   uint64 `json:"rx_bytes"`
	TxBytes   uint64 `json:"tx_bytes"`
	RxPackets uint64 `json:"rx_packets"`
	TxPackets uint64 `json:"tx_packets"`
}

// NetworkMetrics holds counter deltas since the previous read, summed over
// every non-loopback interface.
type NetworkMetrics struct {
	RxBytes     uint64           `json:"rx_bytes"`
	TxBytes     uint64           `json:"tx_bytes"`
	RxPackets   uint64           `json:"rx_packets"`
	TxPackets   uint64           `json:"tx_packets"`
	Interfaces  []InterfaceStats `json:"interfaces"`
	Connections int              `json:"connections"`
}

type GPUMetrics struct {
	Name          string  `json:"name"`
	Temperature   float64 `json:"temperature"`
	Usage         float64 `json:"usage"`
	MemoryUsage   float64 `json:"memory_usage"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	MemoryUsedMB  float64 `json:"memory_used_mb"`
	MemoryFreeMB  float64 `json:"memory_free_mb"`
	PowerDraw     float64 `json:"power_draw"`
	FanSpeed      float64 `json:"fan_speed"`
}

// Snapshot is the complete metric set captured in one tick. It is never
// modified after the collector returns it.
type Snapshot struct {
	Timestamp    time.Time      `json:"timestamp"`
	CPU          CPUMetrics     `json:"cpu"`
	Memory       MemoryMetrics  `json:"memory"`
	Temperatures []Temperature  `json:"temperatures"`
	Disks        []DiskMetrics  `json:"disks"`
	USBDevices   []USBDevice    `json:"usb_devices"`
	Network      NetworkMetrics `json:"network"`
	GPU          *GPUMetrics    `json:"gpu,omitempty"`
}

// MaxTemperature returns the hottest sensor reading, or 0 with no sensors.
func (s *Snapshot) MaxTemperature() float64 {
	var highest float64
	for _, t := range s.Temperatures {
		if t.Value > highest {
			highest = t.Value
		}
	}
	return highest
}

// MaxDiskUsage returns the fullest filesystem's usage percent.
func (s *Snapshot) MaxDiskUsage() float64 {
	var highest float64
	for _, d := range s.Disks {
		if d.UsagePercent > highest {
			highest = d.UsagePercent
		}
	}
	return highest
}

// MaxDiskIO returns the busiest disk's combined read and write rate.
func (s *Snapshot) MaxDiskIO() float64 {
	var highest float64
	for _, d := range s.Disks {
		if io := d.IO(); io > highest {
			highest = io
		}
	}
	return highest
}

// TimedOutDevices returns the ids of USB devices flagged with a timeout.
func (s *Snapshot) TimedOutDevices() []string {
	var ids []string
	for _, d := range s.USBDevices {
		if d.Timeout {
			ids = append(ids, d.ID)
		}
	}
	return ids
}

// ClampPercent bounds v to [0, 100].
func ClampPercent(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// SaturatingSub returns cur - prev, or 0 when the counter went backwards.
func SaturatingSub(cur, prev uint64) uint64 {
	if cur < prev {
		return 0
	}
	return cur - prev
}
