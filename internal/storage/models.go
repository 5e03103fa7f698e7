package storage

import (
	"time"

	"github.com/haskel/hostwatch/internal/metrics"
)

// MetricsRecord is one persisted snapshot. Scalar readings get their own
// columns; variable-length lists are stored as JSON.
type MetricsRecord struct {
	ID        int64     `gorm:"primaryKey"`
	Timestamp time.Time `gorm:"index"`

	CPUUsage  float64
	PerCore   []float64 `gorm:"serializer:json"`
	LoadAvg1  float64
	LoadAvg5  float64
	LoadAvg15 float64

	MemoryTotal     uint64
	MemoryUsed      uint64
	MemoryAvailable uint64
	MemoryUsage     float64
	SwapTotal       uint64
	SwapUsed        uint64

	NetworkRxBytes   uint64
	NetworkTxBytes   uint64
	NetworkRxPackets uint64
	NetworkTxPackets uint64
	Connections      int
	Interfaces       []metrics.InterfaceStats `gorm:"serializer:json"`

	Temperatures []metrics.Temperature `gorm:"serializer:json"`
	Disks        []metrics.DiskMetrics `gorm:"serializer:json"`
	USBDevices   []metrics.USBDevice   `gorm:"serializer:json"`
	GPU          *metrics.GPUMetrics   `gorm:"serializer:json"`
}

func (MetricsRecord) TableName() string { return "metrics" }

func newMetricsRecord(s *metrics.Snapshot) *MetricsRecord {
	return &MetricsRecord{
		Timestamp:        s.Timestamp.UTC(),
		CPUUsage:         s.CPU.GlobalUsage,
		PerCore:          s.CPU.PerCoreUsage,
		LoadAvg1:         s.CPU.LoadAvg.One,
		LoadAvg5:         s.CPU.LoadAvg.Five,
		LoadAvg15:        s.CPU.LoadAvg.Fifteen,
		MemoryTotal:      s.Memory.Total,
		MemoryUsed:       s.Memory.Used,
		MemoryAvailable:  s.Memory.Available,
		MemoryUsage:      s.Memory.UsagePercent,
		SwapTotal:        s.Memory.SwapTotal,
		SwapUsed:         s.Memory.SwapUsed,
		NetworkRxBytes:   s.Network.RxBytes,
		NetworkTxBytes:   s.Network.TxBytes,
		NetworkRxPackets: s.Network.RxPackets,
		NetworkTxPackets: s.Network.TxPackets,
		Connections:      s.Network.Connections,
		Interfaces:       s.Network.Interfaces,
		Temperatures:     s.Temperatures,
		Disks:            s.Disks,
		USBDevices:       s.USBDevices,
		GPU:              s.GPU,
	}
}

func (r *MetricsRecord) Snapshot() *metrics.Snapshot {
	return &metrics.Snapshot{
		Timestamp: r.Timestamp,
		CPU: metrics.CPUMetrics{
			GlobalUsage:  r.CPUUsage,
			PerCoreUsage: r.PerCore,
			LoadAvg:      metrics.LoadAverage{One: r.LoadAvg1, Five: r.LoadAvg5, Fifteen: r.LoadAvg15},
		},
		Memory: metrics.MemoryMetrics{
			Total:        r.MemoryTotal,
			Used:         r.MemoryUsed,
			Available:    r.MemoryAvailable,
			UsagePercent: r.MemoryUsage,
			SwapTotal:    r.SwapTotal,
			SwapUsed:     r.SwapUsed,
		},
		Network: metrics.NetworkMetrics{
			RxBytes:     r.NetworkRxBytes,
			TxBytes:     r.NetworkTxBytes,
			RxPackets:   r.NetworkRxPackets,
			TxPackets:   r.NetworkTxPackets,
			Interfaces:  r.Interfaces,
			Connections: r.Connections,
		},
		Temperatures: r.Temperatures,
		Disks:        r.Disks,
		USBDevices:   r.USBDevices,
		GPU:          r.GPU,
	}
}

type AnomalyRecord struct {
	ID        int64     `gorm:"primaryKey"`
	AnomalyID string    `gorm:"uniqueIndex;size:36"`
	Timestamp time.Time `gorm:"index"`
	Severity  string    `gorm:"index"`
	Category  string
	Message   string
	Metrics   map[string]any `gorm:"serializer:json"`
}

func (AnomalyRecord) TableName() string { return "anomalies" }

func newAnomalyRecord(a metrics.Anomaly) *AnomalyRecord {
	return &AnomalyRecord{
		AnomalyID: a.ID,
		Timestamp: a.Timestamp.UTC(),
		Severity:  string(a.Severity),
		Category:  string(a.Category),
		Message:   a.Message,
		Metrics:   a.Metrics,
	}
}

func (r *AnomalyRecord) Anomaly() metrics.Anomaly {
	return metrics.Anomaly{
		ID:        r.AnomalyID,
		Timestamp: r.Timestamp,
		Severity:  metrics.Severity(r.Severity),
		Category:  metrics.Category(r.Category),
		Message:   r.Message,
		Metrics:   r.Metrics,
	}
}

// Setting is a persisted key/value pair.
type Setting struct {
	Key       string `gorm:"primaryKey"`
	Value     string
	UpdatedAt time.Time
}

func (Setting) TableName() string { return "settings" }
