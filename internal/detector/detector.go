// Package detector turns consecutive snapshots into anomalies.
package detector

import (
	"github.com/haskel/hostwatch/internal/metrics"
)

const (
	CPUSpikeThreshold        = 40.0
	CPUCriticalThreshold     = 90.0
	MemorySpikeThreshold     = 20.0
	MemoryCriticalThreshold  = 95.0
	TemperatureCritical      = 85.0
	TemperatureDropThreshold = 30.0
	DiskCriticalThreshold    = 90.0
	DiskIOThreshold          = 500.0
	LoadPerCoreThreshold     = 2.0
	GPUTemperatureCritical   = 90.0
	GPUUsageThreshold        = 95.0
	GPUMemoryThreshold       = 95.0
)

// Detector keeps exactly one previous snapshot. It is not safe for
// concurrent use; the collection loop owns it.
type Detector struct {
	previous *metrics.Snapshot
	numCPUs  int
}

func New(numCPUs int) *Detector {
	if numCPUs < 1 {
		numCPUs = 1
	}
	return &Detector{numCPUs: numCPUs}
}

// Check evaluates history-based rules when a previous snapshot exists, then
// the absolute rules. current always becomes the new previous snapshot.
func (d *Detector) Check(current *metrics.Snapshot) []metrics.Anomaly {
	var anomalies []metrics.Anomaly

	if d.previous != nil {
		anomalies = append(anomalies, comparativeRules(d.previous, current)...)
	}
	anomalies = append(anomalies, absoluteRules(current, d.numCPUs)...)

	d.previous = current
	return anomalies
}

// Reset drops the retained snapshot so the next Check runs absolute rules only.
func (d *Detector) Reset() {
	d.previous = nil
}

func (d *Detector) HasPrevious() bool {
	return d.previous != nil
}

func (d *Detector) NumCPUs() int {
	return d.numCPUs
}
