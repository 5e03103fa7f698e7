package metrics

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Severity string

const (
	SeverityInfo     Severity = "Info"
	SeverityWarning  Severity = "Warning"
	SeverityCritical Severity = "Critical"
)

// ParseSeverity matches a severity name case-insensitively.
func ParseSeverity(s string) (Severity, bool) {
	for _, sev := range []Severity{SeverityInfo, SeverityWarning, SeverityCritical} {
		if strings.EqualFold(s, string(sev)) {
			return sev, true
		}
	}
	return "", false
}

type Category string

const (
	CategoryCPU         Category = "Cpu"
	CategoryMemory      Category = "Memory"
	CategoryTemperature Category = "Temperature"
	CategoryDisk        Category = "Disk"
	CategoryUSB         Category = "Usb"
	CategoryNetwork     Category = "Network"
	CategoryGPU         Category = "Gpu"
	CategorySystem      Category = "System"
)

// Anomaly is an alert emitted by one detection rule. Metrics carries the
// numbers the rule decided on.
type Anomaly struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Severity  Severity       `json:"severity"`
	Category  Category       `json:"category"`
	Message   string         `json:"message"`
	Metrics   map[string]any `json:"metrics"`
}

// NewAnomaly stamps a fresh id and the current time.
func NewAnomaly(sev Severity, cat Category, msg string, payload map[string]any) Anomaly {
	return Anomaly{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Severity:  sev,
		Category:  cat,
		Message:   msg,
		Metrics:   payload,
	}
}
