package tui

import (
	"time"

	"github.com/haskel/hostwatch/internal/metrics"
)

// Config holds TUI configuration
type Config struct {
	ServerURL       string
	RefreshInterval time.Duration
	User            string
	Password        string
}

type view int

const (
	viewOverview view = iota
	viewCPU
	viewMemory
	viewDisks
	viewTemperatures
	viewAnomalies
	viewCount
)

var viewNames = [viewCount]string{"Overview", "CPU", "Memory", "Disks", "Temps", "Anomalies"}

func (v view) zoneID() string {
	return "tab-" + viewNames[v]
}

func (v view) String() string {
	if v < 0 || v >= viewCount {
		return "?"
	}
	return viewNames[v]
}

// Model represents the TUI state
type Model struct {
	config Config
	keys   keyMap

	// Data from API
	snapshot  *metrics.Snapshot
	anomalies []metrics.Anomaly

	// UI state
	view        view
	width       int
	height      int
	loading     bool
	err         error
	lastUpdated time.Time

	// Anomaly list scroll position
	offset int
}

// NewModel creates a new TUI model
func NewModel(cfg Config) Model {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 2 * time.Second
	}
	return Model{
		config:  cfg,
		keys:    defaultKeyMap(),
		loading: true,
	}
}
