package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/haskel/hostwatch/internal/detector"
	"github.com/haskel/hostwatch/internal/metrics"
)

// Colors
var (
	colorPrimary   = lipgloss.Color("86")  // Cyan
	colorSecondary = lipgloss.Color("240") // Gray
	colorSuccess   = lipgloss.Color("82")  // Green
	colorWarning   = lipgloss.Color("214") // Orange
	colorDanger    = lipgloss.Color("196") // Red
	colorMuted     = lipgloss.Color("245") // Light gray
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	sectionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorPrimary)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(colorPrimary).
			Padding(0, 1)

	tabStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)

	progressBarEmptyStyle = lipgloss.NewStyle().
				Foreground(colorSecondary)

	tableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorPrimary).
				BorderBottom(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(colorSecondary)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	labelStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorDanger).
			Bold(true)
)

// thresholds is the warning/critical pair a gauge is coloured by.
type thresholds struct {
	warning  float64
	critical float64
}

var (
	usageThresholds       = thresholds{70, detector.CPUCriticalThreshold}
	memoryThresholds      = thresholds{80, detector.MemoryCriticalThreshold}
	diskThresholds        = thresholds{75, detector.DiskCriticalThreshold}
	temperatureThresholds = thresholds{70, detector.TemperatureCritical}
)

func gaugeColor(value float64, t thresholds) lipgloss.Color {
	sev, ok := detector.ClassifySeverity(value, t.warning, t.critical)
	if !ok {
		return colorSuccess
	}
	return severityColor(sev)
}

func severityColor(sev metrics.Severity) lipgloss.Color {
	switch sev {
	case metrics.SeverityCritical:
		return colorDanger
	case metrics.SeverityWarning:
		return colorWarning
	default:
		return colorPrimary
	}
}
