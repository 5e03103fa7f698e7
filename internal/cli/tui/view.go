package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	zone "github.com/lrstanley/bubblezone"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
)

const maxVisibleAnomalies = 15

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	sections := []string{m.renderTitleBar(), m.renderTabs()}

	if m.err != nil {
		sections = append(sections, errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	if m.view != viewAnomalies && m.snapshot == nil {
		sections = append(sections, helpStyle.Render("  No metrics collected yet"))
	} else {
		sections = append(sections, m.renderBody())
	}

	sections = append(sections, m.renderFooter())

	return zone.Scan(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m Model) renderBody() string {
	switch m.view {
	case viewCPU:
		return m.renderCPU()
	case viewMemory:
		return m.renderMemory()
	case viewDisks:
		return m.renderDisks()
	case viewTemperatures:
		return m.renderTemperatures()
	case viewAnomalies:
		return m.renderAnomalies()
	default:
		return m.renderOverview()
	}
}

func (m Model) renderTitleBar() string {
	title := titleStyle.Render("HOSTWATCH")

	refreshInfo := fmt.Sprintf("↻ %s", m.config.RefreshInterval)
	if m.loading {
		refreshInfo = "↻ loading..."
	}

	rightPart := fmt.Sprintf("%s | %s", refreshInfo, m.keys.helpLine())
	spacing := m.width - lipgloss.Width(title) - lipgloss.Width(rightPart) - 2
	if spacing < 1 {
		spacing = 1
	}

	return fmt.Sprintf("%s%s%s", title, strings.Repeat(" ", spacing), helpStyle.Render(rightPart))
}

func (m Model) renderTabs() string {
	tabs := make([]string, 0, viewCount)
	for v := viewOverview; v < viewCount; v++ {
		label := fmt.Sprintf("%d %s", v+1, v)
		style := tabStyle
		if v == m.view {
			style = activeTabStyle
		}
		tabs = append(tabs, zone.Mark(v.zoneID(), style.Render(label)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func renderProgressBar(label string, percent float64, width int, t thresholds) string {
	filled := int(percent / 100 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	filledBar := lipgloss.NewStyle().Foreground(gaugeColor(percent, t)).Render(strings.Repeat("█", filled))
	emptyBar := progressBarEmptyStyle.Render(strings.Repeat("░", width-filled))

	return fmt.Sprintf("%s [%s%s] %5.1f%%", labelStyle.Render(label), filledBar, emptyBar, percent)
}

func (m Model) renderOverview() string {
	s := m.snapshot
	lines := []string{
		fmt.Sprintf("  %s    %s",
			renderProgressBar("CPU   ", s.CPU.GlobalUsage, 20, usageThresholds),
			renderProgressBar("Memory", s.Memory.UsagePercent, 20, memoryThresholds)),
		fmt.Sprintf("  %s %s    %s %s",
			labelStyle.Render("Load"), valueStyle.Render(fmt.Sprintf("%.2f %.2f %.2f", s.CPU.LoadAvg.One, s.CPU.LoadAvg.Five, s.CPU.LoadAvg.Fifteen)),
			labelStyle.Render("Max temp"), valueStyle.Render(fmt.Sprintf("%.1f°C", s.MaxTemperature()))),
		fmt.Sprintf("  %s %s    %s %s",
			labelStyle.Render("Fullest disk"), valueStyle.Render(fmt.Sprintf("%.1f%%", s.MaxDiskUsage())),
			labelStyle.Render("Busiest disk"), valueStyle.Render(fmt.Sprintf("%.1f MB/s", s.MaxDiskIO()))),
		fmt.Sprintf("  %s %s    %s %s",
			labelStyle.Render("Net RX/TX"), valueStyle.Render(humanize.IBytes(s.Network.RxBytes)+" / "+humanize.IBytes(s.Network.TxBytes)),
			labelStyle.Render("Connections"), valueStyle.Render(humanize.Comma(int64(s.Network.Connections)))),
	}

	usb := fmt.Sprintf("%d devices", len(s.USBDevices))
	if ids := s.TimedOutDevices(); len(ids) > 0 {
		usb += " " + errorStyle.Render("timeouts: "+strings.Join(ids, ", "))
	}
	lines = append(lines, fmt.Sprintf("  %s %s", labelStyle.Render("USB"), valueStyle.Render(usb)))

	if g := s.GPU; g != nil {
		lines = append(lines,
			sectionHeaderStyle.Render("  GPU: "+clip(g.Name, 30)),
			fmt.Sprintf("  %s    %s  %s",
				renderProgressBar("Usage", g.Usage, 12, usageThresholds),
				renderProgressBar("VRAM", g.MemoryUsage, 12, memoryThresholds),
				valueStyle.Render(fmt.Sprintf("%.0f°C %.1fW", g.Temperature, g.PowerDraw))))
	}

	if n := len(m.anomalies); n > 0 {
		latest := m.anomalies[0]
		lines = append(lines, fmt.Sprintf("  %s %s",
			labelStyle.Render(fmt.Sprintf("Latest of %d anomalies:", n)),
			lipgloss.NewStyle().Foreground(severityColor(latest.Severity)).Render(latest.Message)))
	}

	return strings.Join(lines, "\n")
}

func (m Model) renderCPU() string {
	s := m.snapshot
	lines := []string{
		sectionHeaderStyle.Render("  CPU"),
		"  " + renderProgressBar("Total  ", s.CPU.GlobalUsage, 30, usageThresholds),
	}
	for i, u := range s.CPU.PerCoreUsage {
		lines = append(lines, "  "+renderProgressBar(fmt.Sprintf("core%-3d", i), u, 30, usageThresholds))
	}
	lines = append(lines, fmt.Sprintf("  %s %.2f / %.2f / %.2f",
		labelStyle.Render("Load 1/5/15"), s.CPU.LoadAvg.One, s.CPU.LoadAvg.Five, s.CPU.LoadAvg.Fifteen))
	return strings.Join(lines, "\n")
}

func (m Model) renderMemory() string {
	mem := m.snapshot.Memory
	lines := []string{
		sectionHeaderStyle.Render("  Memory"),
		fmt.Sprintf("  %s  %s",
			renderProgressBar("RAM ", mem.UsagePercent, 30, memoryThresholds),
			valueStyle.Render(fmt.Sprintf("(%s / %s, %s available)",
				humanize.IBytes(mem.Used), humanize.IBytes(mem.Total), humanize.IBytes(mem.Available)))),
	}
	if mem.SwapTotal > 0 {
		swapPct := float64(mem.SwapUsed) / float64(mem.SwapTotal) * 100
		lines = append(lines, fmt.Sprintf("  %s  %s",
			renderProgressBar("Swap", swapPct, 30, memoryThresholds),
			valueStyle.Render(fmt.Sprintf("(%s / %s)", humanize.IBytes(mem.SwapUsed), humanize.IBytes(mem.SwapTotal)))))
	} else {
		lines = append(lines, helpStyle.Render("  No swap configured"))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderDisks() string {
	lines := []string{sectionHeaderStyle.Render("  Disks")}
	if len(m.snapshot.Disks) == 0 {
		return strings.Join(append(lines, helpStyle.Render("  No filesystems")), "\n")
	}

	header := fmt.Sprintf("  %-12s %-16s %-40s %10s %10s", "Device", "Mount", "Usage", "Read MB/s", "Write MB/s")
	lines = append(lines, tableHeaderStyle.Render(header))
	for _, d := range m.snapshot.Disks {
		lines = append(lines, fmt.Sprintf("  %-12s %-16s %s %10.1f %10.1f",
			clip(d.Name, 12), clip(d.MountPoint, 16),
			renderProgressBar("", d.UsagePercent, 20, diskThresholds), d.ReadMBs, d.WriteMBs))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderTemperatures() string {
	lines := []string{sectionHeaderStyle.Render("  Temperatures")}
	if len(m.snapshot.Temperatures) == 0 {
		return strings.Join(append(lines, helpStyle.Render("  No sensors found")), "\n")
	}

	for _, t := range m.snapshot.Temperatures {
		label := t.Label
		if label == "" {
			label = t.Sensor
		}
		value := lipgloss.NewStyle().Foreground(gaugeColor(t.Value, temperatureThresholds)).
			Render(fmt.Sprintf("%5.1f°C", t.Value))
		lines = append(lines, fmt.Sprintf("  %-14s %-24s %s", clip(t.Sensor, 14), clip(label, 24), value))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderAnomalies() string {
	lines := []string{sectionHeaderStyle.Render("  Anomalies")}
	if len(m.anomalies) == 0 {
		return strings.Join(append(lines, helpStyle.Render("  No anomalies")), "\n")
	}

	header := fmt.Sprintf("  %-16s %-11s %-8s %s", "When", "Category", "Severity", "Message")
	lines = append(lines, tableHeaderStyle.Render(header))

	start, end := m.offset, m.offset+maxVisibleAnomalies
	if end > len(m.anomalies) {
		end = len(m.anomalies)
	}
	for _, a := range m.anomalies[start:end] {
		sev := lipgloss.NewStyle().Foreground(severityColor(a.Severity)).Render(fmt.Sprintf("%-8s", a.Severity))
		lines = append(lines, fmt.Sprintf("  %-16s %-11s %s %s",
			humanize.Time(a.Timestamp), a.Category, sev, clip(a.Message, 60)))
	}

	if len(m.anomalies) > maxVisibleAnomalies {
		lines = append(lines, helpStyle.Render(fmt.Sprintf("  [%d-%d of %d]", start+1, end, len(m.anomalies))))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderFooter() string {
	if m.lastUpdated.IsZero() {
		return ""
	}
	return helpStyle.Render(fmt.Sprintf("  %s │ Updated: %s", m.config.ServerURL, m.lastUpdated.Format("15:04:05")))
}

// clip shortens s to n terminal cells, ending in an ellipsis.
func clip(s string, n int) string {
	if ansi.PrintableRuneWidth(s) <= n {
		return s
	}
	return truncate.StringWithTail(s, uint(n), "...")
}
