package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
)

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		fetchAll(m.config),
		tick(m.config.RefreshInterval),
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case snapshotMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			if msg.data != nil {
				m.snapshot = msg.data
			}
			m.lastUpdated = time.Now()
		}
		return m, nil

	case anomaliesMsg:
		if msg.err != nil {
			// Don't override snapshot error
			if m.err == nil {
				m.err = msg.err
			}
		} else {
			m.anomalies = msg.data
			if m.offset >= len(m.anomalies) {
				m.offset = 0
			}
		}
		return m, nil

	case tickMsg:
		m.loading = true
		return m, tea.Batch(
			fetchAll(m.config),
			tick(m.config.RefreshInterval),
		)
	}

	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, fetchAll(m.config)

	case key.Matches(msg, m.keys.Next):
		m.view = (m.view + 1) % viewCount

	case key.Matches(msg, m.keys.Prev):
		m.view = (m.view + viewCount - 1) % viewCount

	case key.Matches(msg, m.keys.Overview):
		m.view = viewOverview
	case key.Matches(msg, m.keys.CPU):
		m.view = viewCPU
	case key.Matches(msg, m.keys.Memory):
		m.view = viewMemory
	case key.Matches(msg, m.keys.Disks):
		m.view = viewDisks
	case key.Matches(msg, m.keys.Temps):
		m.view = viewTemperatures
	case key.Matches(msg, m.keys.Alerts):
		m.view = viewAnomalies

	case key.Matches(msg, m.keys.Up):
		if m.offset > 0 {
			m.offset--
		}

	case key.Matches(msg, m.keys.Down):
		if m.offset < len(m.anomalies)-1 {
			m.offset++
		}
	}

	return m, nil
}

// handleMouse switches to a tab when it is clicked.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	for v := viewOverview; v < viewCount; v++ {
		if zone.Get(v.zoneID()).InBounds(msg) {
			m.view = v
			break
		}
	}
	return m, nil
}
