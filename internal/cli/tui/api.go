package tui

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/haskel/hostwatch/internal/metrics"
)

// Messages for tea.Cmd
type snapshotMsg struct {
	data *metrics.Snapshot
	err  error
}

type anomaliesMsg struct {
	data []metrics.Anomaly
	err  error
}

type tickMsg time.Time

const anomalyFetchLimit = 100

type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// API client for TUI
type apiClient struct {
	baseURL  string
	client   *http.Client
	user     string
	password string
}

func newAPIClient(cfg Config) *apiClient {
	return &apiClient{
		baseURL: cfg.ServerURL,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		user:     cfg.User,
		password: cfg.Password,
	}
}

// getData decodes the envelope payload into out and reports whether the
// server had any data.
func (c *apiClient) getData(path string, out any) (bool, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false, err
	}

	if c.user != "" && c.password != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return false, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return false, nil
	}
	return true, json.Unmarshal(env.Data, out)
}

func fetchSnapshot(cfg Config) tea.Cmd {
	return func() tea.Msg {
		var snap metrics.Snapshot
		ok, err := newAPIClient(cfg).getData("/api/v1/metrics/current", &snap)
		if err != nil {
			return snapshotMsg{err: err}
		}
		if !ok {
			return snapshotMsg{}
		}
		return snapshotMsg{data: &snap}
	}
}

func fetchAnomalies(cfg Config) tea.Cmd {
	return func() tea.Msg {
		var resp struct {
			Anomalies []metrics.Anomaly `json:"anomalies"`
		}
		path := fmt.Sprintf("/api/v1/anomalies?limit=%d", anomalyFetchLimit)
		if _, err := newAPIClient(cfg).getData(path, &resp); err != nil {
			return anomaliesMsg{err: err}
		}
		return anomaliesMsg{data: resp.Anomalies}
	}
}

func fetchAll(cfg Config) tea.Cmd {
	return tea.Batch(fetchSnapshot(cfg), fetchAnomalies(cfg))
}

// tick creates a periodic tick command
func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
