package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/haskel/hostwatch/internal/metrics"
	"github.com/haskel/hostwatch/internal/server"
)

var (
	anomalySeverity string
	anomalyLimit    int
)

var anomaliesCmd = &cobra.Command{
	Use:   "anomalies",
	Short: "List recent anomalies",
	Long: `List anomalies recorded by a running agent, newest first.

Examples:
  hostwatch anomalies
  hostwatch anomalies --severity critical --limit 10`,
	RunE: runAnomalies,
}

func init() {
	anomaliesCmd.Flags().StringVar(&anomalySeverity, "severity", "", "filter by severity (info, warning, critical)")
	anomaliesCmd.Flags().IntVar(&anomalyLimit, "limit", 20, "maximum number of anomalies")
	rootCmd.AddCommand(anomaliesCmd)
}

func anomaliesPath(severity string, limit int) (string, error) {
	q := url.Values{}
	if severity != "" {
		sev, ok := metrics.ParseSeverity(severity)
		if !ok {
			return "", fmt.Errorf("invalid severity %q", severity)
		}
		q.Set("severity", string(sev))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	path := "/api/v1/anomalies"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return path, nil
}

func runAnomalies(cmd *cobra.Command, args []string) error {
	path, err := anomaliesPath(anomalySeverity, anomalyLimit)
	if err != nil {
		return err
	}

	var resp server.AnomaliesResponse
	if _, err := NewClient().GetData(path, &resp); err != nil {
		return fmt.Errorf("failed to list anomalies: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		data, err := json.MarshalIndent(resp.Anomalies, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	printAnomalies(out, resp.Anomalies)
	return nil
}
