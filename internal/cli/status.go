package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haskel/hostwatch/internal/metrics"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the latest snapshot from a running agent",
	Long:  `Query the running hostwatch server for the most recent metrics snapshot.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	client := NewClient()
	out := cmd.OutOrStdout()

	var snap metrics.Snapshot
	ok, err := client.GetData("/api/v1/metrics/current", &snap)
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	if !ok {
		if jsonOut {
			fmt.Fprintln(out, "null")
		} else {
			fmt.Fprintln(out, "No metrics collected yet")
		}
		return nil
	}

	if jsonOut {
		data, err := json.MarshalIndent(&snap, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	printSnapshot(out, &snap)
	return nil
}
