package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/haskel/hostwatch/internal/detector"
	"github.com/haskel/hostwatch/internal/logger"
	"github.com/haskel/hostwatch/internal/metrics"
	"github.com/haskel/hostwatch/internal/monitor"
)

var detectOnce bool

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Collect one snapshot locally without a server",
	Long: `Run every sampler in-process and print the result. The command waits one
collection interval so that disk and network rates cover a real window.
With --detect, a second snapshot is taken and both rule passes run.`,
	RunE: runSnapshot,
}

// SnapshotResult is the --json output of the snapshot command.
type SnapshotResult struct {
	Snapshot  *metrics.Snapshot `json:"snapshot"`
	Anomalies []metrics.Anomaly `json:"anomalies,omitempty"`
}

func init() {
	snapshotCmd.Flags().BoolVar(&detectOnce, "detect", false, "run anomaly detection over two consecutive snapshots")
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	level := "error"
	if verbose {
		level = "debug"
	}
	log := logger.New(level, "text")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	collector, err := monitor.NewCollector(ctx, collectorOptions(cfg), log)
	if err != nil {
		return fmt.Errorf("failed to create collector: %w", err)
	}

	interval := cfg.MonitoringInterval()
	if !sleepCtx(ctx, interval) {
		return ctx.Err()
	}
	snap := collector.CollectAll(ctx)

	var found []metrics.Anomaly
	if detectOnce {
		det := detector.New(monitor.CoreCount(ctx))
		found = append(found, det.Check(snap)...)

		if !sleepCtx(ctx, interval) {
			return ctx.Err()
		}
		snap = collector.CollectAll(ctx)
		found = append(found, det.Check(snap)...)
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		data, err := json.MarshalIndent(SnapshotResult{Snapshot: snap, Anomalies: found}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	printSnapshot(out, snap)
	if detectOnce {
		fmt.Fprintf(out, "\nAnomalies:\n")
		printAnomalies(out, found)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
