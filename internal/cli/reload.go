package cli

import (
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
)

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Reload configuration and reset anomaly history",
	Long: `Send SIGHUP to the running server. It re-reads the config file, applies
new credentials and clears the detector's previous snapshot so the next tick
only runs absolute rules.`,
	RunE: runReload,
}

func init() {
	reloadCmd.Flags().StringVar(&pidFile, "pid-file", "", "PID file path (overrides config)")
	rootCmd.AddCommand(reloadCmd)
}

func runReload(cmd *cobra.Command, args []string) error {
	pid, err := signalDaemon(syscall.SIGHUP)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		fmt.Fprintf(out, `{"status":"reload_requested","pid":%d}`+"\n", pid)
	} else {
		fmt.Fprintf(out, "Sent SIGHUP to process %d (configuration reload requested)\n", pid)
	}
	return nil
}
