package cli

import (
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running hostwatch server",
	Long:  `Stop the hostwatch server by sending SIGTERM to the process recorded in the PID file.`,
	RunE:  runStop,
}

func init() {
	stopCmd.Flags().StringVar(&pidFile, "pid-file", "", "PID file path (overrides config)")
	rootCmd.AddCommand(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
	pid, err := signalDaemon(syscall.SIGTERM)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		fmt.Fprintf(out, `{"status":"stopped","pid":%d}`+"\n", pid)
	} else {
		fmt.Fprintf(out, "Sent SIGTERM to process %d\n", pid)
	}
	return nil
}
