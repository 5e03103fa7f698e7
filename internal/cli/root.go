// Package cli implements the hostwatch command tree.
package cli

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile  string
	host     string
	port     int
	jsonOut  bool
	verbose  bool
	user     string
	password string

	// Version info (set from main)
	Version = "0.1.0"
)

var rootCmd = &cobra.Command{
	Use:   "hostwatch",
	Short: "Single-host resource monitoring and anomaly detection",
	Long: `hostwatch samples CPU, memory, disks, network, temperatures, USB devices
and NVIDIA GPUs at a fixed interval, flags anomalies between consecutive
snapshots, keeps a SQLite history and serves it over HTTP and WebSocket.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&host, "host", "127.0.0.1", "server host")
	rootCmd.PersistentFlags().IntVarP(&port, "port", "p", 5253, "server port")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&user, "user", "", "auth username")
	rootCmd.PersistentFlags().StringVar(&password, "password", "", "auth password")
}

func SetVersion(v string) {
	Version = v
	rootCmd.Version = v
}

// GetServerURL returns the API base URL from the global flags.
func GetServerURL() string {
	return "http://" + net.JoinHostPort(host, strconv.Itoa(port))
}

func IsJSON() bool {
	return jsonOut
}

func IsVerbose() bool {
	return verbose
}
