package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/haskel/hostwatch/internal/config"
)

var pidFile string

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("PID file not found: %s (server may not be running)", path)
		}
		return 0, fmt.Errorf("failed to read PID file: %w", err)
	}

	pidStr := strings.TrimSpace(string(data))
	pid, err := strconv.Atoi(pidStr)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid PID in file: %q", pidStr)
	}
	return pid, nil
}

// resolvePIDFile prefers --pid-file, then the config file value.
func resolvePIDFile() (string, error) {
	path := pidFile
	if path == "" {
		path = config.LoadOrDefault(cfgFile).Server.PIDFile
	}
	if path == "" {
		return "", fmt.Errorf("no PID file specified (use --pid-file or configure server.pid_file)")
	}
	return path, nil
}

// signalDaemon sends sig to the process recorded in the PID file.
func signalDaemon(sig syscall.Signal) (int, error) {
	path, err := resolvePIDFile()
	if err != nil {
		return 0, err
	}

	pid, err := readPIDFile(path)
	if err != nil {
		return 0, err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return 0, fmt.Errorf("process not found: %d", pid)
	}

	if err := process.Signal(sig); err != nil {
		return 0, fmt.Errorf("failed to send %s to %d: %w", sig, pid, err)
	}
	return pid, nil
}
