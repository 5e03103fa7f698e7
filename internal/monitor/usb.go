package monitor

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/haskel/hostwatch/internal/metrics"
)

const (
	DefaultUSBRoot       = "/sys/bus/usb/devices"
	DefaultKernelLogSpan = "5 minutes ago"
	kernelLogTimeout     = 2 * time.Second
)

// USBSampler lists USB devices from sysfs and flags those the kernel log
// recently reported timeouts for.
type USBSampler struct {
	root    string
	since   string
	runner  CommandRunner
	timeout time.Duration
	logger  *slog.Logger
}

func NewUSBSampler(root, since string, runner CommandRunner, logger *slog.Logger) *USBSampler {
	if root == "" {
		root = DefaultUSBRoot
	}
	if since == "" {
		since = DefaultKernelLogSpan
	}
	if runner == nil {
		runner = NewExecRunner()
	}
	return &USBSampler{
		root:    root,
		since:   since,
		runner:  runner,
		timeout: kernelLogTimeout,
		logger:  logger,
	}
}

func (s *USBSampler) Collect(ctx context.Context) []metrics.USBDevice {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		s.logger.Debug("usb sysfs unavailable", "root", s.root, "error", err)
		return []metrics.USBDevice{}
	}

	devices := []metrics.USBDevice{}
	for _, entry := range entries {
		if dev, ok := readUSBDevice(filepath.Join(s.root, entry.Name())); ok {
			devices = append(devices, dev)
		}
	}

	timedOut := s.kernelTimeouts(ctx)
	for i := range devices {
		if timedOut[devices[i].BusPath] || timedOut[devices[i].ID] {
			devices[i].Timeout = true
		}
	}
	return devices
}

// readUSBDevice skips entries without vendor and product ids, such as
// interface nodes.
func readUSBDevice(dir string) (metrics.USBDevice, bool) {
	vendor := readTrimmed(filepath.Join(dir, "idVendor"))
	product := readTrimmed(filepath.Join(dir, "idProduct"))
	if vendor == "" || product == "" {
		return metrics.USBDevice{}, false
	}

	id := vendor + ":" + product
	dev := metrics.USBDevice{
		ID:           id,
		BusPath:      filepath.Base(dir),
		Manufacturer: readTrimmed(filepath.Join(dir, "manufacturer")),
		Product:      readTrimmed(filepath.Join(dir, "product")),
	}
	if dev.Manufacturer == "" {
		dev.Manufacturer = "Unknown"
	}
	if dev.Product == "" {
		dev.Product = "USB Device " + id
	}
	return dev, true
}

func (s *USBSampler) kernelTimeouts(ctx context.Context) map[string]bool {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.runner.Run(ctx, "dmesg", "-T", "--since", s.since)
	if err != nil {
		s.logger.Debug("kernel log scan failed", "error", err)
		return nil
	}
	return parseUSBTimeouts(string(out))
}

// parseUSBTimeouts extracts device path tokens such as "1-2" from kernel log
// lines mentioning both usb and a timeout.
func parseUSBTimeouts(log string) map[string]bool {
	found := make(map[string]bool)
	for _, line := range strings.Split(strings.ToLower(log), "\n") {
		if !strings.Contains(line, "usb") || !strings.Contains(line, "timeout") {
			continue
		}
		if token := deviceToken(line); token != "" {
			found[token] = true
		}
	}
	return found
}

func deviceToken(line string) string {
	for _, word := range strings.Fields(line) {
		if !strings.Contains(word, "-") || !strings.ContainsFunc(word, unicode.IsDigit) {
			continue
		}
		word = strings.Trim(word, ":,;[]()")
		if word != "" {
			return word
		}
	}
	return ""
}
