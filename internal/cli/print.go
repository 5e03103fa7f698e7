package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/haskel/hostwatch/internal/metrics"
)

func printSnapshot(w io.Writer, s *metrics.Snapshot) {
	fmt.Fprintf(w, "=== Snapshot %s ===\n", s.Timestamp.Local().Format("2006-01-02 15:04:05"))

	fmt.Fprintf(w, "\nCPU:\n")
	fmt.Fprintf(w, "  Usage: %.1f%%\n", s.CPU.GlobalUsage)
	fmt.Fprintf(w, "  Load:  %.2f %.2f %.2f\n", s.CPU.LoadAvg.One, s.CPU.LoadAvg.Five, s.CPU.LoadAvg.Fifteen)
	if verbose {
		for i, u := range s.CPU.PerCoreUsage {
			fmt.Fprintf(w, "  core%-3d %5.1f%%\n", i, u)
		}
	}

	fmt.Fprintf(w, "\nMemory:\n")
	fmt.Fprintf(w, "  Usage: %.1f%% (%s / %s)\n", s.Memory.UsagePercent,
		humanize.IBytes(s.Memory.Used), humanize.IBytes(s.Memory.Total))
	if s.Memory.SwapTotal > 0 {
		fmt.Fprintf(w, "  Swap:  %s / %s\n", humanize.IBytes(s.Memory.SwapUsed), humanize.IBytes(s.Memory.SwapTotal))
	}

	if len(s.Disks) > 0 {
		fmt.Fprintf(w, "\nDisks:\n")
		for _, d := range s.Disks {
			fmt.Fprintf(w, "  %-12s %-20s %5.1f%%  %s free  R %.1f MB/s  W %.1f MB/s\n",
				d.Name, d.MountPoint, d.UsagePercent, humanize.IBytes(d.Available), d.ReadMBs, d.WriteMBs)
		}
	}

	fmt.Fprintf(w, "\nNetwork:\n")
	fmt.Fprintf(w, "  RX %s  TX %s  (%s connections)\n",
		humanize.IBytes(s.Network.RxBytes), humanize.IBytes(s.Network.TxBytes), humanize.Comma(int64(s.Network.Connections)))
	if verbose {
		for _, iface := range s.Network.Interfaces {
			fmt.Fprintf(w, "  %-12s RX %s  TX %s\n", iface.Name, humanize.IBytes(iface.RxBytes), humanize.IBytes(iface.TxBytes))
		}
	}

	if len(s.Temperatures) > 0 {
		fmt.Fprintf(w, "\nTemperatures:\n")
		for _, t := range s.Temperatures {
			label := t.Label
			if label == "" {
				label = t.Sensor
			}
			fmt.Fprintf(w, "  %-24s %5.1f°C\n", label, t.Value)
		}
	}

	if len(s.USBDevices) > 0 {
		fmt.Fprintf(w, "\nUSB:\n")
		fmt.Fprintf(w, "  %d devices", len(s.USBDevices))
		if ids := s.TimedOutDevices(); len(ids) > 0 {
			fmt.Fprintf(w, ", timeouts: %s", strings.Join(ids, ", "))
		}
		fmt.Fprintln(w)
	}

	if g := s.GPU; g != nil {
		fmt.Fprintf(w, "\nGPU:\n")
		fmt.Fprintf(w, "  %s: %.1f%% usage, %.0f°C, VRAM %.0f / %.0f MB, %.1f W\n",
			g.Name, g.Usage, g.Temperature, g.MemoryUsedMB, g.MemoryTotalMB, g.PowerDraw)
	}
}

func printAnomalies(w io.Writer, list []metrics.Anomaly) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No anomalies")
		return
	}
	for _, a := range list {
		fmt.Fprintf(w, "%-8s  %-11s  %-8s  %s\n",
			humanize.Time(a.Timestamp), a.Category, a.Severity, a.Message)
		if verbose {
			fmt.Fprintf(w, "          id=%s\n", a.ID)
		}
	}
}
