package monitor

import (
	"context"
	"log/slog"
	"sort"

	"github.com/shirou/gopsutil/v4/net"

	"github.com/haskel/hostwatch/internal/metrics"
)

const loopback = "lo"

type NetworkSampler struct {
	logger      *slog.Logger
	counters    func(ctx context.Context, pernic bool) ([]net.IOCountersStat, error)
	connections func(ctx context.Context, kind string) ([]net.ConnectionStat, error)
	prev        map[string]net.IOCountersStat
}

// NewNetworkSampler takes the baseline reading that the first Collect diffs
// against.
func NewNetworkSampler(ctx context.Context, logger *slog.Logger) *NetworkSampler {
	s := &NetworkSampler{
		logger:      logger,
		counters:    net.IOCountersWithContext,
		connections: net.ConnectionsWithContext,
	}
	s.prev = s.read(ctx)
	return s
}

func (s *NetworkSampler) Collect(ctx context.Context) metrics.NetworkMetrics {
	current := s.read(ctx)

	result := metrics.NetworkMetrics{Interfaces: []metrics.InterfaceStats{}}
	names := make([]string, 0, len(current))
	for name := range current {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cur := current[name]
		iface := metrics.InterfaceStats{Name: name}
		if prev, ok := s.prev[name]; ok {
			iface.RxBytes = metrics.SaturatingSub(cur.BytesRecv, prev.BytesRecv)
			iface.TxBytes = metrics.SaturatingSub(cur.BytesSent, prev.BytesSent)
			iface.RxPackets = metrics.SaturatingSub(cur.PacketsRecv, prev.PacketsRecv)
			iface.TxPackets = metrics.SaturatingSub(cur.PacketsSent, prev.PacketsSent)
		}
		result.RxBytes += iface.RxBytes
		result.TxBytes += iface.TxBytes
		result.RxPackets += iface.RxPackets
		result.TxPackets += iface.TxPackets
		result.Interfaces = append(result.Interfaces, iface)
	}
	s.prev = current

	result.Connections = s.established(ctx)
	return result
}

// read returns cumulative counters per non-loopback interface, or nil when
// they cannot be read.
func (s *NetworkSampler) read(ctx context.Context) map[string]net.IOCountersStat {
	stats, err := s.counters(ctx, true)
	if err != nil {
		s.logger.Debug("network counters unavailable", "error", err)
		return nil
	}
	out := make(map[string]net.IOCountersStat, len(stats))
	for _, st := range stats {
		if st.Name == loopback {
			continue
		}
		out[st.Name] = st
	}
	return out
}

func (s *NetworkSampler) established(ctx context.Context) int {
	conns, err := s.connections(ctx, "tcp")
	if err != nil {
		s.logger.Debug("tcp connections unavailable", "error", err)
		return 0
	}
	var n int
	for _, c := range conns {
		if c.Status == "ESTABLISHED" {
			n++
		}
	}
	return n
}
