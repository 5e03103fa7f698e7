package server

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
)

type SystemInfo struct {
	Hostname      string `json:"hostname"`
	OS            string `json:"os"`
	KernelVersion string `json:"kernel_version"`
	Uptime        uint64 `json:"uptime"`
	CPUCount      int    `json:"cpu_count"`
}

func readSystemInfo(ctx context.Context) (*SystemInfo, error) {
	h, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("read host info: %w", err)
	}

	cores, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("count cpus: %w", err)
	}

	osName := h.Platform
	if osName == "" {
		osName = h.OS
	}

	return &SystemInfo{
		Hostname:      h.Hostname,
		OS:            osName,
		KernelVersion: h.KernelVersion,
		Uptime:        h.Uptime,
		CPUCount:      cores,
	}, nil
}
