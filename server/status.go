// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/funttastic/fun-api-sub000/api"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

// ServerStatus reports the process health and the running instances. Resource
// usage values are left zero when they cannot be read.
func (s *Server) ServerStatus(ctx context.Context, _ *api.ServerStatusRequest) (*api.ServerStatusResponse, error) {
	resp := &api.ServerStatusResponse{
		PID:       os.Getpid(),
		Uptime:    time.Since(s.start).Truncate(time.Second),
		Instances: s.Instances(),
	}

	proc, err := process.NewProcessWithContext(ctx, int32(resp.PID))
	if err != nil {
		slog.Warn("could not read process information", "err", err)
		return resp, nil
	}
	if info, err := proc.MemoryInfoWithContext(ctx); err != nil {
		slog.Warn("could not read process memory usage", "err", err)
	} else {
		resp.RSSBytes = info.RSS
	}
	if pct, err := proc.CPUPercentWithContext(ctx); err != nil {
		slog.Warn("could not read process cpu usage", "err", err)
	} else {
		resp.CPUPercent = pct
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		slog.Warn("could not read system memory usage", "err", err)
	} else {
		resp.SystemMemoryUsedPercent = vm.UsedPercent
	}
	return resp, nil
}
