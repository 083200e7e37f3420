// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"fmt"
	"io"

	"github.com/funttastic/fun-api-sub000/api"
	"github.com/funttastic/fun-api-sub000/telegram"
)

// WriteStrategyStatus prints a human readable instance status.
func WriteStrategyStatus(w io.Writer, status *api.StrategyStatus) {
	fmt.Fprintf(w, "%s: %s (initialized: %t)\n", status.Key, status.RunState, status.Initialized)
	for _, name := range sortedKeys(status.Tasks) {
		fmt.Fprintf(w, "  task %s: %s\n", name, status.Tasks[name])
	}
	for _, id := range sortedKeys(status.Workers) {
		WriteWorkerStatus(w, status.Workers[id])
	}
}

// WriteWorkerStatus prints a human readable worker status.
func WriteWorkerStatus(w io.Writer, ws *api.WorkerStatus) {
	fmt.Fprintf(w, "%s [%s]: %s (task %s)\n", ws.Key, ws.Market, ws.RunState, ws.TaskState)
	if !ws.LastTickAt.IsZero() {
		fmt.Fprintf(w, "  last tick at %s, tracking %d orders (%d current)\n",
			ws.LastTickAt.Format("2006-01-02 15:04:05 MST"), ws.NumTracked, ws.NumCurrent)
	}
	if len(ws.LastError) != 0 {
		fmt.Fprintf(w, "  last error: %s\n", ws.LastError)
	}
	if s := ws.Summary; s != nil {
		fmt.Fprintf(w, "  pnl %s %s, placed %d canceled %d\n", s.PnL.StringFixed(6), s.QuoteToken, s.NumPlaced, s.NumCanceled)
	}
}

// WriteServerStatus prints a human readable server health report.
func WriteServerStatus(w io.Writer, resp *api.ServerStatusResponse) {
	fmt.Fprintf(w, "PID: %d\n", resp.PID)
	fmt.Fprintf(w, "Uptime: %s\n", telegram.FormatUptime(resp.Uptime))
	fmt.Fprintf(w, "RSS: %.1f MiB\n", float64(resp.RSSBytes)/(1<<20))
	fmt.Fprintf(w, "CPU: %.1f%%\n", resp.CPUPercent)
	fmt.Fprintf(w, "System Memory Used: %.1f%%\n", resp.SystemMemoryUsedPercent)
	fmt.Fprintf(w, "Instances: %d\n", len(resp.Instances))
	for _, key := range resp.Instances {
		fmt.Fprintf(w, "  %s\n", key)
	}
}
