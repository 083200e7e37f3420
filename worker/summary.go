// Copyright (c) 2025 BVK Chaitanya

package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/funttastic/fun-api-sub000/api"
)

// FormatSummary returns a human readable text for a worker summary.
func FormatSummary(s *api.WorkerSummary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s)\n", s.WorkerKey, s.Market)
	fmt.Fprintf(&sb, "%s: free %s total %s\n", s.BaseToken, s.BaseFree.StringFixed(6), s.BaseTotal.StringFixed(6))
	fmt.Fprintf(&sb, "%s: free %s total %s\n", s.QuoteToken, s.QuoteFree.StringFixed(6), s.QuoteTotal.StringFixed(6))
	fmt.Fprintf(&sb, "Price: used %s ticker %s sap %s wap %s vwap %s\n",
		s.UsedPrice.StringFixed(6), s.TickerPrice.StringFixed(6), s.SAP.StringFixed(6), s.WAP.StringFixed(6), s.VWAP.StringFixed(6))
	fmt.Fprintf(&sb, "Orders: open %d filled %d proposed %d placed %d canceled %d\n",
		s.NumOpen, s.NumFilled, s.NumProposed, s.NumPlaced, s.NumCanceled)
	fmt.Fprintf(&sb, "PnL: %s %s", s.PnL.StringFixed(6), s.QuoteToken)
	return sb.String()
}

// publish sends the summary to the subscribers and the messenger. Failures
// are logged and ignored.
func (w *Worker) publish(ctx context.Context, s *api.WorkerSummary) {
	if w.rt.Summaries != nil {
		w.rt.Summaries.Send(s)
	}
	if w.rt.Messenger != nil {
		if err := w.rt.Messenger.SendMessage(ctx, s.At, FormatSummary(s)); err != nil {
			slog.Warn("could not send worker summary (ignored)", "worker", w.key, "err", err)
		}
	}
}
