// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/visvasity/topic"
)

const summaryWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// serveSummaries streams worker summaries as json messages over a websocket.
// Optional "prefix" query parameter limits the stream to the worker keys with
// the prefix.
func (s *Server) serveSummaries(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")

	receiver, err := topic.Subscribe(s.summaries, 0, true)
	if err != nil {
		slog.Warn("could not subscribe to worker summaries", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer receiver.Close()

	summaryCh, err := topic.ReceiveCh(receiver)
	if err != nil {
		slog.Warn("could not create summaries channel", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("could not upgrade to websocket", "remote", r.RemoteAddr, "err", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Clients do not send messages; reads only detect the closed connections.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case summary, ok := <-summaryCh:
			if !ok {
				return
			}
			if !strings.HasPrefix(summary.WorkerKey, prefix) {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(summaryWriteTimeout))
			if err := conn.WriteJSON(summary); err != nil {
				slog.Warn("could not write worker summary to websocket", "remote", r.RemoteAddr, "err", err)
				return
			}
		}
	}
}
