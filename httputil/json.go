// Copyright (c) 2025 BVK Chaitanya

package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
)

// ErrorResponse is the body of non-200 responses from JSON handlers.
type ErrorResponse struct {
	Error string
}

// StatusCode maps well-known error values to http status codes.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, os.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, os.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, os.ErrExist):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// JSONHandler returns a http handler that decodes a POST request body into
// REQ and encodes the RESP returned by the function as the response.
func JSONHandler[REQ, RESP any](fn func(context.Context, *REQ) (*RESP, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, &ErrorResponse{Error: "only POST method is supported"})
			return
		}

		req := new(REQ)
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			writeJSON(w, http.StatusBadRequest, &ErrorResponse{Error: fmt.Sprintf("could not decode request: %v", err)})
			return
		}

		resp, err := fn(r.Context(), req)
		if err != nil {
			slog.Warn("could not handle http request", "path", r.URL.Path, "err", err)
			writeJSON(w, StatusCode(err), &ErrorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("could not encode http response", "err", err)
	}
}
