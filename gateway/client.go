// Copyright (c) 2025 BVK Chaitanya

// Package gateway implements the client for the venue gateway. Every remote
// operation goes through the retry and timeout policy configured in Options.
package gateway

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/funttastic/fun-api-sub000/gateway/internal"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

type Client struct {
	opts Options

	client *resty.Client

	limiter *rate.Limiter
}

// New creates a gateway client. Client certificates are loaded when configured
// in the options.
func New(opts *Options) (*Client, error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}

	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.HTTPTimeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	if len(opts.CertFile) != 0 {
		cert, err := tls.LoadX509KeyPair(opts.CertFile, opts.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("could not load client certificate: %w", err)
		}
		client.SetCertificates(cert)
	}
	if len(opts.CAFile) != 0 {
		client.SetRootCertificate(opts.CAFile)
	}

	c := &Client{
		opts:    *opts,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
	}
	return c, nil
}

func (c *Client) Close() error {
	c.client.GetClient().CloseIdleConnections()
	return nil
}

// do performs one http request. GET requests send the query parameters and
// other methods send the body as json. Response envelopes with an error code
// are returned as *VenueError.
func (c *Client) do(ctx context.Context, method, path string, query map[string]string, body, response any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req := c.client.R().SetContext(ctx)
	if len(query) != 0 {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Error("could not perform gateway request", "method", method, "path", path, "err", err)
		}
		return err
	}

	data := resp.Body()
	if len(data) != 0 {
		var envelope internal.ErrorResponse
		if err := json.Unmarshal(data, &envelope); err == nil && envelope.ErrorCode != nil {
			return &VenueError{
				Message: envelope.Message,
				Code:    *envelope.ErrorCode,
				Stack:   envelope.Stack,
			}
		}
	}

	if code := resp.StatusCode(); code < http.StatusOK || code >= http.StatusMultipleChoices {
		return fmt.Errorf("gateway %s %s returned http status %d: %s", method, path, code, data)
	}

	if response == nil {
		return nil
	}
	if err := json.Unmarshal(data, response); err != nil {
		slog.Error("could not decode gateway response", "method", method, "path", path, "response", string(data), "err", err)
		return fmt.Errorf("could not decode gateway response: %w", err)
	}
	return nil
}
