// Copyright (c) 2025 BVK Chaitanya

package gateway

import (
	"fmt"
	"net/url"
	"os"
	"time"
)

type Options struct {
	// BaseURL is the gateway address, e.g., https://localhost:15888.
	BaseURL string

	// Client certificate, private key and the CA bundle for the mutually
	// authenticated TLS connection. All three are optional for plain-http
	// gateways.
	CertFile string
	KeyFile  string
	CAFile   string

	// HTTPTimeout bounds a single http request at the transport level.
	HTTPTimeout time.Duration

	// Retries is the total number of attempts for every gateway operation.
	Retries int

	// RetryDelay is the wait time between failed attempts.
	RetryDelay time.Duration

	// AttemptTimeout bounds each attempt including waiting for the rate
	// limiter.
	AttemptTimeout time.Duration

	// RequestsPerSecond limits the request rate to the gateway.
	RequestsPerSecond float64
}

func (v *Options) setDefaults() {
	if len(v.BaseURL) == 0 {
		v.BaseURL = "https://localhost:15888"
	}
	if v.HTTPTimeout == 0 {
		v.HTTPTimeout = 60 * time.Second
	}
	if v.Retries == 0 {
		v.Retries = 3
	}
	if v.RetryDelay == 0 {
		v.RetryDelay = time.Second
	}
	if v.AttemptTimeout == 0 {
		v.AttemptTimeout = 30 * time.Second
	}
	if v.RequestsPerSecond == 0 {
		v.RequestsPerSecond = 10
	}
}

func (v *Options) Check() error {
	if _, err := url.Parse(v.BaseURL); err != nil {
		return fmt.Errorf("invalid gateway base url %q: %w", v.BaseURL, err)
	}
	if v.Retries < 0 {
		return fmt.Errorf("retries cannot be negative: %w", os.ErrInvalid)
	}
	if (len(v.CertFile) == 0) != (len(v.KeyFile) == 0) {
		return fmt.Errorf("client certificate and key must be given together: %w", os.ErrInvalid)
	}
	for _, f := range []string{v.CertFile, v.KeyFile, v.CAFile} {
		if len(f) == 0 {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			return fmt.Errorf("could not stat tls file %q: %w", f, err)
		}
	}
	return nil
}

func (v *Options) retryOptions() RetryOptions {
	return RetryOptions{
		Retries:        v.Retries,
		Delay:          v.RetryDelay,
		AttemptTimeout: v.AttemptTimeout,
	}
}
