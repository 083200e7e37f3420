// Copyright (c) 2023 BVK Chaitanya

package pushover

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultURL is the pushover messages endpoint.
const DefaultURL = "https://api.pushover.net/1/messages.json"

type Client struct {
	token string
	user  string

	url string

	client *resty.Client
}

type message struct {
	Token     string `json:"token"`
	User      string `json:"user"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

type response struct {
	Status  int      `json:"status"`
	Request string   `json:"request"`
	Errors  []string `json:"errors"`
}

func New(keys *Keys) (*Client, error) {
	return NewWithURL(keys, DefaultURL)
}

// NewWithURL creates a client that posts messages to the given endpoint.
func NewWithURL(keys *Keys, url string) (*Client, error) {
	if err := keys.Check(); err != nil {
		return nil, err
	}
	c := &Client{
		token: keys.ApplicationKey,
		user:  keys.UserKey,
		url:   url,
		client: resty.New().
			SetTimeout(30*time.Second).
			SetHeader("Content-Type", "application/json"),
	}
	return c, nil
}

func (c *Client) SendMessage(ctx context.Context, at time.Time, msg string) error {
	m := &message{
		Token:     c.token,
		User:      c.user,
		Timestamp: at.Unix(),
		Message:   msg,
	}
	r := new(response)
	resp, err := c.client.R().SetContext(ctx).SetBody(m).SetResult(r).SetError(r).Post(c.url)
	if err != nil {
		return fmt.Errorf("could not perform post request: %w", err)
	}
	if r.Status != 1 {
		if len(r.Errors) != 0 {
			return fmt.Errorf("send failed with http-status %d and error: %w", resp.StatusCode(), errors.New(r.Errors[0]))
		}
		slog.Warn("unexpected pushover response", "status", resp.StatusCode(), "body", string(resp.Body()))
		return fmt.Errorf("send failed with http-status %d and zero response-status code", resp.StatusCode())
	}
	return nil
}
