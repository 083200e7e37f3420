// Copyright (c) 2025 BVK Chaitanya

package cmdutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/funttastic/fun-api-sub000/httputil"
)

type pingRequest struct {
	Name string
}

type pingResponse struct {
	Greeting string
}

func ping(_ context.Context, req *pingRequest) (*pingResponse, error) {
	if len(req.Name) == 0 {
		return nil, os.ErrInvalid
	}
	return &pingResponse{Greeting: "hello " + req.Name}, nil
}

func newTestFlags(t *testing.T, srv *httptest.Server) *ClientFlags {
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	port, _ := strconv.Atoi(u.Port())
	return &ClientFlags{port: port, Host: u.Hostname(), APIPath: "/", HTTPTimeout: 5 * time.Second}
}

func TestPost(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("/ping", httputil.JSONHandler(ping))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	cf := newTestFlags(t, srv)

	resp, err := Post[pingResponse](ctx, cf, "/ping", &pingRequest{Name: "bob"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Greeting != "hello bob" {
		t.Fatalf("unexpected response %+v", resp)
	}

	if _, err := Post[pingResponse](ctx, cf, "/ping", &pingRequest{}); err == nil || !strings.Contains(err.Error(), "400") {
		t.Fatalf("want http 400 error, got %v", err)
	}
}

func TestPort(t *testing.T) {
	t.Setenv(PortEnvKey, "")
	cf := new(ClientFlags)
	if p := cf.Port(); p != 10000 {
		t.Fatalf("want default port, got %d", p)
	}
	t.Setenv(PortEnvKey, "12345")
	if p := cf.Port(); p != 12345 {
		t.Fatalf("want port from environment, got %d", p)
	}
	cf.port = 2000
	if p := cf.Port(); p != 2000 {
		t.Fatalf("want port from flag, got %d", p)
	}
}

func TestDataDir(t *testing.T) {
	dir := t.TempDir() + "/data"
	abs, err := DataDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if st, err := os.Stat(abs); err != nil || !st.IsDir() {
		t.Fatalf("want data directory to be created: %v", err)
	}
	if !IsGoodKey("/workers/x/state") || IsGoodKey("workers") || IsGoodKey("/a//b") {
		t.Fatalf("unexpected key validation")
	}
}
