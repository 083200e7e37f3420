// Copyright (c) 2023 BVK Chaitanya

package httputil

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Server is a http server that can listen on multiple addresses and whose
// handlers can be added or removed while it is serving.
type Server struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	wg     sync.WaitGroup

	opts Options

	mux atomic.Pointer[http.ServeMux]

	mutex      sync.Mutex
	handlerMap map[string]http.Handler

	nextServerID int64
	serverMap    map[int64]*http.Server
}

// New creates a http server.
func New(opts *Options) (*Server, error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancelCause(context.Background())
	s := &Server{
		ctx:        ctx,
		cancel:     cancel,
		opts:       *opts,
		handlerMap: make(map[string]http.Handler),
		serverMap:  make(map[int64]*http.Server),
	}
	s.mux.Store(http.NewServeMux())
	return s, nil
}

func (s *Server) Close() error {
	s.cancel(os.ErrClosed)

	s.mutex.Lock()
	for id, svr := range s.serverMap {
		svr.Close()
		delete(s.serverMap, id)
	}
	s.mutex.Unlock()

	s.wg.Wait()
	return nil
}

func (s *Server) sleep(d time.Duration) error {
	select {
	case <-s.ctx.Done():
		return context.Cause(s.ctx)
	case <-time.After(d):
		return nil
	}
}

// StartUnix starts serving on a unix domain socket.
func (s *Server) StartUnix(ctx context.Context, addr *net.UnixAddr) (int64, error) {
	l, err := net.ListenUnix("unix", addr)
	if err != nil {
		return -1, err
	}
	transport := &http.Transport{
		DialContext: func(_ context.Context, _, _ string) (net.Conn, error) {
			return net.DialUnix("unix", nil, addr)
		},
	}
	client := &http.Client{
		Timeout:   s.opts.ServerCheckTimeout,
		Transport: transport,
	}
	return s.start(ctx, l, "localhost", client)
}

// StartTCP starts serving on a tcp address. When the port is zero, a port is
// picked by the system and is updated in the input address.
func (s *Server) StartTCP(ctx context.Context, addr *net.TCPAddr) (int64, error) {
	l, err := net.Listen("tcp", addr.String())
	if err != nil {
		return -1, err
	}
	if addr.Port == 0 {
		laddr, ok := l.Addr().(*net.TCPAddr)
		if !ok {
			l.Close()
			return -1, fmt.Errorf("created listener addr is not *net.TCPAddr type")
		}
		addr.Port = laddr.Port
	}
	client := &http.Client{
		Timeout: s.opts.ServerCheckTimeout,
	}
	return s.start(ctx, l, l.Addr().String(), client)
}

// start serves the listener and waits till a probe request is handled
// successfully through the listener.
func (s *Server) start(ctx context.Context, l net.Listener, host string, client *http.Client) (id int64, status error) {
	defer func() {
		if status != nil {
			l.Close()
		}
	}()

	testPath := "/" + uuid.New().String()
	testHandler := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		slog.Debug("received http server readiness probe", "addr", l.Addr(), "remote", r.RemoteAddr)
	})
	s.AddHandler(testPath, testHandler)
	defer s.RemoveHandler(testPath)

	server := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: s.opts.ReadHeaderTimeout,
		BaseContext: func(net.Listener) context.Context {
			return s.ctx
		},
	}
	defer func() {
		if status != nil {
			server.Close()
		}
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		defer func() {
			if r := recover(); r != nil {
				slog.Error("CAUGHT PANIC", "panic", r)
				slog.Error(string(debug.Stack()))
				panic(r)
			}
		}()

		if err := server.Serve(l); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				slog.ErrorContext(ctx, "http server failed", "addr", l.Addr(), "err", err)
			}
		}
	}()

	u := url.URL{
		Scheme: "http",
		Host:   host,
		Path:   testPath,
	}

	tctx, tcancel := context.WithTimeout(ctx, s.opts.ServerCheckTimeout)
	defer tcancel()

	for {
		if err := s.probe(tctx, client, u.String()); err == nil {
			break
		}
		if err := context.Cause(tctx); err != nil {
			return -1, fmt.Errorf("could not invoke test handler: %w", err)
		}
		if err := s.sleep(s.opts.ServerCheckRetryInterval); err != nil {
			return -1, err
		}
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	id = s.nextServerID
	s.nextServerID++
	s.serverMap[id] = server
	return id, nil
}

func (s *Server) probe(ctx context.Context, client *http.Client, addr string) error {
	r, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(r)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("probe returned http status %d", resp.StatusCode)
	}
	return nil
}

// Stop closes a server started by StartTCP or StartUnix.
func (s *Server) Stop(id int64) error {
	s.mutex.Lock()
	svr, ok := s.serverMap[id]
	delete(s.serverMap, id)
	s.mutex.Unlock()

	if !ok {
		return fmt.Errorf("http server %d not found: %w", id, os.ErrNotExist)
	}
	_ = svr.Close()
	return nil
}

func (s *Server) AddHandler(pattern string, handler http.Handler) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.handlerMap[pattern] = handler
	s.updateHandlerMux()
}

// RemoveHandler returns false if pattern has no handler.
func (s *Server) RemoveHandler(pattern string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.handlerMap[pattern]; !ok {
		return false
	}
	delete(s.handlerMap, pattern)
	s.updateHandlerMux()
	return true
}

func (s *Server) updateHandlerMux() {
	m := http.NewServeMux()
	for k, v := range s.handlerMap {
		m.Handle(k, v)
	}
	s.mux.Store(m)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.Load().ServeHTTP(w, r)
}
