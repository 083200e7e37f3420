// Copyright (c) 2023 BVK Chaitanya

package subcmds

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bvkgo/kv/kvhttp"
	"github.com/bvkgo/kvbadger"
	"github.com/dgraph-io/badger/v4"
	"github.com/funttastic/fun-api-sub000/ctxutil"
	"github.com/funttastic/fun-api-sub000/daemonize"
	"github.com/funttastic/fun-api-sub000/httputil"
	"github.com/funttastic/fun-api-sub000/server"
	"github.com/funttastic/fun-api-sub000/subcmds/cmdutil"
	"github.com/joho/godotenv"
	"github.com/nightlyone/lockfile"
	"github.com/visvasity/cli"
	"github.com/visvasity/sglog"
)

// GatewayURLEnvKey names the gateway address variable used when the secrets
// file has no gateway section.
const GatewayURLEnvKey = "FUNAPI_GATEWAY_URL"

type Run struct {
	cmdutil.ServerFlags

	background bool

	restart         bool
	shutdownTimeout time.Duration

	noPprof  bool
	noResume bool

	envFile       string
	secretsPath   string
	dataDir       string
	strategiesDir string
	logDir        string

	clockPollInterval time.Duration
}

func (c *Run) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("run", flag.ContinueOnError)
	c.ServerFlags.SetFlags(fset)
	fset.BoolVar(&c.background, "background", false, "runs the daemon in background")
	fset.BoolVar(&c.restart, "restart", false, "when true, kills any old instance")
	fset.DurationVar(&c.shutdownTimeout, "shutdown-timeout", 30*time.Second, "max timeout for shutdown when restarting")
	fset.BoolVar(&c.noPprof, "no-pprof", false, "when true net/http/pprof handler is not registered")
	fset.BoolVar(&c.noResume, "no-resume", false, "when true previously running strategies aren't resumed automatically")
	fset.StringVar(&c.envFile, "env-file", "", "path to an optional env file (default data-dir/.env when it exists)")
	fset.StringVar(&c.secretsPath, "secrets-file", "", "path to credentials file")
	fset.StringVar(&c.dataDir, "data-dir", "", "path to the data directory")
	fset.StringVar(&c.strategiesDir, "strategies-dir", "", "path to the strategy configuration files (default data-dir/strategies)")
	fset.StringVar(&c.logDir, "log-dir", "", "path to the log files directory (default data-dir/logs)")
	fset.DurationVar(&c.clockPollInterval, "clock-poll-interval", time.Second, "sweep interval for the scheduling clock")
	return "run", fset, cli.CmdFunc(c.run)
}

func (c *Run) Purpose() string {
	return "Runs the market-making server in foreground or background"
}

func (c *Run) Description() string {
	return `

Command "run" starts the market-making server. Strategy instances that were
running when the previous server process was stopped are resumed
automatically, unless the -no-resume flag is given.

SECRETS FILE

The server talks to the trading gateway over mutually authenticated TLS.
Users are expected to create a secrets file with the gateway address and the
certificate files in JSON format. An example secrets file is given below:

    {
        "gateway":{
            "base_url":"https://localhost:15888",
            "cert_file":"/home/user/certs/client_cert.pem",
            "key_file":"/home/user/certs/client_key.pem",
            "ca_file":"/home/user/certs/ca_cert.pem"
        }
    }

Optional "telegram" and "pushover" sections enable the notifications. See the
"setup" commands to create them.

STRATEGIES DIRECTORY

Every strategy instance reads its configuration from a YAML file named
<strategy>/<version>/<instance>.yml under the strategies directory.

`
}

func (c *Run) run(ctx context.Context, args []string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	dataDir, err := cmdutil.DataDir(c.dataDir)
	if err != nil {
		return err
	}

	// Variables already in the environment take precedence over the env file.
	if len(c.envFile) == 0 {
		if _, err := os.Stat(filepath.Join(dataDir, ".env")); err == nil {
			c.envFile = filepath.Join(dataDir, ".env")
		}
	}
	if len(c.envFile) != 0 {
		if err := godotenv.Load(c.envFile); err != nil {
			return fmt.Errorf("could not load environment file %q: %w", c.envFile, err)
		}
	}

	if len(c.secretsPath) == 0 {
		c.secretsPath = cmdutil.SecretsFile(dataDir)
	}
	secrets, err := server.SecretsFromFile(c.secretsPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		secrets = new(server.Secrets)
	}
	if secrets.Gateway == nil {
		if v := os.Getenv(GatewayURLEnvKey); len(v) != 0 {
			secrets.Gateway = &server.GatewaySecrets{BaseURL: v}
		}
	}
	if len(c.strategiesDir) == 0 {
		c.strategiesDir = filepath.Join(dataDir, "strategies")
	}

	if ip := net.ParseIP(c.IP); ip == nil {
		return fmt.Errorf("invalid ip address")
	}
	if c.Port() <= 0 {
		return fmt.Errorf("invalid port number")
	}
	addr := &net.TCPAddr{
		IP:   net.ParseIP(c.IP),
		Port: c.Port(),
	}

	// Health checker for the background process initialization. We need to
	// verify that responding http server is really our child and not an older
	// instance.
	check := func(ctx context.Context, child *os.Process) (bool, error) {
		client := http.Client{Timeout: time.Second}
		resp, err := client.Get(fmt.Sprintf("http://%s/pid", addr.String()))
		if err != nil {
			return true, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return true, fmt.Errorf("http status: %d", resp.StatusCode)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return true, err
		}
		if pid := string(data); pid != fmt.Sprintf("%d", child.Pid) {
			return c.restart, fmt.Errorf("is another instance already running? pid mismatch: want %d got %s", child.Pid, pid)
		}
		return false, nil
	}

	if c.background {
		if err := daemonize.Daemonize(ctx, "FUNAPI_DAEMONIZE", check); err != nil {
			return err
		}
	}

	if len(c.logDir) == 0 {
		c.logDir = filepath.Join(dataDir, "logs")
	}
	if err := os.MkdirAll(c.logDir, 0o700); err != nil {
		return fmt.Errorf("could not create log directory %q: %w", c.logDir, err)
	}
	backend := sglog.NewBackend(&sglog.Options{
		LogDirs: []string{c.logDir},
	})
	defer backend.Close()
	slog.SetDefault(slog.New(backend.Handler()))

	slog.Info("using data directory and secrets file", "data-dir", dataDir, "secrets-file", c.secretsPath, "strategies-dir", c.strategiesDir)

	lockPath := filepath.Join(dataDir, "funapi.lock")
	flock, err := lockfile.New(lockPath)
	if err != nil {
		return fmt.Errorf("could not create lock file %q: %w", lockPath, err)
	}
	if err := flock.TryLock(); err != nil {
		if !c.restart {
			return fmt.Errorf("could not get lock on file %q: %w", lockPath, err)
		}
		owner, err := flock.GetOwner()
		if err != nil {
			return fmt.Errorf("could not get current owner of the lock file: %w", err)
		}
		if err := owner.Signal(os.Interrupt); err == nil {
			slog.Info("waiting for the previous instance to shutdown", "pid", owner.Pid)
			if err := ctxutil.RetryTimeout(ctx, time.Second, c.shutdownTimeout, flock.TryLock); err != nil {
				if err := owner.Signal(os.Kill); err != nil {
					return fmt.Errorf("could not kill current owner of the lock file: %w", err)
				}
				ctxutil.Sleep(ctx, time.Millisecond)
			}
		}
		if err := flock.TryLock(); err != nil {
			return fmt.Errorf("could not get lock on file %q after killing previous instance: %w", lockPath, err)
		}
	}
	defer flock.Unlock()

	// Start HTTP server.
	s, err := httputil.New(nil /* opts */)
	if err != nil {
		return err
	}
	defer s.Close()

	tcpServer, err := s.StartTCP(ctx, addr)
	if err != nil {
		return fmt.Errorf("could not start http server on %s: %w", addr, err)
	}
	defer s.Stop(tcpServer)

	if !c.noPprof {
		s.AddHandler("/debug/pprof/heap", pprof.Handler("heap"))
		s.AddHandler("/debug/pprof/goroutine", pprof.Handler("goroutine"))
		s.AddHandler("/debug/pprof/allocs", pprof.Handler("allocs"))
		s.AddHandler("/debug/pprof/block", pprof.Handler("block"))
		s.AddHandler("/debug/pprof/mutex", pprof.Handler("mutex"))
	}

	// Open the database.
	bopts := badger.DefaultOptions(cmdutil.DatabaseDir(dataDir))
	bdb, err := badger.Open(bopts)
	if err != nil {
		return fmt.Errorf("could not open the database: %w", err)
	}
	defer bdb.Close()
	db := kvbadger.New(bdb, cmdutil.IsGoodKey)

	s.AddHandler("/db/", http.StripPrefix("/db", kvhttp.Handler(db)))

	sopts := &server.Options{
		StrategiesDir:     c.strategiesDir,
		NoResume:          c.noResume,
		ClockPollInterval: c.clockPollInterval,
	}
	controller, err := server.New(ctx, secrets, db, sopts)
	if err != nil {
		return err
	}
	defer controller.Close()

	apis := controller.HandlerMap()
	for k, v := range apis {
		s.AddHandler(k, v)
	}
	defer func() {
		for k := range apis {
			s.RemoveHandler(k)
		}
	}()

	if err := controller.Resume(ctx); err != nil {
		return err
	}

	slog.Info("started market-making server", "addr", addr)
	s.AddHandler("/pid", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, fmt.Sprintf("%d", os.Getpid()))
	}))

	<-ctx.Done()
	slog.Info("market-making server is shutting down")
	return nil
}
