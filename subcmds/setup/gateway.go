// Copyright (c) 2025 BVK Chaitanya

package setup

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"

	"github.com/funttastic/fun-api-sub000/gateway"
	"github.com/funttastic/fun-api-sub000/server"
	"github.com/visvasity/cli"
)

type Gateway struct {
	dataDir string

	baseURL  string
	certFile string
	keyFile  string
	caFile   string

	chain     string
	network   string
	connector string
	market    string
}

func (c *Gateway) Purpose() string {
	return "Setup configures the trading gateway address and certificates"
}

func (c *Gateway) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("gateway", flag.ContinueOnError)
	fset.StringVar(&c.dataDir, "data-dir", "", "path to the data directory")
	fset.StringVar(&c.baseURL, "base-url", "https://localhost:15888", "gateway address")
	fset.StringVar(&c.certFile, "cert-file", "", "path to the client certificate")
	fset.StringVar(&c.keyFile, "key-file", "", "path to the client certificate's private key")
	fset.StringVar(&c.caFile, "ca-file", "", "path to the certificate authority bundle")
	fset.StringVar(&c.chain, "test-chain", "", "chain name for testing the gateway")
	fset.StringVar(&c.network, "test-network", "", "network name for testing the gateway")
	fset.StringVar(&c.connector, "test-connector", "", "connector name for testing the gateway")
	fset.StringVar(&c.market, "test-market", "", "when non-empty, fetches the ticker for this market to test the gateway")
	return "gateway", fset, cli.CmdFunc(c.run)
}

func (c *Gateway) Description() string {
	return `

Command "gateway" saves the trading gateway address and the mutual-TLS
certificate files into the secrets file. Certificate paths are saved as
absolute paths. Gateway parameters are required to run the server.

  $ funapi setup gateway --base-url=https://localhost:15888 \
      --cert-file=certs/client_cert.pem --key-file=certs/client_key.pem \
      --ca-file=certs/ca_cert.pem

When the -test-market flag is given, the command fetches the market's ticker
through the gateway before saving the parameters.

`
}

func absPath(p string) (string, error) {
	if len(p) == 0 {
		return "", nil
	}
	return filepath.Abs(p)
}

func (c *Gateway) run(ctx context.Context, args []string) error {
	secretsPath, secrets, err := loadSecrets(c.dataDir)
	if err != nil {
		return err
	}

	gs := &server.GatewaySecrets{BaseURL: c.baseURL}
	if gs.CertFile, err = absPath(c.certFile); err != nil {
		return err
	}
	if gs.KeyFile, err = absPath(c.keyFile); err != nil {
		return err
	}
	if gs.CAFile, err = absPath(c.caFile); err != nil {
		return err
	}
	if err := gs.Check(); err != nil {
		return err
	}

	client, err := gateway.New(&gateway.Options{
		BaseURL:  gs.BaseURL,
		CertFile: gs.CertFile,
		KeyFile:  gs.KeyFile,
		CAFile:   gs.CAFile,
	})
	if err != nil {
		return fmt.Errorf("could not create gateway client: %w", err)
	}
	defer client.Close()

	if len(c.market) != 0 {
		venue := client.Venue(c.chain, c.network, c.connector)
		ticker, err := venue.GetTicker(ctx, c.market)
		if err != nil {
			return fmt.Errorf("could not fetch ticker for %q: %w", c.market, err)
		}
		fmt.Fprintf(cli.Stdout(ctx), "%s ticker price %s\n", c.market, ticker.Price)
	}

	secrets.Gateway = gs
	return saveSecrets(secretsPath, secrets)
}
