// Copyright (c) 2023 BVK Chaitanya

package cmdutil

import (
	"flag"
	"os"
	"strconv"
)

type ServerFlags struct {
	port int
	IP   string
}

func (sf *ServerFlags) SetFlags(fset *flag.FlagSet) {
	fset.IntVar(&sf.port, "listen-port", 0, "TCP port number for the api endpoint (default=10000 or "+PortEnvKey+" value)")
	fset.StringVar(&sf.IP, "listen-ip", "127.0.0.1", "TCP ip address for the api endpoint")
}

// Port returns the listen port from the flag or the environment. Environment
// is read on every call so that variables loaded from env files are used.
func (sf *ServerFlags) Port() int {
	if sf.port != 0 {
		return sf.port
	}
	if v, err := strconv.ParseUint(os.Getenv(PortEnvKey), 10, 16); err == nil {
		return int(v)
	}
	return 10000
}
