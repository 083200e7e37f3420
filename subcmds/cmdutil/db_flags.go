// Copyright (c) 2023 BVK Chaitanya

package cmdutil

import (
	"context"
	"flag"
	"fmt"
	"path"

	"github.com/bvkgo/kv"
	"github.com/bvkgo/kv/kvhttp"
	"github.com/bvkgo/kvbadger"
	"github.com/dgraph-io/badger/v4"
)

// DBFlags selects the database for the commands. Database in a data
// directory is opened directly, which requires the server to be not running.
// Otherwise, the database of the running server is used over http.
type DBFlags struct {
	ClientFlags

	dbURLPath string

	dataDir string
}

func (f *DBFlags) SetFlags(fset *flag.FlagSet) {
	f.ClientFlags.SetFlags(fset)
	fset.StringVar(&f.dataDir, "data-dir", "", "path to the data directory for direct database access")
	fset.StringVar(&f.dbURLPath, "db-url-path", "/db", "path to db api handler")
}

// IsGoodKey reports if k is a valid database key.
func IsGoodKey(k string) bool {
	return path.IsAbs(k) && k == path.Clean(k)
}

// IsRemoteDatabase returns true if target database is a remote database over
// http.
func (f *DBFlags) IsRemoteDatabase() bool {
	return f.dataDir == ""
}

func (f *DBFlags) GetDatabase(ctx context.Context) (kv.Database, func(), error) {
	if len(f.dataDir) != 0 {
		bdb, err := badger.Open(badger.DefaultOptions(DatabaseDir(f.dataDir)))
		if err != nil {
			return nil, nil, fmt.Errorf("could not open the database: %w", err)
		}
		closer := func() { bdb.Close() }
		return kvbadger.New(bdb, IsGoodKey), closer, nil
	}

	addrURL := f.ClientFlags.AddressURL()
	addrURL.Path = path.Join(addrURL.Path, f.dbURLPath)
	db := kvhttp.New(addrURL, f.ClientFlags.HttpClient())
	return db, func() {}, nil
}
