package commands

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/buildkite/unistash"
	"github.com/buildkite/unistash/internal/console"
	"github.com/rs/zerolog/log"
)

type CommonFlags struct {
	ConnectionString string `flag:"connection-string" help:"Azure storage connection string, gocloud blob URL or S3 key=value connection string." env:"UNISTASH_CONNECTION_STRING"`
	Region           string `flag:"region" help:"The S3 region, used as the base for S3 connection strings." env:"AWS_REGION"`
	Endpoint         string `flag:"endpoint" help:"A custom S3 compatible endpoint." env:"UNISTASH_S3_ENDPOINT"`
	MaxRetries       *int   `flag:"max-retries" help:"Retries after the first S3 attempt, 0 disables retries. Unset keeps the SDK default." env:"UNISTASH_S3_MAX_RETRIES"`
	UsePathStyle     bool   `flag:"use-path-style" help:"Address S3 buckets by path instead of virtual host." env:"UNISTASH_S3_USE_PATH_STYLE"`
}

type Globals struct {
	Debug   bool
	Version string
	Storage *unistash.Storage
	Printer *console.Printer
	Common  CommonFlags
}

// ConnectOptions returns the flag values as the base connect options
func (c CommonFlags) ConnectOptions() unistash.ConnectOptions {
	return unistash.ConnectOptions{
		ObjectStore: unistash.ObjectStoreConfig{
			Region:           c.Region,
			Endpoint:         c.Endpoint,
			S3ForcePathStyle: c.UsePathStyle,
			MaxRetries:       c.MaxRetries,
		},
	}
}

// connect initializes the backend a command will use. Without a connection
// string the object store is built from the flags and the default AWS
// credential chain.
func connect(ctx context.Context, globals *Globals, backend unistash.Backend) error {
	opts := globals.Common.ConnectOptions()

	if globals.Common.ConnectionString == "" {
		if backend.IsAzure() {
			return errors.New("a connection string is required for the azure backend")
		}

		log.Debug().Str("region", opts.ObjectStore.Region).Msg("connecting object store from flags")

		_, err := globals.Storage.ConnectObjectStoreBackend(ctx, opts.ObjectStore)
		return err
	}

	conn, err := globals.Storage.ConnectStorage(ctx, globals.Common.ConnectionString, opts)
	if err != nil {
		return err
	}

	if backend.IsAzure() && conn.Blob == nil || !backend.IsAzure() && conn.ObjectStore == nil {
		return fmt.Errorf("connection string does not describe the %s backend", backend)
	}

	return nil
}

// Int64ToUint64 converts an int64 to uint64, handling negative values and max int64
func Int64ToUint64(x int64) uint64 {
	if x < 0 {
		return 0
	}
	if x == math.MaxInt64 {
		return math.MaxUint64
	}
	return uint64(x)
}
