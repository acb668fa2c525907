package unistash

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/buildkite/unistash/internal/trace"
	"github.com/buildkite/unistash/store"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
)

// ConnectOptions are the caller supplied options for ConnectStorage.
type ConnectOptions struct {
	// BlobClientOptions are passed to the Azure client when the connection
	// string selects the blob backend.
	BlobClientOptions *azblob.ClientOptions

	// ObjectStore is the base configuration when the connection string
	// selects the object store. Parsed pairs override its fields.
	ObjectStore ObjectStoreConfig
}

// Connection reports which backend a connect call initialized. Exactly one
// field is set.
type Connection struct {
	Blob        store.BlobStore
	ObjectStore store.ObjectStore
}

// ConnectStorage picks a backend from the shape of connectionString, see
// ParseConnectionString, and connects it.
func (s *Storage) ConnectStorage(ctx context.Context, connectionString string, opts ConnectOptions) (*Connection, error) {
	d := ParseConnectionString(connectionString, opts.ObjectStore)

	if bd, ok := d.(BlobDescriptor); ok {
		bd.ClientOptions = opts.BlobClientOptions
		d = bd
	}

	return s.Connect(ctx, d)
}

// Connect connects the backend described by d.
//
// Returns ErrInvalidDescriptor if d is nil or not one of the descriptor types
// in this package.
func (s *Storage) Connect(ctx context.Context, d Descriptor) (*Connection, error) {
	ctx, span := trace.Start(ctx, "Storage.Connect")
	defer span.End()

	switch d := d.(type) {
	case BlobDescriptor:
		span.SetAttributes(attribute.String("backend", BackendAzure.String()))

		log.Debug().
			Str("backend", BackendAzure.String()).
			Msg("connecting storage")

		b, err := s.ConnectBlobBackend(ctx, d.ConnectionString, d.ClientOptions)
		if err != nil {
			return nil, trace.Fail(span, err)
		}

		return &Connection{Blob: b}, nil
	case ObjectStoreDescriptor:
		span.SetAttributes(attribute.String("backend", BackendS3.String()))

		log.Debug().
			Str("backend", BackendS3.String()).
			Str("region", d.Config.Region).
			Str("endpoint", d.Config.Endpoint).
			Msg("connecting storage")

		o, err := s.ConnectObjectStoreBackend(ctx, d.Config)
		if err != nil {
			return nil, trace.Fail(span, err)
		}

		return &Connection{ObjectStore: o}, nil
	default:
		return nil, trace.Fail(span, fmt.Errorf("%w: %T", ErrInvalidDescriptor, d))
	}
}
