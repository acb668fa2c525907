package unistash

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/buildkite/unistash/store"
	"github.com/rs/zerolog/log"
)

// BlobFactory constructs the blob backend from a connection string.
type BlobFactory func(ctx context.Context, connectionString string, options *azblob.ClientOptions) (store.BlobStore, error)

// ObjectStoreFactory constructs the object-store backend from its configuration.
type ObjectStoreFactory func(ctx context.Context, cfg ObjectStoreConfig) (store.ObjectStore, error)

// Config holds the configuration for creating a Storage handle.
//
// Both fields are optional; the zero Config uses the real SDK clients.
type Config struct {
	// NewBlobStore constructs the blob backend. Defaults to store.NewBlobStore.
	NewBlobStore BlobFactory

	// NewObjectStore constructs the object-store backend. Defaults to an S3
	// client built with store.NewS3Store.
	NewObjectStore ObjectStoreFactory
}

// Storage holds at most one client per backend and dispatches operations to
// them.
//
// Each backend is constructed by the first successful connect call for it and
// kept until Close; later connect calls return the existing client and ignore
// their options. A Storage is safe for concurrent use by multiple goroutines,
// racing connects construct exactly one client. The backends are guarded
// separately, a slow connect of one never blocks the other.
type Storage struct {
	newBlobStore   BlobFactory
	newObjectStore ObjectStoreFactory

	blobMu sync.Mutex
	blob   store.BlobStore

	objectsMu sync.Mutex
	objects   store.ObjectStore
}

// New creates a Storage handle with no backends connected.
func New(cfg Config) *Storage {
	if cfg.NewBlobStore == nil {
		cfg.NewBlobStore = store.NewBlobStore
	}

	if cfg.NewObjectStore == nil {
		cfg.NewObjectStore = newS3ObjectStore
	}

	return &Storage{
		newBlobStore:   cfg.NewBlobStore,
		newObjectStore: cfg.NewObjectStore,
	}
}

func newS3ObjectStore(ctx context.Context, cfg ObjectStoreConfig) (store.ObjectStore, error) {
	for _, key := range slices.Sorted(maps.Keys(cfg.Extra)) {
		log.Debug().Str("key", key).Msg("ignoring unsupported object store option")
	}

	s, err := store.NewS3Store(ctx, cfg.storeOptions())
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ConnectBlobBackend returns the blob backend, constructing it from
// connectionString and options if this is the first call.
func (s *Storage) ConnectBlobBackend(ctx context.Context, connectionString string, options *azblob.ClientOptions) (store.BlobStore, error) {
	s.blobMu.Lock()
	defer s.blobMu.Unlock()

	if s.blob != nil {
		log.Debug().Msg("blob backend already connected, ignoring options")
		return s.blob, nil
	}

	b, err := s.newBlobStore(ctx, connectionString, options)
	if err != nil {
		return nil, fmt.Errorf("failed to connect blob backend: %w", err)
	}

	s.blob = b

	return s.blob, nil
}

// ConnectObjectStoreBackend returns the object-store backend, constructing it
// from cfg if this is the first call.
func (s *Storage) ConnectObjectStoreBackend(ctx context.Context, cfg ObjectStoreConfig) (store.ObjectStore, error) {
	s.objectsMu.Lock()
	defer s.objectsMu.Unlock()

	if s.objects != nil {
		log.Debug().Msg("object store backend already connected, ignoring options")
		return s.objects, nil
	}

	o, err := s.newObjectStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect object store backend: %w", err)
	}

	s.objects = o

	return s.objects, nil
}

// BlobBackend returns the connected blob backend.
//
// Returns ErrBackendNotInitialized if the blob backend was never connected.
func (s *Storage) BlobBackend() (store.BlobStore, error) {
	s.blobMu.Lock()
	defer s.blobMu.Unlock()

	if s.blob == nil {
		return nil, fmt.Errorf("%w: %s", ErrBackendNotInitialized, store.AzureBlobStore)
	}

	return s.blob, nil
}

// ObjectStoreBackend returns the connected object-store backend.
//
// Returns ErrBackendNotInitialized if the object store was never connected.
func (s *Storage) ObjectStoreBackend() (store.ObjectStore, error) {
	s.objectsMu.Lock()
	defer s.objectsMu.Unlock()

	if s.objects == nil {
		return nil, fmt.Errorf("%w: %s", ErrBackendNotInitialized, store.S3ObjectStore)
	}

	return s.objects, nil
}

// Close releases backends that hold resources and disconnects both. A closed
// Storage can be connected again.
func (s *Storage) Close() error {
	s.blobMu.Lock()
	defer s.blobMu.Unlock()
	s.objectsMu.Lock()
	defer s.objectsMu.Unlock()

	var errs []error

	for _, backend := range []any{s.blob, s.objects} {
		if c, ok := backend.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}

	s.blob = nil
	s.objects = nil

	return errors.Join(errs...)
}
