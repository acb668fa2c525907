// Package unistash provides a single upload, delete and exists surface over
// two interchangeable storage backends: a blob backend (Azure Blob Storage, or
// any gocloud.dev blob URL) and an object-store backend (Amazon S3 and S3
// compatible endpoints).
//
// The main entry point is New, which creates a Storage handle. Backends are
// connected at most once per handle, either from a connection string with
// ConnectStorage or from an explicit Descriptor with Connect.
//
// Basic usage:
//
//	s := unistash.New(unistash.Config{})
//	defer s.Close()
//
//	_, err := s.ConnectStorage(ctx, "accessKeyId=AKIA...;secretAccessKey=...;region=us-east-1", unistash.ConnectOptions{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Upload to the backend selected by AzureOrS3
//	result, err := s.UploadToStorage(ctx, unistash.UploadParams{
//	    AzureOrS3:             unistash.BackendS3,
//	    Buffer:                data,
//	    FileName:              "reports/2024.csv",
//	    ContainerOrBucketName: "my-bucket",
//	})
//
//	// Check it landed
//	exists, err := s.IsBlobOrObjectExists(ctx, unistash.ExistsParams{
//	    AzureOrS3:             unistash.BackendS3,
//	    FileName:              "reports/2024.csv",
//	    ContainerOrBucketName: "my-bucket",
//	})
package unistash

import (
	"errors"

	"github.com/buildkite/unistash/store"
)

// Sentinel errors for common scenarios
var (
	// ErrBackendNotInitialized is returned when an operation needs a backend
	// that was never connected on the Storage handle.
	ErrBackendNotInitialized = errors.New("backend not initialized")

	// ErrInvalidDescriptor is returned by Connect for a nil or unsupported
	// connection descriptor.
	ErrInvalidDescriptor = errors.New("invalid connection descriptor")
)

// Backend selects which store a universal operation is dispatched to.
type Backend string

const (
	// BackendAzure selects the blob backend.
	BackendAzure Backend = "azure"

	// BackendS3 selects the object-store backend.
	BackendS3 Backend = "s3"
)

// ParseBackend maps a selector string onto a Backend. "azure" selects the
// blob backend and every other value, including the empty string, selects the
// object store.
func ParseBackend(s string) Backend {
	if s == string(BackendAzure) {
		return BackendAzure
	}
	return BackendS3
}

// IsAzure reports whether b routes to the blob backend. Any value other than
// BackendAzure routes to the object store.
func (b Backend) IsAzure() bool {
	return b == BackendAzure
}

func (b Backend) String() string {
	return string(b)
}

// UploadParams is the backend neutral input to UploadToStorage.
type UploadParams struct {
	// AzureOrS3 selects the backend, see Backend.
	AzureOrS3 Backend

	// Buffer is the content to upload.
	Buffer []byte

	// FileName is the blob name or object key.
	FileName string

	// ContainerOrBucketName is the Azure container or S3 bucket.
	ContainerOrBucketName string
}

// UploadResult holds the result of UploadToStorage. Exactly one field is set
// after a successful call.
type UploadResult struct {
	Azure *store.BlobUploadResult
	S3    *store.ObjectUploadResult
}

// DeleteParams is the backend neutral input to DeleteFromStorage.
type DeleteParams struct {
	AzureOrS3             Backend
	FileName              string
	ContainerOrBucketName string
}

// DeleteResult holds the result of DeleteFromStorage. Exactly one field is set
// after a successful call.
type DeleteResult struct {
	BlobDeleteResponse *store.BlobDeleteResult
	DeleteObjectOutput *store.ObjectDeleteResult
}

// ExistsParams is the backend neutral input to IsBlobOrObjectExists.
type ExistsParams struct {
	AzureOrS3             Backend
	FileName              string
	ContainerOrBucketName string
}
