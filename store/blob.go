package store

import (
	"context"
	"net/url"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	gcblob "gocloud.dev/blob"
)

// BlobStore is the container/blob backend. Options are the Azure SDK option
// types and are forwarded to the backend as given.
type BlobStore interface {
	// UploadBuffer writes buffer to blobName inside containerName
	UploadBuffer(ctx context.Context, containerName, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (*BlobUploadResult, error)

	// DeleteBlob removes blobName from containerName
	DeleteBlob(ctx context.Context, containerName, blobName string, o *azblob.DeleteBlobOptions) (*BlobDeleteResult, error)

	// BlobExists probes for blobName, a missing blob is (false, nil)
	BlobExists(ctx context.Context, containerName, blobName string, o *blob.GetPropertiesOptions) (bool, error)
}

// ObjectStore is the bucket/key backend. Inputs are the S3 SDK input types and
// are forwarded to the backend as given.
type ObjectStore interface {
	// Upload performs a managed (single part or multipart) upload
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*ObjectUploadResult, error)

	// DeleteObject removes a single object
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput) (*ObjectDeleteResult, error)

	// HeadObject fetches object metadata, absence is reported as an error
	// which satisfies IsNotFound
	HeadObject(ctx context.Context, input *s3.HeadObjectInput) (*ObjectHead, error)
}

// NewBlobStore opens the blob backend described by connectionString.
//
// A URL whose scheme is registered with gocloud.dev (file://, mem://, azblob://)
// is opened with GocloudBlob, anything else is treated as an Azure storage
// connection string.
func NewBlobStore(ctx context.Context, connectionString string, options *azblob.ClientOptions) (BlobStore, error) {
	if blobStoreType(connectionString) == GocloudBlobStore {
		b, err := NewGocloudBlob(ctx, connectionString, "")
		if err != nil {
			return nil, err
		}
		return b, nil
	}

	b, err := NewAzureBlob(connectionString, options)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func blobStoreType(connectionString string) string {
	u, err := url.Parse(connectionString)
	if err == nil && u.Scheme != "" && gcblob.DefaultURLMux().ValidBucketScheme(u.Scheme) {
		return GocloudBlobStore
	}
	return AzureBlobStore
}
