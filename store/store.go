package store

import (
	"errors"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"gocloud.dev/gcerrors"
)

const (
	// AzureBlobStore is the blob backend store type
	AzureBlobStore = "azure_blob"
	// GocloudBlobStore is the gocloud.dev URL backed blob store type
	GocloudBlobStore = "gocloud_blob"
	// S3ObjectStore is the object-store backend store type
	S3ObjectStore = "s3"
)

type TransferInfo struct {
	BytesTransferred int64
	TransferSpeed    float64 // in MB/s
	RequestID        string
	Duration         time.Duration
}

// BlobUploadResult is returned by BlobStore.UploadBuffer.
type BlobUploadResult struct {
	ETag         string
	LastModified time.Time
	VersionID    string
	ContentMD5   []byte
	// ContentType is the content type sent with the upload, empty when none was set.
	ContentType string
	Transfer    TransferInfo
}

// BlobDeleteResult is returned by BlobStore.DeleteBlob.
type BlobDeleteResult struct {
	RequestID string
	Date      time.Time
}

// ObjectUploadResult is returned by ObjectStore.Upload.
type ObjectUploadResult struct {
	Location  string
	Key       string
	ETag      string
	VersionID string
	// UploadID is only set when the managed upload used the multipart API.
	UploadID string
	Transfer TransferInfo
}

// ObjectDeleteResult is returned by ObjectStore.DeleteObject.
type ObjectDeleteResult struct {
	DeleteMarker bool
	VersionID    string
	RequestID    string
}

// ObjectHead is the metadata returned by ObjectStore.HeadObject.
type ObjectHead struct {
	ContentLength int64
	ContentType   string
	ETag          string
	LastModified  time.Time
	RequestID     string
}

// IsNotFound reports whether err is a "not found" error raised by one of the
// backends: the S3 NotFound / NoSuchKey error types or codes, an HTTP 404 from
// either SDK, or a gocloud.dev NotFound.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}

	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}

	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}

	var awsRespErr *awshttp.ResponseError
	if errors.As(err, &awsRespErr) && awsRespErr.HTTPStatusCode() == http.StatusNotFound {
		return true
	}

	var azRespErr *azcore.ResponseError
	if errors.As(err, &azRespErr) && azRespErr.StatusCode == http.StatusNotFound {
		return true
	}

	return gcerrors.Code(err) == gcerrors.NotFound
}

// calculateTransferSpeedMBps calculates transfer speed in MB/s (decimal megabytes)
// using the formula: bytes / duration_in_seconds / 1,000,000
func calculateTransferSpeedMBps(bytes int64, duration time.Duration) float64 {
	if duration <= 0 {
		return 0
	}
	return float64(bytes) / duration.Seconds() / 1000 / 1000
}
