package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/buildkite/unistash/internal/trace"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
)

// AzureBlob implements the BlobStore interface using the Azure Blob Storage SDK
type AzureBlob struct {
	client *azblob.Client
}

// Ensure AzureBlob implements the BlobStore interface
var _ BlobStore = (*AzureBlob)(nil)

// NewAzureBlob creates a new AzureBlob from a storage account connection string.
// Example connection string:
//
//	DefaultEndpointsProtocol=https;AccountName=myaccount;AccountKey=...;EndpointSuffix=core.windows.net
func NewAzureBlob(connectionString string, options *azblob.ClientOptions) (*AzureBlob, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, options)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure blob client: %w", err)
	}

	log.Debug().
		Str("url", client.URL()).
		Msg("configured azure blob client")

	return &AzureBlob{client: client}, nil
}

// UploadBuffer uploads buffer as a block blob
func (b *AzureBlob) UploadBuffer(ctx context.Context, containerName, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (*BlobUploadResult, error) {
	ctx, span := trace.Start(ctx, "AzureBlob.UploadBuffer")
	defer span.End()

	start := time.Now()

	resp, err := b.client.UploadBuffer(ctx, containerName, blobName, buffer, o)
	if err != nil {
		return nil, trace.Fail(span, err)
	}

	duration := time.Since(start)
	bytesWritten := int64(len(buffer))
	averageSpeed := calculateTransferSpeedMBps(bytesWritten, duration)
	requestID := stringValue(resp.RequestID)

	span.SetAttributes(
		attribute.Int64("bytes_transferred", bytesWritten),
		attribute.String("transfer_speed", fmt.Sprintf("%.2fMB/s", averageSpeed)),
		attribute.String("container", containerName),
		attribute.String("blob_name", blobName),
		attribute.String("request_id", requestID),
	)

	result := &BlobUploadResult{
		LastModified: timeValue(resp.LastModified),
		VersionID:    stringValue(resp.VersionID),
		ContentMD5:   resp.ContentMD5,
		ContentType:  uploadContentType(o),
		Transfer: TransferInfo{
			BytesTransferred: bytesWritten,
			TransferSpeed:    averageSpeed,
			RequestID:        requestID,
			Duration:         duration,
		},
	}
	if resp.ETag != nil {
		result.ETag = string(*resp.ETag)
	}

	return result, nil
}

// DeleteBlob deletes a blob, a missing blob is returned as the SDK error
func (b *AzureBlob) DeleteBlob(ctx context.Context, containerName, blobName string, o *azblob.DeleteBlobOptions) (*BlobDeleteResult, error) {
	ctx, span := trace.Start(ctx, "AzureBlob.DeleteBlob")
	defer span.End()

	span.SetAttributes(
		attribute.String("container", containerName),
		attribute.String("blob_name", blobName),
	)

	resp, err := b.client.DeleteBlob(ctx, containerName, blobName, o)
	if err != nil {
		return nil, trace.Fail(span, err)
	}

	return &BlobDeleteResult{
		RequestID: stringValue(resp.RequestID),
		Date:      timeValue(resp.Date),
	}, nil
}

// BlobExists reads the blob properties, a 404 means the blob does not exist
func (b *AzureBlob) BlobExists(ctx context.Context, containerName, blobName string, o *blob.GetPropertiesOptions) (bool, error) {
	ctx, span := trace.Start(ctx, "AzureBlob.BlobExists")
	defer span.End()

	span.SetAttributes(
		attribute.String("container", containerName),
		attribute.String("blob_name", blobName),
	)

	blobClient := b.client.ServiceClient().NewContainerClient(containerName).NewBlobClient(blobName)

	_, err := blobClient.GetProperties(ctx, o)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) || IsNotFound(err) {
			span.SetAttributes(attribute.Bool("exists", false))
			return false, nil
		}
		return false, trace.Fail(span, err)
	}

	span.SetAttributes(attribute.Bool("exists", true))

	return true, nil
}

func uploadContentType(o *azblob.UploadBufferOptions) string {
	if o == nil || o.HTTPHeaders == nil {
		return ""
	}
	return stringValue(o.HTTPHeaders.BlobContentType)
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func timeValue(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
