package store

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/buildkite/unistash/internal/trace"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	gcblob "gocloud.dev/blob"
	_ "gocloud.dev/blob/azureblob" // Azure driver, azblob://container
	_ "gocloud.dev/blob/fileblob"  // Local file driver for testing
	_ "gocloud.dev/blob/memblob"   // In memory driver for testing
)

// GocloudBlob implements the BlobStore interface using gocloud.dev. The bucket
// stands in for the storage account and containers become key prefixes.
type GocloudBlob struct {
	bucket *gcblob.Bucket
	prefix string
}

// Ensure GocloudBlob implements the BlobStore interface
var _ BlobStore = (*GocloudBlob)(nil)

// NewGocloudBlob creates a new GocloudBlob instance using a blob URL and prefix
// For local development: "file:///path/to/directory"
// For tests: "mem://"
// For Azure: "azblob://container-name"
func NewGocloudBlob(ctx context.Context, blobURL, prefix string) (*GocloudBlob, error) {
	// Normalize the prefix to ensure it has the correct format
	normalizedPrefix := normalizePrefix(prefix)

	bucket, err := gcblob.OpenBucket(ctx, blobURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open blob bucket: %w", err)
	}

	log.Debug().
		Str("url", blobURL).
		Str("prefix", normalizedPrefix).
		Msg("configured gocloud blob bucket")

	return &GocloudBlob{
		bucket: bucket,
		prefix: normalizedPrefix,
	}, nil
}

// Close closes the underlying bucket connection
func (b *GocloudBlob) Close() error {
	return b.bucket.Close()
}

// UploadBuffer writes buffer to the bucket. Only the content type, content
// disposition, encoding, language, cache control and metadata options are
// honoured, the rest are Azure specific.
func (b *GocloudBlob) UploadBuffer(ctx context.Context, containerName, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (*BlobUploadResult, error) {
	ctx, span := trace.Start(ctx, "GocloudBlob.UploadBuffer")
	defer span.End()

	start := time.Now()

	fullKey := b.getFullKey(containerName, blobName)

	if err := b.bucket.WriteAll(ctx, fullKey, buffer, writerOptions(o)); err != nil {
		return nil, trace.Fail(span, err)
	}

	attrs, err := b.bucket.Attributes(ctx, fullKey)
	if err != nil {
		return nil, trace.Fail(span, err)
	}

	duration := time.Since(start)
	bytesWritten := int64(len(buffer))
	averageSpeed := calculateTransferSpeedMBps(bytesWritten, duration)

	span.SetAttributes(
		attribute.Int64("bytes_transferred", bytesWritten),
		attribute.String("transfer_speed", fmt.Sprintf("%.2fMB/s", averageSpeed)),
		attribute.String("blob_key", fullKey),
	)

	return &BlobUploadResult{
		ETag:         attrs.ETag,
		LastModified: attrs.ModTime,
		ContentMD5:   attrs.MD5,
		ContentType:  uploadContentType(o),
		Transfer: TransferInfo{
			BytesTransferred: bytesWritten,
			TransferSpeed:    averageSpeed,
			RequestID:        "", // gocloud.dev doesn't expose request IDs
			Duration:         duration,
		},
	}, nil
}

// DeleteBlob deletes the blob, a missing blob is returned as a gcerrors.NotFound error
func (b *GocloudBlob) DeleteBlob(ctx context.Context, containerName, blobName string, _ *azblob.DeleteBlobOptions) (*BlobDeleteResult, error) {
	ctx, span := trace.Start(ctx, "GocloudBlob.DeleteBlob")
	defer span.End()

	fullKey := b.getFullKey(containerName, blobName)
	span.SetAttributes(attribute.String("blob_key", fullKey))

	if err := b.bucket.Delete(ctx, fullKey); err != nil {
		return nil, trace.Fail(span, err)
	}

	return &BlobDeleteResult{Date: time.Now().UTC()}, nil
}

// BlobExists checks whether the blob exists in the bucket
func (b *GocloudBlob) BlobExists(ctx context.Context, containerName, blobName string, _ *blob.GetPropertiesOptions) (bool, error) {
	ctx, span := trace.Start(ctx, "GocloudBlob.BlobExists")
	defer span.End()

	fullKey := b.getFullKey(containerName, blobName)

	exists, err := b.bucket.Exists(ctx, fullKey)
	if err != nil {
		return false, trace.Fail(span, err)
	}

	span.SetAttributes(
		attribute.String("blob_key", fullKey),
		attribute.Bool("exists", exists),
	)

	return exists, nil
}

// getFullKey combines the prefix, container and blob name
func (b *GocloudBlob) getFullKey(containerName, blobName string) string {
	// Remove leading slash from blob name if present
	blobName = strings.TrimPrefix(blobName, "/")
	return path.Join(b.prefix, containerName, blobName)
}

func writerOptions(o *azblob.UploadBufferOptions) *gcblob.WriterOptions {
	opts := &gcblob.WriterOptions{}
	if o == nil {
		return opts
	}

	if h := o.HTTPHeaders; h != nil {
		opts.ContentType = stringValue(h.BlobContentType)
		opts.ContentDisposition = stringValue(h.BlobContentDisposition)
		opts.ContentEncoding = stringValue(h.BlobContentEncoding)
		opts.ContentLanguage = stringValue(h.BlobContentLanguage)
		opts.CacheControl = stringValue(h.BlobCacheControl)
	}

	if len(o.Metadata) > 0 {
		opts.Metadata = make(map[string]string, len(o.Metadata))
		for k, v := range o.Metadata {
			opts.Metadata[k] = stringValue(v)
		}
	}

	return opts
}

// normalizePrefix ensures the prefix has the correct format
func normalizePrefix(prefix string) string {
	// Remove leading slash if present
	prefix = strings.TrimPrefix(prefix, "/")
	// Add trailing slash if not empty and doesn't have one
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}
