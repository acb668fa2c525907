package unistash

import (
	"bytes"
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/buildkite/unistash/store"
	"github.com/rs/zerolog/log"
)

// BlobUploadParams is the input to UploadBlob.
type BlobUploadParams struct {
	BlobName      string
	ContainerName string
	Buffer        []byte

	// UploadOptions are passed to the blob backend. When HTTPHeaders is nil
	// the content type is derived from the BlobName extension.
	UploadOptions *azblob.UploadBufferOptions
}

// UploadBlob uploads a buffer to the blob backend.
//
// The content type is looked up from the extension of BlobName; an unknown or
// missing extension sends no content type.
func (s *Storage) UploadBlob(ctx context.Context, params BlobUploadParams) (*store.BlobUploadResult, error) {
	blobStore, err := s.BlobBackend()
	if err != nil {
		return nil, err
	}

	opts := blobUploadOptions(params.BlobName, params.UploadOptions)

	log.Debug().
		Str("container", params.ContainerName).
		Str("blob", params.BlobName).
		Int("size", len(params.Buffer)).
		Msg("uploading blob")

	return blobStore.UploadBuffer(ctx, params.ContainerName, params.BlobName, params.Buffer, opts)
}

// UploadToObjectStore performs a managed upload to the object store. No
// content type is inferred, set input.ContentType to send one.
func (s *Storage) UploadToObjectStore(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*store.ObjectUploadResult, error) {
	objectStore, err := s.ObjectStoreBackend()
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("bucket", aws.ToString(input.Bucket)).
		Str("key", aws.ToString(input.Key)).
		Msg("uploading object")

	return objectStore.Upload(ctx, input, opts...)
}

// UploadToStorage uploads params.Buffer to the backend selected by
// params.AzureOrS3.
//
// The blob path derives a content type from FileName, the object-store path
// sends none.
func (s *Storage) UploadToStorage(ctx context.Context, params UploadParams) (*UploadResult, error) {
	if params.AzureOrS3.IsAzure() {
		res, err := s.UploadBlob(ctx, BlobUploadParams{
			BlobName:      params.FileName,
			ContainerName: params.ContainerOrBucketName,
			Buffer:        params.Buffer,
		})
		if err != nil {
			return nil, err
		}

		return &UploadResult{Azure: res}, nil
	}

	res, err := s.UploadToObjectStore(ctx, &s3.PutObjectInput{
		Bucket: aws.String(params.ContainerOrBucketName),
		Key:    aws.String(params.FileName),
		Body:   bytes.NewReader(params.Buffer),
	})
	if err != nil {
		return nil, err
	}

	return &UploadResult{S3: res}, nil
}
