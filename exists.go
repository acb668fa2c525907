package unistash

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/buildkite/unistash/store"
	"github.com/rs/zerolog/log"
)

// BlobExistsParams is the input to IsBlobExists.
type BlobExistsParams struct {
	ContainerName string
	BlobName      string
	ExistsOptions *blob.GetPropertiesOptions
}

// IsBlobExists reports whether a blob exists. Errors other than the blob or
// its container being missing are returned.
func (s *Storage) IsBlobExists(ctx context.Context, params BlobExistsParams) (bool, error) {
	blobStore, err := s.BlobBackend()
	if err != nil {
		return false, err
	}

	return blobStore.BlobExists(ctx, params.ContainerName, params.BlobName, params.ExistsOptions)
}

// IsObjectExists reports whether an object exists using a HEAD request. A not
// found error is reported as false, every other error is returned unchanged.
func (s *Storage) IsObjectExists(ctx context.Context, input *s3.HeadObjectInput) (bool, error) {
	objectStore, err := s.ObjectStoreBackend()
	if err != nil {
		return false, err
	}

	_, err = objectStore.HeadObject(ctx, input)
	if err != nil {
		if store.IsNotFound(err) {
			log.Debug().
				Str("bucket", aws.ToString(input.Bucket)).
				Str("key", aws.ToString(input.Key)).
				Msg("object not found")
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// IsBlobOrObjectExists reports whether params.FileName exists on the backend
// selected by params.AzureOrS3. Unlike upload and delete the result is a plain
// bool rather than an envelope.
func (s *Storage) IsBlobOrObjectExists(ctx context.Context, params ExistsParams) (bool, error) {
	if params.AzureOrS3.IsAzure() {
		return s.IsBlobExists(ctx, BlobExistsParams{
			ContainerName: params.ContainerOrBucketName,
			BlobName:      params.FileName,
		})
	}

	return s.IsObjectExists(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(params.ContainerOrBucketName),
		Key:    aws.String(params.FileName),
	})
}
