package unistash

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/buildkite/unistash/store"
	"github.com/rs/zerolog/log"
)

// BlobDeleteParams is the input to DeleteBlob.
type BlobDeleteParams struct {
	ContainerName string
	BlobName      string
	DeleteOptions *azblob.DeleteBlobOptions
}

// DeleteBlob deletes a blob. Deleting a missing blob returns the backend's not
// found error, which satisfies store.IsNotFound.
func (s *Storage) DeleteBlob(ctx context.Context, params BlobDeleteParams) (*store.BlobDeleteResult, error) {
	blobStore, err := s.BlobBackend()
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("container", params.ContainerName).
		Str("blob", params.BlobName).
		Msg("deleting blob")

	return blobStore.DeleteBlob(ctx, params.ContainerName, params.BlobName, params.DeleteOptions)
}

// DeleteFromObjectStore deletes a single object.
func (s *Storage) DeleteFromObjectStore(ctx context.Context, input *s3.DeleteObjectInput) (*store.ObjectDeleteResult, error) {
	objectStore, err := s.ObjectStoreBackend()
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("bucket", aws.ToString(input.Bucket)).
		Str("key", aws.ToString(input.Key)).
		Msg("deleting object")

	return objectStore.DeleteObject(ctx, input)
}

// DeleteFromStorage deletes params.FileName from the backend selected by
// params.AzureOrS3.
func (s *Storage) DeleteFromStorage(ctx context.Context, params DeleteParams) (*DeleteResult, error) {
	if params.AzureOrS3.IsAzure() {
		res, err := s.DeleteBlob(ctx, BlobDeleteParams{
			ContainerName: params.ContainerOrBucketName,
			BlobName:      params.FileName,
		})
		if err != nil {
			return nil, err
		}

		return &DeleteResult{BlobDeleteResponse: res}, nil
	}

	res, err := s.DeleteFromObjectStore(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(params.ContainerOrBucketName),
		Key:    aws.String(params.FileName),
	})
	if err != nil {
		return nil, err
	}

	return &DeleteResult{DeleteObjectOutput: res}, nil
}
