package unistash

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsBlobOrObjectExists(t *testing.T) {
	ctx := context.Background()

	for _, backend := range []Backend{BackendAzure, BackendS3} {
		t.Run(backend.String(), func(t *testing.T) {
			s, blobStore, objectStore := connectedFakeStorage(t)
			blobStore.blobs["c/present.txt"] = []byte("x")
			objectStore.objects["c/present.txt"] = []byte("x")

			exists, err := s.IsBlobOrObjectExists(ctx, ExistsParams{AzureOrS3: backend, FileName: "present.txt", ContainerOrBucketName: "c"})
			require.NoError(t, err)
			assert.True(t, exists)

			exists, err = s.IsBlobOrObjectExists(ctx, ExistsParams{AzureOrS3: backend, FileName: "missing.txt", ContainerOrBucketName: "c"})
			require.NoError(t, err)
			assert.False(t, exists)
		})
	}
}

func TestIsObjectExists_NotFoundErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "not found type", err: &types.NotFound{}},
		{name: "no such key type", err: &types.NoSuchKey{}},
		{name: "not found code", err: &smithy.GenericAPIError{Code: "NotFound"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, objectStore := connectedFakeStorage(t)
			objectStore.headErr = tt.err

			exists, err := s.IsObjectExists(context.Background(), &s3.HeadObjectInput{
				Bucket: aws.String("b"),
				Key:    aws.String("k"),
			})
			require.NoError(t, err)
			assert.False(t, exists)
		})
	}
}

func TestIsObjectExists_OtherErrorsPropagate(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "access denied", err: &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"}},
		{name: "network failure", err: errors.New("connection reset by peer")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, objectStore := connectedFakeStorage(t)
			objectStore.headErr = tt.err

			exists, err := s.IsObjectExists(context.Background(), &s3.HeadObjectInput{
				Bucket: aws.String("b"),
				Key:    aws.String("k"),
			})
			require.Error(t, err)
			assert.Same(t, tt.err, err)
			assert.False(t, exists)
		})
	}
}

func TestIsBlobExists_PropagatesErrors(t *testing.T) {
	errBackend := errors.New("auth failed")

	s, blobStore, _ := connectedFakeStorage(t)
	blobStore.err = errBackend

	exists, err := s.IsBlobExists(context.Background(), BlobExistsParams{ContainerName: "c", BlobName: "b"})
	require.ErrorIs(t, err, errBackend)
	assert.False(t, exists)
}
