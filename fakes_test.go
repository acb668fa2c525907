package unistash

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/buildkite/unistash/store"
	"github.com/stretchr/testify/require"
)

type fakeBlobStore struct {
	mu          sync.Mutex
	blobs       map[string][]byte
	lastOptions *azblob.UploadBufferOptions
	err         error
	closed      bool
}

var _ store.BlobStore = (*fakeBlobStore)(nil)

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string][]byte)}
}

func (f *fakeBlobStore) UploadBuffer(_ context.Context, containerName, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (*store.BlobUploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	f.blobs[containerName+"/"+blobName] = buffer
	f.lastOptions = o

	result := &store.BlobUploadResult{ETag: "blob-etag"}
	if o != nil && o.HTTPHeaders != nil && o.HTTPHeaders.BlobContentType != nil {
		result.ContentType = *o.HTTPHeaders.BlobContentType
	}
	return result, nil
}

func (f *fakeBlobStore) DeleteBlob(_ context.Context, containerName, blobName string, _ *azblob.DeleteBlobOptions) (*store.BlobDeleteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	delete(f.blobs, containerName+"/"+blobName)
	return &store.BlobDeleteResult{RequestID: "blob-delete"}, nil
}

func (f *fakeBlobStore) BlobExists(_ context.Context, containerName, blobName string, _ *blob.GetPropertiesOptions) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return false, f.err
	}

	_, ok := f.blobs[containerName+"/"+blobName]
	return ok, nil
}

func (f *fakeBlobStore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

type fakeObjectStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	lastInput *s3.PutObjectInput
	headErr   error
	err       error
}

var _ store.ObjectStore = (*fakeObjectStore)(nil)

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (f *fakeObjectStore) Upload(_ context.Context, input *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*store.ObjectUploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, input.Body); err != nil {
		return nil, err
	}

	f.objects[aws.ToString(input.Bucket)+"/"+aws.ToString(input.Key)] = buf.Bytes()
	f.lastInput = input

	return &store.ObjectUploadResult{Key: aws.ToString(input.Key), ETag: "object-etag"}, nil
}

func (f *fakeObjectStore) DeleteObject(_ context.Context, input *s3.DeleteObjectInput) (*store.ObjectDeleteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	delete(f.objects, aws.ToString(input.Bucket)+"/"+aws.ToString(input.Key))
	return &store.ObjectDeleteResult{RequestID: "object-delete"}, nil
}

func (f *fakeObjectStore) HeadObject(_ context.Context, input *s3.HeadObjectInput) (*store.ObjectHead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.headErr != nil {
		return nil, f.headErr
	}

	data, ok := f.objects[aws.ToString(input.Bucket)+"/"+aws.ToString(input.Key)]
	if !ok {
		return nil, &types.NotFound{}
	}

	return &store.ObjectHead{ContentLength: int64(len(data))}, nil
}

// newFakeStorage returns a Storage whose factories hand out the given fakes
func newFakeStorage(blobStore *fakeBlobStore, objectStore *fakeObjectStore) *Storage {
	return New(Config{
		NewBlobStore: func(context.Context, string, *azblob.ClientOptions) (store.BlobStore, error) {
			return blobStore, nil
		},
		NewObjectStore: func(context.Context, ObjectStoreConfig) (store.ObjectStore, error) {
			return objectStore, nil
		},
	})
}

// connectedFakeStorage returns a Storage with both backends connected
func connectedFakeStorage(t *testing.T) (*Storage, *fakeBlobStore, *fakeObjectStore) {
	t.Helper()

	blobStore := newFakeBlobStore()
	objectStore := newFakeObjectStore()
	s := newFakeStorage(blobStore, objectStore)

	ctx := context.Background()

	_, err := s.ConnectBlobBackend(ctx, "UseDevelopmentStorage=true", nil)
	require.NoError(t, err)

	_, err = s.ConnectObjectStoreBackend(ctx, ObjectStoreConfig{Region: "us-east-1"})
	require.NoError(t, err)

	return s, blobStore, objectStore
}
