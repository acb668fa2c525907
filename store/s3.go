package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/middleware"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/buildkite/unistash/internal/trace"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
)

// Options holds configuration for S3Store.
type Options struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Region          string
	// Endpoint is used for local testing or custom S3 compatible endpoints
	Endpoint     string
	UsePathStyle bool
	// MaxRetries is the number of retries after the first attempt, nil keeps the SDK default
	MaxRetries *int
}

// S3API is the subset of *s3.Client used by S3Store
type S3API interface {
	manager.UploadAPIClient
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Store implements the ObjectStore interface using AWS S3, uploads go through
// the managed uploader which switches to multipart for large bodies.
type S3Store struct {
	client   S3API
	uploader *manager.Uploader
}

// Ensure S3Store implements the ObjectStore interface
var _ ObjectStore = (*S3Store)(nil)

// NewS3Store creates a new S3Store. Static credentials are used when an access
// key is supplied, otherwise the default AWS credential chain applies.
func NewS3Store(ctx context.Context, opts Options) (*S3Store, error) {
	var loadOpts []func(*config.LoadOptions) error

	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}

	if opts.AccessKeyID != "" || opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, opts.SessionToken),
		))
	}

	if opts.MaxRetries != nil {
		loadOpts = append(loadOpts, config.WithRetryMaxAttempts(max(*opts.MaxRetries, 0)+1))
	}

	// Load the AWS configuration
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	l := log.Debug().
		Str("region", cfg.Region).
		Str("endpoint", opts.Endpoint).
		Bool("use_path_style", opts.UsePathStyle).
		Bool("static_credentials", opts.AccessKeyID != "")
	if opts.MaxRetries != nil {
		l = l.Int("max_retries", *opts.MaxRetries)
	}
	l.Msg("configured S3 client")

	client := s3.NewFromConfig(cfg,
		func(o *s3.Options) {
			if opts.UsePathStyle {
				o.UsePathStyle = true
			}

			if opts.Endpoint != "" {
				o.BaseEndpoint = aws.String(opts.Endpoint)
			}
		})

	return NewS3StoreFromClient(client), nil
}

// NewS3StoreFromClient wraps an existing client
func NewS3StoreFromClient(client S3API) *S3Store {
	return &S3Store{
		client:   client,
		uploader: manager.NewUploader(client),
	}
}

// Upload uploads the input body with the managed uploader
func (s *S3Store) Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*ObjectUploadResult, error) {
	ctx, span := trace.Start(ctx, "S3Store.Upload")
	defer span.End()

	start := time.Now()

	// the uploader consumes the body so measure it first
	bytesWritten := bodySize(input)

	result, err := s.uploader.Upload(ctx, input, opts...)
	if err != nil {
		return nil, trace.Fail(span, err)
	}

	duration := time.Since(start)
	averageSpeed := calculateTransferSpeedMBps(bytesWritten, duration)

	span.SetAttributes(
		attribute.Int64("bytes_transferred", bytesWritten),
		attribute.String("transfer_speed", fmt.Sprintf("%.2fMB/s", averageSpeed)),
		attribute.String("bucket", aws.ToString(input.Bucket)),
		attribute.String("key", aws.ToString(input.Key)),
		attribute.String("upload_id", result.UploadID),
	)

	return &ObjectUploadResult{
		Location:  result.Location,
		Key:       aws.ToString(result.Key),
		ETag:      aws.ToString(result.ETag),
		VersionID: aws.ToString(result.VersionID),
		UploadID:  result.UploadID,
		Transfer: TransferInfo{
			BytesTransferred: bytesWritten,
			TransferSpeed:    averageSpeed,
			Duration:         duration,
		},
	}, nil
}

// DeleteObject deletes a single object
func (s *S3Store) DeleteObject(ctx context.Context, input *s3.DeleteObjectInput) (*ObjectDeleteResult, error) {
	ctx, span := trace.Start(ctx, "S3Store.DeleteObject")
	defer span.End()

	span.SetAttributes(
		attribute.String("bucket", aws.ToString(input.Bucket)),
		attribute.String("key", aws.ToString(input.Key)),
	)

	result, err := s.client.DeleteObject(ctx, input)
	if err != nil {
		return nil, trace.Fail(span, err)
	}

	requestID, _ := middleware.GetRequestIDMetadata(result.ResultMetadata)

	span.SetAttributes(attribute.String("request_id", requestID))

	return &ObjectDeleteResult{
		DeleteMarker: aws.ToBool(result.DeleteMarker),
		VersionID:    aws.ToString(result.VersionId),
		RequestID:    requestID,
	}, nil
}

// HeadObject fetches object metadata, a missing object is returned as the SDK
// error which satisfies IsNotFound
func (s *S3Store) HeadObject(ctx context.Context, input *s3.HeadObjectInput) (*ObjectHead, error) {
	ctx, span := trace.Start(ctx, "S3Store.HeadObject")
	defer span.End()

	span.SetAttributes(
		attribute.String("bucket", aws.ToString(input.Bucket)),
		attribute.String("key", aws.ToString(input.Key)),
	)

	result, err := s.client.HeadObject(ctx, input)
	if err != nil {
		return nil, trace.Fail(span, err)
	}

	requestID, _ := middleware.GetRequestIDMetadata(result.ResultMetadata)

	return &ObjectHead{
		ContentLength: aws.ToInt64(result.ContentLength),
		ContentType:   aws.ToString(result.ContentType),
		ETag:          aws.ToString(result.ETag),
		LastModified:  aws.ToTime(result.LastModified),
		RequestID:     requestID,
	}, nil
}

// bodySize returns the number of bytes the upload will send, 0 when unknown
func bodySize(input *s3.PutObjectInput) int64 {
	if input.ContentLength != nil {
		return aws.ToInt64(input.ContentLength)
	}

	if l, ok := input.Body.(interface{ Len() int }); ok {
		return int64(l.Len())
	}

	return 0
}
