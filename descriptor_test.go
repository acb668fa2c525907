package unistash

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConnectionString(t *testing.T) {
	tests := []struct {
		name             string
		connectionString string
		base             ObjectStoreConfig
		want             Descriptor
	}{
		{
			name:             "object store merged over base",
			connectionString: "accessKeyId=AKIA;secretAccessKey=SECRET;region=us-east-1",
			base:             ObjectStoreConfig{MaxRetries: aws.Int(3)},
			want: ObjectStoreDescriptor{Config: ObjectStoreConfig{
				MaxRetries:      aws.Int(3),
				AccessKeyID:     "AKIA",
				SecretAccessKey: "SECRET",
				Region:          "us-east-1",
			}},
		},
		{
			name:             "keys in any order",
			connectionString: "region=eu-west-1;secretAccessKey=S;accessKeyId=A",
			want: ObjectStoreDescriptor{Config: ObjectStoreConfig{
				AccessKeyID:     "A",
				SecretAccessKey: "S",
				Region:          "eu-west-1",
			}},
		},
		{
			name:             "parsed pairs override base",
			connectionString: "accessKeyId=AKIA;secretAccessKey=SECRET;region=us-east-1;maxRetries=5",
			base:             ObjectStoreConfig{Region: "ap-southeast-2", MaxRetries: aws.Int(3), Endpoint: "http://localhost:9000"},
			want: ObjectStoreDescriptor{Config: ObjectStoreConfig{
				AccessKeyID:     "AKIA",
				SecretAccessKey: "SECRET",
				Region:          "us-east-1",
				MaxRetries:      aws.Int(5),
				Endpoint:        "http://localhost:9000",
			}},
		},
		{
			name:             "zero retries is kept",
			connectionString: "accessKeyId=A;secretAccessKey=S;region=us-east-1;maxRetries=0",
			base:             ObjectStoreConfig{MaxRetries: aws.Int(3)},
			want: ObjectStoreDescriptor{Config: ObjectStoreConfig{
				AccessKeyID:     "A",
				SecretAccessKey: "S",
				Region:          "us-east-1",
				MaxRetries:      aws.Int(0),
			}},
		},
		{
			name:             "whitespace is trimmed and empty segments skipped",
			connectionString: " accessKeyId = AKIA ;; secretAccessKey=SECRET ; region=us-east-1; ",
			want: ObjectStoreDescriptor{Config: ObjectStoreConfig{
				AccessKeyID:     "AKIA",
				SecretAccessKey: "SECRET",
				Region:          "us-east-1",
			}},
		},
		{
			name:             "value containing equals is split on the first only",
			connectionString: "accessKeyId=AKIA;secretAccessKey=abc=def==;region=us-east-1",
			want: ObjectStoreDescriptor{Config: ObjectStoreConfig{
				AccessKeyID:     "AKIA",
				SecretAccessKey: "abc=def==",
				Region:          "us-east-1",
			}},
		},
		{
			name:             "segment without equals sets an empty value",
			connectionString: "accessKeyId=AKIA;secretAccessKey;region=us-east-1",
			base:             ObjectStoreConfig{SecretAccessKey: "from-base"},
			want: ObjectStoreDescriptor{Config: ObjectStoreConfig{
				AccessKeyID: "AKIA",
				Region:      "us-east-1",
			}},
		},
		{
			name:             "endpoint, session token and path style",
			connectionString: "accessKeyId=A;secretAccessKey=S;sessionToken=T;region=us-east-1;endpoint=http://localhost:9000;s3ForcePathStyle=true",
			want: ObjectStoreDescriptor{Config: ObjectStoreConfig{
				AccessKeyID:      "A",
				SecretAccessKey:  "S",
				SessionToken:     "T",
				Region:           "us-east-1",
				Endpoint:         "http://localhost:9000",
				S3ForcePathStyle: true,
			}},
		},
		{
			name:             "invalid numbers and bools keep the base value",
			connectionString: "accessKeyId=A;secretAccessKey=S;region=us-east-1;maxRetries=lots;s3ForcePathStyle=maybe",
			base:             ObjectStoreConfig{MaxRetries: aws.Int(3), S3ForcePathStyle: true},
			want: ObjectStoreDescriptor{Config: ObjectStoreConfig{
				AccessKeyID:      "A",
				SecretAccessKey:  "S",
				Region:           "us-east-1",
				MaxRetries:       aws.Int(3),
				S3ForcePathStyle: true,
			}},
		},
		{
			name:             "unknown keys are kept in extra",
			connectionString: "accessKeyId=A;secretAccessKey=S;region=us-east-1;signatureVersion=v4",
			want: ObjectStoreDescriptor{Config: ObjectStoreConfig{
				AccessKeyID:     "A",
				SecretAccessKey: "S",
				Region:          "us-east-1",
				Extra:           map[string]string{"signatureVersion": "v4"},
			}},
		},
		{
			name:             "azure connection string is passed verbatim",
			connectionString: "DefaultEndpointsProtocol=https;AccountName=acct;AccountKey=key==;EndpointSuffix=core.windows.net",
			base:             ObjectStoreConfig{MaxRetries: aws.Int(3)},
			want: BlobDescriptor{
				ConnectionString: "DefaultEndpointsProtocol=https;AccountName=acct;AccountKey=key==;EndpointSuffix=core.windows.net",
			},
		},
		{
			name:             "missing region is a blob connection string",
			connectionString: "accessKeyId=AKIA;secretAccessKey=SECRET",
			want:             BlobDescriptor{ConnectionString: "accessKeyId=AKIA;secretAccessKey=SECRET"},
		},
		{
			name:             "gocloud url is a blob connection string",
			connectionString: "file:///tmp/blobs",
			want:             BlobDescriptor{ConnectionString: "file:///tmp/blobs"},
		},
		{
			name:             "empty string is a blob connection string",
			connectionString: "",
			want:             BlobDescriptor{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseConnectionString(tt.connectionString, tt.base)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseConnectionString_SubstringHeuristic(t *testing.T) {
	// the keys only need to appear somewhere in the string
	d := ParseConnectionString("x=accessKeyId secretAccessKey region", ObjectStoreConfig{})

	od, ok := d.(ObjectStoreDescriptor)
	require.True(t, ok)
	assert.Equal(t, map[string]string{"x": "accessKeyId secretAccessKey region"}, od.Config.Extra)
	assert.Equal(t, BackendS3, d.Backend())
}

func TestParseConnectionString_DoesNotModifyBase(t *testing.T) {
	base := ObjectStoreConfig{Extra: map[string]string{"a": "1"}}

	d := ParseConnectionString("accessKeyId=A;secretAccessKey=S;region=r;b=2", base)

	od, ok := d.(ObjectStoreDescriptor)
	require.True(t, ok)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, od.Config.Extra)
	assert.Equal(t, map[string]string{"a": "1"}, base.Extra)
}

func TestObjectStoreConfig_StoreOptions(t *testing.T) {
	cfg := ObjectStoreConfig{
		AccessKeyID:      "A",
		SecretAccessKey:  "S",
		SessionToken:     "T",
		Region:           "us-east-1",
		Endpoint:         "http://localhost:9000",
		S3ForcePathStyle: true,
		MaxRetries:       aws.Int(3),
	}

	opts := cfg.storeOptions()

	assert.Equal(t, "A", opts.AccessKeyID)
	assert.Equal(t, "S", opts.SecretAccessKey)
	assert.Equal(t, "T", opts.SessionToken)
	assert.Equal(t, "us-east-1", opts.Region)
	assert.Equal(t, "http://localhost:9000", opts.Endpoint)
	assert.True(t, opts.UsePathStyle)
	assert.Equal(t, aws.Int(3), opts.MaxRetries)
}
