package unistash

import (
	"maps"
	"strconv"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/buildkite/unistash/store"
	"github.com/rs/zerolog/log"
)

// Connection string keys understood by the object-store parser.
const (
	keyAccessKeyID     = "accessKeyId"
	keySecretAccessKey = "secretAccessKey"
	keySessionToken    = "sessionToken"
	keyRegion          = "region"
	keyEndpoint        = "endpoint"
	keyForcePathStyle  = "s3ForcePathStyle"
	keyMaxRetries      = "maxRetries"
)

// ObjectStoreConfig configures the object-store backend.
type ObjectStoreConfig struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Region          string

	// Endpoint overrides the S3 endpoint, for S3 compatible services.
	Endpoint string

	// S3ForcePathStyle addresses buckets as a path segment instead of a
	// virtual host.
	S3ForcePathStyle bool

	// MaxRetries is the number of retries after the first attempt. Nil keeps
	// the SDK default, 0 disables retries.
	MaxRetries *int

	// Extra holds connection string pairs with keys not listed above. The
	// default S3 factory does not use them, it logs each key at debug level.
	Extra map[string]string
}

func (c ObjectStoreConfig) storeOptions() store.Options {
	return store.Options{
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
		SessionToken:    c.SessionToken,
		Region:          c.Region,
		Endpoint:        c.Endpoint,
		UsePathStyle:    c.S3ForcePathStyle,
		MaxRetries:      c.MaxRetries,
	}
}

// Descriptor describes which backend to connect and how. It is either a
// BlobDescriptor or an ObjectStoreDescriptor.
type Descriptor interface {
	Backend() Backend
}

// BlobDescriptor connects the blob backend.
type BlobDescriptor struct {
	// ConnectionString is an Azure storage connection string or a gocloud.dev
	// blob URL such as file:///tmp/blobs or mem://.
	ConnectionString string

	ClientOptions *azblob.ClientOptions
}

func (BlobDescriptor) Backend() Backend { return BackendAzure }

// ObjectStoreDescriptor connects the object-store backend.
type ObjectStoreDescriptor struct {
	Config ObjectStoreConfig
}

func (ObjectStoreDescriptor) Backend() Backend { return BackendS3 }

// ParseConnectionString turns a connection string into a Descriptor.
//
// A string containing all of "accessKeyId", "secretAccessKey" and "region"
// describes the object store. It is split into ';' separated key=value pairs
// which are applied over base. Anything else is returned verbatim as a
// BlobDescriptor.
//
// Parsing is best effort and never fails: a segment without '=' sets its key
// to the empty value, empty segments are skipped, unknown keys are kept in
// Extra, and a maxRetries or s3ForcePathStyle value that does not parse keeps
// the base value.
func ParseConnectionString(connectionString string, base ObjectStoreConfig) Descriptor {
	if !isObjectStoreConnectionString(connectionString) {
		return BlobDescriptor{ConnectionString: connectionString}
	}

	cfg := base
	cfg.Extra = maps.Clone(base.Extra)

	for _, segment := range strings.Split(connectionString, ";") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		key, value, _ := strings.Cut(segment, "=")
		cfg.set(strings.TrimSpace(key), strings.TrimSpace(value))
	}

	return ObjectStoreDescriptor{Config: cfg}
}

func isObjectStoreConnectionString(connectionString string) bool {
	return strings.Contains(connectionString, keyAccessKeyID) &&
		strings.Contains(connectionString, keySecretAccessKey) &&
		strings.Contains(connectionString, keyRegion)
}

func (c *ObjectStoreConfig) set(key, value string) {
	switch key {
	case keyAccessKeyID:
		c.AccessKeyID = value
	case keySecretAccessKey:
		c.SecretAccessKey = value
	case keySessionToken:
		c.SessionToken = value
	case keyRegion:
		c.Region = value
	case keyEndpoint:
		c.Endpoint = value
	case keyForcePathStyle:
		b, err := strconv.ParseBool(value)
		if err != nil {
			log.Debug().Str("key", key).Err(err).Msg("ignoring invalid connection string value")
			return
		}
		c.S3ForcePathStyle = b
	case keyMaxRetries:
		n, err := strconv.Atoi(value)
		if err != nil {
			log.Debug().Str("key", key).Err(err).Msg("ignoring invalid connection string value")
			return
		}
		c.MaxRetries = &n
	default:
		if c.Extra == nil {
			c.Extra = make(map[string]string)
		}
		c.Extra[key] = value
	}
}
