package unistash

import (
	"mime"
	"path"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
)

// contentTypeFor returns the MIME type registered for the extension of name,
// without parameters, or "" when the extension is missing or unknown.
func contentTypeFor(name string) string {
	ext := path.Ext(name)
	if ext == "" {
		return ""
	}

	t := mime.TypeByExtension(ext)
	if t == "" {
		return ""
	}

	mediaType, _, err := mime.ParseMediaType(t)
	if err != nil {
		return t
	}

	return mediaType
}

// blobUploadOptions layers the caller's options over a content type derived
// from blobName. Caller supplied HTTPHeaders replace the derived headers
// entirely. opts is never modified.
func blobUploadOptions(blobName string, opts *azblob.UploadBufferOptions) *azblob.UploadBufferOptions {
	merged := &azblob.UploadBufferOptions{}
	if opts != nil {
		*merged = *opts
	}

	if merged.HTTPHeaders != nil {
		return merged
	}

	if contentType := contentTypeFor(blobName); contentType != "" {
		merged.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: &contentType}
	}

	return merged
}
