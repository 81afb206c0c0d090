// Package storage archives issued certificates in an object store.
package storage

import (
	"context"
	"io"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader is an S3-compatible object store.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

// CertificateKey is the object key a certificate number is archived under.
func CertificateKey(number string) string {
	return "certificates/" + number + ".json"
}
