package storage

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublicURL(t *testing.T) {
	logger := slog.Default()

	assert.Equal(t, "https://cdn.example.org/certificates/RC-JLF-001-000042.json",
		publicURL("https://cdn.example.org", CertificateKey("RC-JLF-001-000042"), logger))
	assert.Equal(t, "https://cdn.example.org/archive/certificates/x.json",
		publicURL("https://cdn.example.org/archive", "/certificates/x.json", logger))
	assert.Equal(t, "https://cdn.example.org/archive/a.json",
		publicURL("https://cdn.example.org/archive/", "a.json", logger))
	assert.Empty(t, publicURL("", "a.json", logger))
	assert.Empty(t, publicURL("https://cdn.example.org", "", logger))
}

func TestR2ConfigEnabled(t *testing.T) {
	assert.False(t, R2Config{}.Enabled())
	assert.True(t, R2Config{
		AccountID: "acc", AccessKeyID: "key", SecretAccessKey: "secret",
		BucketName: "certs", PublicBaseURL: "https://cdn.example.org",
	}.Enabled())
}
