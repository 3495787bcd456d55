package storage

import (
	"context"
	"io"
	"time"
)

// ArchiveRepository stores raw imported CSV files for later audit.
// Archival is best-effort: the data of record is the database.
type ArchiveRepository interface {
	// Upload stores the file under the given object path and returns the path.
	Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error)

	// Delete removes an archived file.
	Delete(ctx context.Context, objectPath string) error

	// GeneratePresignedURL returns a temporary download URL for an archive.
	GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error)
}

// NoOpArchiveRepository discards uploads; used when no S3 bucket is configured.
type NoOpArchiveRepository struct{}

// Upload discards the data and returns the path unchanged
func (n *NoOpArchiveRepository) Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error) {
	return objectPath, nil
}

// Delete does nothing
func (n *NoOpArchiveRepository) Delete(ctx context.Context, objectPath string) error {
	return nil
}

// GeneratePresignedURL returns an empty URL
func (n *NoOpArchiveRepository) GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	return "", nil
}
