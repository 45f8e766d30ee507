package storage

import (
	"context"
	"io"
	"time"
)

// Storage defines the blob operations used for videos, avatars and chat attachments
type Storage interface {
	// Save stores a file at the given path
	Save(ctx context.Context, path string, reader io.Reader, contentType string) error

	// Delete removes a file at the given path
	Delete(ctx context.Context, path string) error

	// GetURL returns a public URL for the file
	GetURL(path string) string

	// PresignUpload returns a temporary URL the client can PUT the file to
	PresignUpload(ctx context.Context, path, contentType string, expiry time.Duration) (string, error)

	// GetSignedURL returns a temporary signed URL for private files
	GetSignedURL(ctx context.Context, path string, expiry time.Duration) (string, error)
}
