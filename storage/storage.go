package storage

import (
	"context"
	"errors"
	"fmt"
	"path"

	"portfolio/config"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned by Remove when the object does not exist (anymore).
var ErrNotFound = errors.New("media object not found")

// TransientError wraps any other failure of a media store call.
// Callers may retry the call.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("media store %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

func transient(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Op: op, Err: err}
}

// Object is a stored file: where it can be fetched from and the handle used to remove it.
type Object struct {
	URL       string
	StorageID string
}

// MediaStore keeps image bytes. Calls are independent: any one of them may fail
// while others in the same batch succeed.
type MediaStore interface {
	Store(ctx context.Context, data []byte, contentType string) (Object, error)
	Remove(ctx context.Context, storageID string) error
}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// NewStorageID returns a new unique id, e.g. albums/9b2f...c1.jpg
func NewStorageID(folder, contentType string) string {
	name := uuid.NewString() + extensions[contentType]
	if folder == "" {
		return name
	}
	return path.Join(folder, name)
}

// New creates the media store selected by cfg.StorageBackend.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (MediaStore, error) {
	switch cfg.StorageBackend {
	case config.StorageBackendDisk:
		return NewDiskStorage(cfg.DiskPath, cfg.DiskPublicURL, cfg.MediaFolder, log)
	case config.StorageBackendS3:
		return NewS3Storage(ctx, cfg, log)
	}
	return nil, fmt.Errorf("storage type unavailable: %q", cfg.StorageBackend)
}
