// Package storage keeps artwork images in a local directory or a
// Backblaze B2 bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/google/uuid"
	"github.com/stemsi/artbox-backend/internal/config"
)

var ErrObjectNotFound = errors.New("object not found")

// Store persists image objects by key and reports their public url.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader) (url string, err error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Open returns the backend selected by cfg.StorageBackend.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StorageBackend {
	case config.StorageLocal:
		return NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL+"/uploads")
	case config.StorageB2:
		return NewB2Store(ctx, cfg.B2AccountID, cfg.B2AppKey, cfg.B2Bucket)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// WorkImageKey names a new image object of a submission.
func WorkImageKey(classID, taskID uuid.UUID) string {
	return path.Join("works", classID.String(), taskID.String(), uuid.NewString()+".jpg")
}

// ResourceImageKey names an uploaded shared resource image.
func ResourceImageKey(classID uuid.UUID) string {
	return path.Join("resources", classID.String(), uuid.NewString()+".jpg")
}

// ThumbnailKey derives the thumbnail key of an image key.
func ThumbnailKey(key string) string {
	ext := path.Ext(key)
	return key[:len(key)-len(ext)] + "_thumb.jpg"
}
