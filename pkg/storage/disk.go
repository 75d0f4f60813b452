// Package storage stores uploaded files on a named disk.
//
// Two drivers are available:
//   - "local": a directory served by the HTTP server under /storage
//   - "s3":    S3-compatible object storage (AWS S3, MinIO, R2)
//
//	disk, err := storage.Open()
//	err = disk.Put(ctx, "products/7/abc.jpg", data, "image/jpeg")
//	url := disk.URL("products/7/abc.jpg")
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/farmchain/farmchain/config"
)

// ErrNotExist is returned by Get for a missing path.
var ErrNotExist = errors.New("storage: file does not exist")

// Disk is a flat object store addressed by slash-separated paths.
type Disk interface {
	Put(ctx context.Context, path string, content []byte, contentType string) error
	Get(ctx context.Context, path string) ([]byte, error)
	Exists(ctx context.Context, path string) bool
	// Delete removes path. A missing file is not an error.
	Delete(ctx context.Context, path string) error
	// URL returns the public URL of path.
	URL(path string) string
}

// Open returns the disk named by STORAGE_DISK.
func Open(ctx context.Context) (Disk, error) {
	switch name := config.StorageDefault(); name {
	case "local":
		return NewLocalDisk(config.StorageLocalRoot(), config.StorageURL())
	case "s3":
		return NewS3Disk(ctx, S3Options{
			Bucket:   config.StorageS3Bucket(),
			Region:   config.StorageS3Region(),
			Key:      config.StorageS3Key(),
			Secret:   config.StorageS3Secret(),
			Endpoint: config.StorageS3Endpoint(),
			BaseURL:  config.StorageS3URL(),
		})
	default:
		return nil, fmt.Errorf("storage: unknown disk %q (supported: local, s3)", name)
	}
}
