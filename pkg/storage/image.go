package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path"

	"github.com/google/uuid"
)

// MaxImageBytes caps a single uploaded image.
const MaxImageBytes = 5 << 20

var (
	ErrImageTooLarge    = errors.New("storage: image exceeds 5 MiB")
	ErrUnsupportedImage = errors.New("storage: image must be jpeg, png or webp")
)

var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// SaveImage sniffs r, stores it under dir with a random name and returns the
// stored path. The declared content type of the upload is not trusted.
func SaveImage(ctx context.Context, disk Disk, dir string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return "", err
	}
	if len(data) > MaxImageBytes {
		return "", ErrImageTooLarge
	}

	ct := http.DetectContentType(data)
	ext, ok := imageExt[ct]
	if !ok {
		return "", ErrUnsupportedImage
	}

	p := path.Join(dir, uuid.NewString()+ext)
	if err := disk.Put(ctx, p, data, ct); err != nil {
		return "", err
	}
	return p, nil
}
