// Package images stores profile images. Every uploader keys the object by
// user id, so a new upload replaces the previous picture.
package images

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const MaxSize = 5 * 1024 * 1024

var (
	ErrUnsupportedType = errors.New("only jpg, png, and webp images are allowed")
	ErrTooLarge        = errors.New("image must be under 5MB")
)

var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

type Uploader interface {
	Upload(ctx context.Context, userID uuid.UUID, ext string, r io.Reader) (string, error)
}

// Validate checks the file name and size and returns the normalized
// extension.
func Validate(filename string, size int64) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := contentTypes[ext]; !ok {
		return "", ErrUnsupportedType
	}
	if size > MaxSize {
		return "", ErrTooLarge
	}
	return ext, nil
}

func ContentType(ext string) string {
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}

func objectName(userID uuid.UUID, ext string) string {
	return userID.String() + ext
}
