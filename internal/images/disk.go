package images

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// DiskUploader saves images under Dir, served by the API at URLPrefix.
type DiskUploader struct {
	Dir       string
	URLPrefix string
}

func (u *DiskUploader) Upload(ctx context.Context, userID uuid.UUID, ext string, r io.Reader) (string, error) {
	if err := os.MkdirAll(u.Dir, 0755); err != nil {
		return "", fmt.Errorf("create uploads directory: %w", err)
	}

	filename := objectName(userID, ext)
	f, err := os.Create(filepath.Join(u.Dir, filename))
	if err != nil {
		return "", fmt.Errorf("create %s: %w", filename, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", filename, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/%s", u.URLPrefix, filename), nil
}
