package images

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

const profilePrefix = "profile_images/"

// BucketUploader writes profile images to a Cloud Storage bucket.
type BucketUploader struct {
	client *storage.Client
	bucket string
}

func NewBucketUploader(client *storage.Client, bucket string) *BucketUploader {
	return &BucketUploader{client: client, bucket: bucket}
}

func (u *BucketUploader) Upload(ctx context.Context, userID uuid.UUID, ext string, r io.Reader) (string, error) {
	name := profilePrefix + objectName(userID, ext)

	w := u.client.Bucket(u.bucket).Object(name).NewWriter(ctx)
	w.ContentType = ContentType(ext)
	w.CacheControl = "no-cache"

	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", u.bucket, name), nil
}
