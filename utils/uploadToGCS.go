package utils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSUploader writes backups and reports into one bucket.
type GCSUploader struct {
	bucket   string
	credJSON string
}

func NewGCSUploader(bucket, credJSON string) (*GCSUploader, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("GCS_BUCKET is required")
	}
	return &GCSUploader{bucket: bucket, credJSON: credJSON}, nil
}

func (u *GCSUploader) client(ctx context.Context) (*storage.Client, error) {
	// Application Default Credentials unless explicit JSON is configured.
	if strings.TrimSpace(u.credJSON) != "" {
		return storage.NewClient(ctx, option.WithCredentialsJSON([]byte(u.credJSON)))
	}
	return storage.NewClient(ctx)
}

// Upload stores data under objectName and returns the gs:// location.
func (u *GCSUploader) Upload(ctx context.Context, objectName string, data []byte) (string, error) {
	client, err := u.client(ctx)
	if err != nil {
		return "", err
	}
	defer client.Close()

	wc := client.Bucket(u.bucket).Object(objectName).NewWriter(ctx)
	wc.ContentType = DetectContentType(objectName, data)
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("write gcs object %q: %w", objectName, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("close gcs object %q: %w", objectName, err)
	}
	return fmt.Sprintf("gs://%s/%s", u.bucket, objectName), nil
}

func DetectContentType(objectName string, data []byte) string {
	switch {
	case strings.HasSuffix(objectName, ".json"):
		return "application/json"
	case strings.HasSuffix(objectName, ".xlsx"):
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return http.DetectContentType(data)
}
