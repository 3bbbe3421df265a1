package blob

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/google/uuid"

	"bilimbagdar/internal/config"
)

// Object is the result of a successful upload
type Object struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Uploader stores raw attachment bytes and returns a shareable URL.
// Callers must handle a nil Uploader (unconfigured) and upload errors by
// falling back to inline encoding.
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, data []byte) (*Object, error)
}

// GCSUploader uploads attachments to a Google Cloud Storage bucket
type GCSUploader struct {
	client        *storage.Client
	bucket        string
	publicBaseURL string
}

// NewGCSUploader creates an uploader for the configured bucket. Returns
// (nil, nil) when no bucket is configured; attachment handling then inlines
// bytes instead of uploading.
func NewGCSUploader(ctx context.Context, cfg *config.BlobConfig, credential string) (*GCSUploader, error) {
	if cfg.Bucket == "" {
		return nil, nil
	}

	var opts []option.ClientOption
	if cred := strings.TrimSpace(credential); cred != "" {
		if strings.HasPrefix(cred, "{") {
			opts = append(opts, option.WithCredentialsJSON([]byte(cred)))
		} else {
			opts = append(opts, option.WithCredentialsFile(cred))
		}
	}
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &GCSUploader{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

// Upload writes the bytes under a fresh object key and returns its URL
func (u *GCSUploader) Upload(ctx context.Context, filename, contentType string, data []byte) (*Object, error) {
	key := uuid.NewString() + "/" + sanitizeFilename(filename)

	w := u.client.Bucket(u.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to write object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize object %s: %w", key, err)
	}

	return &Object{ID: key, URL: u.objectURL(key)}, nil
}

func (u *GCSUploader) objectURL(key string) string {
	if u.publicBaseURL != "" {
		return u.publicBaseURL + "/" + key
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", u.bucket, key)
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "attachment"
	}
	replacer := strings.NewReplacer("/", "_", "\\", "_", " ", "_")
	return replacer.Replace(name)
}
