// Package storage saves uploaded photo files either on local disk or in a
// Google Cloud Storage bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// Store persists an uploaded file and returns the URL it is served from.
type Store interface {
	Save(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
}

// ObjectName builds a collision-resistant name from the upload time and the client's filename.
func ObjectName(now time.Time, filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." || base == "_" {
		base = "upload"
	}
	return fmt.Sprintf("%s-%s", now.Format("20060102-150405"), base)
}

// Local writes files under Dir and serves them below URLPrefix.
type Local struct {
	Dir       string
	URLPrefix string
	Now       func() time.Time
}

// NewLocal creates the upload directory if needed.
func NewLocal(dir, urlPrefix string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Local{Dir: dir, URLPrefix: strings.TrimRight(urlPrefix, "/"), Now: time.Now}, nil
}

func (l *Local) Save(_ context.Context, filename, _ string, r io.Reader) (string, error) {
	name := ObjectName(l.Now(), filename)
	dst, err := os.Create(filepath.Join(l.Dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(dst, r); err != nil {
		_ = dst.Close()
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}
	return l.URLPrefix + "/" + name, nil
}

// GCS uploads files to a bucket and returns their public URL.
type GCS struct {
	client *gcs.Client
	bucket string
	now    func() time.Time
}

// NewGCS opens a client. Without a credentials file the default application
// credentials are used.
func NewGCS(ctx context.Context, bucket, credentialsFile string) (*GCS, error) {
	if bucket == "" {
		return nil, fmt.Errorf("GCS bucket is not configured")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCS{client: client, bucket: bucket, now: time.Now}, nil
}

func (g *GCS) Save(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	name := "photos/" + ObjectName(g.now(), filename)
	w := g.client.Bucket(g.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to upload %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize %s: %w", name, err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucket, name), nil
}

// Close releases the client.
func (g *GCS) Close() error {
	return g.client.Close()
}
