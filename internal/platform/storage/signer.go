// Package storage issues short-lived signed upload URLs for the chat-result
// bucket. It defines the SignedURLIssuer interface, a Google Cloud Storage
// implementation, a fake for tests, and the HTTP handler for /upload-url.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// ErrBucketNotConfigured is returned when no target bucket is configured.
var ErrBucketNotConfigured = errors.New("storage bucket not configured")

// SignedURLIssuer mints time-boxed, method-restricted upload URLs.
type SignedURLIssuer interface {
	// SignPutURL returns a URL granting a single PUT of the named object
	// with the given content type, valid for ttl.
	SignPutURL(ctx context.Context, object, contentType string, ttl time.Duration) (string, error)
	// Bucket returns the configured bucket name.
	Bucket() string
}

// GCSIssuer signs V4 upload URLs for a Google Cloud Storage bucket using
// application default credentials.
type GCSIssuer struct {
	client *gcs.Client
	bucket string
}

// NewGCSIssuer connects to GCS and returns an issuer for the given bucket.
// projectID is optional; when set it is used as the billing/quota project.
func NewGCSIssuer(ctx context.Context, projectID, bucket string) (*GCSIssuer, error) {
	if bucket == "" {
		return nil, ErrBucketNotConfigured
	}

	var opts []option.ClientOption
	if projectID != "" {
		opts = append(opts, option.WithQuotaProject(projectID))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	return &GCSIssuer{client: client, bucket: bucket}, nil
}

// SignPutURL implements SignedURLIssuer with a V4 signature.
func (g *GCSIssuer) SignPutURL(_ context.Context, object, contentType string, ttl time.Duration) (string, error) {
	opts := &gcs.SignedURLOptions{
		Scheme:      gcs.SigningSchemeV4,
		Method:      http.MethodPut,
		Expires:     time.Now().Add(ttl),
		ContentType: contentType,
	}
	signed, err := g.client.Bucket(g.bucket).SignedURL(object, opts)
	if err != nil {
		return "", fmt.Errorf("signing upload URL: %w", err)
	}
	return signed, nil
}

// Bucket implements SignedURLIssuer.
func (g *GCSIssuer) Bucket() string { return g.bucket }

// Close releases the underlying client.
func (g *GCSIssuer) Close() error { return g.client.Close() }

// FakeIssuer is an in-memory SignedURLIssuer for tests and development. It
// produces URLs in the GCS V4 signed-URL shape without any credentials.
type FakeIssuer struct {
	BucketName string
	Err        error

	// LastObject records the most recently signed object name.
	LastObject string
}

// SignPutURL implements SignedURLIssuer.
func (f *FakeIssuer) SignPutURL(_ context.Context, object, contentType string, ttl time.Duration) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	f.LastObject = object
	return fmt.Sprintf(
		"https://storage.googleapis.com/%s/%s?X-Goog-Algorithm=GOOG4-RSA-SHA256&X-Goog-Expires=%d",
		f.BucketName, url.PathEscape(object), int(ttl.Seconds()),
	), nil
}

// Bucket implements SignedURLIssuer.
func (f *FakeIssuer) Bucket() string { return f.BucketName }
