package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"

	"github.com/hanko-field/orders/internal/services"
)

const defaultDownloadExpiry = 15 * time.Minute

// ObjectWriter opens a writer for a new object. Closing the writer commits the object.
type ObjectWriter interface {
	NewWriter(ctx context.Context, bucket, object, contentType string) io.WriteCloser
}

// GCSObjectWriter writes objects through a Cloud Storage client.
type GCSObjectWriter struct {
	Client *gcs.Client
}

func (w GCSObjectWriter) NewWriter(ctx context.Context, bucket, object, contentType string) io.WriteCloser {
	writer := w.Client.Bucket(bucket).Object(object).NewWriter(ctx)
	writer.ContentType = contentType
	writer.ContentDisposition = fmt.Sprintf("attachment; filename=%q", object[strings.LastIndex(object, "/")+1:])
	return writer
}

// ExportUploader stores rendered order exports in a bucket. With a signer it returns a
// short-lived V4 download URL, otherwise the gs:// location.
type ExportUploader struct {
	writer ObjectWriter
	bucket string
	prefix string
	signer Signer
	expiry time.Duration
	now    func() time.Time
}

var _ services.ExportUploader = (*ExportUploader)(nil)

// ExportUploaderOption customises uploader behaviour.
type ExportUploaderOption func(*ExportUploader)

// WithSigner enables signed download URLs.
func WithSigner(signer Signer) ExportUploaderOption {
	return func(u *ExportUploader) {
		if signer != nil && strings.TrimSpace(signer.Email()) != "" {
			u.signer = signer
		}
	}
}

// WithDownloadExpiry overrides the signed URL lifetime.
func WithDownloadExpiry(expiry time.Duration) ExportUploaderOption {
	return func(u *ExportUploader) {
		if expiry > 0 {
			u.expiry = expiry
		}
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) ExportUploaderOption {
	return func(u *ExportUploader) {
		if clock != nil {
			u.now = clock
		}
	}
}

// NewExportUploader constructs an uploader for bucket, placing objects under prefix.
func NewExportUploader(writer ObjectWriter, bucket, prefix string, opts ...ExportUploaderOption) (*ExportUploader, error) {
	if writer == nil {
		return nil, errors.New("storage: object writer is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("storage: bucket name is required")
	}
	uploader := &ExportUploader{
		writer: writer,
		bucket: bucket,
		prefix: prefix,
		expiry: defaultDownloadExpiry,
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(uploader)
		}
	}
	return uploader, nil
}

// UploadExport streams body into the bucket and returns where it can be fetched.
func (u *ExportUploader) UploadExport(ctx context.Context, objectName, contentType string, body io.Reader) (string, error) {
	object, err := ExportObjectPath(u.prefix, objectName)
	if err != nil {
		return "", err
	}

	w := u.writer.NewWriter(ctx, u.bucket, object, contentType)
	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("storage: write %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("storage: commit %s: %w", object, err)
	}

	if u.signer == nil {
		return fmt.Sprintf("gs://%s/%s", u.bucket, object), nil
	}
	return u.signedDownloadURL(ctx, object)
}

func (u *ExportUploader) signedDownloadURL(ctx context.Context, object string) (string, error) {
	fileName := object[strings.LastIndex(object, "/")+1:]
	start := u.now().UTC()
	signed, err := gcs.SignedURL(u.bucket, object, &gcs.SignedURLOptions{
		GoogleAccessID: u.signer.Email(),
		Method:         "GET",
		Start:          start,
		Expires:        start.Add(u.expiry),
		Scheme:         gcs.SigningSchemeV4,
		SignBytes: func(payload []byte) ([]byte, error) {
			return u.signer.SignBytes(ctx, payload)
		},
		QueryParameters: url.Values{
			"response-content-disposition": {fmt.Sprintf("attachment; filename=%q", fileName)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("storage: sign download url: %w", err)
	}
	return signed, nil
}
