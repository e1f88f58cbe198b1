package storage

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"
)

type memoryObject struct {
	bucket      string
	object      string
	contentType string
	data        bytes.Buffer
	closeErr    error
	closed      bool
}

func (m *memoryObject) Write(p []byte) (int, error) { return m.data.Write(p) }

func (m *memoryObject) Close() error {
	m.closed = true
	return m.closeErr
}

type memoryWriter struct {
	objects  []*memoryObject
	closeErr error
}

func (w *memoryWriter) NewWriter(_ context.Context, bucket, object, contentType string) io.WriteCloser {
	obj := &memoryObject{bucket: bucket, object: object, contentType: contentType, closeErr: w.closeErr}
	w.objects = append(w.objects, obj)
	return obj
}

func TestExportUploaderWritesObject(t *testing.T) {
	writer := &memoryWriter{}
	uploader, err := NewExportUploader(writer, "hanko-exports", "exports/orders")
	if err != nil {
		t.Fatalf("NewExportUploader: %v", err)
	}

	location, err := uploader.UploadExport(context.Background(), "2025/03/09/abc-orders.xlsx", "application/test", strings.NewReader("payload"))
	if err != nil {
		t.Fatalf("UploadExport: %v", err)
	}
	if location != "gs://hanko-exports/exports/orders/2025/03/09/abc-orders.xlsx" {
		t.Fatalf("unexpected location %s", location)
	}
	if len(writer.objects) != 1 {
		t.Fatalf("expected one object, got %d", len(writer.objects))
	}
	obj := writer.objects[0]
	if !obj.closed || obj.data.String() != "payload" || obj.contentType != "application/test" {
		t.Fatalf("unexpected object %+v", obj)
	}
}

func TestExportUploaderReportsCommitFailure(t *testing.T) {
	boom := errors.New("quota")
	uploader, err := NewExportUploader(&memoryWriter{closeErr: boom}, "bucket", "")
	if err != nil {
		t.Fatalf("NewExportUploader: %v", err)
	}
	if _, err := uploader.UploadExport(context.Background(), "orders.xlsx", "x", strings.NewReader("p")); !errors.Is(err, boom) {
		t.Fatalf("expected commit error, got %v", err)
	}
	if _, err := uploader.UploadExport(context.Background(), "../orders.xlsx", "x", strings.NewReader("p")); err == nil {
		t.Fatalf("expected path validation error")
	}
}

func TestExportUploaderSignsDownloadURL(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	doc, _ := json.Marshal(map[string]string{
		"client_email": "exports@test.iam.gserviceaccount.com",
		"private_key":  string(keyPEM),
	})
	signer, err := NewServiceAccountSignerFromJSON(doc)
	if err != nil {
		t.Fatalf("NewServiceAccountSignerFromJSON: %v", err)
	}

	now := time.Date(2025, 3, 9, 14, 0, 0, 0, time.UTC)
	uploader, err := NewExportUploader(&memoryWriter{}, "hanko-exports", "exports",
		WithSigner(signer), WithClock(func() time.Time { return now }), WithDownloadExpiry(10*time.Minute))
	if err != nil {
		t.Fatalf("NewExportUploader: %v", err)
	}

	location, err := uploader.UploadExport(context.Background(), "orders.xlsx", "x", strings.NewReader("p"))
	if err != nil {
		t.Fatalf("UploadExport: %v", err)
	}
	parsed, err := url.Parse(location)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	query := parsed.Query()
	if !strings.Contains(parsed.Path, "/hanko-exports/exports/orders.xlsx") {
		t.Fatalf("unexpected path %s", parsed.Path)
	}
	if query.Get("X-Goog-Signature") == "" {
		t.Fatalf("expected signature in %s", location)
	}
	if query.Get("X-Goog-Date") != "20250309T140000Z" {
		t.Fatalf("expected signing time from the injected clock, got %s", query.Get("X-Goog-Date"))
	}
	if query.Get("X-Goog-Expires") != "600" {
		t.Fatalf("expected 600s expiry, got %s", query.Get("X-Goog-Expires"))
	}
	if !strings.Contains(query.Get("response-content-disposition"), "orders.xlsx") {
		t.Fatalf("expected content disposition, got %v", query)
	}
}

func TestNewServiceAccountSignerRejectsBadKeys(t *testing.T) {
	for _, doc := range []string{`{`, `{"client_email":""}`, `{"client_email":"a@b","private_key":"nope"}`} {
		if _, err := NewServiceAccountSignerFromJSON([]byte(doc)); err == nil {
			t.Fatalf("expected error for %s", doc)
		}
	}
}
