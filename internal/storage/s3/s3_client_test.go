package s3_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facturaia/internal/config"
	"facturaia/internal/domain"
	"facturaia/internal/port"
	s3store "facturaia/internal/storage/s3"
)

// fakeS3 is a path-style object store good enough for single-part uploads.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[r.URL.Path] = body
		w.Header().Set("ETag", `"etag-1"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		body, ok := f.objects[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`))
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(body)
	case http.MethodDelete:
		delete(f.objects, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newStore(t *testing.T) (*s3store.Store, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string][]byte{}}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	store, err := s3store.NewStore(context.Background(), &config.S3Config{
		Region:    "us-east-1",
		Endpoint:  server.URL,
		AccessKey: "test",
		SecretKey: "secret",
	})
	require.NoError(t, err)
	return store, fake
}

func TestStore_UploadDownloadDelete(t *testing.T) {
	store, fake := newStore(t)
	ctx := context.Background()
	data := []byte("%PDF-1.4 factura")

	out, err := store.Upload(ctx, port.UploadInput{
		Bucket:      "facturas",
		Key:         "invoices/c1/i1/a.pdf",
		Body:        bytes.NewReader(data),
		ContentType: "application/pdf",
		Size:        int64(len(data)),
	})
	require.NoError(t, err)
	assert.Equal(t, `"etag-1"`, out.ETag)
	assert.Contains(t, fake.objects, "/facturas/invoices/c1/i1/a.pdf")

	got, err := store.Download(ctx, "facturas", "invoices/c1/i1/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.NoError(t, store.Delete(ctx, "facturas", "invoices/c1/i1/a.pdf"))
	_, err = store.Download(ctx, "facturas", "invoices/c1/i1/a.pdf")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_PresignedURL(t *testing.T) {
	store, _ := newStore(t)

	url, err := store.PresignedURL(context.Background(), "facturas", "k.pdf", 15*time.Minute)

	require.NoError(t, err)
	assert.Contains(t, url, "/facturas/k.pdf")
	assert.Contains(t, url, "X-Amz-Expires=900")
}
