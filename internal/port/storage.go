package port

import (
	"context"
	"io"
	"time"
)

// UploadInput encapsulates the parameters needed to upload an object.
type UploadInput struct {
	Bucket      string
	Key         string
	Body        io.Reader
	ContentType string
	Size        int64
}

// UploadOutput contains the result of a successful upload.
type UploadOutput struct {
	Location string
	ETag     string
}

// ObjectStorage abstracts where processed invoice files are kept.
type ObjectStorage interface {
	Upload(ctx context.Context, input UploadInput) (*UploadOutput, error)
	Download(ctx context.Context, bucket, key string) ([]byte, error)
	Delete(ctx context.Context, bucket, key string) error
}

// URLSigner is implemented by storages that can hand out time-limited
// download links instead of streaming bytes through the API.
type URLSigner interface {
	PresignedURL(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}
