package storage

import "context"

// ObjectStorage captures the minimal operations needed to publish
// backtest artifacts to an S3-compatible bucket.
type ObjectStorage interface {
	UploadObject(ctx context.Context, key string, contentType string, data []byte) error
}
