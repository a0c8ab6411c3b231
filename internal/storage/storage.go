// Package storage keeps process-local extraction results and reports scratch disk usage.
package storage

import (
	"context"
)

// Cache holds successful extraction text keyed by document download URL.
// Contents live only as long as the process unless a file-backed database is configured.
type Cache interface {
	GetText(ctx context.Context, downloadURL string) (string, bool, error)
	PutText(ctx context.Context, downloadURL, text string) error
	Delete(ctx context.Context, downloadURL string) error
	Count(ctx context.Context) (int64, error)
	Close() error
}
