// Package storage archives raw fetched exports to S3-compatible object
// storage before they are parsed, so a bad import can always be replayed
// from the exact bytes it saw.
package storage

import "context"

// ObjectStorage captures the minimal operations the importer needs.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
}
