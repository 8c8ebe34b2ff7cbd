// Package storage defines the Provider interface for blob storage backends.
package storage

import (
	"context"
	"io"
)

// Provider abstracts blob storage operations for post photos and avatars.
type Provider interface {
	// Put writes data to storage under the given key.
	Put(ctx context.Context, key string, reader io.Reader) error
	// Open returns a reader for the given storage key.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the blob at key.
	Delete(ctx context.Context, key string) error
	// ResolveURL returns the public URL under which the blob at key is served.
	ResolveURL(key string) string
}
