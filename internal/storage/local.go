package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalProvider stores blobs on the local filesystem under a root directory
// and serves them under a public base URL.
type LocalProvider struct {
	root    string
	baseURL string
}

// NewLocalProvider creates a filesystem-backed provider rooted at root.
func NewLocalProvider(root, baseURL string) (*LocalProvider, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("storage root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &LocalProvider{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Put writes data under key, creating parent directories as needed.
func (p *LocalProvider) Put(ctx context.Context, key string, reader io.Reader) error {
	target, err := p.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create blob dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp blob: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close blob: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("finalize blob: %w", err)
	}
	return nil
}

// Open returns a reader for the blob at key.
func (p *LocalProvider) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	target, err := p.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(target)
	if err != nil {
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return f, nil
}

// Delete removes the blob at key. Deleting a missing blob is an error so
// callers can distinguish a leak from a clean removal.
func (p *LocalProvider) Delete(ctx context.Context, key string) error {
	target, err := p.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

// ResolveURL returns the public URL for key.
func (p *LocalProvider) ResolveURL(key string) string {
	return p.baseURL + "/" + strings.TrimLeft(path.Clean(key), "/")
}

// resolve maps a storage key to an absolute path, rejecting keys that
// escape the root.
func (p *LocalProvider) resolve(key string) (string, error) {
	cleaned := path.Clean("/" + key)
	if cleaned == "/" {
		return "", fmt.Errorf("empty storage key")
	}
	return filepath.Join(p.root, filepath.FromSlash(cleaned)), nil
}
