// Package storage provides object store adapters for uploaded screenshots.
//
// Two backends are supported: MinIO (any S3-compatible server) and Supabase
// Storage. Both expose the same Store contract and return a public URL for
// every stored object. Keys follow the "{owner}/{unixMillis}.{ext}" layout
// produced by the upload service.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Store is the object storage contract used by the services layer.
type Store interface {
	// Put writes data under key and returns its public URL.
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	// Get reads the object stored under key.
	Get(ctx context.Context, key string) ([]byte, error)
	// Remove deletes the object stored under key.
	Remove(ctx context.Context, key string) error
}

var (
	// ErrObjectNotFound is returned by Get when no object exists for the key.
	ErrObjectNotFound = errors.New("object not found")
	// ErrInvalidKey is returned for empty keys or keys escaping the bucket.
	ErrInvalidKey = errors.New("invalid object key")
)

// Supported STORAGE_BACKEND values.
const (
	BackendMinIO    = "minio"
	BackendSupabase = "supabase"
)

// KeyFromURL derives the object key from a public URL by taking its last two
// path segments ("{owner}/{file}"). It is used for records stored without an
// explicit object key.
func KeyFromURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	parts := make([]string, 0, 8)
	for _, p := range strings.Split(u.Path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 2 {
		return "", fmt.Errorf("%w: %q has fewer than two path segments", ErrInvalidKey, raw)
	}
	return parts[len(parts)-2] + "/" + parts[len(parts)-1], nil
}

func validateKey(key string) error {
	k := strings.TrimSpace(key)
	if k == "" || strings.HasPrefix(k, "/") || strings.Contains(k, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// joinURL appends key to base, escaping each key segment.
func joinURL(base, key string) string {
	segs := strings.Split(key, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(segs, "/")
}
