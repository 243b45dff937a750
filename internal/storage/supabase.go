package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	storagego "github.com/supabase-community/storage-go"
)

// SupabaseConfig holds the Supabase project settings.
type SupabaseConfig struct {
	URL           string // project URL, e.g. https://xyz.supabase.co
	ServiceKey    string
	Bucket        string
	PublicBaseURL string // optional; defaults to {URL}/storage/v1/object/public/{bucket}
}

// Supabase stores objects in a Supabase Storage bucket.
//
// The storage-go client is not context-aware; ctx is only checked before each
// call.
type Supabase struct {
	client  *storagego.Client
	bucket  string
	baseURL string
}

// NewSupabase builds a Supabase Storage adapter.
func NewSupabase(cfg SupabaseConfig) (*Supabase, error) {
	project := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if project == "" {
		return nil, fmt.Errorf("supabase url is empty")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("supabase bucket is empty")
	}
	base := cfg.PublicBaseURL
	if base == "" {
		base = fmt.Sprintf("%s/storage/v1/object/public/%s", project, cfg.Bucket)
	}
	return &Supabase{
		client:  storagego.NewClient(project+"/storage/v1", cfg.ServiceKey, nil),
		bucket:  cfg.Bucket,
		baseURL: base,
	}, nil
}

// Put uploads data (overwriting an existing object) and returns its public URL.
func (s *Supabase) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	upsert := true
	_, err := s.client.UploadFile(s.bucket, key, bytes.NewReader(data), storagego.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("supabase upload %s: %w", key, err)
	}
	return s.URL(key), nil
}

// Get downloads the object stored under key.
func (s *Supabase) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.client.DownloadFile(s.bucket, key)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "not found") {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("supabase download %s: %w", key, err)
	}
	return data, nil
}

// Remove deletes the object stored under key.
func (s *Supabase) Remove(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.client.RemoveFile(s.bucket, []string{key}); err != nil {
		return fmt.Errorf("supabase remove %s: %w", key, err)
	}
	return nil
}

// URL returns the public URL of key.
func (s *Supabase) URL(key string) string { return joinURL(s.baseURL, key) }
