// Package services – UploadService
//
// This file implements the UploadService, which accepts a screenshot from a
// student, stores the bytes in the object store under
// "{owner}/{unixMillis}{ext}" and records a pending Upload. Input problems are
// rejected before any side effect. If the record cannot be written after the
// object was stored, the object is removed best-effort.
package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/safestudent/safe-student-backend/internal/domain"
	"github.com/safestudent/safe-student-backend/internal/repo"
)

// DefaultMaxUploadBytes caps uploads when UploadService.MaxBytes is unset.
const DefaultMaxUploadBytes int64 = 10 << 20

// ObjectStore is the storage contract used by the services
// (implemented by storage.MinIO and storage.Supabase).
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Remove(ctx context.Context, key string) error
}

// UploadService stores screenshots and creates pending uploads.
type UploadService struct {
	DB    *gorm.DB
	Store ObjectStore

	// MaxBytes caps the accepted file size; <= 0 uses DefaultMaxUploadBytes.
	MaxBytes int64

	// Now is the clock used for object keys; nil means time.Now.
	Now func() time.Time
}

// Upload validates the file, stores it and records a pending upload.
//
// Errors:
//   - ErrInvalidOwner, ErrEmptyFile, ErrFileTooLarge, ErrNotImage for bad input
//     (nothing is stored)
//   - ErrUploadFailed wrapping the storage or database error otherwise
func (s *UploadService) Upload(ctx context.Context, ownerID, filename string, data []byte) (*domain.Upload, error) {
	tr := otel.Tracer("services/UploadService")
	ctx, span := tr.Start(ctx, "Upload",
		trace.WithAttributes(
			attribute.String("user.id", ownerID),
			attribute.Int("file.size", len(data)),
		),
	)
	defer span.End()

	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" || strings.ContainsAny(ownerID, `/\`) || strings.Contains(ownerID, "..") {
		return nil, ErrInvalidOwner
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if int64(len(data)) > s.maxBytes() {
		return nil, ErrFileTooLarge
	}

	mt := mimetype.Detect(data)
	contentType := mt.String()
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: detected %s", ErrNotImage, contentType)
	}
	ext := mt.Extension()
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(filename))
	}

	key := fmt.Sprintf("%s/%d%s", ownerID, s.now().UnixMilli(), ext)
	span.SetAttributes(attribute.String("object.key", key))
	log := zerolog.Ctx(ctx).With().Str("user_id", ownerID).Str("object_key", key).Logger()

	url, err := s.Store.Put(ctx, key, contentType, data)
	if err != nil {
		span.RecordError(err)
		log.Error().Err(err).Msg("store image failed")
		return nil, fmt.Errorf("%w: store image: %w", ErrUploadFailed, err)
	}

	up, err := repo.CreateUpload(ctx, s.DB, ownerID, url, key, contentType)
	if err != nil {
		span.RecordError(err)
		log.Error().Err(err).Msg("record upload failed")
		// The record is the source of truth; drop the orphaned object.
		if rmErr := s.Store.Remove(context.WithoutCancel(ctx), key); rmErr != nil {
			log.Warn().Err(rmErr).Msg("remove orphaned image failed")
		}
		return nil, fmt.Errorf("%w: record upload: %w", ErrUploadFailed, err)
	}

	log.Info().Str("upload_id", up.ID).Str("content_type", contentType).Msg("upload stored")
	return up, nil
}

func (s *UploadService) maxBytes() int64 {
	if s.MaxBytes > 0 {
		return s.MaxBytes
	}
	return DefaultMaxUploadBytes
}

func (s *UploadService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
