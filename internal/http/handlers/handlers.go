// Package handlers provides HTTP handler implementations for the public API.
//
// This file holds the service contracts consumed by the handlers, the
// Handlers type that groups them and the helpers shared across endpoints
// (pagination, ETags, idempotency replay).
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/safestudent/safe-student-backend/internal/analyzer"
	"github.com/safestudent/safe-student-backend/internal/domain"
	"github.com/safestudent/safe-student-backend/internal/http/middleware"
	"github.com/safestudent/safe-student-backend/internal/repo"
	"github.com/safestudent/safe-student-backend/internal/services"
	"github.com/safestudent/safe-student-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// UploadService stores screenshots.
type UploadService interface {
	Upload(ctx context.Context, ownerID, filename string, data []byte) (*domain.Upload, error)
}

// AnalysisService runs the vision model over an upload.
type AnalysisService interface {
	Analyze(ctx context.Context, ownerID, uploadID string) (*services.Outcome, error)
	Reanalyze(ctx context.Context, ownerID, uploadID string) (*services.Outcome, error)
}

// HistoryService reads and deletes a student's entries.
type HistoryService interface {
	List(ctx context.Context, ownerID string, f services.Filter) ([]domain.Entry, error)
	Get(ctx context.Context, ownerID, uploadID string) (*domain.Entry, error)
	Delete(ctx context.Context, ownerID, uploadID string) error
	Stats(ctx context.Context, ownerID string) (*services.Stats, error)
	// Version summarizes the owner's history for conditional requests.
	Version(ctx context.Context, ownerID string) (int64, time.Time, error)
}

// FeedbackService records a student's rating of an analysis.
type FeedbackService interface {
	Leave(ctx context.Context, ownerID, uploadID string, value int) error
}

// ProfileService reads and writes the student profile and contacts.
type ProfileService interface {
	Get(ctx context.Context, ownerID string) (*domain.Profile, error)
	Update(ctx context.Context, ownerID string, in services.ProfileInput) (*domain.Profile, error)
}

// AssistantService answers safety questions.
type AssistantService interface {
	Reply(ctx context.Context, ownerID, message string, history []analyzer.ChatMessage) (*services.Reply, error)
}

//
// Handler wiring
//

// Services bundles the dependencies of Handlers. Nil services leave their
// endpoints unmounted by the router.
type Services struct {
	Uploads   UploadService
	Analyses  AnalysisService
	History   HistoryService
	Feedback  FeedbackService
	Profiles  ProfileService
	Assistant AssistantService

	// DB backs Idempotency-Key replays for POST /uploads; nil disables them.
	DB *gorm.DB
	// IdempotencyTTL is how long a recorded upload can be replayed.
	IdempotencyTTL time.Duration
	// MaxUploadBytes mirrors the upload service limit for early rejection.
	MaxUploadBytes int64
}

// Handlers groups the HTTP endpoints.
type Handlers struct {
	uploads   UploadService
	analyses  AnalysisService
	history   HistoryService
	feedback  FeedbackService
	profiles  ProfileService
	assistant AssistantService

	db       *gorm.DB
	idemTTL  time.Duration
	maxBytes int64
}

// New constructs Handlers bound to s.
func New(s Services) *Handlers {
	ttl := s.IdempotencyTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	maxBytes := s.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = services.DefaultMaxUploadBytes
	}
	return &Handlers{
		uploads:   s.Uploads,
		analyses:  s.Analyses,
		history:   s.History,
		feedback:  s.Feedback,
		profiles:  s.Profiles,
		assistant: s.Assistant,
		db:        s.DB,
		idemTTL:   ttl,
		maxBytes:  maxBytes,
	}
}

// IdempotencyLookup adapts the idempotency table to the middleware lookup.
// It returns nil when no DB is configured.
func (s Services) IdempotencyLookup() middleware.IdempotencyLookup {
	if s.DB == nil {
		return nil
	}
	db := s.DB
	return func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
		_, err := repo.FindIdempotency(ctx, db, repo.IdemKey{UserID: userID, Scope: scope, Key: key}, now)
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, repo.ErrNotFound):
			return false, nil
		default:
			return false, err
		}
	}
}

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.Clamp(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return page, pageSize
}

func paginate(page, pageSize int, total int64) Pagination {
	totalPages := utils.TotalPages(total, pageSize)
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// weakETag builds W/"<kind>:<count>:<unix-nanos>:<hash of variant>" and
// answers 304 when If-None-Match matches. It reports whether the response
// was already written.
func weakETag(c *gin.Context, kind string, count int64, latest time.Time, variant string) bool {
	h := fnv.New32a()
	_, _ = h.Write([]byte(variant))
	var ts int64
	if !latest.IsZero() {
		ts = latest.UnixNano()
	}
	etag := fmt.Sprintf(`W/"%s:%d:%d:%08x"`, kind, count, ts, h.Sum32())
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}
