// Upload HTTP handlers.
//
//   - POST /uploads  (multipart "file"; 201 with the pending upload)
//
// Idempotency: with an Idempotency-Key header, a repeated request from the
// same student returns the upload recorded by the first one and sets
// Idempotency-Replayed: true. Nothing is stored twice.
package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/safestudent/safe-student-backend/internal/domain"
	"github.com/safestudent/safe-student-backend/internal/http/middleware"
	"github.com/safestudent/safe-student-backend/internal/repo"
)

const uploadFormField = "file"

// CreateUpload godoc
// @ID          createUpload
// @Summary     Upload a screenshot
// @Description Stores an image for the current student and records it as pending analysis.
// @Description Supports idempotency via the Idempotency-Key header (same key → same upload).
// @Tags        Uploads
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
//
// @Param       Idempotency-Key  header    string  false "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       file             formData  file    true  "Screenshot (PNG, JPEG, WebP, GIF)"
//
// @Success     201  {object}  domain.Upload
// @Header      201  {string}  Idempotency-Replayed  "true when served from a previous request"
// @Failure     400  {object}  handlers.ErrorResponse "Missing or empty file"
// @Failure     413  {object}  handlers.ErrorResponse "File too large"
// @Failure     415  {object}  handlers.ErrorResponse "Not an image"
// @Failure     500  {object}  handlers.ErrorResponse "Upload failed"
// @Router      /uploads [post]
func (h *Handlers) CreateUpload(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.UserID(c)
	scope := middleware.IdempotencyScope(c)
	idemKey, _ := middleware.GetIdempotencyKey(c)

	if idemKey != "" && h.db != nil && middleware.IsReplay(c) {
		if prev := h.replayUpload(c, uid, scope, idemKey); prev != nil {
			c.Header(middleware.HeaderIdempotencyReplayed, "true")
			ok(c, http.StatusCreated, prev)
			return
		}
	}

	fh, err := c.FormFile(uploadFormField)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			fail(c, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "file too large")
			return
		}
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, `multipart field "file" required`)
		return
	}
	if fh.Size > h.maxBytes {
		fail(c, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "file too large")
		return
	}
	f, err := fh.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "cannot read file")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.maxBytes+1))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "cannot read file")
		return
	}

	up, err := h.uploads.Upload(ctx, uid, fh.Filename, data)
	if err != nil {
		failService(c, err, apiError{status: http.StatusInternalServerError, code: ErrCodeUploadFailed, msg: "upload failed"})
		return
	}

	// Best effort: a lost record only means a retry uploads again.
	if idemKey != "" && h.db != nil {
		key := repo.IdemKey{UserID: uid, Scope: scope, Key: idemKey}
		if err := repo.SaveIdempotency(ctx, h.db, key, up.ID, http.StatusCreated, time.Now().UTC(), h.idemTTL); err != nil &&
			!errors.Is(err, repo.ErrDuplicate) {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency record not stored")
		}
	}

	ok(c, http.StatusCreated, up)
}

// replayUpload returns the upload recorded for (uid, scope, key), or nil.
func (h *Handlers) replayUpload(c *gin.Context, uid, scope, key string) *domain.Upload {
	ctx := c.Request.Context()
	rec, err := repo.FindIdempotency(ctx, h.db, repo.IdemKey{UserID: uid, Scope: scope, Key: key}, time.Now().UTC())
	if err != nil {
		return nil
	}
	up, err := repo.GetUpload(ctx, h.db, rec.ResourceID, uid)
	if err != nil {
		// The upload was deleted since; treat the key as fresh.
		return nil
	}
	return up
}
