// History HTTP handlers.
//
//   - GET    /uploads          (entries, filtered and paginated, weak ETag)
//   - GET    /uploads/stats    (dashboard counters)
//   - GET    /uploads/{id}     (one entry)
//   - DELETE /uploads/{id}     (image first, then the record)
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/safestudent/safe-student-backend/internal/domain"
	"github.com/safestudent/safe-student-backend/internal/http/middleware"
	"github.com/safestudent/safe-student-backend/internal/services"
	"github.com/safestudent/safe-student-backend/internal/utils"
)

// ListUploadsResponse wraps a page of history entries.
type ListUploadsResponse struct {
	Uploads    []domain.Entry `json:"uploads"`
	Pagination Pagination     `json:"pagination"`
}

// uploadID validates the {id} path parameter.
func uploadID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "upload id must be a UUID")
		return "", false
	}
	return id, true
}

// ListUploads godoc
// @ID          listUploads
// @Summary     List uploads with their analyses
// @Description Returns the student's history, newest first. q matches summary and extracted text
// @Description ignoring case and accents; risk_level keeps exact matches only.
// @Description Supports weak ETag via If-None-Match and may return 304.
// @Tags        History
// @Produce     json
// @Security    BearerAuth
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       q              query   string  false "Text filter"            example(chuyển tiền)
// @Param       risk_level     query   string  false "Risk level filter"      Enums(high, medium, low)
// @Param       page           query   int     false "Page number"            minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"         minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListUploadsResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Invalid filter"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /uploads [get]
func (h *Handlers) ListUploads(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.UserID(c)
	page, pageSize := clampPagination(c)
	f := services.Filter{
		Query:     strings.TrimSpace(c.Query("q")),
		RiskLevel: strings.TrimSpace(c.Query("risk_level")),
	}

	// ETag pre-check (best effort).
	if count, latest, err := h.history.Version(ctx, uid); err == nil {
		variant := strings.Join([]string{uid, f.Query, f.RiskLevel, strconv.Itoa(page), strconv.Itoa(pageSize)}, "\x00")
		if weakETag(c, "uploads", count, latest, variant) {
			return
		}
	}

	entries, err := h.history.List(ctx, uid, f)
	if err != nil {
		failService(c, err, apiError{status: http.StatusInternalServerError, code: ErrCodeListFailed, msg: "could not list uploads"})
		return
	}

	lo, hi := utils.PageBounds(page, pageSize, len(entries))
	items := entries[lo:hi]
	if items == nil {
		items = []domain.Entry{}
	}
	ok(c, http.StatusOK, ListUploadsResponse{
		Uploads:    items,
		Pagination: paginate(page, pageSize, int64(len(entries))),
	})
}

// UploadStats godoc
// @ID          uploadStats
// @Summary     Dashboard counters
// @Description Totals by status and risk level, number of alert-worthy analyses and the safe ratio.
// @Tags        History
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object} services.Stats
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /uploads/stats [get]
func (h *Handlers) UploadStats(c *gin.Context) {
	st, err := h.history.Stats(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		failService(c, err, apiError{status: http.StatusInternalServerError, code: ErrCodeInternal, msg: "could not compute stats"})
		return
	}
	ok(c, http.StatusOK, st)
}

// GetUpload godoc
// @ID          getUpload
// @Summary     Get one upload with its analysis
// @Tags        History
// @Produce     json
// @Security    BearerAuth
// @Param       id   path  string  true  "Upload ID (UUID)"  format(uuid)
// @Success     200  {object} domain.Entry
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Upload not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /uploads/{id} [get]
func (h *Handlers) GetUpload(c *gin.Context) {
	id, valid := uploadID(c)
	if !valid {
		return
	}
	e, err := h.history.Get(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		failService(c, err, apiError{status: http.StatusInternalServerError, code: ErrCodeInternal, msg: "could not load upload"})
		return
	}
	ok(c, http.StatusOK, e)
}

// DeleteUpload godoc
// @ID          deleteUpload
// @Summary     Delete an upload
// @Description Removes the stored image, then the upload with its analysis and feedback.
// @Description If the image cannot be removed the record is kept.
// @Tags        History
// @Produce     json
// @Security    BearerAuth
// @Param       id   path  string  true  "Upload ID (UUID)"  format(uuid)
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Upload not found"
// @Failure     409  {object} handlers.ErrorResponse "Analysis in progress"
// @Failure     500  {object} handlers.ErrorResponse "Delete failed"
// @Router      /uploads/{id} [delete]
func (h *Handlers) DeleteUpload(c *gin.Context) {
	id, valid := uploadID(c)
	if !valid {
		return
	}
	err := h.history.Delete(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		failService(c, err, apiError{status: http.StatusInternalServerError, code: ErrCodeDeleteFailed, msg: "failed to delete upload"})
		return
	}
	noContent(c)
}
