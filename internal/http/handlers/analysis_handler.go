// Analysis HTTP handlers.
//
//   - POST /uploads/{id}/analyze    (pending upload → analyzed)
//   - POST /uploads/{id}/reanalyze  (analyzed or failed upload → analyzed)
//
// Both return the stored analysis and whether an alert went out. Model and
// storage failures surface as 502 with a generic message; the detail is only
// logged.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/safestudent/safe-student-backend/internal/http/middleware"
	"github.com/safestudent/safe-student-backend/internal/services"
)

// Analyze godoc
// @ID          analyzeUpload
// @Summary     Analyze an upload
// @Description Runs the vision model over a pending upload, stores the normalized result and
// @Description alerts the parent and teacher when the risk is medium or high.
// @Tags        Analysis
// @Produce     json
// @Security    BearerAuth
// @Param       id   path  string  true  "Upload ID (UUID)"  format(uuid)
// @Success     200  {object} services.Outcome
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Upload not found"
// @Failure     409  {object} handlers.ErrorResponse "Already analyzed or in progress"
// @Failure     502  {object} handlers.ErrorResponse "Analysis failed"
// @Router      /uploads/{id}/analyze [post]
func (h *Handlers) Analyze(c *gin.Context) {
	h.runAnalysis(c, h.analyses.Analyze)
}

// Reanalyze godoc
// @ID          reanalyzeUpload
// @Summary     Re-analyze an upload
// @Description Replaces the previous analysis atomically; earlier feedback is discarded.
// @Tags        Analysis
// @Produce     json
// @Security    BearerAuth
// @Param       id   path  string  true  "Upload ID (UUID)"  format(uuid)
// @Success     200  {object} services.Outcome
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Upload not found"
// @Failure     409  {object} handlers.ErrorResponse "Not analyzed yet or in progress"
// @Failure     502  {object} handlers.ErrorResponse "Analysis failed"
// @Router      /uploads/{id}/reanalyze [post]
func (h *Handlers) Reanalyze(c *gin.Context) {
	h.runAnalysis(c, h.analyses.Reanalyze)
}

func (h *Handlers) runAnalysis(c *gin.Context, run func(ctx context.Context, ownerID, uploadID string) (*services.Outcome, error)) {
	id, valid := uploadID(c)
	if !valid {
		return
	}

	out, err := run(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		failService(c, err, apiError{status: http.StatusBadGateway, code: ErrCodeAnalysisFailed, msg: "analysis failed, please try again"})
		return
	}
	ok(c, http.StatusOK, out)
}
