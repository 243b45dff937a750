// Feedback HTTP handlers.
//
//   - POST /uploads/{id}/feedback  (rate the analysis of an upload)
//
// Values are constrained to {-1, +1}. One rating per analysis and student;
// re-analysis clears earlier ratings.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/safestudent/safe-student-backend/internal/http/middleware"
)

// LeaveFeedbackRequest is the JSON payload for rating an analysis.
type LeaveFeedbackRequest struct {
	// Value is +1 (helpful) or -1 (wrong verdict).
	Value *int `json:"value" binding:"required" example:"1"`
}

// LeaveFeedback godoc
// @ID          leaveFeedback
// @Summary     Rate an analysis
// @Description Records whether the student found the verdict helpful (+1) or wrong (-1).
// @Tags        Feedback
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       id    path  string  true  "Upload ID (UUID)"  format(uuid)
// @Param       body  body  handlers.LeaveFeedbackRequest true "Feedback payload"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Invalid payload"
// @Failure     404  {object} handlers.ErrorResponse "Upload or analysis not found"
// @Failure     409  {object} handlers.ErrorResponse "Feedback already exists"
// @Failure     500  {object} handlers.ErrorResponse "Internal server error"
// @Router      /uploads/{id}/feedback [post]
func (h *Handlers) LeaveFeedback(c *gin.Context) {
	id, valid := uploadID(c)
	if !valid {
		return
	}
	var req LeaveFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Value == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "body must be {\"value\": -1|1}")
		return
	}

	// Out-of-range values come back as ErrInvalidFeedback.
	if err := h.feedback.Leave(c.Request.Context(), middleware.UserID(c), id, *req.Value); err != nil {
		failService(c, err, apiError{status: http.StatusInternalServerError, code: ErrCodeInternal, msg: "could not save feedback"})
		return
	}
	noContent(c)
}
