// Profile HTTP handlers.
//
//   - GET /profile  (student profile and alert contacts)
//   - PUT /profile  (replace every field)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/safestudent/safe-student-backend/internal/http/middleware"
	"github.com/safestudent/safe-student-backend/internal/services"
)

// GetProfile godoc
// @ID          getProfile
// @Summary     Get the student profile
// @Description Returns the profile and the parent/teacher contacts used for alerts.
// @Description A student without a profile gets empty fields.
// @Tags        Profile
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object} domain.Profile
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /profile [get]
func (h *Handlers) GetProfile(c *gin.Context) {
	p, err := h.profiles.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		failService(c, err, apiError{status: http.StatusInternalServerError, code: ErrCodeInternal, msg: "could not load profile"})
		return
	}
	ok(c, http.StatusOK, p)
}

// UpdateProfile godoc
// @ID          updateProfile
// @Summary     Update the student profile
// @Description Replaces all fields. Emails and phone numbers are validated when present.
// @Tags        Profile
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  services.ProfileInput  true  "Profile"
// @Success     200  {object} domain.Profile
// @Failure     400  {object} handlers.ErrorResponse "Invalid profile"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /profile [put]
func (h *Handlers) UpdateProfile(c *gin.Context) {
	var in services.ProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	p, err := h.profiles.Update(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		failService(c, err, apiError{status: http.StatusInternalServerError, code: ErrCodeInternal, msg: "could not save profile"})
		return
	}
	ok(c, http.StatusOK, p)
}
