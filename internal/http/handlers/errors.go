package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/safestudent/safe-student-backend/internal/http/middleware"
	"github.com/safestudent/safe-student-backend/internal/services"
)

// Error codes are lowercase snake_case and stable; clients branch on them
// rather than on messages. Authentication and rate-limit refusals come from
// the middleware package (middleware.CodeUnauthorized, CodeRateLimited).
const (
	ErrCodeBadRequest           = middleware.CodeBadRequest
	ErrCodeNotFound             = "not_found"
	ErrCodeConflict             = "conflict"
	ErrCodeInternal             = middleware.CodeInternal
	ErrCodeUnsupportedMediaType = "unsupported_media_type"
	ErrCodePayloadTooLarge      = "payload_too_large"
	ErrCodeBadGateway           = "bad_gateway"
	ErrCodeMethodNotAllowed     = "method_not_allowed"

	ErrCodeUploadFailed   = "upload_failed"
	ErrCodeAnalysisFailed = "analysis_failed"
	ErrCodeListFailed     = "list_failed"
	ErrCodeDeleteFailed   = "delete_failed"
)

// statusClientClosedRequest is recorded when the client disconnects before
// the service finished.
const statusClientClosedRequest = 499

// apiError is the client-facing rendering of a service error.
type apiError struct {
	status int
	code   string
	msg    string
	// detail replaces msg with err.Error(); only for errors whose text names
	// the offending field and nothing else.
	detail bool
}

// knownErrors renders service sentinels identically on every endpoint. The
// first errors.Is match wins.
var knownErrors = []struct {
	target error
	resp   apiError
}{
	{services.ErrUploadNotFound, apiError{status: http.StatusNotFound, code: ErrCodeNotFound, msg: "upload not found"}},
	{services.ErrAnalysisNotFound, apiError{status: http.StatusNotFound, code: ErrCodeNotFound, msg: "upload has not been analyzed"}},
	{services.ErrAnalysisInProgress, apiError{status: http.StatusConflict, code: ErrCodeConflict, msg: "analysis in progress, try again later"}},
	{services.ErrInvalidState, apiError{status: http.StatusConflict, code: ErrCodeConflict, msg: "upload cannot be analyzed in its current state"}},
	{services.ErrDuplicateFeedback, apiError{status: http.StatusConflict, code: ErrCodeConflict, msg: "feedback already exists"}},
	{services.ErrInvalidFeedback, apiError{status: http.StatusBadRequest, code: ErrCodeBadRequest, msg: "value must be -1 or 1"}},
	{services.ErrInvalidFilter, apiError{status: http.StatusBadRequest, code: ErrCodeBadRequest, msg: "risk_level must be high, medium or low"}},
	{services.ErrInvalidProfile, apiError{status: http.StatusBadRequest, code: ErrCodeBadRequest, detail: true}},
	{services.ErrEmptyFile, apiError{status: http.StatusBadRequest, code: ErrCodeBadRequest, msg: "file is empty"}},
	{services.ErrInvalidOwner, apiError{status: http.StatusBadRequest, code: ErrCodeBadRequest, msg: "invalid user"}},
	{services.ErrFileTooLarge, apiError{status: http.StatusRequestEntityTooLarge, code: ErrCodePayloadTooLarge, msg: "file too large"}},
	{services.ErrNotImage, apiError{status: http.StatusUnsupportedMediaType, code: ErrCodeUnsupportedMediaType, msg: "file is not an image"}},
	{services.ErrEmptyPrompt, apiError{status: http.StatusBadRequest, code: ErrCodeBadRequest, msg: "message required"}},
	{services.ErrTooLong, apiError{status: http.StatusBadRequest, code: ErrCodeBadRequest, msg: "message too long"}},
	{services.ErrImageDeleteFailed, apiError{status: http.StatusInternalServerError, code: ErrCodeDeleteFailed, msg: "failed to delete image"}},
}

// failService renders a service error. A cancelled request gets a bare 499,
// known sentinels their fixed response and anything else the fallback.
func failService(c *gin.Context, err error, fallback apiError) {
	if errors.Is(err, context.Canceled) {
		c.AbortWithStatus(statusClientClosedRequest)
		return
	}
	resp := fallback
	for _, k := range knownErrors {
		if errors.Is(err, k.target) {
			resp = k.resp
			break
		}
	}
	msg := resp.msg
	if resp.detail {
		msg = err.Error()
	}
	failErr(c, resp.status, resp.code, msg, err)
}
