package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/safestudent/safe-student-backend/internal/http/middleware"
)

// ErrorResponse is the error envelope returned by every endpoint:
//
//	HTTP/1.1 404 Not Found
//	{"request_id": "123e4567-e89b-12d3-a456-426614174000", "code": "not_found", "message": "upload not found"}
type ErrorResponse struct {
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go)
	Code string `json:"code" example:"not_found"`
	// Safe to show to students
	Message string `json:"message" example:"upload not found"`
}

func fail(c *gin.Context, status int, code, msg string) {
	failErr(c, status, code, msg, nil)
}

// failErr aborts with the error envelope. err is never sent to the client:
// on 5xx it is logged and attached to the Gin context so the access log line
// carries it, on 4xx it is only logged at debug level.
func failErr(c *gin.Context, status int, code, msg string, err error) {
	lg := middleware.LoggerFrom(c)
	switch {
	case status >= http.StatusInternalServerError:
		ev := lg.Error().Int("status", status).Str("code", code)
		if err != nil {
			ev = ev.Err(err)
			_ = c.Error(err)
		}
		ev.Msg(msg)
	case err != nil:
		lg.Debug().Err(err).Int("status", status).Str("code", code).Msg(msg)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: middleware.RequestIDFrom(c),
		Code:      code,
		Message:   msg,
	})
}

// Fail lets the router render NoRoute, NoMethod and body-limit errors with
// the same envelope.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
