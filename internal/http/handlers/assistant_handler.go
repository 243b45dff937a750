// Assistant HTTP handlers.
//
//   - POST /assistant/messages  (ask the safety assistant)
//
// The conversation lives on the client; each request carries the previous
// turns. Nothing is persisted.
package handlers

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/safestudent/safe-student-backend/internal/analyzer"
	"github.com/safestudent/safe-student-backend/internal/http/middleware"
)

// maxHistoryItems bounds the turns accepted from the client.
const maxHistoryItems = 50

// AssistantTurn is one previous message of the conversation.
type AssistantTurn struct {
	Role    string `json:"role" example:"user"`
	Content string `json:"content" example:"Có người lạ nhắn tin cho mình"`
}

// AssistantRequest is the JSON payload for POST /assistant/messages.
type AssistantRequest struct {
	Message string          `json:"message" binding:"required" example:"Họ đòi mã OTP thì sao?"`
	History []AssistantTurn `json:"history"`
}

// nlCollapseRE collapses runs of 3+ newlines to two, preserving paragraphs.
var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

// sanitizeContent converts CRLF/CR to LF, collapses blank runs and trims.
func sanitizeContent(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = nlCollapseRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// AskAssistant godoc
// @ID          askAssistant
// @Summary     Ask the safety assistant
// @Description Answers online-safety questions using the built-in knowledge base and, when
// @Description configured, the language model.
// @Tags        Assistant
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  handlers.AssistantRequest  true  "Message and previous turns"
// @Success     200  {object} services.Reply
// @Failure     400  {object} handlers.ErrorResponse "Empty or too long message"
// @Failure     502  {object} handlers.ErrorResponse "Assistant unavailable"
// @Router      /assistant/messages [post]
func (h *Handlers) AskAssistant(c *gin.Context) {
	var req AssistantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		return
	}
	if len(req.History) > maxHistoryItems {
		req.History = req.History[len(req.History)-maxHistoryItems:]
	}
	history := make([]analyzer.ChatMessage, 0, len(req.History))
	for _, t := range req.History {
		history = append(history, analyzer.ChatMessage{Role: t.Role, Content: sanitizeContent(t.Content)})
	}

	r, err := h.assistant.Reply(c.Request.Context(), middleware.UserID(c), sanitizeContent(req.Message), history)
	if err != nil {
		failService(c, err, apiError{status: http.StatusBadGateway, code: ErrCodeBadGateway, msg: "assistant unavailable, please try again"})
		return
	}
	ok(c, http.StatusOK, r)
}
