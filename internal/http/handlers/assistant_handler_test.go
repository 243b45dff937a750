package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/safestudent/safe-student-backend/internal/analyzer"
	"github.com/safestudent/safe-student-backend/internal/services"
)

func TestAskAssistant(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var gotMsg string
	var gotHistory []analyzer.ChatMessage
	next := error(nil)
	h := New(Services{Assistant: stubAssistant{fn: func(_ context.Context, _ string, message string, history []analyzer.ChatMessage) (*services.Reply, error) {
		gotMsg, gotHistory = message, history
		if next != nil {
			return nil, next
		}
		return &services.Reply{Reply: "Đừng chia sẻ OTP.", Sources: []string{"Lừa đảo"}}, nil
	}}})
	r := gin.New()
	r.POST("/assistant/messages", h.AskAssistant)

	body := `{"message":"  họ đòi\r\nOTP  ","history":[{"role":"user","content":"chào\r\n"},{"role":"assistant","content":"Chào bạn!"}]}`
	w := serve(r, http.MethodPost, "/assistant/messages", bytes.NewBufferString(body), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var rep services.Reply
	if err := json.Unmarshal(w.Body.Bytes(), &rep); err != nil || rep.Reply != "Đừng chia sẻ OTP." || len(rep.Sources) != 1 {
		t.Fatalf("unexpected reply %+v (%v)", rep, err)
	}
	if gotMsg != "họ đòi\nOTP" {
		t.Fatalf("message not sanitized: %q", gotMsg)
	}
	if len(gotHistory) != 2 || gotHistory[0].Content != "chào" || gotHistory[1].Role != "assistant" {
		t.Fatalf("history: %+v", gotHistory)
	}

	// Oversized history is cut to the most recent turns.
	turns := make([]string, 0, maxHistoryItems+10)
	for i := 0; i < maxHistoryItems+10; i++ {
		turns = append(turns, fmt.Sprintf(`{"role":"user","content":"t%d"}`, i))
	}
	body = `{"message":"hi","history":[` + strings.Join(turns, ",") + `]}`
	serve(r, http.MethodPost, "/assistant/messages", bytes.NewBufferString(body), nil)
	if len(gotHistory) != maxHistoryItems || gotHistory[0].Content != "t10" {
		t.Fatalf("history not trimmed: %d first=%q", len(gotHistory), gotHistory[0].Content)
	}

	cases := []struct {
		err    error
		status int
		code   string
	}{
		{services.ErrEmptyPrompt, http.StatusBadRequest, ErrCodeBadRequest},
		{services.ErrTooLong, http.StatusBadRequest, ErrCodeBadRequest},
		{fmt.Errorf("%w: %w", services.ErrAssistantUnavailable, errors.New("timeout")), http.StatusBadGateway, ErrCodeBadGateway},
	}
	for _, tc := range cases {
		next = tc.err
		w := serve(r, http.MethodPost, "/assistant/messages", bytes.NewBufferString(`{"message":"x"}`), nil)
		if w.Code != tc.status || decodeError(t, w).Code != tc.code {
			t.Fatalf("%v: got %d %s", tc.err, w.Code, w.Body.String())
		}
	}

	if w := serve(r, http.MethodPost, "/assistant/messages", bytes.NewBufferString(`{"history":[]}`), nil); w.Code != http.StatusBadRequest {
		t.Fatalf("missing message: expected 400, got %d", w.Code)
	}
}
