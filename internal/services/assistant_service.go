// Package services – AssistantService
//
// This file implements the safety assistant: a short conversational helper
// that answers students' questions about online safety. Replies are grounded
// on the top matching tips of the in-memory knowledge base (search.Index)
// and, when a chat model is configured, phrased by the model with those tips
// in its system prompt. Without a model the best tip is returned verbatim.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/safestudent/safe-student-backend/internal/analyzer"
	"github.com/safestudent/safe-student-backend/internal/search"
)

const (
	defaultMaxPromptRunes = 2000
	defaultHistoryTurns   = 10
	defaultTopK           = 3

	assistantTemperature = 0.7
	assistantMaxTokens   = 200

	roleUser      = "user"
	roleAssistant = "assistant"
)

// FallbackReply is returned when no tip matches and no model is configured,
// or when the model answered with nothing.
const FallbackReply = "Xin lỗi, mình chưa hiểu câu hỏi. Bạn có thể hỏi lại được không? 😊"

const assistantSystemPrompt = `Bạn là chatbot AI của SafeStudent, ứng dụng bảo vệ học sinh khỏi nguy hiểm trực tuyến.

THÔNG TIN SAFESTUDENT:
- Mục đích: bảo vệ học sinh khỏi bắt nạt, lừa đảo, người lạ xấu và nội dung không phù hợp
- Học sinh tải ảnh chụp màn hình tin nhắn lên để AI phân tích mức độ rủi ro
- Khi rủi ro cao hoặc trung bình, phụ huynh và giáo viên được cảnh báo

CÁCH NÓI CHUYỆN:
- Thân thiện, gần gũi như bạn bè, ngôn ngữ đơn giản
- Không dùng markdown, chỉ dùng văn bản thuần và emoji thông thường
- Trả lời ngắn gọn`

// ChatModel is the text completion contract used by the assistant
// (implemented by analyzer.OpenAI and analyzer.Anthropic).
type ChatModel interface {
	Chat(ctx context.Context, r analyzer.ChatRequest) (string, error)
}

// Reply is the assistant answer and the tips it was grounded on.
type Reply struct {
	Reply   string   `json:"reply"`
	Sources []string `json:"sources,omitempty"`
}

// AssistantService answers safety questions.
type AssistantService struct {
	Index search.Index
	Model ChatModel // optional

	MaxPromptRunes int // <= 0 uses 2000
	HistoryTurns   int // <= 0 uses 10
	TopK           int // <= 0 uses 3
}

// Reply validates message, retrieves matching tips and produces an answer.
// history holds the previous turns, oldest first; only the most recent
// HistoryTurns are sent to the model and blank or unknown-role turns are
// dropped.
func (s *AssistantService) Reply(ctx context.Context, ownerID, message string, history []analyzer.ChatMessage) (*Reply, error) {
	tr := otel.Tracer("services/AssistantService")
	ctx, span := tr.Start(ctx, "Reply",
		trace.WithAttributes(
			attribute.String("user.id", ownerID),
			attribute.Int("history.len", len(history)),
		),
	)
	defer span.End()

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyPrompt
	}
	if utf8.RuneCountInString(message) > s.maxPromptRunes() {
		return nil, ErrTooLong
	}

	var hits []search.Result
	if s.Index != nil {
		hits = s.Index.TopK(message, s.topK())
	}
	sources := make([]string, 0, len(hits))
	for _, h := range hits {
		if h.Topic != "" {
			sources = append(sources, h.Topic)
		}
	}
	span.SetAttributes(attribute.Int("kb.hits", len(hits)))

	if s.Model == nil {
		if len(hits) == 0 {
			return &Reply{Reply: FallbackReply}, nil
		}
		return &Reply{Reply: hits[0].Snippet, Sources: sources}, nil
	}

	msgs := append(s.recent(history), analyzer.ChatMessage{Role: roleUser, Content: message})
	text, err := s.Model.Chat(ctx, analyzer.ChatRequest{
		System:      systemPromptWith(hits),
		Messages:    msgs,
		Temperature: assistantTemperature,
		MaxTokens:   assistantMaxTokens,
	})
	if err != nil {
		span.RecordError(err)
		zerolog.Ctx(ctx).Error().Err(err).Msg("assistant model failed")
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrAssistantUnavailable, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		text = FallbackReply
	}
	return &Reply{Reply: text, Sources: sources}, nil
}

// recent keeps the last HistoryTurns usable turns.
func (s *AssistantService) recent(history []analyzer.ChatMessage) []analyzer.ChatMessage {
	out := make([]analyzer.ChatMessage, 0, len(history)+1)
	for _, m := range history {
		role := strings.ToLower(strings.TrimSpace(m.Role))
		content := strings.TrimSpace(m.Content)
		if content == "" || (role != roleUser && role != roleAssistant) {
			continue
		}
		out = append(out, analyzer.ChatMessage{Role: role, Content: content})
	}
	if n := s.historyTurns(); len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}

func systemPromptWith(hits []search.Result) string {
	if len(hits) == 0 {
		return assistantSystemPrompt
	}
	var b strings.Builder
	b.WriteString(assistantSystemPrompt)
	b.WriteString("\n\nLỜI KHUYÊN LIÊN QUAN (dùng nếu phù hợp):\n")
	for _, h := range hits {
		b.WriteString("- ")
		if h.Topic != "" {
			b.WriteString(h.Topic)
			b.WriteString(": ")
		}
		b.WriteString(h.Snippet)
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *AssistantService) maxPromptRunes() int {
	if s.MaxPromptRunes > 0 {
		return s.MaxPromptRunes
	}
	return defaultMaxPromptRunes
}

func (s *AssistantService) historyTurns() int {
	if s.HistoryTurns > 0 {
		return s.HistoryTurns
	}
	return defaultHistoryTurns
}

func (s *AssistantService) topK() int {
	if s.TopK > 0 {
		return s.TopK
	}
	return defaultTopK
}
