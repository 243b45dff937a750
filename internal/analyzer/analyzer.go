// Package analyzer talks to the external multimodal models.
//
// Two providers are supported: any OpenAI-compatible chat completion API
// (via sashabaranov/go-openai) and Anthropic (via the official SDK). Both
// expose AnalyzeImage, which sends a screenshot with the safety prompt and
// returns the model's free text, and Chat, used by the safety assistant.
//
// The returned text is expected to embed one JSON object; ExtractJSON
// locates it. Normalizing the decoded fields is the caller's concern.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Supported MODEL_PROVIDER values.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

var (
	// ErrEmptyResponse is returned when the model answered without any text.
	ErrEmptyResponse = errors.New("model returned an empty response")
	// ErrEmptyImage is returned when AnalyzeImage is called without bytes.
	ErrEmptyImage = errors.New("image is empty")
)

// Image is a MIME-tagged screenshot sent to the model.
type Image struct {
	Data     []byte
	MIMEType string
}

// ChatMessage is one turn of an assistant conversation.
// Role is "user" or "assistant".
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is a text-only completion request.
type ChatRequest struct {
	System      string
	Messages    []ChatMessage
	Temperature float64
	MaxTokens   int
}

// Config configures a model client.
type Config struct {
	APIKey    string
	BaseURL   string // optional; OpenAI-compatible gateways or test servers
	Model     string
	MaxTokens int
	Prompt    Prompt
}

const defaultMaxTokens = 1024

func (c Config) maxTokens() int {
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return defaultMaxTokens
}

func mimeOrDefault(m string) string {
	m = strings.TrimSpace(strings.ToLower(m))
	if m == "" {
		return "image/png"
	}
	return m
}

// Client is implemented by every provider.
type Client interface {
	Name() string
	AnalyzeImage(ctx context.Context, img Image) (string, error)
	Chat(ctx context.Context, r ChatRequest) (string, error)
}

var (
	_ Client = (*OpenAI)(nil)
	_ Client = (*Anthropic)(nil)
)

// New builds the client of the given provider.
func New(provider string, cfg Config) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case ProviderOpenAI, "":
		return NewOpenAI(cfg), nil
	case ProviderAnthropic:
		return NewAnthropic(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported model provider %q", provider)
	}
}
