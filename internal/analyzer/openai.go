package analyzer

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAI is a client for OpenAI-compatible chat completion APIs.
type OpenAI struct {
	client    *openai.Client
	model     string
	maxTokens int
	prompt    Prompt
}

// NewOpenAI builds an OpenAI-compatible client. cfg.BaseURL may point at a
// gateway (OpenRouter, Azure proxy, a test server).
func NewOpenAI(cfg Config) *OpenAI {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAI{
		client:    openai.NewClientWithConfig(oc),
		model:     model,
		maxTokens: cfg.maxTokens(),
		prompt:    cfg.Prompt.orDefault(),
	}
}

// Name returns "openai/{model}".
func (c *OpenAI) Name() string { return ProviderOpenAI + "/" + c.model }

// AnalyzeImage sends the screenshot as a data URL together with the safety
// prompt and returns the model's text.
func (c *OpenAI) AnalyzeImage(ctx context.Context, img Image) (string, error) {
	if len(img.Data) == 0 {
		return "", ErrEmptyImage
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeOrDefault(img.MIMEType), base64.StdEncoding.EncodeToString(img.Data))

	req := openai.ChatCompletionRequest{
		Model: c.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: c.prompt.System},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: c.prompt.Instruction},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
						URL:    dataURL,
						Detail: openai.ImageURLDetailHigh,
					}},
				},
			},
		},
	}
	c.setMaxTokens(&req, c.maxTokens)
	return c.complete(ctx, req)
}

// Chat runs a text-only completion.
func (c *OpenAI) Chat(ctx context.Context, r ChatRequest) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(r.Messages)+1)
	if r.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: r.System})
	}
	for _, m := range r.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: float32(r.Temperature),
	}
	limit := r.MaxTokens
	if limit <= 0 {
		limit = c.maxTokens
	}
	c.setMaxTokens(&req, limit)
	return c.complete(ctx, req)
}

// Reasoning models (o1/o3/o4/gpt-5*) take MaxCompletionTokens instead of MaxTokens.
func (c *OpenAI) setMaxTokens(req *openai.ChatCompletionRequest, n int) {
	m := c.model
	if strings.HasPrefix(m, "o1") || strings.HasPrefix(m, "o3") || strings.HasPrefix(m, "o4") || strings.HasPrefix(m, "gpt-5") {
		req.MaxCompletionTokens = n
		req.Temperature = 0
		return
	}
	req.MaxTokens = n
}

func (c *OpenAI) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
