package analyzer

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-sonnet-4-5"

// Anthropic is a client for the Anthropic Messages API.
type Anthropic struct {
	client    sdk.Client
	model     string
	maxTokens int
	prompt    Prompt
}

// NewAnthropic builds an Anthropic client. Extra request options (retries,
// custom HTTP clients) may be appended.
func NewAnthropic(cfg Config, opts ...option.RequestOption) *Anthropic {
	all := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		all = append(all, option.WithBaseURL(cfg.BaseURL))
	}
	all = append(all, opts...)

	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	return &Anthropic{
		client:    sdk.NewClient(all...),
		model:     model,
		maxTokens: cfg.maxTokens(),
		prompt:    cfg.Prompt.orDefault(),
	}
}

// Name returns "anthropic/{model}".
func (c *Anthropic) Name() string { return ProviderAnthropic + "/" + c.model }

// AnalyzeImage sends the screenshot as a base64 image block together with
// the safety prompt and returns the model's text.
func (c *Anthropic) AnalyzeImage(ctx context.Context, img Image) (string, error) {
	if len(img.Data) == 0 {
		return "", ErrEmptyImage
	}
	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		System:    []sdk.TextBlockParam{{Text: c.prompt.System}},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(
				sdk.NewImageBlockBase64(mimeOrDefault(img.MIMEType), base64.StdEncoding.EncodeToString(img.Data)),
				sdk.NewTextBlock(c.prompt.Instruction),
			),
		},
	}
	return c.send(ctx, params)
}

// Chat runs a text-only completion.
func (c *Anthropic) Chat(ctx context.Context, r ChatRequest) (string, error) {
	limit := r.MaxTokens
	if limit <= 0 {
		limit = c.maxTokens
	}
	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: int64(limit),
		Messages:  toSDKMessages(r.Messages),
	}
	if r.System != "" {
		params.System = []sdk.TextBlockParam{{Text: r.System}}
	}
	if r.Temperature > 0 {
		params.Temperature = sdk.Float(r.Temperature)
	}
	return c.send(ctx, params)
}

func (c *Anthropic) send(ctx context.Context, params sdk.MessageNewParams) (string, error) {
	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic create message: %w", err)
	}
	return messageText(msg)
}

func toSDKMessages(msgs []ChatMessage) []sdk.MessageParam {
	out := make([]sdk.MessageParam, len(msgs))
	for i, m := range msgs {
		block := sdk.NewTextBlock(m.Content)
		switch m.Role {
		case "assistant":
			out[i] = sdk.NewAssistantMessage(block)
		default:
			out[i] = sdk.NewUserMessage(block)
		}
	}
	return out
}

// messageText joins the text blocks of a response.
func messageText(msg *sdk.Message) (string, error) {
	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
