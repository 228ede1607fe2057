package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	goopenai "github.com/sashabaranov/go-openai"

	"facturas/internal/config"
	"facturas/internal/parser"
	"facturas/internal/port"
)

const (
	providerName = "openai"
	defaultModel = "gpt-4o-mini"
)

func init() {
	parser.RegisterProvider(providerName, func(cfg *config.ParserProviderConfig) (port.TextGenerator, error) {
		return NewGenerator(cfg), nil
	})
}

// Generator implements port.TextGenerator using the OpenAI Chat Completions API.
type Generator struct {
	client *goopenai.Client
	model  string
}

// NewGenerator creates an OpenAI text generator from a provider config.
func NewGenerator(cfg *config.ParserProviderConfig) *Generator {
	return newGenerator(cfg, "")
}

// NewGeneratorWithBaseURL creates a generator pointing at a custom API base URL
// (for testing or OpenAI-compatible gateways).
func NewGeneratorWithBaseURL(cfg *config.ParserProviderConfig, baseURL string) *Generator {
	return newGenerator(cfg, baseURL)
}

func newGenerator(cfg *config.ParserProviderConfig, baseURL string) *Generator {
	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}
	clientCfg.HTTPClient = parser.HTTPClient(cfg)

	return &Generator{
		client: goopenai.NewClientWithConfig(clientCfg),
		model:  parser.ModelOrDefault(cfg, defaultModel),
	}
}

func (g *Generator) Generate(ctx context.Context, input port.GenerateInput) (*port.GenerateOutput, error) {
	req := goopenai.ChatCompletionRequest{
		Model: g.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: input.Prompt},
		},
		MaxCompletionTokens: input.MaxTokens,
	}
	if input.JSON {
		req.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		baseErr := fmt.Errorf("openai API error: %w", err)
		if statusCode(err) == http.StatusTooManyRequests {
			return nil, parser.NewRateLimitError(providerName, baseErr, 0)
		}
		return nil, baseErr
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from API: no choices")
	}
	if resp.Choices[0].FinishReason == goopenai.FinishReasonLength {
		return nil, fmt.Errorf("output truncated (finish_reason: length)")
	}

	model := resp.Model
	if model == "" {
		model = g.model
	}
	return &port.GenerateOutput{Text: resp.Choices[0].Message.Content, ModelUsed: model}, nil
}

func statusCode(err error) int {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
