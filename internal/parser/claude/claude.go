package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"facturas/internal/config"
	"facturas/internal/parser"
	"facturas/internal/port"
)

const (
	providerName     = "claude"
	apiURL           = "https://api.anthropic.com/v1/messages"
	apiVersion       = "2023-06-01"
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 4096
)

func init() {
	parser.RegisterProvider(providerName, func(cfg *config.ParserProviderConfig) (port.TextGenerator, error) {
		return NewGenerator(cfg), nil
	})
}

// Generator calls the Anthropic Messages API.
type Generator struct {
	header   http.Header
	model    string
	endpoint string
	client   *http.Client
}

// NewGenerator creates a Claude text generator from a provider config.
func NewGenerator(cfg *config.ParserProviderConfig) *Generator {
	return NewGeneratorWithEndpoint(cfg, apiURL)
}

// NewGeneratorWithEndpoint points the generator at another Messages URL.
func NewGeneratorWithEndpoint(cfg *config.ParserProviderConfig, endpoint string) *Generator {
	h := http.Header{}
	h.Set("x-api-key", cfg.APIKey)
	h.Set("anthropic-version", apiVersion)
	return &Generator{
		header:   h,
		model:    parser.ModelOrDefault(cfg, defaultModel),
		endpoint: endpoint,
		client:   parser.HTTPClient(cfg),
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type response struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// Generate sends a single user turn. The Messages API has no JSON mode, so
// input.JSON relies on the prompt wording alone.
func (g *Generator) Generate(ctx context.Context, input port.GenerateInput) (*port.GenerateOutput, error) {
	maxTokens := input.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	raw, err := parser.PostJSON(ctx, g.client, providerName, g.endpoint, g.header, request{
		Model:     g.model,
		MaxTokens: maxTokens,
		Messages:  []message{{Role: "user", Content: input.Prompt}},
	})
	if err != nil {
		return nil, err
	}

	var resp response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("claude: decoding response: %w", err)
	}
	if resp.StopReason == "max_tokens" {
		return nil, fmt.Errorf("claude: output truncated at %d tokens", maxTokens)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return nil, fmt.Errorf("claude: no text content in response")
	}
	return &port.GenerateOutput{Text: sb.String(), ModelUsed: g.model}, nil
}
