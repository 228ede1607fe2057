package gemini

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
	providerName = "gemini"
	apiBaseURL   = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultModel = "gemini-2.0-flash"
)

func init() {
	parser.RegisterProvider(providerName, func(cfg *config.ParserProviderConfig) (port.TextGenerator, error) {
		return NewGenerator(cfg), nil
	})
}

// Generator calls the Gemini generateContent endpoint.
type Generator struct {
	header   http.Header
	model    string
	endpoint string
	client   *http.Client
}

// NewGenerator creates a Gemini text generator.
func NewGenerator(cfg *config.ParserProviderConfig) *Generator {
	return NewGeneratorWithEndpoint(cfg, "")
}

// NewGeneratorWithEndpoint overrides the generateContent URL. An empty
// endpoint selects the public API for the configured model.
func NewGeneratorWithEndpoint(cfg *config.ParserProviderConfig, endpoint string) *Generator {
	model := parser.ModelOrDefault(cfg, defaultModel)
	if endpoint == "" {
		endpoint = fmt.Sprintf("%s/%s:generateContent", apiBaseURL, model)
	}
	h := http.Header{}
	h.Set("x-goog-api-key", cfg.APIKey)
	return &Generator{header: h, model: model, endpoint: endpoint, client: parser.HTTPClient(cfg)}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	MaxOutputTokens  int    `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

type request struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type response struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func (g *Generator) Generate(ctx context.Context, input port.GenerateInput) (*port.GenerateOutput, error) {
	req := request{
		Contents:         []content{{Role: "user", Parts: []part{{Text: input.Prompt}}}},
		GenerationConfig: generationConfig{MaxOutputTokens: input.MaxTokens},
	}
	if input.JSON {
		req.GenerationConfig.ResponseMimeType = "application/json"
	}

	raw, err := parser.PostJSON(ctx, g.client, providerName, g.endpoint, g.header, req)
	if err != nil {
		return nil, err
	}

	var resp response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("gemini: decoding response: %w", err)
	}
	if reason := resp.PromptFeedback.BlockReason; reason != "" {
		return nil, fmt.Errorf("gemini: prompt blocked (%s)", reason)
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("gemini: no candidates in response")
	}

	first := resp.Candidates[0]
	var sb strings.Builder
	for _, p := range first.Content.Parts {
		sb.WriteString(p.Text)
	}
	if sb.Len() == 0 {
		return nil, fmt.Errorf("gemini: empty candidate (finish reason %q)", first.FinishReason)
	}
	if first.FinishReason == "MAX_TOKENS" {
		return nil, fmt.Errorf("gemini: output truncated at %d tokens", input.MaxTokens)
	}
	return &port.GenerateOutput{Text: sb.String(), ModelUsed: g.model}, nil
}
