package parser_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"facturas/internal/parser"
	"facturas/internal/port"
	"facturas/mocks"
)

var genInput = port.GenerateInput{Prompt: "prompt", MaxTokens: 100}

func genOutput(model string) *port.GenerateOutput {
	return &port.GenerateOutput{Text: `{"proveedor":"x"}`, ModelUsed: model}
}

func TestFallbackGenerator_FirstSucceeds(t *testing.T) {
	g1 := new(mocks.MockTextGenerator)
	g2 := new(mocks.MockTextGenerator)
	g1.On("Generate", mock.Anything, genInput).Return(genOutput("gemini"), nil)

	fg := parser.NewFallbackGenerator([]port.TextGenerator{g1, g2}, []string{"gemini", "openai"})

	out, err := fg.Generate(context.Background(), genInput)

	require.NoError(t, err)
	assert.Equal(t, "gemini", out.ModelUsed)
	g2.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestFallbackGenerator_FirstFails_SecondSucceeds(t *testing.T) {
	g1 := new(mocks.MockTextGenerator)
	g2 := new(mocks.MockTextGenerator)
	g1.On("Generate", mock.Anything, genInput).Return(nil, errors.New("boom"))
	g2.On("Generate", mock.Anything, genInput).Return(genOutput("openai"), nil)

	fg := parser.NewFallbackGenerator([]port.TextGenerator{g1, g2}, []string{"gemini", "openai"})

	out, err := fg.Generate(context.Background(), genInput)

	require.NoError(t, err)
	assert.Equal(t, "openai", out.ModelUsed)
}

func TestFallbackGenerator_RateLimitedProviderIsSkipped(t *testing.T) {
	g1 := new(mocks.MockTextGenerator)
	g2 := new(mocks.MockTextGenerator)
	g1.On("Generate", mock.Anything, genInput).Return(nil, parser.NewRateLimitError("gemini", errors.New("429"), 60)).Once()
	g2.On("Generate", mock.Anything, genInput).Return(genOutput("openai"), nil)

	fg := parser.NewFallbackGenerator([]port.TextGenerator{g1, g2}, []string{"gemini", "openai"})

	_, err := fg.Generate(context.Background(), genInput)
	require.NoError(t, err)
	_, err = fg.Generate(context.Background(), genInput)
	require.NoError(t, err)

	g1.AssertNumberOfCalls(t, "Generate", 1)
	g2.AssertNumberOfCalls(t, "Generate", 2)
	assert.True(t, fg.CooldownUntil().IsZero(), "openai is still available")
}

func TestFallbackGenerator_AllRateLimited(t *testing.T) {
	g1 := new(mocks.MockTextGenerator)
	g2 := new(mocks.MockTextGenerator)
	g1.On("Generate", mock.Anything, genInput).Return(nil, parser.NewRateLimitError("gemini", errors.New("429"), 30))
	g2.On("Generate", mock.Anything, genInput).Return(nil, parser.NewRateLimitError("openai", errors.New("429"), 90))

	fg := parser.NewFallbackGenerator([]port.TextGenerator{g1, g2}, []string{"gemini", "openai"})

	_, err := fg.Generate(context.Background(), genInput)

	rlErr, ok := parser.AsRateLimit(err)
	require.True(t, ok)
	assert.Equal(t, "all", rlErr.Provider)
	assert.InDelta(t, 30, rlErr.RetryAfter.Seconds(), 1)

	until := fg.CooldownUntil()
	assert.False(t, until.IsZero())
	assert.WithinDuration(t, time.Now().Add(30*time.Second), until, 2*time.Second)

	// Both circuits open: no provider is called again.
	_, err = fg.Generate(context.Background(), genInput)
	_, ok = parser.AsRateLimit(err)
	assert.True(t, ok)
	g1.AssertNumberOfCalls(t, "Generate", 1)
	g2.AssertNumberOfCalls(t, "Generate", 1)
}

func TestFallbackGenerator_MixedFailures(t *testing.T) {
	g1 := new(mocks.MockTextGenerator)
	g2 := new(mocks.MockTextGenerator)
	g1.On("Generate", mock.Anything, genInput).Return(nil, parser.NewRateLimitError("gemini", errors.New("429"), 30))
	g2.On("Generate", mock.Anything, genInput).Return(nil, errors.New("server error"))

	fg := parser.NewFallbackGenerator([]port.TextGenerator{g1, g2}, []string{"gemini", "openai"})

	_, err := fg.Generate(context.Background(), genInput)

	require.Error(t, err)
	_, ok := parser.AsRateLimit(err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "all providers failed")
}
