package parser_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facturas/internal/config"
	"facturas/internal/parser"
	"facturas/internal/port"
	"facturas/mocks"
)

func TestNewGenerator_UnknownProvider(t *testing.T) {
	_, err := parser.NewGenerator(&config.ParserProviderConfig{Provider: "does-not-exist"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown parser provider")
}

func TestNewFromConfig(t *testing.T) {
	first := new(mocks.MockTextGenerator)
	second := new(mocks.MockTextGenerator)
	parser.RegisterProvider("test-first", func(cfg *config.ParserProviderConfig) (port.TextGenerator, error) {
		return first, nil
	})
	parser.RegisterProvider("test-second", func(cfg *config.ParserProviderConfig) (port.TextGenerator, error) {
		return second, nil
	})
	assert.Contains(t, parser.RegisteredProviders(), "test-first")

	t.Run("no api keys", func(t *testing.T) {
		gen, err := parser.NewFromConfig(&config.ParserConfig{Provider: "test-first"})
		require.NoError(t, err)
		assert.Nil(t, gen)
	})

	t.Run("single provider", func(t *testing.T) {
		gen, err := parser.NewFromConfig(&config.ParserConfig{Provider: "test-first", APIKey: "k"})
		require.NoError(t, err)
		assert.Same(t, first, gen)
	})

	t.Run("fallback chain", func(t *testing.T) {
		gen, err := parser.NewFromConfig(&config.ParserConfig{
			Primary:   config.ParserProviderConfig{Provider: "test-first", APIKey: "k1"},
			Secondary: config.ParserProviderConfig{Provider: "test-second", APIKey: "k2"},
		})
		require.NoError(t, err)
		fg, ok := gen.(*parser.FallbackGenerator)
		require.True(t, ok)
		assert.True(t, fg.CooldownUntil().IsZero())

		first.On("Generate", context.Background(), genInput).Return(genOutput("first"), nil)
		out, err := fg.Generate(context.Background(), genInput)
		require.NoError(t, err)
		assert.Equal(t, "first", out.ModelUsed)
	})
}
