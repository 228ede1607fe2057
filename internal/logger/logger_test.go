package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facturas/internal/config"
	"facturas/internal/logger"
)

func TestSetupWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := logger.SetupWriter(config.LogConfig{Level: "warn", Format: "json"}, &buf)

	l.Info().Msg("hidden")
	l.Warn().Str("invoice_id", "abc").Msg("invoice.Process: no basic fields")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "abc", entry["invoice_id"])
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}

func TestSetupWriter_InvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger.SetupWriter(config.LogConfig{Level: "loud", Format: "console"}, &buf)

	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
