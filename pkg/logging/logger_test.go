package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, LevelInfo, cfg.Level)
	assert.False(t, cfg.Pretty)
	assert.NotNil(t, cfg.Output)
}

func TestSetup_WritesToOutput(t *testing.T) {
	levels := []LogLevel{LevelDebug, LevelInfo, LevelWarn, LevelError}

	for _, level := range levels {
		t.Run(string(level), func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := Setup(Config{Level: level, Output: buf})

			logger.WithLevel(ParseLevel(string(level))).Msg("ticket refreshed")

			assert.Contains(t, buf.String(), "ticket refreshed")
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
		{"verbose", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestNewLogger_TagsComponent(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelInfo, Output: buf})

	logger := NewLogger("pagination")
	logger.Info().Int("page", 2).Msg("page fetched")

	out := buf.String()
	require.Contains(t, out, `"component":"pagination"`)
	assert.Contains(t, out, `"page":2`)
}

func TestLevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelWarn, Output: buf})

	logger := NewLogger("normalize")
	logger.Debug().Msg("debug message")
	logger.Info().Msg("info message")
	logger.Warn().Msg("warn message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")

	// Restore a permissive level for other tests in the package.
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}
