package logging

import (
	"bytes"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		" info ":  zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"":        zerolog.InfoLevel,
		"chatty":  zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "ParseLevel(%q)", in)
	}
}

func TestNew_JSONAndLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := New(Config{Level: "warn", Format: "json", Output: &buf})

	l.Info().Msg("dropped")
	l.Warn().Int("line", 6).Msg("bad json")

	var got map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &got))
	assert.Equal(t, "warn", got["level"])
	assert.Equal(t, "bad json", got["message"])
	assert.EqualValues(t, 6, got["line"])
}

func TestNew_ConsoleIsDefault(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := New(Config{Output: &buf})
	l.Info().Msg("hello")

	assert.Contains(t, buf.String(), "hello")
	assert.NotContains(t, buf.String(), `"message"`)
}

// Not parallel: swaps the global logger.
func TestInitAndSetLogger(t *testing.T) {
	orig := Logger()
	defer SetLogger(orig)

	var buf bytes.Buffer
	Init(Config{Format: "json", Output: &buf})
	gl := Logger()
	gl.Info().Msg("global")
	assert.Contains(t, buf.String(), `"message":"global"`)

	SetLogger(zerolog.Nop())
	buf.Reset()
	sl := Logger()
	sl.Info().Msg("silent")
	assert.Empty(t, buf.String())
}
