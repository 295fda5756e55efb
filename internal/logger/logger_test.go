package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupJSON(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	var buf bytes.Buffer
	l := Logger{Level: "warn", Format: "json"}.SetupWriter(&buf)

	l.Info().Msg("hidden")
	l.Warn().Str("layer", "roads").Msg("shown")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "roads", entry["layer"])
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}

func TestSetupDefaults(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	var buf bytes.Buffer
	l := Logger{Level: "bogus"}.SetupWriter(&buf)

	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	l.Info().Msg("console line")
	assert.Contains(t, buf.String(), "console line")
	assert.NotContains(t, buf.String(), "{")
}
