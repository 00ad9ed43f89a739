package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONInProduction(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(Config{Level: "warn", Environment: "production", ServiceName: "gridflow"}, &buf)

	log.Info().Msg("hidden")
	log.Warn().Str("doc", "1").Msg("shown")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["message"])
	assert.Equal(t, "gridflow", line["service"])
	assert.Equal(t, "1", line["doc"])
}

func TestNew_BadLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(Config{Level: "loud", Environment: "production"}, &buf)

	log.Debug().Msg("dropped")
	assert.Zero(t, buf.Len())
	log.Info().Msg("kept")
	assert.NotZero(t, buf.Len())
}
