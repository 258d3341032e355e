package helpers

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatermillZerologAdapter(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := zerolog.New(buf).Level(zerolog.DebugLevel)

	a := NewWatermill(logger).With(watermill.LogFields{"topic": "orchestrator"})
	a.Info("Starting handler", watermill.LogFields{"handler": "ui-forward"})
	a.Error("Handler failed", errors.New("boom"), nil)
	a.Trace("dropped", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var info map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &info))
	assert.Equal(t, "debug", info["level"])
	assert.Equal(t, "orchestrator", info["topic"])
	assert.Equal(t, "ui-forward", info["handler"])
	assert.Equal(t, "watermill", info["component"])

	var errLine map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &errLine))
	assert.Equal(t, "error", errLine["level"])
	assert.Equal(t, "boom", errLine["error"])
}
