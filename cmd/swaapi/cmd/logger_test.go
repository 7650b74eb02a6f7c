package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ryunosuke-Tanaka-sti/swa-api-deploy-bicep/cmd/swaapi/internal/config"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	c := &config.Config{LogFormat: "json", Observability: config.ObservabilityConfig{ServiceName: "swaapi"}}

	logger := newLogger(&buf, c)
	logger.Debug("hidden")
	logger.Info("visible", "key", "value")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "visible", entry["msg"])
	assert.Equal(t, "swaapi", entry["service"])
	assert.Equal(t, "value", entry["key"])
}

func TestNewLogger_TextDebug(t *testing.T) {
	var buf bytes.Buffer
	c := &config.Config{LogFormat: "text", Debug: true}

	newLogger(&buf, c).Debug("shown")

	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "msg=shown")
}
