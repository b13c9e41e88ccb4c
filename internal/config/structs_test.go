package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestConfigRoundTripJSON(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Warp.DebugDir = "/tmp/x"

	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"rate_limit"`)
	assert.Contains(t, string(data), `"drag_radius"`)

	var back Config
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, cfg, back)
}

func TestConfigRoundTripYAML(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output.Format = "csv"

	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(data), "output_height:")

	var back Config
	require.NoError(t, yaml.Unmarshal(data, &back))
	assert.Equal(t, cfg, back)
}

func TestZeroValuesVsDefaults(t *testing.T) {
	var zero Config
	assert.Error(t, zero.Validate(), "zero config has no log level or port")
}
