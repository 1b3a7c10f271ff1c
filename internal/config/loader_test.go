package config_test

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-gateway/nexus/internal/config"
)

const yamlDoc = `
upstreams:
  - kind: groq
    instance_id: "1"
    enabled: true
  - kind: cerebras
    instance_id: "1"
    enabled: true
routing:
  mode: fastest
server:
  listen: "127.0.0.1:8787"
  auth:
    master_key: "${TEST_YAML_MASTER_KEY}"
logging:
  level: debug
  format: console
`

func TestLoadFromReaderParsesYAML(t *testing.T) {
	t.Setenv("TEST_YAML_MASTER_KEY", "sk-test-master")

	cfg, err := config.LoadFromReader(strings.NewReader(yamlDoc))
	require.NoError(t, err)

	require.Len(t, cfg.Upstreams, 2)
	assert.Equal(t, "groq", cfg.Upstreams[0].Kind)
	assert.Equal(t, "fastest", cfg.Routing.Mode)
	assert.Equal(t, "127.0.0.1:8787", cfg.Server.Listen)
	assert.Equal(t, "sk-test-master", cfg.Server.Auth.MasterKey)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

const tomlDoc = `
[[upstreams]]
kind = "groq"
instance_id = "1"
enabled = true

[routing]
mode = "round_robin"

[server]
listen = "0.0.0.0:9000"

[server.auth]
master_key = "${TEST_TOML_MASTER_KEY}"

[logging]
level = "warn"
format = "json"
`

func TestLoadFromReaderWithFormatParsesTOML(t *testing.T) {
	t.Setenv("TEST_TOML_MASTER_KEY", "sk-toml-master")

	cfg, err := config.LoadFromReaderWithFormat(strings.NewReader(tomlDoc), config.FormatTOML)
	require.NoError(t, err)

	require.Len(t, cfg.Upstreams, 1)
	assert.Equal(t, "groq", cfg.Upstreams[0].Kind)
	assert.Equal(t, "round_robin", cfg.Routing.Mode)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Listen)
	assert.Equal(t, "sk-toml-master", cfg.Server.Auth.MasterKey)
}

func TestLoadDispatchesByExtension(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	yamlPath := dir + "/config.yaml"
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlDoc), 0o644))
	cfg, err := config.Load(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "fastest", cfg.Routing.Mode)

	tomlPath := dir + "/config.toml"
	require.NoError(t, os.WriteFile(tomlPath, []byte(tomlDoc), 0o644))
	cfg, err = config.Load(tomlPath)
	require.NoError(t, err)
	assert.Equal(t, "round_robin", cfg.Routing.Mode)
}

func TestLoadRejectsUnsupportedExtension(t *testing.T) {
	t.Parallel()
	_, err := config.Load("/path/to/config.json")
	require.Error(t, err)

	var unsupported *config.UnsupportedFormatError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, ".json", unsupported.Extension)
	assert.Contains(t, err.Error(), ".yaml, .yml, .toml")
}

func TestLoadRejectsMissingExtension(t *testing.T) {
	t.Parallel()
	_, err := config.Load("/path/to/config")
	require.Error(t, err)

	var unsupported *config.UnsupportedFormatError
	require.True(t, errors.As(err, &unsupported))
	assert.Empty(t, unsupported.Extension)
}
