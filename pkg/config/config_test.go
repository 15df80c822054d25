package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesOnTopOfDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
model:
  default_model: gpt-5
  temperature: 0.7
tool_loop:
  max_iterations: 25
guard:
  allowed_commands: [ls, go]
  max_duration_seconds: 60
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gpt-5", cfg.Model.DefaultModel)
	assert.InDelta(t, 0.7, cfg.Model.Temperature, 1e-6)
	assert.Equal(t, 25, cfg.ToolLoop.MaxIterations)
	assert.Equal(t, []string{"ls", "go"}, cfg.Guard.AllowedCommands)
	assert.Equal(t, time.Minute, cfg.Guard.MaxDuration())

	// Unset fields keep their defaults.
	assert.Equal(t, 4096, cfg.Model.MaxTokens)
	assert.Equal(t, 50, cfg.Reasoning.MaxSteps)
	assert.Equal(t, "agentcore-trace.db", cfg.Trace.Path)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSecretsEncryptDecryptRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.enc")

	s := NewSecrets()
	s.Set("ANTHROPIC_API_KEY", "sk-ant-test-value")
	s.Set("OPENAI_API_KEY", "sk-oai-test-value")
	require.NoError(t, s.SaveEncrypted(path, "correct horse"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadEncrypted(path, "correct horse")
	require.NoError(t, err)

	got, err := loaded.Get("ANTHROPIC_API_KEY")
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-test-value", got)
	assert.ElementsMatch(t, []string{"ANTHROPIC_API_KEY", "OPENAI_API_KEY"}, loaded.Names())
}

func TestLoadEncryptedWrongPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.enc")

	s := NewSecrets()
	s.Set("KEY", "value")
	require.NoError(t, s.SaveEncrypted(path, "right"))

	_, err := LoadEncrypted(path, "wrong")
	assert.ErrorContains(t, err, "decrypt")
}

func TestLoadEncryptedRejectsTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.enc")
	require.NoError(t, os.WriteFile(path, []byte("too short"), 0600))

	_, err := LoadEncrypted(path, "any")
	assert.Error(t, err)
}

func TestSecretsGetFallsBackToEnvironment(t *testing.T) {
	t.Setenv("AGENTCORE_TEST_SECRET", "from-env")

	s := NewSecrets()
	got, err := s.Get("AGENTCORE_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "from-env", got)

	_, err = s.Get("AGENTCORE_TEST_MISSING")
	assert.Error(t, err)
}
