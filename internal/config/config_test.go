package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
document:
  strategy: article
  section_label: Article
ai:
  provider: openai
  model: gpt-4o-mini
content:
  max_tweet_length: 240
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "article", cfg.Document.Strategy)
	assert.Equal(t, "Article", cfg.Document.SectionLabel)
	assert.Equal(t, "openai", cfg.AI.Provider)
	assert.Equal(t, 240, cfg.Content.MaxTweetLength)
	assert.Equal(t, "debug", cfg.LogLevel)

	// Unset knobs fall back to defaults.
	assert.Equal(t, 2048, cfg.AI.MaxTokens)
	assert.Equal(t, 10, cfg.Content.MaxThreadSegments)
	assert.Equal(t, 90, cfg.AI.TimeoutSeconds)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ai:\n  provider: openai\n  api_key: from-file\n"), 0o644))

	t.Setenv("CONSTBOT_API_KEY", "from-env")
	t.Setenv("CONSTBOT_AI_PROVIDER", "anthropic")
	t.Setenv("CONSTBOT_AI_TIMEOUT", "30")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.AI.APIKey)
	assert.Equal(t, "anthropic", cfg.AI.Provider)
	assert.Equal(t, 30, cfg.AI.TimeoutSeconds)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "chapter_section", cfg.Document.Strategy)
	assert.Equal(t, "Section", cfg.Document.SectionLabel)
	assert.Equal(t, 280, cfg.Content.MaxTweetLength)
	assert.Equal(t, 5, cfg.Content.TopK)
	assert.Equal(t, 6, cfg.Content.ChatWindow)
	assert.Equal(t, "info", cfg.LogLevel)
}
