package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Document struct {
		Strategy     string   `yaml:"strategy"`      // chapter_section | article | numbered_list
		SectionLabel string   `yaml:"section_label"` // label used in citations, e.g. "Section"
		Keywords     []string `yaml:"keywords"`
	} `yaml:"document"`
	AI struct {
		Provider       string  `yaml:"provider"` // anthropic | openai | gemini | ollama
		Model          string  `yaml:"model"`
		APIKey         string  `yaml:"api_key"`
		BaseURL        string  `yaml:"base_url"`
		MaxTokens      int     `yaml:"max_tokens"`
		Temperature    float64 `yaml:"temperature"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
	} `yaml:"ai"`
	Content struct {
		MaxTweetLength    int      `yaml:"max_tweet_length"`
		MaxThreadSegments int      `yaml:"max_thread_segments"`
		TopK              int      `yaml:"top_k"`
		ExcerptBudget     int      `yaml:"excerpt_budget"`
		RecencyWindow     int      `yaml:"recency_window"`
		ChatWindow        int      `yaml:"chat_window"`
		Hashtags          []string `yaml:"hashtags"`
	} `yaml:"content"`
	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`
	LogLevel string `yaml:"log_level"`
}

// LoadConfig reads the YAML config file, then applies .env and environment
// variable overrides. Zero-valued tuning knobs fall back to defaults.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, err
	}

	if apiKey := os.Getenv("CONSTBOT_API_KEY"); apiKey != "" {
		cfg.AI.APIKey = apiKey
	}
	if provider := os.Getenv("CONSTBOT_AI_PROVIDER"); provider != "" {
		cfg.AI.Provider = provider
	}
	if model := os.Getenv("CONSTBOT_AI_MODEL"); model != "" {
		cfg.AI.Model = model
	}
	if timeout := os.Getenv("CONSTBOT_AI_TIMEOUT"); timeout != "" {
		if n, err := strconv.Atoi(timeout); err == nil {
			cfg.AI.TimeoutSeconds = n
		}
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a config with defaults applied and no file loaded.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Document.Strategy == "" {
		c.Document.Strategy = "chapter_section"
	}
	if c.Document.SectionLabel == "" {
		c.Document.SectionLabel = "Section"
	}
	if c.AI.MaxTokens == 0 {
		c.AI.MaxTokens = 2048
	}
	if c.AI.Temperature == 0 {
		c.AI.Temperature = 0.7
	}
	if c.AI.TimeoutSeconds == 0 {
		c.AI.TimeoutSeconds = 90
	}
	if c.Content.MaxTweetLength == 0 {
		c.Content.MaxTweetLength = 280
	}
	if c.Content.MaxThreadSegments == 0 {
		c.Content.MaxThreadSegments = 10
	}
	if c.Content.TopK == 0 {
		c.Content.TopK = 5
	}
	if c.Content.ExcerptBudget == 0 {
		c.Content.ExcerptBudget = 1200
	}
	if c.Content.RecencyWindow == 0 {
		c.Content.RecencyWindow = 10
	}
	if c.Content.ChatWindow == 0 {
		c.Content.ChatWindow = 6
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
