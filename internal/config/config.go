// Package config loads the yaml configuration of the demo CLI. API
// keys are referenced by environment variable name, never stored.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Model struct {
		Name        string   `yaml:"name"`
		Endpoint    string   `yaml:"endpoint"`
		APIKeyEnv   string   `yaml:"api_key_env"`
		MaxTokens   *int     `yaml:"max_tokens,omitempty"`
		Temperature *float64 `yaml:"temperature,omitempty"`
	} `yaml:"model"`

	Agent struct {
		MaxIterations int `yaml:"max_iterations"`
		HistorySize   int `yaml:"history_size"`
		HistoryWindow int `yaml:"history_window"`
	} `yaml:"agent"`

	Book struct {
		Name     string `yaml:"name"`
		Currency string `yaml:"currency"`
	} `yaml:"book"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	cfg := &Config{}
	cfg.Model.Name = "gpt-4o-mini"
	cfg.Model.Endpoint = "https://api.openai.com/v1/chat/completions"
	cfg.Model.APIKeyEnv = "OPENAI_API_KEY"
	cfg.Agent.MaxIterations = 100
	cfg.Book.Name = "demo book"
	cfg.Book.Currency = "USD"
	return cfg
}

// Load reads the config at path, falling back to Default when the
// file does not exist
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}
