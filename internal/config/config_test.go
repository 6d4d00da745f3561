package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileFallsBackToDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Model.Name != "gpt-4o-mini" {
		t.Errorf("expected default model, got: %v", cfg.Model.Name)
	}
	if cfg.Model.APIKeyEnv != "OPENAI_API_KEY" {
		t.Errorf("expected default api key env, got: %v", cfg.Model.APIKeyEnv)
	}
	if cfg.Agent.MaxIterations != 100 {
		t.Errorf("expected default iteration cap, got: %v", cfg.Agent.MaxIterations)
	}
}

func TestLoad_ParsesYamlOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finai.yaml")
	data := `model:
  name: some-model
  endpoint: https://example.com/v1/chat/completions
  api_key_env: MY_KEY
agent:
  max_iterations: 7
  history_window: 5
book:
  name: household
  currency: SEK
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Model.Name != "some-model" {
		t.Errorf("expected configured model, got: %v", cfg.Model.Name)
	}
	if cfg.Model.APIKeyEnv != "MY_KEY" {
		t.Errorf("expected configured key env, got: %v", cfg.Model.APIKeyEnv)
	}
	if cfg.Agent.MaxIterations != 7 {
		t.Errorf("expected configured iteration cap, got: %v", cfg.Agent.MaxIterations)
	}
	if cfg.Agent.HistoryWindow != 5 {
		t.Errorf("expected configured history window, got: %v", cfg.Agent.HistoryWindow)
	}
	if cfg.Book.Currency != "SEK" {
		t.Errorf("expected configured currency, got: %v", cfg.Book.Currency)
	}
	if cfg.Book.Name != "household" {
		t.Errorf("expected configured book name, got: %v", cfg.Book.Name)
	}
}

func TestLoad_BadYamlErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("model: [unclosed"), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}
