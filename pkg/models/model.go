package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Model providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderDeepSeek  = "deepseek"
	ProviderOllama    = "ollama"
)

// ModelConfig describes one configured chat model.
type ModelConfig struct {
	Name      string `json:"name"`
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	APIKey    string `json:"api_key,omitempty"`
	APIKeyEnv string `json:"api_key_env,omitempty"`
	BaseURL   string `json:"base_url,omitempty"`
}

// ResolveAPIKey returns the configured key, falling back to the
// environment variable named by APIKeyEnv.
func (m *ModelConfig) ResolveAPIKey() string {
	if m.APIKey != "" {
		return m.APIKey
	}
	if m.APIKeyEnv != "" {
		return os.Getenv(m.APIKeyEnv)
	}
	return ""
}

// DefaultModels is the registry used when no models.json exists.
func DefaultModels() []*ModelConfig {
	return []*ModelConfig{
		{Name: "gpt-3.5-turbo", Provider: ProviderOpenAI, Model: "gpt-3.5-turbo", APIKeyEnv: "OPENAI_API_KEY"},
		{Name: "gpt-4o", Provider: ProviderOpenAI, Model: "gpt-4o", APIKeyEnv: "OPENAI_API_KEY"},
	}
}

// LoadModels reads the model registry from path. A missing file yields
// the default registry rather than an error.
func LoadModels(path string) ([]*ModelConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultModels(), nil
		}
		return nil, fmt.Errorf("read models file: %w", err)
	}

	var configs []*ModelConfig
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("parse models file: %w", err)
	}
	for _, c := range configs {
		if c.Name == "" {
			c.Name = c.Model
		}
	}
	return configs, nil
}

// SaveModels writes the registry back to path, creating the parent
// directory if needed.
func SaveModels(path string, configs []*ModelConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create models dir: %w", err)
	}
	data, err := json.MarshalIndent(configs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode models: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write models file: %w", err)
	}
	return nil
}

// FindModel returns the registry entry matching name, or nil.
func FindModel(configs []*ModelConfig, name string) *ModelConfig {
	for _, c := range configs {
		if c.Name == name || c.Model == name {
			return c
		}
	}
	return nil
}
