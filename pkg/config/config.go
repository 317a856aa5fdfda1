package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig is read from a YAML file under the user's home directory.
// All fields are optional; defaults are applied by the accessor methods.
//
// Example (~/.datasage/config.yaml):
//
// server:
//   host: 127.0.0.1
//   port: 8090
// chat:
//   default_model: gpt-3.5-turbo
//   temperature: 0.7
//   history_limit: 20
// documents:
//   max_file_size_mb: 10
//   max_documents: 100
//
// Notes:
// - If the config file does not exist, Load returns defaults without error.
// - If the config file exists but cannot be parsed, Load returns an error.
// - Port must be between 1 and 65535.

type AppConfig struct {
	Server    ServerConfig   `yaml:"server"`
	Chat      ChatConfig     `yaml:"chat"`
	Documents DocumentConfig `yaml:"documents"`
	Pricing   PricingConfig  `yaml:"pricing"`
}

type ServerConfig struct {
	Host *string `yaml:"host"`
	Port *int    `yaml:"port"`
}

type ChatConfig struct {
	DefaultModel   *string  `yaml:"default_model"`
	EmbeddingModel *string  `yaml:"embedding_model"`
	Temperature    *float64 `yaml:"temperature"`
	HistoryLimit   *int     `yaml:"history_limit"`
}

type DocumentConfig struct {
	UploadDir       *string  `yaml:"upload_dir"`
	VectorStorePath *string  `yaml:"vector_store_path"`
	CatalogPath     *string  `yaml:"catalog_path"`
	MaxFileSizeMB   *int     `yaml:"max_file_size_mb"`
	MaxDocuments    *int     `yaml:"max_documents"`
	SupportedTypes  []string `yaml:"supported_types"`
	ChunkSize       *int     `yaml:"chunk_size"`
	ChunkOverlap    *int     `yaml:"chunk_overlap"`
	TopK            *int     `yaml:"top_k"`
}

type PricingConfig struct {
	File *string `yaml:"file"`
}

const (
	DefaultHost         = "127.0.0.1"
	DefaultPort         = 8090
	DefaultModel        = "gpt-3.5-turbo"
	DefaultEmbedModel   = "text-embedding-3-small"
	DefaultTemperature  = 0.7
	DefaultHistoryLimit = 20
	DefaultMaxFileMB    = 10
	DefaultMaxDocuments = 100
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
	DefaultTopK         = 4
)

var defaultSupportedTypes = []string{"pdf", "txt", "docx"}

// DefaultPaths returns the config dir and config file path.
func DefaultPaths() (configDir string, configFile string, err error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", "", fmt.Errorf("get user home dir: %w", err)
	}
	configDir = filepath.Join(home, ".datasage")
	configFile = filepath.Join(configDir, "config.yaml")
	return configDir, configFile, nil
}

// Load reads ~/.datasage/config.yaml.
// If the file doesn't exist, it returns a default config and nil error.
func Load() (*AppConfig, string, error) {
	_, configFile, err := DefaultPaths()
	if err != nil {
		return nil, "", err
	}

	cfg := &AppConfig{}

	b, err := os.ReadFile(configFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, configFile, nil
		}
		return nil, "", fmt.Errorf("read config file %s: %w", configFile, err)
	}

	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, "", fmt.Errorf("parse yaml config %s: %w", configFile, err)
	}

	if strings.TrimSpace(cfg.Host()) == "" {
		return nil, "", fmt.Errorf("invalid server.host (empty) in %s", configFile)
	}
	if port := cfg.Port(); port < 1 || port > 65535 {
		return nil, "", fmt.Errorf("invalid server.port %d in %s", port, configFile)
	}
	if limit := cfg.HistoryLimit(); limit < 1 {
		return nil, "", fmt.Errorf("invalid chat.history_limit %d in %s", limit, configFile)
	}
	if size := cfg.MaxFileSizeMB(); size < 1 {
		return nil, "", fmt.Errorf("invalid documents.max_file_size_mb %d in %s", size, configFile)
	}

	return cfg, configFile, nil
}

// EnsureDefaultConfig writes a default config file if it doesn't already exist.
// It is safe to call on startup.
func EnsureDefaultConfig() (string, error) {
	configDir, configFile, err := DefaultPaths()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(configFile); err == nil {
		return configFile, nil
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("create config dir %s: %w", configDir, err)
	}

	defaultCfg := AppConfig{
		Server: ServerConfig{Host: ptr(DefaultHost), Port: ptr(DefaultPort)},
		Chat: ChatConfig{
			DefaultModel: ptr(DefaultModel),
			Temperature:  ptr(DefaultTemperature),
			HistoryLimit: ptr(DefaultHistoryLimit),
		},
	}
	b, err := yaml.Marshal(&defaultCfg)
	if err != nil {
		return "", fmt.Errorf("marshal default config: %w", err)
	}

	// Write with restrictive permissions.
	if err := os.WriteFile(configFile, b, 0o600); err != nil {
		return "", fmt.Errorf("write default config file %s: %w", configFile, err)
	}

	return configFile, nil
}

func (c *AppConfig) Host() string {
	if c == nil || c.Server.Host == nil {
		return DefaultHost
	}
	v := strings.TrimSpace(*c.Server.Host)
	if v == "" {
		return DefaultHost
	}
	return v
}

func (c *AppConfig) Port() int {
	if c == nil || c.Server.Port == nil {
		return DefaultPort
	}
	return *c.Server.Port
}

func (c *AppConfig) DefaultModel() string {
	if c == nil || c.Chat.DefaultModel == nil {
		return DefaultModel
	}
	v := strings.TrimSpace(*c.Chat.DefaultModel)
	if v == "" {
		return DefaultModel
	}
	return v
}

func (c *AppConfig) EmbeddingModel() string {
	if c == nil || c.Chat.EmbeddingModel == nil {
		return DefaultEmbedModel
	}
	v := strings.TrimSpace(*c.Chat.EmbeddingModel)
	if v == "" {
		return DefaultEmbedModel
	}
	return v
}

func (c *AppConfig) Temperature() float64 {
	if c == nil || c.Chat.Temperature == nil {
		return DefaultTemperature
	}
	return *c.Chat.Temperature
}

func (c *AppConfig) HistoryLimit() int {
	if c == nil || c.Chat.HistoryLimit == nil {
		return DefaultHistoryLimit
	}
	return *c.Chat.HistoryLimit
}

func (c *AppConfig) UploadDir() string {
	if c != nil && c.Documents.UploadDir != nil && strings.TrimSpace(*c.Documents.UploadDir) != "" {
		return *c.Documents.UploadDir
	}
	return dataPath("uploads")
}

func (c *AppConfig) VectorStorePath() string {
	if c != nil && c.Documents.VectorStorePath != nil && strings.TrimSpace(*c.Documents.VectorStorePath) != "" {
		return *c.Documents.VectorStorePath
	}
	return dataPath("vectors")
}

func (c *AppConfig) CatalogPath() string {
	if c != nil && c.Documents.CatalogPath != nil && strings.TrimSpace(*c.Documents.CatalogPath) != "" {
		return *c.Documents.CatalogPath
	}
	return dataPath("catalog.db")
}

func (c *AppConfig) MaxFileSizeMB() int {
	if c == nil || c.Documents.MaxFileSizeMB == nil {
		return DefaultMaxFileMB
	}
	return *c.Documents.MaxFileSizeMB
}

func (c *AppConfig) MaxDocuments() int {
	if c == nil || c.Documents.MaxDocuments == nil {
		return DefaultMaxDocuments
	}
	return *c.Documents.MaxDocuments
}

func (c *AppConfig) SupportedTypes() []string {
	if c != nil && len(c.Documents.SupportedTypes) > 0 {
		return c.Documents.SupportedTypes
	}
	return defaultSupportedTypes
}

func (c *AppConfig) ChunkSize() int {
	if c == nil || c.Documents.ChunkSize == nil || *c.Documents.ChunkSize < 1 {
		return DefaultChunkSize
	}
	return *c.Documents.ChunkSize
}

func (c *AppConfig) ChunkOverlap() int {
	if c == nil || c.Documents.ChunkOverlap == nil || *c.Documents.ChunkOverlap < 0 {
		return DefaultChunkOverlap
	}
	return *c.Documents.ChunkOverlap
}

func (c *AppConfig) TopK() int {
	if c == nil || c.Documents.TopK == nil || *c.Documents.TopK < 1 {
		return DefaultTopK
	}
	return *c.Documents.TopK
}

func (c *AppConfig) PricingFile() string {
	if c != nil && c.Pricing.File != nil && strings.TrimSpace(*c.Pricing.File) != "" {
		return *c.Pricing.File
	}
	return dataPath("pricing.json")
}

func (c *AppConfig) ModelsFile() string {
	return dataPath("models.json")
}

func dataPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("data", name)
	}
	return filepath.Join(home, ".datasage", name)
}

func ptr[T any](v T) *T { return &v }
