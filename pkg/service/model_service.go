package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	chromem "github.com/philippgille/chromem-go"

	"github.com/datasage-ai/datasage/pkg/models"
	"github.com/datasage-ai/datasage/pkg/utils"
)

// ModelService builds chat models and embedding functions from the
// model registry.
type ModelService struct {
	logger      *slog.Logger
	modelsPath  string
	temperature float32
}

func NewModelService(modelsPath string, temperature float64) *ModelService {
	return &ModelService{
		logger:      utils.GetLogger(),
		modelsPath:  modelsPath,
		temperature: float32(temperature),
	}
}

// ListModels returns the configured model registry with API keys masked.
func (m *ModelService) ListModels() ([]*models.ModelConfig, error) {
	configs, err := models.LoadModels(m.modelsPath)
	if err != nil {
		return nil, err
	}
	masked := make([]*models.ModelConfig, 0, len(configs))
	for _, c := range configs {
		cc := *c
		cc.APIKey = utils.MaskSensitiveString(cc.APIKey)
		masked = append(masked, &cc)
	}
	return masked, nil
}

// ResolveModel looks up name in the registry, falling back to a plain
// OpenAI entry so unregistered model names still work.
func (m *ModelService) ResolveModel(name string) (*models.ModelConfig, error) {
	configs, err := models.LoadModels(m.modelsPath)
	if err != nil {
		return nil, err
	}
	if c := models.FindModel(configs, name); c != nil {
		return c, nil
	}
	m.logger.Warn("model not in registry, assuming openai", "model", name)
	return &models.ModelConfig{
		Name:      name,
		Provider:  models.ProviderOpenAI,
		Model:     name,
		APIKeyEnv: "OPENAI_API_KEY",
	}, nil
}

// CreateChatModel creates an eino chat model from config.
func (m *ModelService) CreateChatModel(ctx context.Context, config *models.ModelConfig) (einoModel.ToolCallingChatModel, error) {
	if config == nil {
		return nil, fmt.Errorf("model config is nil")
	}

	temperature := m.temperature

	switch config.Provider {
	case models.ProviderOpenAI, "custom":
		chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:     config.BaseURL,
			APIKey:      config.ResolveAPIKey(),
			Model:       config.Model,
			Temperature: &temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create OpenAI model: %w", err)
		}
		return chatModel, nil

	case models.ProviderAnthropic:
		baseURL := config.BaseURL
		chatModel, err := claude.NewChatModel(ctx, &claude.Config{
			BaseURL:     &baseURL,
			APIKey:      config.ResolveAPIKey(),
			Model:       config.Model,
			MaxTokens:   8192,
			Temperature: &temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Claude model: %w", err)
		}
		return chatModel, nil

	case models.ProviderDeepSeek:
		chatModel, err := deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			BaseURL:     config.BaseURL,
			APIKey:      config.ResolveAPIKey(),
			Model:       config.Model,
			Temperature: temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create DeepSeek model: %w", err)
		}
		return chatModel, nil

	case models.ProviderOllama:
		chatModel, err := ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: config.BaseURL,
			Model:   config.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama model: %w", err)
		}
		return chatModel, nil

	default:
		return nil, fmt.Errorf("unsupported provider: %s", config.Provider)
	}
}

// CreateEmbeddingFunc returns the embedding function used by the
// vector store for the given model config.
func (m *ModelService) CreateEmbeddingFunc(config *models.ModelConfig) (chromem.EmbeddingFunc, error) {
	if config == nil {
		return nil, fmt.Errorf("model config is nil")
	}

	switch config.Provider {
	case models.ProviderOpenAI, "custom":
		return chromem.NewEmbeddingFuncOpenAI(config.ResolveAPIKey(), chromem.EmbeddingModelOpenAI(config.Model)), nil
	case models.ProviderOllama:
		baseURL := config.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434/api"
		}
		return chromem.NewEmbeddingFuncOllama(config.Model, baseURL), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", config.Provider)
	}
}

// TestModelConnection sends a one-word prompt to verify the model is
// reachable with the given credentials.
func (m *ModelService) TestModelConnection(ctx context.Context, config *models.ModelConfig) error {
	chatModel, err := m.CreateChatModel(ctx, config)
	if err != nil {
		return err
	}
	_, err = chatModel.Generate(ctx, []*schema.Message{{Role: schema.User, Content: "Hi"}})
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	return nil
}
