package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/datasage-ai/datasage/pkg/models"
	"github.com/datasage-ai/datasage/pkg/utils"
)

// generalSystemPrompt frames the plain conversation backend.
const generalSystemPrompt = "You are a helpful AI assistant. You can help users with general questions, but you specialize in helping them work with documents and databases. If users ask about documents or databases, suggest they upload documents or connect to a database first."

// generalHistoryWindow is how many recent messages ride along on
// general prompts.
const generalHistoryWindow = 10

// Keyword tables for query classification.
var (
	dbKeywords = []string{
		"database", "table", "sql", "query", "select", "from", "where",
		"join", "count", "sum", "average", "data", "records", "rows",
		"columns", "schema", "postgres", "postgresql",
	}
	docKeywords = []string{
		"document", "file", "pdf", "text", "uploaded", "content",
		"what does the document say", "in the file", "according to",
	}
)

// Classify routes a message to a backend. Database keywords win when a
// connection exists, then document keywords when files are uploaded,
// then longer questions default to documents when files exist.
func Classify(message string, dbConnected bool, documentCount int) models.BackendKind {
	lower := strings.ToLower(message)

	if dbConnected {
		for _, kw := range dbKeywords {
			if strings.Contains(lower, kw) {
				return models.BackendDatabase
			}
		}
	}
	if documentCount > 0 {
		for _, kw := range docKeywords {
			if strings.Contains(lower, kw) {
				return models.BackendDocument
			}
		}
		if len(strings.Fields(message)) > 3 {
			return models.BackendDocument
		}
	}
	return models.BackendGeneral
}

// ChatService routes messages to backends and owns the transcript.
type ChatService struct {
	store     *ConversationStore
	modelSvc  *ModelService
	documents *DocumentService
	retrieval *RetrievalService
	database  *DatabaseService
	tracker   *TokenTracker
	logger    *slog.Logger
}

func NewChatService(
	store *ConversationStore,
	modelSvc *ModelService,
	documents *DocumentService,
	retrieval *RetrievalService,
	database *DatabaseService,
	tracker *TokenTracker,
) *ChatService {
	return &ChatService{
		store:     store,
		modelSvc:  modelSvc,
		documents: documents,
		retrieval: retrieval,
		database:  database,
		tracker:   tracker,
		logger:    utils.GetLogger(),
	}
}

// ProcessMessage classifies, dispatches and records one user message.
// Every non-empty message appends exactly one user/assistant pair,
// backend failures included; the error return is reserved for empty
// input.
func (s *ChatService) ProcessMessage(ctx context.Context, content, modelName string) (models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Message{}, ErrEmptyMessage
	}

	docCount := 0
	if s.documents != nil {
		if n, err := s.documents.Count(); err == nil {
			docCount = n
		}
	}
	backend := Classify(content, s.database.Connected(), docCount)
	s.logger.Info("message routed", "backend", backend, "model", modelName)

	var assistant models.Message
	switch backend {
	case models.BackendDocument:
		assistant = s.answerFromDocuments(ctx, content, modelName)
	case models.BackendDatabase:
		assistant = s.answerFromDatabase(ctx, content, modelName)
	default:
		assistant = s.answerGeneral(ctx, content, modelName)
	}

	user := models.Message{Role: models.RoleUser, Content: content}
	s.store.AppendPair(user, assistant)
	return assistant, nil
}

func errorMessage(kind models.ErrorKind, err error) models.Message {
	return models.Message{
		Role:    models.RoleAssistant,
		Content: err.Error(),
		Result:  models.ErrorResult{Kind: kind, Message: err.Error()},
	}
}

func (s *ChatService) chatModel(ctx context.Context, modelName string) (einoModel.ToolCallingChatModel, error) {
	config, err := s.modelSvc.ResolveModel(modelName)
	if err != nil {
		return nil, err
	}
	return s.modelSvc.CreateChatModel(ctx, config)
}

// trackUsage records provider-reported usage, estimating from text
// when the provider returned none.
func (s *ChatService) trackUsage(modelName string, kind models.RequestKind, usage *schema.TokenUsage, prompt, answer string) *models.TokenUsageRecord {
	var record models.TokenUsageRecord
	if usage != nil {
		record = s.tracker.Track(modelName, kind, usage.PromptTokens, usage.CompletionTokens, false)
	} else {
		in, estIn := s.tracker.CountTokens(modelName, prompt)
		out, estOut := s.tracker.CountTokens(modelName, answer)
		record = s.tracker.Track(modelName, kind, in, out, estIn || estOut)
	}
	return &record
}

func (s *ChatService) answerFromDocuments(ctx context.Context, content, modelName string) models.Message {
	chatModel, err := s.chatModel(ctx, modelName)
	if err != nil {
		return errorMessage(models.ErrKindConnection, err)
	}

	answer, citations, usage, err := s.retrieval.Answer(ctx, chatModel, content)
	if err != nil {
		return errorMessage(models.ErrKindRetrieval, err)
	}

	return models.Message{
		Role:    models.RoleAssistant,
		Content: answer,
		Result:  models.DocumentResult{Sources: citations},
		Usage:   s.trackUsage(modelName, models.RequestDocument, usage, content, answer),
	}
}

func (s *ChatService) answerFromDatabase(ctx context.Context, content, modelName string) models.Message {
	catalog, err := s.database.Catalog()
	if err != nil {
		return errorMessage(models.ErrKindConnection, err)
	}

	chatModel, err := s.chatModel(ctx, modelName)
	if err != nil {
		return errorMessage(models.ErrKindConnection, err)
	}

	hints := s.database.EnrichmentHints(ctx, content)
	sqlStmt, prose, usage, err := Translate(ctx, chatModel, catalog, s.database.DefaultSchema(), hints, content)
	if err != nil {
		if errors.Is(err, ErrNoSQLExtracted) {
			// The model answered in prose; pass it through.
			return models.Message{
				Role:    models.RoleAssistant,
				Content: prose,
				Result:  models.DatabaseResult{SQLExtracted: false},
				Usage:   s.trackUsage(modelName, models.RequestDatabase, usage, content, prose),
			}
		}
		return errorMessage(models.ErrKindTranslation, err)
	}

	table, err := s.database.ExecuteSelect(ctx, sqlStmt)
	if err != nil {
		kind := models.ErrKindExecution
		if errors.Is(err, ErrOnlySelectAllowed) {
			kind = models.ErrKindGuardrail
			err = fmt.Errorf("refusing to run generated statement: %w", err)
		}
		msg := errorMessage(kind, err)
		msg.Usage = s.trackUsage(modelName, models.RequestDatabase, usage, content, "")
		return msg
	}

	return models.Message{
		Role:    models.RoleAssistant,
		Content: NarrateResult(table),
		Result:  models.DatabaseResult{SQL: sqlStmt, SQLExtracted: true, Table: table},
		Usage:   s.trackUsage(modelName, models.RequestDatabase, usage, content, ""),
	}
}

func (s *ChatService) answerGeneral(ctx context.Context, content, modelName string) models.Message {
	chatModel, err := s.chatModel(ctx, modelName)
	if err != nil {
		return errorMessage(models.ErrKindConnection, err)
	}

	messages := []*schema.Message{schema.SystemMessage(generalSystemPrompt)}
	for _, m := range s.store.Recent(generalHistoryWindow) {
		switch m.Role {
		case models.RoleUser:
			messages = append(messages, schema.UserMessage(m.Content))
		case models.RoleAssistant:
			messages = append(messages, schema.AssistantMessage(m.Content, nil))
		}
	}
	messages = append(messages, schema.UserMessage(content))

	resp, err := chatModel.Generate(ctx, messages)
	if err != nil {
		return errorMessage(models.ErrKindExecution, fmt.Errorf("chat generation failed: %w", err))
	}

	var usage *schema.TokenUsage
	if resp.ResponseMeta != nil {
		usage = resp.ResponseMeta.Usage
	}
	return models.Message{
		Role:    models.RoleAssistant,
		Content: resp.Content,
		Result:  models.GeneralResult{Model: modelName},
		Usage:   s.trackUsage(modelName, models.RequestChat, usage, content, resp.Content),
	}
}

// History, Clear and Export expose the transcript to handlers.
func (s *ChatService) History() []models.Message { return s.store.History() }
func (s *ChatService) Clear()                    { s.store.Clear() }
func (s *ChatService) Export() string            { return s.store.Export() }
