package models

import "time"

// Chat message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// BackendKind names the execution path a query was routed to.
type BackendKind string

const (
	BackendDocument BackendKind = "document"
	BackendDatabase BackendKind = "database"
	BackendGeneral  BackendKind = "general"
	BackendError    BackendKind = "error"
)

// ErrorKind classifies a failed request for callers and for the UI.
type ErrorKind string

const (
	ErrKindValidation  ErrorKind = "validation"
	ErrKindConnection  ErrorKind = "connection"
	ErrKindTranslation ErrorKind = "translation"
	ErrKindGuardrail   ErrorKind = "guardrail"
	ErrKindExecution   ErrorKind = "execution"
	ErrKindRetrieval   ErrorKind = "retrieval"
)

// BackendResult carries backend-specific metadata for an assistant message.
// The concrete variants are DocumentResult, DatabaseResult, GeneralResult
// and ErrorResult; nothing outside this package implements it.
type BackendResult interface {
	Backend() BackendKind
}

// SourceCitation points at a retrieved chunk that contributed to an answer.
type SourceCitation struct {
	FileName   string  `json:"file_name"`
	Similarity float32 `json:"similarity"`
	Excerpt    string  `json:"excerpt,omitempty"`
}

// DocumentResult is produced by the document retrieval backend.
type DocumentResult struct {
	Sources []SourceCitation `json:"sources"`
}

func (DocumentResult) Backend() BackendKind { return BackendDocument }

// DatabaseResult is produced by the NL-to-SQL backend. SQLExtracted is
// false when the model answered in prose and no statement was run.
type DatabaseResult struct {
	SQL          string       `json:"sql,omitempty"`
	SQLExtracted bool         `json:"sql_extracted"`
	Table        *ResultTable `json:"table,omitempty"`
}

func (DatabaseResult) Backend() BackendKind { return BackendDatabase }

// GeneralResult is produced by the plain conversation backend.
type GeneralResult struct {
	Model string `json:"model"`
}

func (GeneralResult) Backend() BackendKind { return BackendGeneral }

// ErrorResult replaces the assistant answer when a backend fails.
type ErrorResult struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (ErrorResult) Backend() BackendKind { return BackendError }

// Message is one entry in a conversation transcript.
type Message struct {
	ID        string           `json:"id"`
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	CreatedAt time.Time        `json:"created_at"`
	Result    BackendResult    `json:"result,omitempty"`
	Usage     *TokenUsageRecord `json:"usage,omitempty"`
}
