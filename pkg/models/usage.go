package models

import "time"

// RequestKind labels what a model call was spent on.
type RequestKind string

const (
	RequestChat      RequestKind = "chat"
	RequestDocument  RequestKind = "document"
	RequestDatabase  RequestKind = "database"
	RequestEmbedding RequestKind = "embedding"
)

// TokenUsageRecord is one accounting entry for a single model call.
type TokenUsageRecord struct {
	Timestamp    time.Time   `json:"timestamp"`
	Model        string      `json:"model"`
	Kind         RequestKind `json:"kind"`
	InputTokens  int         `json:"input_tokens"`
	OutputTokens int         `json:"output_tokens"`
	TotalTokens  int         `json:"total_tokens"`
	Cost         float64     `json:"cost"`
	Estimated    bool        `json:"estimated,omitempty"`
}

// ModelPrice holds per-1000-token prices in USD.
type ModelPrice struct {
	Input  float64 `json:"input" yaml:"input"`
	Output float64 `json:"output" yaml:"output"`
}

// PriceTable maps model names to their prices. Prices is never nil
// after loading.
type PriceTable struct {
	Prices      map[string]ModelPrice `json:"prices" yaml:"prices"`
	LastUpdated string                `json:"last_updated" yaml:"last_updated"`
	Source      string                `json:"source" yaml:"source"`
}

// UsageSummary aggregates tracked records for display.
type UsageSummary struct {
	SessionTokens int     `json:"session_tokens"`
	SessionCost   float64 `json:"session_cost"`
	TotalTokens   int     `json:"total_tokens"`
	TotalCost     float64 `json:"total_cost"`
	RequestCount  int     `json:"request_count"`
}

// PricingInfo describes where the active price table came from.
type PricingInfo struct {
	Source      string `json:"source"`
	LastUpdated string `json:"last_updated"`
	ModelCount  int    `json:"model_count"`
	FromFile    bool   `json:"from_file"`
}
