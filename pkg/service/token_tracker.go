package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/pkoukk/tiktoken-go"

	"github.com/datasage-ai/datasage/pkg/models"
	"github.com/datasage-ai/datasage/pkg/utils"
)

// recordCap bounds the in-memory usage history.
const recordCap = 100

// TokenTracker accounts tokens and cost per model call. It keeps a
// bounded record history plus running totals, and prices calls from a
// table that can be refreshed atomically at runtime.
type TokenTracker struct {
	mu          sync.Mutex
	prices      *models.PriceTable
	pricingPath string
	records     []models.TokenUsageRecord
	session     models.UsageSummary
	lifetime    models.UsageSummary
	logger      *slog.Logger
}

func NewTokenTracker(pricingPath string) (*TokenTracker, error) {
	table, err := loadPriceTable(pricingPath)
	if err != nil {
		return nil, err
	}
	return &TokenTracker{
		prices:      table,
		pricingPath: pricingPath,
		logger:      utils.GetLogger(),
	}, nil
}

// CountTokens counts the tokens text would occupy for model. When no
// tokenizer is available for the model it estimates one token per four
// characters and reports estimated=true.
func (t *TokenTracker) CountTokens(model, text string) (count int, estimated bool) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
	}
	if err != nil {
		return len(text) / 4, true
	}
	return len(enc.Encode(text, nil, nil)), false
}

// Cost prices a call from the active table. Unknown models are priced
// as gpt-3.5-turbo.
func (t *TokenTracker) Cost(model string, inputTokens, outputTokens int) float64 {
	t.mu.Lock()
	price, ok := t.prices.Prices[model]
	if !ok {
		price = t.prices.Prices[fallbackPriceModel]
	}
	t.mu.Unlock()
	return float64(inputTokens)/1000*price.Input + float64(outputTokens)/1000*price.Output
}

// Track records one model call. Reported token counts from the
// provider take precedence; when absent the caller passes estimated
// counts from CountTokens.
func (t *TokenTracker) Track(model string, kind models.RequestKind, inputTokens, outputTokens int, estimated bool) models.TokenUsageRecord {
	record := models.TokenUsageRecord{
		Timestamp:    time.Now(),
		Model:        model,
		Kind:         kind,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		TotalTokens:  inputTokens + outputTokens,
		Cost:         t.Cost(model, inputTokens, outputTokens),
		Estimated:    estimated,
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.records = append(t.records, record)
	if len(t.records) > recordCap {
		t.records = append(t.records[:0:0], t.records[len(t.records)-recordCap:]...)
	}
	t.session.SessionTokens += record.TotalTokens
	t.session.SessionCost += record.Cost
	t.lifetime.TotalTokens += record.TotalTokens
	t.lifetime.TotalCost += record.Cost
	t.lifetime.RequestCount++
	return record
}

// Summary returns session and lifetime totals.
func (t *TokenTracker) Summary() models.UsageSummary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return models.UsageSummary{
		SessionTokens: t.session.SessionTokens,
		SessionCost:   t.session.SessionCost,
		TotalTokens:   t.lifetime.TotalTokens,
		TotalCost:     t.lifetime.TotalCost,
		RequestCount:  t.lifetime.RequestCount,
	}
}

// Records returns a copy of the bounded record history, newest last.
func (t *TokenTracker) Records() []models.TokenUsageRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.TokenUsageRecord, len(t.records))
	copy(out, t.records)
	return out
}

// ResetSession zeroes the session counters; lifetime totals survive.
func (t *TokenTracker) ResetSession() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.session = models.UsageSummary{}
}

// RefreshPrices reloads the pricing file. The active table is swapped
// only after a successful parse, so in-flight pricing never sees a
// partial table.
func (t *TokenTracker) RefreshPrices() error {
	table, err := loadPriceTable(t.pricingPath)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.prices = table
	t.mu.Unlock()
	t.logger.Info("price table refreshed", "source", table.Source, "models", len(table.Prices))
	return nil
}

// PricingInfo describes the active price table.
func (t *TokenTracker) PricingInfo() models.PricingInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	return models.PricingInfo{
		Source:      t.prices.Source,
		LastUpdated: t.prices.LastUpdated,
		ModelCount:  len(t.prices.Prices),
		FromFile:    t.prices.Source != "default",
	}
}
