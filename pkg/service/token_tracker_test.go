package service

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/datasage-ai/datasage/pkg/models"
)

func newTestTracker(t *testing.T) *TokenTracker {
	t.Helper()
	tracker, err := NewTokenTracker(filepath.Join(t.TempDir(), "pricing.yaml"))
	if err != nil {
		t.Fatalf("NewTokenTracker() error = %v", err)
	}
	return tracker
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCost_KnownModel(t *testing.T) {
	tracker := newTestTracker(t)

	// gpt-3.5-turbo: 0.0015 in, 0.002 out per 1k tokens.
	got := tracker.Cost("gpt-3.5-turbo", 1000, 500)
	want := 0.0015 + 0.5*0.002
	if !almostEqual(got, want) {
		t.Errorf("Cost() = %v, want %v", got, want)
	}
}

func TestCost_UnknownModelFallsBack(t *testing.T) {
	tracker := newTestTracker(t)

	unknown := tracker.Cost("some-future-model", 2000, 1000)
	fallback := tracker.Cost("gpt-3.5-turbo", 2000, 1000)
	if !almostEqual(unknown, fallback) {
		t.Errorf("unknown model cost = %v, want fallback %v", unknown, fallback)
	}
}

func TestCost_ZeroTokens(t *testing.T) {
	tracker := newTestTracker(t)
	if got := tracker.Cost("gpt-4", 0, 0); got != 0 {
		t.Errorf("Cost(0,0) = %v, want 0", got)
	}
}

func TestCountTokens_FallbackEstimate(t *testing.T) {
	tracker := newTestTracker(t)

	text := "hello world, how are you today?"
	count, _ := tracker.CountTokens("gpt-3.5-turbo", text)
	if count <= 0 {
		t.Errorf("CountTokens() = %d, want > 0", count)
	}
}

func TestTrack_RecordCapAndTotals(t *testing.T) {
	tracker := newTestTracker(t)

	for i := 0; i < 150; i++ {
		tracker.Track("gpt-3.5-turbo", models.RequestChat, 10, 5, false)
	}

	records := tracker.Records()
	if len(records) != recordCap {
		t.Fatalf("Records() len = %d, want %d", len(records), recordCap)
	}

	summary := tracker.Summary()
	if summary.RequestCount != 150 {
		t.Errorf("RequestCount = %d, want 150", summary.RequestCount)
	}
	if summary.TotalTokens != 150*15 {
		t.Errorf("TotalTokens = %d, want %d", summary.TotalTokens, 150*15)
	}
	if summary.SessionTokens != summary.TotalTokens {
		t.Errorf("session/lifetime diverged before reset: %d vs %d", summary.SessionTokens, summary.TotalTokens)
	}
}

func TestResetSession_KeepsLifetime(t *testing.T) {
	tracker := newTestTracker(t)
	tracker.Track("gpt-4", models.RequestDatabase, 100, 50, false)

	tracker.ResetSession()
	summary := tracker.Summary()
	if summary.SessionTokens != 0 || summary.SessionCost != 0 {
		t.Errorf("session not reset: %+v", summary)
	}
	if summary.TotalTokens != 150 || summary.RequestCount != 1 {
		t.Errorf("lifetime totals lost on reset: %+v", summary)
	}
}

func TestRefreshPrices_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pricing.yaml")
	tracker, err := NewTokenTracker(path)
	if err != nil {
		t.Fatalf("NewTokenTracker() error = %v", err)
	}

	info := tracker.PricingInfo()
	if info.FromFile {
		t.Error("expected built-in table before file exists")
	}

	content := "prices:\n  gpt-3.5-turbo:\n    input: 0.002\n    output: 0.003\n  my-model:\n    input: 0.5\n    output: 1.0\nlast_updated: \"2026-01-01\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write pricing file: %v", err)
	}
	if err := tracker.RefreshPrices(); err != nil {
		t.Fatalf("RefreshPrices() error = %v", err)
	}

	if got := tracker.Cost("my-model", 1000, 1000); !almostEqual(got, 1.5) {
		t.Errorf("Cost() after refresh = %v, want 1.5", got)
	}
	info = tracker.PricingInfo()
	if !info.FromFile || info.ModelCount != 2 {
		t.Errorf("PricingInfo() = %+v", info)
	}
}

func TestRefreshPrices_RejectsTableWithoutFallbackModel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pricing.yaml")
	tracker, err := NewTokenTracker(path)
	if err != nil {
		t.Fatalf("NewTokenTracker() error = %v", err)
	}

	// No gpt-3.5-turbo entry: unknown models would price at zero.
	content := "prices:\n  my-model:\n    input: 0.5\n    output: 1.0\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write pricing file: %v", err)
	}
	if err := tracker.RefreshPrices(); err == nil {
		t.Fatal("RefreshPrices() should reject a table without the fallback model")
	}

	// The built-in table still prices unknown models above zero.
	if got := tracker.Cost("not-listed-anywhere", 1000, 1000); got <= 0 {
		t.Errorf("Cost() for unknown model = %v, want > 0", got)
	}
}

func TestRefreshPrices_MalformedFileKeepsOldTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pricing.yaml")
	tracker, err := NewTokenTracker(path)
	if err != nil {
		t.Fatalf("NewTokenTracker() error = %v", err)
	}

	if err := os.WriteFile(path, []byte("prices: [not a map"), 0o644); err != nil {
		t.Fatalf("write pricing file: %v", err)
	}
	if err := tracker.RefreshPrices(); err == nil {
		t.Fatal("RefreshPrices() should fail on malformed file")
	}

	// Old table still prices calls.
	if got := tracker.Cost("gpt-3.5-turbo", 1000, 0); !almostEqual(got, 0.0015) {
		t.Errorf("Cost() after failed refresh = %v, want 0.0015", got)
	}
}

func TestTrack_CostPurity(t *testing.T) {
	tracker := newTestTracker(t)

	// Same inputs always price the same regardless of tracked history.
	first := tracker.Cost("gpt-4", 123, 456)
	for i := 0; i < 5; i++ {
		tracker.Track("gpt-4", models.RequestChat, 999, 999, false)
	}
	if got := tracker.Cost("gpt-4", 123, 456); !almostEqual(got, first) {
		t.Errorf("Cost() changed with history: %v vs %v", got, first)
	}
}

func TestRecords_NewestLast(t *testing.T) {
	tracker := newTestTracker(t)
	for i := 0; i < 3; i++ {
		tracker.Track(fmt.Sprintf("model-%d", i), models.RequestChat, 1, 1, true)
	}
	records := tracker.Records()
	if records[len(records)-1].Model != "model-2" {
		t.Errorf("newest record = %s, want model-2", records[len(records)-1].Model)
	}
	if !records[0].Estimated {
		t.Error("Estimated flag not preserved")
	}
}
