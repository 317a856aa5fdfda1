package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/datasage-ai/datasage/pkg/models"
)

func TestExtractSQL(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{
			name:   "sql fence",
			input:  "Here you go:\n```sql\nSELECT * FROM products\n```",
			want:   "SELECT * FROM products",
			wantOK: true,
		},
		{
			name:   "plain fence",
			input:  "```\nSELECT count(*) FROM orders\n```",
			want:   "SELECT count(*) FROM orders",
			wantOK: true,
		},
		{
			name:   "bare select line",
			input:  "The query would be:\nSELECT name FROM products WHERE price > 10;",
			want:   "SELECT name FROM products WHERE price > 10;",
			wantOK: true,
		},
		{
			name:   "prose only",
			input:  "I cannot answer that from the schema provided.",
			wantOK: false,
		},
		{
			name:   "fenced non-select ignored",
			input:  "```sql\nDROP TABLE products\n```",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractSQL(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ExtractSQL() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ExtractSQL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildTranslationPrompt(t *testing.T) {
	catalog := &models.SchemaCatalog{
		Driver: "postgres",
		Tables: []models.TableSchema{
			{Schema: "public", Table: "products", Columns: []models.Column{{Name: "id", Type: "integer"}}},
		},
	}

	prompt := BuildTranslationPrompt(catalog, "public", "Products matching \"lamp\":\n  [1 desk lamp]\n", "how many lamps?")
	for _, want := range []string{"Database schema:", "Table products", "Sample data:", "desk lamp", "Question: how many lamps?"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildTranslationPrompt_NameColumnGuidance(t *testing.T) {
	catalog := &models.SchemaCatalog{
		Driver: "postgres",
		Tables: []models.TableSchema{
			{Schema: "public", Table: "products", Columns: []models.Column{
				{Name: "name", Type: "text"},
				{Name: "category", Type: "text"},
			}},
		},
	}

	// Item lookups must be steered to partial matches on the name
	// column, with and without sample data present.
	for _, hints := range []string{"", "Products matching \"desk\":\n  [1 desk lamp]\n"} {
		prompt := BuildTranslationPrompt(catalog, "public", hints, "do we have any desks?")
		for _, want := range []string{
			`search the "name" column`,
			"never the \"category\" column",
			"SELECT * FROM products WHERE name ILIKE '%desk%'",
		} {
			if !strings.Contains(prompt, want) {
				t.Errorf("prompt (hints=%v) missing %q", hints != "", want)
			}
		}
	}
}

func TestNarrateResult_Empty(t *testing.T) {
	got := NarrateResult(&models.ResultTable{Columns: []string{"id"}})
	if got != "The query returned no records." {
		t.Errorf("NarrateResult() = %q", got)
	}
}

func TestNarrateResult_SmallTable(t *testing.T) {
	table := &models.ResultTable{
		Columns: []string{"name", "price"},
		Rows:    [][]any{{"desk lamp", 29.99}, {"mug", nil}},
	}

	got := NarrateResult(table)
	if !strings.Contains(got, "I found 2 records with 2 columns.") {
		t.Errorf("NarrateResult() missing summary: %q", got)
	}
	if strings.Contains(got, "Showing first") {
		t.Error("small tables should not be truncated")
	}
	if !strings.Contains(got, "desk lamp | 29.99") {
		t.Errorf("NarrateResult() missing row: %q", got)
	}
	if !strings.Contains(got, "mug | NULL") {
		t.Errorf("NarrateResult() should render nil as NULL: %q", got)
	}
}

func TestNarrateResult_TruncatesLongTables(t *testing.T) {
	table := &models.ResultTable{Columns: []string{"n"}}
	for i := 0; i < 25; i++ {
		table.Rows = append(table.Rows, []any{i})
	}

	got := NarrateResult(table)
	if !strings.Contains(got, "I found 25 records with 1 columns.") {
		t.Errorf("NarrateResult() missing summary: %q", got)
	}
	if !strings.Contains(got, "Showing first 10 out of 25 records:") {
		t.Errorf("NarrateResult() missing truncation notice: %q", got)
	}
	// Header line plus exactly 10 data rows.
	dataLines := 0
	for _, line := range strings.Split(strings.TrimSpace(got), "\n") {
		if line == "" || strings.Contains(line, "records") || line == "n" {
			continue
		}
		dataLines++
	}
	if dataLines != 10 {
		t.Errorf("NarrateResult() rendered %d rows, want 10", dataLines)
	}
	if strings.Contains(got, fmt.Sprintf("\n%d\n", 24)) {
		t.Error("rows past the limit should not be rendered")
	}
}
