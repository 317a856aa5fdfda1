package service

import (
	"context"
	"fmt"
	"strings"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/datasage-ai/datasage/pkg/models"
)

// displayRowLimit caps rows shown in the narrated answer.
const displayRowLimit = 10

// translationSystemPrompt instructs the model to answer with a single
// SELECT statement.
const translationSystemPrompt = `You are an expert SQL assistant. Translate the user's question into a single SQL SELECT statement for the schema below.

Rules:
- Reply with exactly one SELECT statement inside a ` + "```sql" + ` code block.
- Only read data. Never write INSERT, UPDATE, DELETE, DROP, ALTER or any other statement kind.
- Use only tables and columns from the schema.
- If the question cannot be answered from the schema, reply in plain prose with no SQL.`

// nameSearchInstruction steers item lookups to partial matches on the
// name column. Without it models tend to equality-match the category
// column and find nothing.
const nameSearchInstruction = `When the question mentions a specific item, search the "name" column with a partial match, never the "category" column.
Examples:
- To find items with 'desk': SELECT * FROM products WHERE name ILIKE '%desk%'
- To find lamps: SELECT * FROM products WHERE name ILIKE '%lamp%'`

// BuildTranslationPrompt assembles the user prompt from the schema
// catalog, optional enrichment hints and the question.
func BuildTranslationPrompt(catalog *models.SchemaCatalog, defaultSchema, hints, question string) string {
	var b strings.Builder
	b.WriteString("Database schema:\n")
	b.WriteString(catalog.Describe(defaultSchema))
	if hints != "" {
		b.WriteString("\nSample data:\n")
		b.WriteString(hints)
	}
	b.WriteString("\nQuery guidance:\n")
	b.WriteString(nameSearchInstruction)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	return b.String()
}

// ExtractSQL pulls the SELECT statement out of a model response. It
// prefers a fenced code block and falls back to the first line that
// starts with SELECT. ok is false when the response holds no SQL.
func ExtractSQL(response string) (sql string, ok bool) {
	// Fenced block, with or without a language tag.
	for _, marker := range []string{"```sql", "```"} {
		start := strings.Index(response, marker)
		if start < 0 {
			continue
		}
		rest := response[start+len(marker):]
		end := strings.Index(rest, "```")
		if end < 0 {
			continue
		}
		candidate := strings.TrimSpace(rest[:end])
		if IsSelect(candidate) {
			return candidate, true
		}
	}

	for _, line := range strings.Split(response, "\n") {
		if IsSelect(line) {
			return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), ";")) + ";", true
		}
	}
	return "", false
}

// Translate asks chatModel for a SELECT statement answering question.
// A prose-only response returns ErrNoSQLExtracted with the prose so
// the caller can surface it directly.
func Translate(ctx context.Context, chatModel einoModel.ToolCallingChatModel, catalog *models.SchemaCatalog, defaultSchema, hints, question string) (sql string, prose string, usage *schema.TokenUsage, err error) {
	messages := []*schema.Message{
		schema.SystemMessage(translationSystemPrompt),
		schema.UserMessage(BuildTranslationPrompt(catalog, defaultSchema, hints, question)),
	}

	resp, err := chatModel.Generate(ctx, messages)
	if err != nil {
		return "", "", nil, fmt.Errorf("translation failed: %w", err)
	}
	if resp.ResponseMeta != nil {
		usage = resp.ResponseMeta.Usage
	}

	extracted, ok := ExtractSQL(resp.Content)
	if !ok {
		return "", resp.Content, usage, ErrNoSQLExtracted
	}
	return extracted, "", usage, nil
}

// NarrateResult renders a deterministic answer for a result table,
// listing at most displayRowLimit rows.
func NarrateResult(table *models.ResultTable) string {
	if table.RowCount() == 0 {
		return "The query returned no records."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I found %d records with %d columns.\n", table.RowCount(), table.ColumnCount())

	shown := table.RowCount()
	if shown > displayRowLimit {
		shown = displayRowLimit
		fmt.Fprintf(&b, "Showing first %d out of %d records:\n", displayRowLimit, table.RowCount())
	}

	b.WriteString(strings.Join(table.Columns, " | "))
	b.WriteString("\n")
	for _, row := range table.Rows[:shown] {
		parts := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				parts[i] = "NULL"
			} else {
				parts[i] = fmt.Sprintf("%v", v)
			}
		}
		b.WriteString(strings.Join(parts, " | "))
		b.WriteString("\n")
	}
	return b.String()
}
