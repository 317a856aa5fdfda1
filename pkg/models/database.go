package models

import "strings"

// Column is one column of an introspected table.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TableSchema is one introspected table with its columns.
type TableSchema struct {
	Schema  string   `json:"schema"`
	Table   string   `json:"table"`
	Columns []Column `json:"columns"`
}

// QualifiedName returns schema.table, or just the table name when the
// table lives in the given default schema.
func (t TableSchema) QualifiedName(defaultSchema string) string {
	if t.Schema == "" || t.Schema == defaultSchema {
		return t.Table
	}
	return t.Schema + "." + t.Table
}

// SchemaCatalog is a snapshot of a connected database's structure, used
// to build translation prompts.
type SchemaCatalog struct {
	Driver    string        `json:"driver"`
	Tables    []TableSchema `json:"tables"`
	FetchedAt string        `json:"fetched_at"`
}

// Describe renders the catalog as a compact text block for prompts.
func (c *SchemaCatalog) Describe(defaultSchema string) string {
	var b strings.Builder
	for _, t := range c.Tables {
		b.WriteString("Table ")
		b.WriteString(t.QualifiedName(defaultSchema))
		b.WriteString(" (")
		for i, col := range t.Columns {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(col.Name)
			b.WriteString(" ")
			b.WriteString(col.Type)
		}
		b.WriteString(")\n")
	}
	return b.String()
}

// ResultTable holds the rows returned by a SELECT in column order.
type ResultTable struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

func (t *ResultTable) RowCount() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

func (t *ResultTable) ColumnCount() int {
	if t == nil {
		return 0
	}
	return len(t.Columns)
}
