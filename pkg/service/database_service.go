package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"github.com/datasage-ai/datasage/pkg/models"
	"github.com/datasage-ai/datasage/pkg/utils"
)

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// previewRowLimit caps table preview queries.
const previewRowLimit = 10

// ConnectionParams describes one database to connect to.
type ConnectionParams struct {
	Driver   string `json:"driver"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"password"`
	SSLMode  string `json:"ssl_mode,omitempty"`
}

// ConnectionStatus reports the active connection for the API.
type ConnectionStatus struct {
	Connected bool   `json:"connected"`
	Driver    string `json:"driver,omitempty"`
	Database  string `json:"database,omitempty"`
	Tables    int    `json:"tables,omitempty"`
}

// DatabaseService holds at most one live SQL connection plus the
// schema catalog introspected from it.
type DatabaseService struct {
	mu      sync.Mutex
	db      *sql.DB
	params  ConnectionParams
	catalog *models.SchemaCatalog
	logger  *slog.Logger
}

func NewDatabaseService() *DatabaseService {
	return &DatabaseService{logger: utils.GetLogger()}
}

func buildDSN(p ConnectionParams) (string, error) {
	switch p.Driver {
	case DriverPostgres:
		sslMode := p.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		port := p.Port
		if port == 0 {
			port = 5432
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=10",
			p.Host, port, p.Username, p.Password, p.Database, sslMode), nil
	case DriverMySQL:
		port := p.Port
		if port == 0 {
			port = 3306
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&timeout=10s",
			p.Username, p.Password, p.Host, port, p.Database), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedDriver, p.Driver)
	}
}

// defaultSchema is the schema whose tables go unqualified in prompts
// and generated SQL.
func defaultSchema(driver string, database string) string {
	if driver == DriverPostgres {
		return "public"
	}
	return database
}

// systemSchemas lists schemas skipped during introspection.
func systemSchemas(driver string) []string {
	if driver == DriverPostgres {
		return []string{"information_schema", "pg_catalog"}
	}
	return []string{"information_schema", "mysql", "performance_schema", "sys"}
}

// TestConnection opens and pings without keeping the connection.
func (s *DatabaseService) TestConnection(ctx context.Context, params ConnectionParams) error {
	dsn, err := buildDSN(params)
	if err != nil {
		return err
	}
	db, err := sql.Open(params.Driver, dsn)
	if err != nil {
		return fmt.Errorf("failed to open connection: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	return nil
}

// Connect establishes the active connection, replacing any previous
// one, and introspects the schema catalog.
func (s *DatabaseService) Connect(ctx context.Context, params ConnectionParams) (*models.SchemaCatalog, error) {
	dsn, err := buildDSN(params)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(params.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", params.Database, err)
	}

	catalog, err := introspect(ctx, db, params)
	if err != nil {
		db.Close()
		return nil, err
	}

	s.mu.Lock()
	if s.db != nil {
		s.db.Close()
	}
	s.db = db
	s.params = params
	s.catalog = catalog
	s.mu.Unlock()

	s.logger.Info("database connected", "driver", params.Driver, "database", params.Database, "tables", len(catalog.Tables))
	return catalog, nil
}

// Disconnect closes the active connection. Safe to call when not
// connected.
func (s *DatabaseService) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		s.db.Close()
		s.db = nil
	}
	s.catalog = nil
}

// Connected reports whether a live connection exists.
func (s *DatabaseService) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db != nil
}

// Status returns the connection state for the API.
func (s *DatabaseService) Status() ConnectionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ConnectionStatus{}
	}
	status := ConnectionStatus{
		Connected: true,
		Driver:    s.params.Driver,
		Database:  s.params.Database,
	}
	if s.catalog != nil {
		status.Tables = len(s.catalog.Tables)
	}
	return status
}

// Catalog returns the current schema snapshot.
func (s *DatabaseService) Catalog() (*models.SchemaCatalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil || s.catalog == nil {
		return nil, ErrNotConnected
	}
	return s.catalog, nil
}

// DefaultSchema returns the unqualified schema of the active
// connection.
func (s *DatabaseService) DefaultSchema() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return defaultSchema(s.params.Driver, s.params.Database)
}

// RefreshCatalog re-introspects the connected database.
func (s *DatabaseService) RefreshCatalog(ctx context.Context) (*models.SchemaCatalog, error) {
	s.mu.Lock()
	db, params := s.db, s.params
	s.mu.Unlock()
	if db == nil {
		return nil, ErrNotConnected
	}

	catalog, err := introspect(ctx, db, params)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.catalog = catalog
	s.mu.Unlock()
	return catalog, nil
}

func introspect(ctx context.Context, db *sql.DB, params ConnectionParams) (*models.SchemaCatalog, error) {
	skip := systemSchemas(params.Driver)
	placeholders := make([]string, len(skip))
	args := make([]any, len(skip))
	for i, schema := range skip {
		if params.Driver == DriverPostgres {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
		} else {
			placeholders[i] = "?"
		}
		args[i] = schema
	}

	query := fmt.Sprintf(`SELECT table_schema, table_name, column_name, data_type
		FROM information_schema.columns
		WHERE table_schema NOT IN (%s)
		ORDER BY table_schema, table_name, ordinal_position`, strings.Join(placeholders, ", "))

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("schema introspection failed: %w", err)
	}
	defer rows.Close()

	catalog := &models.SchemaCatalog{
		Driver:    params.Driver,
		FetchedAt: time.Now().Format(time.RFC3339),
	}
	index := map[string]int{}
	for rows.Next() {
		var schema, table, column, dataType string
		if err := rows.Scan(&schema, &table, &column, &dataType); err != nil {
			return nil, fmt.Errorf("schema introspection scan failed: %w", err)
		}
		key := schema + "." + table
		i, ok := index[key]
		if !ok {
			catalog.Tables = append(catalog.Tables, models.TableSchema{Schema: schema, Table: table})
			i = len(catalog.Tables) - 1
			index[key] = i
		}
		catalog.Tables[i].Columns = append(catalog.Tables[i].Columns, models.Column{Name: column, Type: dataType})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("schema introspection failed: %w", err)
	}
	return catalog, nil
}

// IsSelect reports whether stmt is a plain SELECT after trimming.
func IsSelect(stmt string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(stmt)), "SELECT")
}

// ExecuteSelect runs one SELECT statement and returns all rows. Any
// other statement kind is rejected before touching the database.
func (s *DatabaseService) ExecuteSelect(ctx context.Context, stmt string) (*models.ResultTable, error) {
	if !IsSelect(stmt) {
		return nil, ErrOnlySelectAllowed
	}

	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return nil, ErrNotConnected
	}

	rows, err := db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	table := &models.ResultTable{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range columns {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, val := range values {
			if b, ok := val.([]byte); ok {
				values[i] = string(b)
			}
		}
		table.Rows = append(table.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return table, nil
}

// Preview returns the first rows of a cataloged table. The table name
// must match a catalog entry, which keeps arbitrary identifiers out of
// the generated statement.
func (s *DatabaseService) Preview(ctx context.Context, tableName string) (*models.ResultTable, error) {
	s.mu.Lock()
	catalog := s.catalog
	defSchema := defaultSchema(s.params.Driver, s.params.Database)
	s.mu.Unlock()
	if catalog == nil {
		return nil, ErrNotConnected
	}

	var qualified string
	for _, t := range catalog.Tables {
		if t.Table == tableName || t.QualifiedName(defSchema) == tableName {
			qualified = t.QualifiedName(defSchema)
			break
		}
	}
	if qualified == "" {
		return nil, fmt.Errorf("table %q is not in the schema catalog", tableName)
	}

	return s.ExecuteSelect(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", qualified, previewRowLimit))
}

// enrichmentTerms are object words looked up in the products table to
// give the translator concrete rows to anchor on.
var enrichmentTerms = []string{
	"lamp", "light", "desk", "chair", "computer", "phone",
	"coffee", "mug", "table", "monitor", "keyboard",
}

// EnrichmentHints samples matching product rows and the category list
// for terms mentioned in the question. Lookup failures are swallowed;
// hints are best-effort.
func (s *DatabaseService) EnrichmentHints(ctx context.Context, question string) string {
	s.mu.Lock()
	db := s.db
	driver := s.params.Driver
	s.mu.Unlock()
	if db == nil {
		return ""
	}

	lower := strings.ToLower(question)
	var b strings.Builder

	match := "ILIKE"
	if driver == DriverMySQL {
		match = "LIKE"
	}

	for _, term := range enrichmentTerms {
		if !strings.Contains(lower, term) {
			continue
		}
		stmt := fmt.Sprintf("SELECT name, category, price FROM products WHERE name %s '%%%s%%' LIMIT 5", match, term)
		table, err := s.ExecuteSelect(ctx, stmt)
		if err != nil || table.RowCount() == 0 {
			continue
		}
		fmt.Fprintf(&b, "Products matching %q:\n", term)
		for _, row := range table.Rows {
			fmt.Fprintf(&b, "  %v\n", row)
		}
	}

	if b.Len() > 0 {
		if table, err := s.ExecuteSelect(ctx, "SELECT DISTINCT category FROM products"); err == nil && table.RowCount() > 0 {
			b.WriteString("Known product categories:")
			for _, row := range table.Rows {
				fmt.Fprintf(&b, " %v", row[0])
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
