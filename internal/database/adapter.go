package database

import (
	"context"
	"time"
)

// RunsTable records every load executed against a database.
const RunsTable = "_plantdata_load_runs"

type DatabaseAdapter interface {
	Connect(ctx context.Context, url string) error
	Close() error
	Ping(ctx context.Context) error

	// Provisioning
	CreateDatabase(ctx context.Context, name string) (bool, error)
	ExecuteScript(ctx context.Context, script string) (int, error)

	// Bulk load
	InsertTables(ctx context.Context, tables []TableRows, opts InsertOptions) (map[string]int64, error)
	CountRows(ctx context.Context, table string) (int64, error)
	GetTableData(ctx context.Context, table string) ([]map[string]any, error)

	// Load run bookkeeping
	EnsureRunsTable(ctx context.Context) error
	RecordRun(ctx context.Context, run LoadRun) error
}

// TableRows is one table's data in positional form.
type TableRows struct {
	Table   string
	Columns []string
	Rows    [][]any
}

type InsertOptions struct {
	Batch         int  // Rows per INSERT statement
	Truncate      bool // Clear the tables before inserting
	NoTransaction bool // Disable transaction wrapping
	Copy          bool // Use COPY where the provider supports it
}

type LoadRun struct {
	ID         string
	Database   string
	StartedAt  time.Time
	FinishedAt time.Time
	Tables     int
	Rows       int64
	Repaired   int
	Violations int
	Status     string
}

func NewAdapter(provider string) DatabaseAdapter {
	switch provider {
	case "postgresql", "postgres":
		return NewPostgresAdapter()
	case "mysql":
		return NewMySQLAdapter()
	case "sqlite", "sqlite3":
		return NewSQLiteAdapter()
	default:
		return NewPostgresAdapter()
	}
}
