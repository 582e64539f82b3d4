package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// SQLAdapter drives MySQL and SQLite through database/sql.
type SQLAdapter struct {
	provider  string
	driver    string
	quote     string
	maxParams int
	db        *sql.DB
	qb        squirrel.StatementBuilderType
}

// sqlExecutor is satisfied by *sql.DB and *sql.Tx.
type sqlExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func NewMySQLAdapter() *SQLAdapter {
	return &SQLAdapter{
		provider:  "mysql",
		driver:    "mysql",
		quote:     "`",
		maxParams: 65535,
		qb:        squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}
}

func NewSQLiteAdapter() *SQLAdapter {
	return &SQLAdapter{
		provider:  "sqlite",
		driver:    "sqlite3",
		quote:     `"`,
		maxParams: 999,
		qb:        squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}
}

// Attach uses an already opened handle instead of Connect.
func (a *SQLAdapter) Attach(db *sql.DB) {
	a.db = db
}

func (a *SQLAdapter) Connect(ctx context.Context, url string) error {
	db, err := sql.Open(a.driver, url)
	if err != nil {
		return fmt.Errorf("failed to open %s connection: %w", a.provider, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to connect to %s: %w", a.provider, err)
	}
	a.db = db
	return nil
}

func (a *SQLAdapter) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

func (a *SQLAdapter) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *SQLAdapter) ident(name string) string {
	return a.quote + name + a.quote
}

// CreateDatabase creates a MySQL schema. SQLite databases are files created
// on first connect, so it reports false for them.
func (a *SQLAdapter) CreateDatabase(ctx context.Context, name string) (bool, error) {
	if !IsValidIdentifier(name) {
		return false, fmt.Errorf("invalid database name: %s", name)
	}
	if a.provider != "mysql" {
		return false, nil
	}

	query, args, err := a.qb.Select("1").From("information_schema.SCHEMATA").
		Where(squirrel.Eq{"SCHEMA_NAME": name}).ToSql()
	if err != nil {
		return false, err
	}

	var one int
	err = a.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("failed to look up database %s: %w", name, err)
	}

	if _, err := a.db.ExecContext(ctx, "CREATE DATABASE "+a.ident(name)); err != nil {
		return false, fmt.Errorf("failed to create database %s: %w", name, err)
	}
	return true, nil
}

func (a *SQLAdapter) ExecuteScript(ctx context.Context, script string) (int, error) {
	statements := ParseSQLStatements(script)
	for i, stmt := range statements {
		if _, err := a.db.ExecContext(ctx, stmt); err != nil {
			return i, fmt.Errorf("statement %d failed: %w", i+1, err)
		}
	}
	return len(statements), nil
}

func (a *SQLAdapter) InsertTables(ctx context.Context, tables []TableRows, opts InsertOptions) (counts map[string]int64, err error) {
	if err := validateTables(tables); err != nil {
		return nil, err
	}

	var exec sqlExecutor = a.db
	if !opts.NoTransaction {
		tx, berr := a.db.BeginTx(ctx, nil)
		if berr != nil {
			return nil, fmt.Errorf("failed to begin transaction: %w", berr)
		}
		defer func() {
			if err != nil {
				tx.Rollback()
				return
			}
			if cerr := tx.Commit(); cerr != nil {
				err = fmt.Errorf("failed to commit transaction: %w", cerr)
			}
		}()
		exec = tx
	}

	// Reverse order for truncation (to respect FK constraints). DELETE keeps
	// MySQL from committing the transaction implicitly.
	if opts.Truncate {
		for i := len(tables) - 1; i >= 0; i-- {
			if _, err := exec.ExecContext(ctx, "DELETE FROM "+a.ident(tables[i].Table)); err != nil {
				return nil, fmt.Errorf("failed to truncate %s: %w", tables[i].Table, err)
			}
		}
	}

	counts = make(map[string]int64, len(tables))
	for _, t := range tables {
		cols := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			cols[i] = a.ident(c)
		}
		batch := batchSize(opts.Batch, len(cols), a.maxParams)
		n, err := insertBatches(a.qb, a.ident(t.Table), cols, t.Rows, batch,
			func(query string, args []any) (int64, error) {
				res, err := exec.ExecContext(ctx, query, args...)
				if err != nil {
					return 0, err
				}
				return res.RowsAffected()
			})
		if err != nil {
			return nil, err
		}
		counts[t.Table] = n
	}

	return counts, nil
}

func (a *SQLAdapter) CountRows(ctx context.Context, table string) (int64, error) {
	if !IsValidIdentifier(table) {
		return 0, fmt.Errorf("invalid table name: %s", table)
	}
	query, args, err := a.qb.Select("COUNT(*)").From(a.ident(table)).ToSql()
	if err != nil {
		return 0, err
	}
	var n int64
	if err := a.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

func (a *SQLAdapter) GetTableData(ctx context.Context, table string) ([]map[string]any, error) {
	if !IsValidIdentifier(table) {
		return nil, fmt.Errorf("invalid table name: %s", table)
	}
	rows, err := a.db.QueryContext(ctx, "SELECT * FROM "+a.ident(table))
	if err != nil {
		return nil, fmt.Errorf("failed to query table %s: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var result []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to read row of %s: %w", table, err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = formatValue(values[i])
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (a *SQLAdapter) EnsureRunsTable(ctx context.Context) error {
	timestamp := "DATETIME"
	if a.provider == "sqlite" {
		timestamp = "TEXT"
	}
	query := strings.NewReplacer("{ts}", timestamp).Replace(`CREATE TABLE IF NOT EXISTS ` + RunsTable + ` (
		id VARCHAR(36) PRIMARY KEY,
		database_name VARCHAR(255) NOT NULL,
		started_at {ts} NOT NULL,
		finished_at {ts},
		tables_loaded INTEGER NOT NULL DEFAULT 0,
		rows_loaded BIGINT NOT NULL DEFAULT 0,
		repaired INTEGER NOT NULL DEFAULT 0,
		violations INTEGER NOT NULL DEFAULT 0,
		status VARCHAR(32) NOT NULL
	)`)
	_, err := a.db.ExecContext(ctx, query)
	return err
}

func (a *SQLAdapter) RecordRun(ctx context.Context, run LoadRun) error {
	query, args, err := runInsert(a.qb, run).ToSql()
	if err != nil {
		return err
	}
	_, err = a.db.ExecContext(ctx, query, args...)
	return err
}
