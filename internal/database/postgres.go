package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

// postgres caps bind parameters per statement at 65535.
const pgMaxParams = 65535

type PostgresAdapter struct {
	pool *pgxpool.Pool
	qb   squirrel.StatementBuilderType
}

// pgExecutor is satisfied by both the pool and a transaction.
type pgExecutor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// pgConn is the part of the pool the insert path uses.
type pgConn interface {
	pgExecutor
	Begin(ctx context.Context) (pgx.Tx, error)
}

func NewPostgresAdapter() *PostgresAdapter {
	return &PostgresAdapter{
		qb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (p *PostgresAdapter) Connect(ctx context.Context, url string) error {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return fmt.Errorf("failed to parse connection URL: %w", err)
	}

	config.MaxConns = 4
	config.MinConns = 0
	config.MaxConnLifetime = 15 * time.Minute
	config.MaxConnIdleTime = 3 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	p.pool = pool
	return nil
}

func (p *PostgresAdapter) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func (p *PostgresAdapter) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// CreateDatabase creates the database unless pg_database already lists it.
func (p *PostgresAdapter) CreateDatabase(ctx context.Context, name string) (bool, error) {
	if !IsValidIdentifier(name) {
		return false, fmt.Errorf("invalid database name: %s", name)
	}

	query, args, err := p.qb.Select("1").From("pg_database").Where(squirrel.Eq{"datname": name}).ToSql()
	if err != nil {
		return false, err
	}

	var one int
	err = p.pool.QueryRow(ctx, query, args...).Scan(&one)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("failed to look up database %s: %w", name, err)
	}

	// CREATE DATABASE cannot take bind parameters.
	if _, err := p.pool.Exec(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(name)); err != nil {
		return false, fmt.Errorf("failed to create database %s: %w", name, err)
	}
	return true, nil
}

func (p *PostgresAdapter) ExecuteScript(ctx context.Context, script string) (int, error) {
	statements := ParseSQLStatements(script)
	for i, stmt := range statements {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return i, fmt.Errorf("statement %d failed: %w", i+1, err)
		}
	}
	return len(statements), nil
}

func (p *PostgresAdapter) InsertTables(ctx context.Context, tables []TableRows, opts InsertOptions) (map[string]int64, error) {
	return insertPostgres(ctx, p.pool, p.qb, tables, opts)
}

// insertPostgres truncates and fills tables in order, inside one transaction
// unless opts.NoTransaction is set.
func insertPostgres(ctx context.Context, conn pgConn, qb squirrel.StatementBuilderType, tables []TableRows,
	opts InsertOptions) (counts map[string]int64, err error) {
	if err := validateTables(tables); err != nil {
		return nil, err
	}

	var exec pgExecutor = conn
	if !opts.NoTransaction {
		tx, berr := conn.Begin(ctx)
		if berr != nil {
			return nil, fmt.Errorf("failed to begin transaction: %w", berr)
		}
		defer func() {
			if err != nil {
				tx.Rollback(ctx)
				return
			}
			if cerr := tx.Commit(ctx); cerr != nil {
				err = fmt.Errorf("failed to commit transaction: %w", cerr)
			}
		}()
		exec = tx
	}

	if opts.Truncate && len(tables) > 0 {
		names := make([]string, len(tables))
		for i, t := range tables {
			names[i] = pgx.Identifier{t.Table}.Sanitize()
		}
		query := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(names, ", "))
		if _, err := exec.Exec(ctx, query); err != nil {
			return nil, fmt.Errorf("failed to truncate tables: %w", err)
		}
	}

	counts = make(map[string]int64, len(tables))
	for _, t := range tables {
		if len(t.Rows) == 0 {
			counts[t.Table] = 0
			continue
		}

		var n int64
		if opts.Copy {
			n, err = exec.CopyFrom(ctx, pgx.Identifier{t.Table}, t.Columns, pgx.CopyFromRows(t.Rows))
			if err != nil {
				return nil, fmt.Errorf("failed to copy into %s: %w", t.Table, err)
			}
		} else {
			cols := make([]string, len(t.Columns))
			for i, c := range t.Columns {
				cols[i] = pgx.Identifier{c}.Sanitize()
			}
			batch := batchSize(opts.Batch, len(cols), pgMaxParams)
			n, err = insertBatches(qb, pgx.Identifier{t.Table}.Sanitize(), cols, t.Rows, batch,
				func(query string, args []any) (int64, error) {
					tag, err := exec.Exec(ctx, query, args...)
					return tag.RowsAffected(), err
				})
			if err != nil {
				return nil, err
			}
		}
		counts[t.Table] = n
	}

	return counts, nil
}

func (p *PostgresAdapter) CountRows(ctx context.Context, table string) (int64, error) {
	if !IsValidIdentifier(table) {
		return 0, fmt.Errorf("invalid table name: %s", table)
	}
	query, args, err := p.qb.Select("COUNT(*)").From(pgx.Identifier{table}.Sanitize()).ToSql()
	if err != nil {
		return 0, err
	}
	var n int64
	if err := p.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

func (p *PostgresAdapter) GetTableData(ctx context.Context, table string) ([]map[string]any, error) {
	if !IsValidIdentifier(table) {
		return nil, fmt.Errorf("invalid table name: %s", table)
	}
	rows, err := p.pool.Query(ctx, "SELECT * FROM "+pgx.Identifier{table}.Sanitize())
	if err != nil {
		return nil, fmt.Errorf("failed to query table %s: %w", table, err)
	}
	defer rows.Close()

	columns := rows.FieldDescriptions()
	var result []map[string]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row of %s: %w", table, err)
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col.Name] = formatValue(values[i])
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (p *PostgresAdapter) EnsureRunsTable(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS ` + RunsTable + ` (
		id UUID PRIMARY KEY,
		database_name VARCHAR(255) NOT NULL,
		started_at TIMESTAMP WITH TIME ZONE NOT NULL,
		finished_at TIMESTAMP WITH TIME ZONE,
		tables_loaded INTEGER NOT NULL DEFAULT 0,
		rows_loaded BIGINT NOT NULL DEFAULT 0,
		repaired INTEGER NOT NULL DEFAULT 0,
		violations INTEGER NOT NULL DEFAULT 0,
		status VARCHAR(32) NOT NULL
	)`
	_, err := p.pool.Exec(ctx, query)
	return err
}

func (p *PostgresAdapter) RecordRun(ctx context.Context, run LoadRun) error {
	query, args, err := runInsert(p.qb, run).ToSql()
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, query, args...)
	return err
}

func runInsert(qb squirrel.StatementBuilderType, run LoadRun) squirrel.InsertBuilder {
	return qb.Insert(RunsTable).
		Columns("id", "database_name", "started_at", "finished_at", "tables_loaded",
			"rows_loaded", "repaired", "violations", "status").
		Values(run.ID, run.Database, run.StartedAt, run.FinishedAt, run.Tables,
			run.Rows, run.Repaired, run.Violations, run.Status)
}
