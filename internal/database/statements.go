package database

import (
	"database/sql/driver"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
)

var (
	commentRegex = regexp.MustCompile(`(?m)^\s*--.*$`)
	stringRegex  = regexp.MustCompile(`'(?:[^']|'')*'|"(?:[^"]|"")*"|` + "`(?:[^`]|``)*`")

	// validIdentifier validates SQL identifiers (table/column names) to prevent SQL injection
	validIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

const defaultBatch = 500

// IsValidIdentifier checks if a string is a valid SQL identifier
func IsValidIdentifier(name string) bool {
	return validIdentifier.MatchString(name)
}

// ParseSQLStatements splits a script on semicolons that are not inside string
// literals and drops line comments.
func ParseSQLStatements(sql string) []string {
	sql = commentRegex.ReplaceAllString(sql, "")

	stringPositions := make(map[int]bool)
	for _, match := range stringRegex.FindAllStringIndex(sql, -1) {
		for i := match[0]; i < match[1]; i++ {
			stringPositions[i] = true
		}
	}

	estimatedStmts := strings.Count(sql, ";") + 1
	statements := make([]string, 0, estimatedStmts)

	var currentStatement strings.Builder
	currentStatement.Grow(len(sql) / estimatedStmts)

	for i, char := range sql {
		if char == ';' && !stringPositions[i] {
			stmt := strings.TrimSpace(currentStatement.String())
			if stmt != "" && !strings.HasPrefix(stmt, "/*") {
				statements = append(statements, stmt)
			}
			currentStatement.Reset()
		} else {
			currentStatement.WriteRune(char)
		}
	}

	if currentStatement.Len() > 0 {
		stmt := strings.TrimSpace(currentStatement.String())
		if stmt != "" && !strings.HasPrefix(stmt, "/*") {
			statements = append(statements, stmt)
		}
	}

	return statements
}

func validateTables(tables []TableRows) error {
	for _, t := range tables {
		if !IsValidIdentifier(t.Table) {
			return fmt.Errorf("invalid table name: %s", t.Table)
		}
		for _, col := range t.Columns {
			if !IsValidIdentifier(col) {
				return fmt.Errorf("invalid column name in table %s: %s", t.Table, col)
			}
		}
	}
	return nil
}

// batchSize caps the rows per statement so rows*columns stays under the
// provider's bind parameter limit.
func batchSize(requested, columns, maxParams int) int {
	if requested <= 0 {
		requested = defaultBatch
	}
	if columns > 0 && maxParams > 0 && requested*columns > maxParams {
		requested = maxParams / columns
	}
	if requested < 1 {
		requested = 1
	}
	return requested
}

// insertBatches builds multi-row INSERT statements and hands each to exec,
// which returns the affected row count.
func insertBatches(qb squirrel.StatementBuilderType, table string, columns []string, rows [][]any,
	batch int, exec func(query string, args []any) (int64, error)) (int64, error) {
	var total int64
	for start := 0; start < len(rows); start += batch {
		end := start + batch
		if end > len(rows) {
			end = len(rows)
		}

		ib := qb.Insert(table).Columns(columns...)
		for _, row := range rows[start:end] {
			ib = ib.Values(row...)
		}
		query, args, err := ib.ToSql()
		if err != nil {
			return total, fmt.Errorf("failed to build insert for %s: %w", table, err)
		}

		n, err := exec(query, args)
		if err != nil {
			return total, fmt.Errorf("failed to insert batch into %s (rows %d-%d): %w", table, start, end-1, err)
		}
		total += n
	}
	return total, nil
}

// formatValue converts a scanned value into something JSON and CSV
// writers handle.
func formatValue(val any) any {
	switch v := val.(type) {
	case nil:
		return nil
	case []byte:
		return string(v)
	case string, bool, int64, int32, int16, int, float64, float32:
		return v
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case driver.Valuer:
		dv, err := v.Value()
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return formatValue(dv)
	default:
		return fmt.Sprintf("%v", v)
	}
}
