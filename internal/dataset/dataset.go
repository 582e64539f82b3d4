package dataset

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Record is one row destined for one table in one database.
type Record map[string]any

// Dataset maps a table name to the records that will be loaded into it.
type Dataset map[string][]Record

// IsNull reports whether the column is absent from the record or holds a null.
func (r Record) IsNull(column string) bool {
	v, ok := r[column]
	return !ok || v == nil
}

// Tables returns the table names in sorted order.
func (d Dataset) Tables() []string {
	tables := make([]string, 0, len(d))
	for name := range d {
		tables = append(tables, name)
	}
	sort.Strings(tables)
	return tables
}

// Count returns the total number of records across all tables.
func (d Dataset) Count() int {
	total := 0
	for _, records := range d {
		total += len(records)
	}
	return total
}

// Merge appends every table of other into d.
func (d Dataset) Merge(other Dataset) {
	for table, records := range other {
		d[table] = append(d[table], records...)
	}
}

// ValueString renders a scalar the way it is compared against registered identifiers.
func ValueString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// Columns returns the union of column names used by the records, sorted.
func Columns(records []Record) []string {
	seen := make(map[string]struct{})
	for _, rec := range records {
		for col := range rec {
			seen[col] = struct{}{}
		}
	}
	columns := make([]string, 0, len(seen))
	for col := range seen {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	return columns
}

// Rows flattens records into positional rows following columns. Missing
// columns become nil and JSON numbers are converted to int64 or float64.
func Rows(records []Record, columns []string) [][]any {
	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		row := make([]any, len(columns))
		for i, col := range columns {
			row[i] = normalize(rec[col])
		}
		rows = append(rows, row)
	}
	return rows
}

func normalize(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if !strings.ContainsAny(n.String(), ".eE") {
		if i, err := n.Int64(); err == nil {
			return i
		}
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
