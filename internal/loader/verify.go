package loader

import (
	"context"
	"fmt"

	"github.com/fatih/color"
)

// TableCount compares the rows in one table with the records in its JSON file.
type TableCount struct {
	Database string
	Table    string
	Expected int64
	Actual   int64
	Err      error
}

func (c TableCount) Matches() bool {
	return c.Err == nil && c.Expected == c.Actual
}

type VerifyReport struct {
	Counts []TableCount
}

// Mismatches returns the tables whose counts differ or could not be read.
func (r *VerifyReport) Mismatches() []TableCount {
	var out []TableCount
	for _, c := range r.Counts {
		if !c.Matches() {
			out = append(out, c)
		}
	}
	return out
}

// Verify reads the JSON sources and compares every table's record count with
// the row count in its database. Nothing is repaired or written.
func (l *Loader) Verify(ctx context.Context) (*VerifyReport, error) {
	data, err := l.ReadSources()
	if err != nil {
		return nil, err
	}

	report := &VerifyReport{}
	for _, db := range l.databases() {
		ds, ok := data[db]
		if !ok {
			return nil, fmt.Errorf("unknown database: %s", db)
		}

		color.Cyan("🔍 Verifying %s", db)
		adapter, err := l.connect(ctx, db)
		if err != nil {
			for _, table := range ds.Tables() {
				report.Counts = append(report.Counts, TableCount{
					Database: db, Table: table, Expected: int64(len(ds[table])), Err: err,
				})
			}
			color.Red("❌ %s: failed to connect: %v", db, err)
			continue
		}

		for _, table := range ds.Tables() {
			c := TableCount{Database: db, Table: table, Expected: int64(len(ds[table]))}
			c.Actual, c.Err = adapter.CountRows(ctx, table)
			report.Counts = append(report.Counts, c)

			switch {
			case c.Err != nil:
				color.Red("   ❌ %-24s %v", table, c.Err)
			case c.Matches():
				color.Green("   ✅ %-24s %d", table, c.Actual)
			default:
				color.Yellow("   ⚠️  %-24s expected %d, found %d", table, c.Expected, c.Actual)
			}
		}
		adapter.Close()
	}

	if n := len(report.Mismatches()); n > 0 {
		color.Yellow("⚠️  %d of %d tables do not match their source data", n, len(report.Counts))
	} else {
		color.Green("✅ All %d tables match their source data", len(report.Counts))
	}
	return report, nil
}
