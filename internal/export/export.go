package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/Rana718/plantdata/internal/catalog"
	"github.com/Rana718/plantdata/internal/dataset"
	"github.com/Rana718/plantdata/internal/loader"
	"github.com/Rana718/plantdata/internal/seeder"
	"github.com/fatih/color"
)

const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

type Options struct {
	Dir        string
	MasterFile string
	Format     string
	Databases  []string // empty means every catalog database
}

// PerformExport reads every catalog table back out of the module databases.
// JSON output uses the same master and module file layout the loader reads,
// so an export can be validated or loaded elsewhere. CSV output writes one
// file per table under <dir>/<database>.
func PerformExport(ctx context.Context, c *catalog.Catalog, connect loader.Connector, opts Options) ([]string, error) {
	dbs := opts.Databases
	if len(dbs) == 0 {
		dbs = c.DatabaseNames()
	}

	data := make(map[string]dataset.Dataset, len(dbs))
	for _, db := range dbs {
		if _, ok := c.Databases[db]; !ok {
			return nil, fmt.Errorf("unknown database: %s", db)
		}
		ds, err := exportDatabase(ctx, c, connect, db)
		if err != nil {
			return nil, err
		}
		data[db] = ds
		color.Green("✅ Exported %s (%d records in %d tables)", db, ds.Count(), len(ds))
	}

	switch opts.Format {
	case FormatCSV:
		return exportToCSV(data, opts.Dir)
	case FormatJSON, "":
		return seeder.WriteFiles(opts.Dir, opts.MasterFile, c, data)
	default:
		return nil, fmt.Errorf("unsupported export format: %s", opts.Format)
	}
}

func exportDatabase(ctx context.Context, c *catalog.Catalog, connect loader.Connector, db string) (dataset.Dataset, error) {
	adapter, err := connect(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", db, err)
	}
	defer adapter.Close()

	type tableResult struct {
		name string
		rows []map[string]any
		err  error
	}

	tables := c.Tables(db)
	results := make(chan tableResult, len(tables))
	var wg sync.WaitGroup

	for _, table := range tables {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			rows, err := adapter.GetTableData(ctx, name)
			results <- tableResult{name, rows, err}
		}(table)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	ds := dataset.Dataset{}
	for result := range results {
		if result.err != nil {
			color.Yellow("⚠️  Skipping %s.%s: %v", db, result.name, result.err)
			continue
		}
		table, _ := c.Table(db, result.name)
		ds[result.name] = toRecords(c, table, result.rows)
	}
	return ds, nil
}

// toRecords drops the surrogate key of tables without an entity and sorts
// identity tables by identifier.
func toRecords(c *catalog.Catalog, table *catalog.Table, rows []map[string]any) []dataset.Record {
	records := make([]dataset.Record, len(rows))
	for i, row := range rows {
		rec := dataset.Record(row)
		if table.Entity == "" {
			delete(rec, "id")
		}
		records[i] = rec
	}

	if table.Entity != "" {
		col := c.IDColumn(table.Entity)
		sort.SliceStable(records, func(i, j int) bool {
			return dataset.ValueString(records[i][col]) < dataset.ValueString(records[j][col])
		})
	}
	return records
}

func exportToCSV(data map[string]dataset.Dataset, exportPath string) ([]string, error) {
	var written []string
	for db, ds := range data {
		dirPath := filepath.Join(exportPath, db)
		if err := os.MkdirAll(dirPath, 0755); err != nil {
			return written, fmt.Errorf("failed to create CSV directory: %w", err)
		}

		for _, tableName := range ds.Tables() {
			records := ds[tableName]
			if len(records) == 0 {
				continue
			}

			filePath := filepath.Join(dirPath, tableName+".csv")
			if err := writeCSV(filePath, records); err != nil {
				return written, fmt.Errorf("failed to write CSV for %s.%s: %w", db, tableName, err)
			}
			written = append(written, filePath)
		}
	}
	sort.Strings(written)
	return written, nil
}

func writeCSV(path string, records []dataset.Record) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	headers := dataset.Columns(records)
	if err := writer.Write(headers); err != nil {
		return err
	}

	for _, rec := range records {
		values := make([]string, len(headers))
		for i, header := range headers {
			values[i] = dataset.ValueString(rec[header])
		}
		if err := writer.Write(values); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
