package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Router tells the loader which database a master-data key belongs to.
type Router interface {
	MasterDatabase(key string) (string, bool)
}

// ReadFile decodes a {table: [record, ...]} JSON document. Numbers are kept
// as json.Number so identifiers and quantities survive unchanged.
func ReadFile(path string) (Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var ds Dataset
	if err := dec.Decode(&ds); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if ds == nil {
		ds = Dataset{}
	}
	for table, records := range ds {
		for i, rec := range records {
			if rec == nil {
				return nil, fmt.Errorf("%s: %s[%d] is null", path, table, i)
			}
		}
	}
	return ds, nil
}

// WriteFile writes the dataset as indented JSON, creating parent directories.
func WriteFile(path string, ds Dataset) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return os.WriteFile(path, data, 0644)
}

// ModuleFile returns the per-database data file name.
func ModuleFile(database string) string {
	return database + "_data.json"
}

// LoadDir reads the master-data file and one module file per database from
// dir and returns the records grouped by database. A missing module file is
// not an error; a missing master file is.
func LoadDir(dir, masterFile string, databases []string, router Router) (map[string]Dataset, error) {
	out := make(map[string]Dataset, len(databases))
	for _, db := range databases {
		out[db] = Dataset{}
	}

	masterPath := filepath.Join(dir, masterFile)
	master, err := ReadFile(masterPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read master data %s: %w", masterPath, err)
	}

	keys := master.Tables()
	var unknown []string
	for _, key := range keys {
		db, ok := router.MasterDatabase(key)
		if !ok {
			unknown = append(unknown, key)
			continue
		}
		if out[db] == nil {
			out[db] = Dataset{}
		}
		out[db][key] = append(out[db][key], master[key]...)
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("master data %s has unknown keys: %v", masterPath, unknown)
	}

	for _, db := range databases {
		path := filepath.Join(dir, ModuleFile(db))
		module, err := ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read module data %s: %w", path, err)
		}
		out[db].Merge(module)
	}

	return out, nil
}
