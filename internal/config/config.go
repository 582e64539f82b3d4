package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Rana718/plantdata/internal/database"
	"github.com/spf13/viper"
)

type Config struct {
	DataDir      string     `json:"data_dir" mapstructure:"data_dir"`
	SchemaDir    string     `json:"schema_dir" mapstructure:"schema_dir"`
	MasterFile   string     `json:"master_file" mapstructure:"master_file"`
	CatalogPath  string     `json:"catalog_path" mapstructure:"catalog_path"` // empty uses the embedded catalog
	SnapshotPath string     `json:"snapshot_path" mapstructure:"snapshot_path"`
	Database     Database   `json:"database" mapstructure:"database"`
	Load         LoadConfig `json:"load" mapstructure:"load"`
	Generate     Generate   `json:"generate" mapstructure:"generate"`
}

type Database struct {
	Provider string `json:"provider" mapstructure:"provider"`
	URLEnv   string `json:"url_env" mapstructure:"url_env"`
	AdminDB  string `json:"admin_db" mapstructure:"admin_db"`
}

type LoadConfig struct {
	Batch            int    `json:"batch" mapstructure:"batch"`
	Truncate         bool   `json:"truncate" mapstructure:"truncate"`
	Repair           string `json:"repair" mapstructure:"repair"`
	FailOnViolations bool   `json:"fail_on_violations" mapstructure:"fail_on_violations"`
	BulkMode         string `json:"bulk_mode" mapstructure:"bulk_mode"`
	NoTransaction    bool   `json:"no_transaction" mapstructure:"no_transaction"`
}

type Generate struct {
	Seed   int64          `json:"seed" mapstructure:"seed"`
	Count  int            `json:"count" mapstructure:"count"`
	Tables map[string]int `json:"tables,omitempty" mapstructure:"tables"`
}

func Load() (*Config, error) {
	var cfg Config

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Set defaults
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	if cfg.SchemaDir == "" {
		cfg.SchemaDir = "db/schema"
	}
	if cfg.MasterFile == "" {
		cfg.MasterFile = "master_data.json"
	}
	if cfg.SnapshotPath == "" {
		cfg.SnapshotPath = filepath.Join(cfg.DataDir, "registry_snapshot.json")
	}
	if cfg.Database.Provider == "" {
		cfg.Database.Provider = "postgresql"
	}
	if cfg.Database.URLEnv == "" {
		cfg.Database.URLEnv = "DATABASE_URL"
	}
	if cfg.Database.AdminDB == "" {
		cfg.Database.AdminDB = "postgres"
	}
	if cfg.Load.Batch <= 0 {
		cfg.Load.Batch = 500
	}
	if cfg.Load.Repair == "" {
		cfg.Load.Repair = "random"
	}
	if cfg.Load.BulkMode == "" {
		cfg.Load.BulkMode = "insert"
	}
	if cfg.Generate.Count <= 0 {
		cfg.Generate.Count = 10
	}

	return &cfg, nil
}

func (c *Config) GetDatabaseURL() (string, error) {
	dbURL := os.Getenv(c.Database.URLEnv)
	if dbURL == "" {
		return "", fmt.Errorf("database URL not found in environment variable %s", c.Database.URLEnv)
	}
	return dbURL, nil
}

// DatabaseURL returns the connection string for one module database.
func (c *Config) DatabaseURL(name string) (string, error) {
	base, err := c.GetDatabaseURL()
	if err != nil {
		return "", err
	}
	return database.URLFor(c.Database.Provider, base, name)
}

// AdminURL points at the maintenance database used for CREATE DATABASE.
func (c *Config) AdminURL() (string, error) {
	base, err := c.GetDatabaseURL()
	if err != nil {
		return "", err
	}
	switch c.Database.Provider {
	case "postgresql", "postgres":
		return database.URLFor(c.Database.Provider, base, c.Database.AdminDB)
	case "mysql":
		return database.URLFor(c.Database.Provider, base, "")
	default:
		return base, nil
	}
}

func (c *Config) Validate() error {
	supportedProviders := []string{"postgresql", "postgres", "mysql", "sqlite", "sqlite3"}
	if !contains(supportedProviders, c.Database.Provider) {
		return fmt.Errorf("unsupported database provider: %s. Supported providers: %v", c.Database.Provider, supportedProviders)
	}

	if !contains([]string{"random", "strict"}, c.Load.Repair) {
		return fmt.Errorf("unsupported repair policy: %s. Supported policies: [random strict]", c.Load.Repair)
	}

	if !contains([]string{"insert", "copy"}, c.Load.BulkMode) {
		return fmt.Errorf("unsupported bulk mode: %s. Supported modes: [insert copy]", c.Load.BulkMode)
	}
	if c.Load.BulkMode == "copy" && !c.IsPostgres() {
		return fmt.Errorf("bulk_mode copy requires postgresql, got %s", c.Database.Provider)
	}

	if c.DataDir == "" {
		return fmt.Errorf("data_dir cannot be empty")
	}

	for table, n := range c.Generate.Tables {
		if n < 0 {
			return fmt.Errorf("generate.tables.%s cannot be negative", table)
		}
	}

	return nil
}

func (c *Config) IsPostgres() bool {
	return c.Database.Provider == "postgresql" || c.Database.Provider == "postgres"
}

// GetSchemaFiles returns the sorted .sql files for one module database,
// read from schema_dir/<database>.
func (c *Config) GetSchemaFiles(db string) ([]string, error) {
	dir := filepath.Join(c.SchemaDir, db)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}

	// Files are typically named like: 001_factories.sql, 002_machines.sql
	sort.Strings(files)
	return files, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
