package database

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// URLFor rewrites a server connection string so it points at database name.
// For SQLite the base is a directory and each database is a file in it.
func URLFor(provider, base, name string) (string, error) {
	switch provider {
	case "postgresql", "postgres":
		u, err := url.Parse(base)
		if err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			return "", fmt.Errorf("expected a postgres:// URL, got %q", base)
		}
		u.Path = "/" + name
		return u.String(), nil
	case "mysql":
		cfg, err := mysql.ParseDSN(base)
		if err != nil {
			return "", fmt.Errorf("failed to parse MySQL DSN: %w", err)
		}
		cfg.DBName = name
		return cfg.FormatDSN(), nil
	case "sqlite", "sqlite3":
		dir := strings.TrimPrefix(strings.TrimPrefix(base, "sqlite3://"), "sqlite://")
		if dir == "" {
			dir = "."
		}
		return filepath.Join(dir, name+".db"), nil
	default:
		return "", fmt.Errorf("unsupported database provider: %s", provider)
	}
}
