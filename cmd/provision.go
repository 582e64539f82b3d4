package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Rana718/plantdata/internal/database"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Create the module databases",
	Long: `Create one database per catalog module (manufacturing, erp, wms, hr,
maintenance) on the server named by the database URL. Existing databases
are left untouched. For SQLite the database files are created in the
directory the URL points at.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, c, err := setup()
		if err != nil {
			return err
		}

		ctx := context.Background()

		if !cfg.IsPostgres() && cfg.Database.Provider != "mysql" {
			for _, db := range c.DatabaseNames() {
				path, err := cfg.DatabaseURL(db)
				if err != nil {
					return err
				}
				if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
					return fmt.Errorf("failed to create directory for %s: %w", path, err)
				}
				adapter := database.NewAdapter(cfg.Database.Provider)
				if err := adapter.Connect(ctx, path); err != nil {
					return fmt.Errorf("failed to create %s: %w", db, err)
				}
				adapter.Close()
				color.Green("✅ %s ready at %s", db, path)
			}
			return nil
		}

		adminURL, err := cfg.AdminURL()
		if err != nil {
			return err
		}

		adapter := database.NewAdapter(cfg.Database.Provider)
		if err := adapter.Connect(ctx, adminURL); err != nil {
			return fmt.Errorf("failed to connect to database server: %w", err)
		}
		defer adapter.Close()

		created := 0
		for _, db := range c.DatabaseNames() {
			ok, err := adapter.CreateDatabase(ctx, db)
			if err != nil {
				return err
			}
			if ok {
				created++
				color.Green("✅ Created database %s", db)
			} else {
				color.Yellow("⏭️  Database %s already exists", db)
			}
		}

		color.Cyan("📦 %d databases created, %d already present", created, len(c.DatabaseNames())-created)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(provisionCmd)
}
