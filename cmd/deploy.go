package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Rana718/plantdata/internal/loader"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var deployDatabases []string

// deployCmd represents the deploy command
var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Apply the schema files to every module database",
	Long: `Apply the .sql files found in schema_dir/<database> to each module
database, in file name order.

This command will:
1. Connect to each module database
2. Execute every statement of every schema file
3. Stop at the first failing statement`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, c, err := setup()
		if err != nil {
			return err
		}

		dbs := deployDatabases
		if len(dbs) == 0 {
			dbs = c.DatabaseNames()
		}

		ctx := context.Background()
		connect := loader.ConfigConnector(cfg)

		for _, db := range dbs {
			files, err := cfg.GetSchemaFiles(db)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				color.Yellow("⚠️  No schema files for %s", db)
				continue
			}

			adapter, err := connect(ctx, db)
			if err != nil {
				return fmt.Errorf("failed to connect to %s: %w", db, err)
			}

			for _, file := range files {
				script, err := os.ReadFile(file)
				if err != nil {
					adapter.Close()
					return fmt.Errorf("failed to read %s: %w", file, err)
				}
				n, err := adapter.ExecuteScript(ctx, string(script))
				if err != nil {
					adapter.Close()
					return fmt.Errorf("%s: %w", file, err)
				}
				color.Green("✅ %s: %s (%d statements)", db, filepath.Base(file), n)
			}
			adapter.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deployCmd)

	deployCmd.Flags().StringSliceVar(&deployDatabases, "db", nil, "Only deploy these databases")
}
