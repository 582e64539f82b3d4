package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/Rana718/plantdata/internal/export"
	"github.com/Rana718/plantdata/internal/loader"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	exportFormat    string
	exportOut       string
	exportDatabases []string
)

var exportCmd = &cobra.Command{
	Use:     "export",
	Aliases: []string{"pull"},
	Short:   "Export the module databases back into data files",
	Long: `Read every catalog table from the module databases and write it out.

Formats:
  json  master_data.json + <database>_data.json, the layout load and validate read
  csv   one <database>/<table>.csv per table

Examples:
  plantdata export
  plantdata export --format csv --out exports/today
  plantdata export --db erp --db wms`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, c, err := setup()
		if err != nil {
			return err
		}

		out := exportOut
		if out == "" {
			out = filepath.Join(cfg.DataDir, "export_"+time.Now().Format("2006-01-02_15-04-05"))
		}

		written, err := export.PerformExport(context.Background(), c, loader.ConfigConnector(cfg), export.Options{
			Dir:        out,
			MasterFile: cfg.MasterFile,
			Format:     exportFormat,
			Databases:  exportDatabases,
		})
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		for _, path := range written {
			color.Green("✅ Wrote %s", path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportFormat, "format", export.FormatJSON, "Output format (json, csv)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output directory (default data_dir/export_<timestamp>)")
	exportCmd.Flags().StringSliceVar(&exportDatabases, "db", nil, "Only export these databases")
}
