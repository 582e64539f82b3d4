package cmd

import (
	"context"
	"fmt"

	"github.com/Rana718/plantdata/internal/integrity"
	"github.com/Rana718/plantdata/internal/loader"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	loadDatabases []string
	loadRepair    string
	loadBatch     int
	loadSeed      int64
	loadTruncate  bool
	loadCopy      bool
	loadStrict    bool
	loadNoTx      bool
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Validate the JSON data and load it into the module databases",
	Long: `Load the data files into every module database.

This command will:
1. Read master_data.json and each <database>_data.json
2. Register every identifier and finalize the registry
3. Fill NULL required foreign keys (repair policy)
4. Report remaining violations
5. Insert each database's tables in dependency order in one transaction
6. Record the run in the _plantdata_load_runs table`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, c, err := setup()
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("repair") {
			cfg.Load.Repair = loadRepair
		}
		if flags.Changed("batch") {
			cfg.Load.Batch = loadBatch
		}
		if flags.Changed("truncate") {
			cfg.Load.Truncate = loadTruncate
		}
		if flags.Changed("fail-on-violations") {
			cfg.Load.FailOnViolations = loadStrict
		}
		if flags.Changed("no-transaction") {
			cfg.Load.NoTransaction = loadNoTx
		}
		if loadCopy {
			cfg.Load.BulkMode = "copy"
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		opts, err := loader.OptionsFromConfig(cfg)
		if err != nil {
			return err
		}
		opts.Databases = loadDatabases
		opts.Seed = loadSeed

		if opts.Insert.Truncate {
			force, _ := flags.GetBool("force")
			if !force && !confirm("⚠️  --truncate clears every loaded table first. Continue?") {
				color.Yellow("Aborted")
				return nil
			}
		}

		result, err := loader.New(c, opts, loader.ConfigConnector(cfg)).Load(context.Background())
		if err != nil {
			return err
		}

		if err := result.Snapshot.Save(cfg.SnapshotPath); err != nil {
			color.Yellow("⚠️  Could not save registry snapshot: %v", err)
		}

		if failed := result.Failed(); len(failed) > 0 {
			return fmt.Errorf("%d databases failed to load", len(failed))
		}
		return nil
	},
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	var answer string
	fmt.Scanln(&answer)
	return answer == "y" || answer == "Y" || answer == "yes"
}

func init() {
	rootCmd.AddCommand(loadCmd)

	loadCmd.Flags().StringSliceVar(&loadDatabases, "db", nil, "Only load these databases")
	loadCmd.Flags().StringVar(&loadRepair, "repair", string(integrity.PolicyRandom), "Repair policy for null required references (random, strict)")
	loadCmd.Flags().IntVar(&loadBatch, "batch", 500, "Rows per INSERT statement")
	loadCmd.Flags().Int64Var(&loadSeed, "seed", 0, "Random seed for repairs (0 = time based)")
	loadCmd.Flags().BoolVar(&loadTruncate, "truncate", false, "Clear the tables before inserting")
	loadCmd.Flags().BoolVar(&loadCopy, "copy", false, "Use COPY instead of INSERT (PostgreSQL only)")
	loadCmd.Flags().BoolVar(&loadStrict, "fail-on-violations", false, "Abort before loading when violations remain")
	loadCmd.Flags().BoolVar(&loadNoTx, "no-transaction", false, "Do not wrap each database load in a transaction")
}
