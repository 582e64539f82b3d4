package cmd

import (
	"fmt"

	"github.com/Rana718/plantdata/internal/loader"
	"github.com/spf13/cobra"
)

var validateRepair string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the JSON data for broken references without touching a database",
	Long: `Read the data files, build the identifier registry, apply the repair
policy in memory and report every foreign key that is NULL where required
or points at an identifier that does not exist. Files are not modified.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, c, err := setup()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("repair") {
			cfg.Load.Repair = validateRepair
		}

		opts, err := loader.OptionsFromConfig(cfg)
		if err != nil {
			return err
		}

		p, err := loader.New(c, opts, nil).Prepare()
		if err != nil {
			return err
		}
		if len(p.Violations) > 0 {
			return fmt.Errorf("%w: %d", loader.ErrViolations, len(p.Violations))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateRepair, "repair", "random", "Repair policy for null required references (random, strict)")
}
