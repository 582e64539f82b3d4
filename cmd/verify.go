package cmd

import (
	"context"
	"fmt"

	"github.com/Rana718/plantdata/internal/loader"
	"github.com/spf13/cobra"
)

var verifyDatabases []string

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Compare database row counts with the JSON data",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, c, err := setup()
		if err != nil {
			return err
		}

		opts, err := loader.OptionsFromConfig(cfg)
		if err != nil {
			return err
		}
		opts.Databases = verifyDatabases

		report, err := loader.New(c, opts, loader.ConfigConnector(cfg)).Verify(context.Background())
		if err != nil {
			return err
		}
		if n := len(report.Mismatches()); n > 0 {
			return fmt.Errorf("%d tables do not match", n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringSliceVar(&verifyDatabases, "db", nil, "Only verify these databases")
}
