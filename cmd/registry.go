package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/Rana718/plantdata/internal/loader"
	"github.com/Rana718/plantdata/internal/registry"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var registryRebuild bool

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect the identifier registry",
}

var registryDumpCmd = &cobra.Command{
	Use:   "dump [entity]",
	Short: "Print registered identifier counts, or every identifier of one entity",
	Long: `Print the registry saved by the last generate or load run. With an
entity argument every identifier of that entity is listed. --rebuild reads
the data files instead of the saved snapshot and refreshes it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, c, err := setup()
		if err != nil {
			return err
		}

		var snap *registry.Snapshot
		if registryRebuild {
			opts, err := loader.OptionsFromConfig(cfg)
			if err != nil {
				return err
			}
			l := loader.New(c, opts, nil)
			data, err := l.ReadSources()
			if err != nil {
				return err
			}
			if snap, err = l.BuildRegistry(data); err != nil {
				return err
			}
			if err := snap.Save(cfg.SnapshotPath); err != nil {
				return fmt.Errorf("failed to save registry snapshot: %w", err)
			}
		} else {
			snap, err = registry.LoadSnapshot(cfg.SnapshotPath, c.Formats(), registry.Quiet())
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("no snapshot at %s, run generate or load first (or use --rebuild)", cfg.SnapshotPath)
				}
				return err
			}
		}

		if len(args) == 1 {
			return printIdentifiers(snap, registry.EntityType(args[0]))
		}

		color.Cyan("📇 %d identifiers across %d entity types", snap.Total(), len(snap.Types()))
		for _, t := range snap.Types() {
			format, _ := snap.Format(t)
			color.White("   %-20s %-6s %d", t, format.Prefix, snap.Count(t))
		}
		return nil
	},
}

func printIdentifiers(snap *registry.Snapshot, t registry.EntityType) error {
	ids, err := snap.Registered(t)
	if err != nil {
		return err
	}
	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	color.Cyan("📇 %s: %d identifiers", t, len(sorted))
	for _, id := range sorted {
		fmt.Println(id)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(registryCmd)
	registryCmd.AddCommand(registryDumpCmd)

	registryDumpCmd.Flags().BoolVar(&registryRebuild, "rebuild", false, "Rebuild the registry from the data files")
}
