package cmd

import (
	"github.com/actionlock/actionlock/internal/engine"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the locked dependency tree",
	Long: `Renders the lockfile's dependency tree: every top-level entry with its
pinned commit, followed by the dependencies it pulled in.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		lf, err := loadLockfile()
		if err != nil {
			return err
		}

		eng := &engine.ListEngine{}
		result := eng.List(lf)

		if len(result.TopLevel) == 0 {
			info("Lockfile has no top-level entries.")
			return nil
		}

		for _, entry := range result.TopLevel {
			info("%s@%s (%s)", entry.Name, entry.Version, shortSHA(entry.ResolvedID))
			detail("integrity: %s", entry.Integrity)
			for _, dep := range entry.Dependencies {
				info("  └─ %s (%s)", dep.Declaration, shortSHA(dep.ResolvedID))
			}
		}
		if result.TransitiveOnly > 0 {
			info("\n%d transitive version(s) pinned via the entries above.", result.TransitiveOnly)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
