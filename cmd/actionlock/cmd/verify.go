package cmd

import (
	"github.com/actionlock/actionlock/internal/engine"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the lockfile against the current workflows",
	Long: `Diffs the action references currently declared by the workflows against
the lockfile. Reports references that are not locked and top-level locked
entries no longer declared anywhere. Entries only reachable through another
entry's dependencies are transitive and never reported as removed.
Exit 0 when consistent, 1 on drift.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		workflows, err := loadWorkflows()
		if err != nil {
			return err
		}

		lf, err := loadLockfile()
		if err != nil {
			return err
		}

		eng := &engine.VerifyEngine{}
		result, warnings := eng.Verify(workflows, lf)
		printWarnings(warnings)

		for _, d := range result.New {
			info("  + %-40s not locked", d.String())
		}
		for _, d := range result.Removed {
			info("  - %-40s locked at %s but no longer declared", d.String(), shortSHA(d.ResolvedID))
		}

		if !result.IsConsistent() {
			return &engine.DriftError{
				NewCount:     len(result.New),
				RemovedCount: len(result.Removed),
			}
		}

		info("Lockfile matches the declared workflows.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
