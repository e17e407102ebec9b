package cmd

import (
	"github.com/actionlock/actionlock/internal/engine"
	"github.com/actionlock/actionlock/internal/workflow"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Resolve all workflow actions and write the lockfile",
	Long: `Extracts every action reference declared by the workflows, resolves each
one (and its transitive dependencies) to an immutable commit SHA plus a
content hash of its source archive, and writes the lockfile. The lockfile is
fully replaced; on any fatal resolution error nothing is written.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		workflows, err := loadWorkflows()
		if err != nil {
			return err
		}

		refs, warnings := workflow.Extract(workflows)
		printWarnings(warnings)
		info("Resolving %d action reference(s) from %d workflow(s)...", len(refs), len(workflows))

		eng := &engine.ResolveEngine{Client: newClient()}
		result, err := eng.Resolve(cmd.Context(), refs)
		if err != nil {
			return err
		}
		printWarnings(result.Warnings)

		if err := saveLockfile(result.Lockfile); err != nil {
			return err
		}

		locked := 0
		for _, name := range result.Lockfile.SortedNames() {
			for _, v := range result.Lockfile.Entries[name] {
				locked++
				detail("%s@%s -> %s", name, v.Version, shortSHA(v.ResolvedID))
			}
		}
		info("Locked %d version(s) of %d action(s) to %s", locked, len(result.Lockfile.Entries), lockfilePath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
}
