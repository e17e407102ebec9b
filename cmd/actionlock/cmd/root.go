package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build-time variables set via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags.
var (
	workflowsDir string
	lockfilePath string
	apiToken     string
	concurrency  int64
	verbose      bool
	quiet        bool
)

var rootCmd = &cobra.Command{
	Use:   "actionlock",
	Short: "Pin CI workflow actions to immutable commits via a lockfile",
	Long: `actionlock generates and verifies a lockfile for third-party workflow
actions. It resolves every declared action reference (tag or branch) to an
immutable commit SHA plus a content hash of its source archive, records the
transitive dependencies each action declares, and detects drift between the
workflows and the locked snapshot.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("actionlock %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
		fmt.Printf("  schema:  v1\n")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&workflowsDir, "workflows", ".github/workflows", "path to the workflows directory")
	rootCmd.PersistentFlags().StringVar(&lockfilePath, "lockfile", "actions-lock.json", "path to the lockfile")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", os.Getenv("GITHUB_TOKEN"), "API token (defaults to $GITHUB_TOKEN)")
	rootCmd.PersistentFlags().Int64Var(&concurrency, "concurrency", 10, "maximum simultaneous API requests")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "detailed output")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "minimal output (errors only)")

	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
