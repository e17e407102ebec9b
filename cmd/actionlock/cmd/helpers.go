package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/actionlock/actionlock/internal/github"
	"github.com/actionlock/actionlock/internal/lock"
	"github.com/actionlock/actionlock/internal/workflow"
)

// loadWorkflows reads every workflow file from the workflows directory.
func loadWorkflows() ([]workflow.Workflow, error) {
	workflows, err := workflow.LoadDir(workflowsDir)
	if err != nil {
		return nil, err
	}
	if len(workflows) == 0 {
		return nil, fmt.Errorf("no workflow files found in %s", workflowsDir)
	}
	return workflows, nil
}

// loadLockfile reads the lockfile. A missing lockfile is fatal with a
// remediation hint.
func loadLockfile() (*lock.Lockfile, error) {
	lf, err := lock.Load(lockfilePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("no lockfile found at %s — run 'actionlock generate' first", lockfilePath)
	}
	if err != nil {
		return nil, err
	}
	return lf, nil
}

// saveLockfile writes the lockfile atomically.
func saveLockfile(lf *lock.Lockfile) error {
	return lock.Save(lockfilePath, lf)
}

// newClient creates the remote API client with the configured token and
// request gate.
func newClient() *github.RESTClient {
	return github.NewRESTClient(apiToken, concurrency)
}

// shortSHA truncates a commit SHA for display.
func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}

// printWarnings surfaces non-fatal warnings (skipped declarations, failed
// integrity hashes) to stderr.
func printWarnings(warnings []string) {
	for _, w := range warnings {
		errorf("warning: %s", w)
	}
}

// info prints a line unless quiet mode is active.
func info(format string, args ...any) {
	if !quiet {
		fmt.Printf(format+"\n", args...)
	}
}

// detail prints a line only in verbose mode.
func detail(format string, args ...any) {
	if verbose {
		fmt.Printf("  "+format+"\n", args...)
	}
}

// errorf prints an error message to stderr.
func errorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
