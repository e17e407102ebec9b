package lock

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/actionlock/actionlock/internal/reference"
)

// Load reads and validates a lockfile.
func Load(path string) (*Lockfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading lockfile %s: %w", path, err)
	}

	var lf Lockfile
	if err := json.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("parsing lockfile %s: %w", path, err)
	}

	if errs := Validate(&lf); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	return &lf, nil
}

// Save writes a lockfile atomically using a temp file and rename. The file is
// encoded with 2-space indentation and a trailing newline so that
// version-controlled diffs stay stable.
func Save(path string, lf *Lockfile) error {
	data, err := json.MarshalIndent(lf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling lockfile: %w", err)
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing temp lockfile %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("renaming temp lockfile to %s: %w", path, err)
	}

	return nil
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("lockfile validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Validate checks a Lockfile for semantic correctness.
// Returns a list of validation error messages (empty if valid).
func Validate(lf *Lockfile) []string {
	var errs []string

	if lf.SchemaVersion != SchemaVersion {
		errs = append(errs, fmt.Sprintf("unsupported schemaVersion %d — only version %d is supported", lf.SchemaVersion, SchemaVersion))
	}

	for _, name := range lf.SortedNames() {
		versions := make(map[string]bool)
		for i, v := range lf.Entries[name] {
			prefix := fmt.Sprintf("entry '%s'[%d]", name, i)

			if v.Version == "" {
				errs = append(errs, fmt.Sprintf("%s: 'version' is required", prefix))
			} else if versions[v.Version] {
				errs = append(errs, fmt.Sprintf("%s: duplicate version '%s'", prefix, v.Version))
			} else {
				versions[v.Version] = true
			}

			if v.ResolvedID == "" {
				errs = append(errs, fmt.Sprintf("%s: 'resolvedId' is required", prefix))
			} else if !reference.IsCommitSHA(v.ResolvedID) {
				errs = append(errs, fmt.Sprintf("%s: 'resolvedId' is not a 40-character commit SHA", prefix))
			}
		}
	}

	return errs
}
