package engine

import (
	"github.com/actionlock/actionlock/internal/lock"
	"github.com/actionlock/actionlock/internal/workflow"
)

// VerifyEngine diffs current workflow declarations against a lockfile.
type VerifyEngine struct{}

// Verify classifies every discrepancy between what the workflows declare and
// what the lockfile pins. New entries are declared (name, version) pairs the
// lockfile does not contain. Removed entries are locked top-level pairs no
// longer declared anywhere — entries reachable through another entry's
// dependency edges are transitive and deliberately never reported, since
// they disappear with their parent. Returns the result plus any declaration
// parse warnings.
func (e *VerifyEngine) Verify(workflows []workflow.Workflow, lf *lock.Lockfile) (*VerifyResult, []string) {
	refs, warnings := workflow.Extract(workflows)
	result := &VerifyResult{}

	// Current state: the set of declared (name, version) pairs. A name may
	// carry several simultaneously-declared versions.
	current := make(map[lock.Key]bool)
	for _, ref := range refs {
		key := lock.Key{Name: ref.FullName(), Version: ref.Ref}
		if current[key] {
			continue
		}
		current[key] = true

		if _, ok := lf.FindVersion(key.Name, key.Version); !ok {
			result.New = append(result.New, Discrepancy{Name: key.Name, Version: key.Version})
		}
	}

	for _, key := range lf.TopLevel() {
		if current[key] {
			continue
		}
		d := Discrepancy{Name: key.Name, Version: key.Version}
		if v, ok := lf.FindVersion(key.Name, key.Version); ok {
			d.ResolvedID = v.ResolvedID
		}
		result.Removed = append(result.Removed, d)
	}

	return result, warnings
}
