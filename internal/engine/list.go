package engine

import (
	"github.com/actionlock/actionlock/internal/lock"
)

// ListEngine renders a lockfile as a dependency tree.
type ListEngine struct{}

// List splits the lockfile into top-level entries (with their dependency
// edges) and a count of versions reachable only transitively.
func (e *ListEngine) List(lf *lock.Lockfile) *ListResult {
	result := &ListResult{}

	total := 0
	for _, versions := range lf.Entries {
		total += len(versions)
	}

	for _, key := range lf.TopLevel() {
		v, ok := lf.FindVersion(key.Name, key.Version)
		if !ok {
			continue
		}
		result.TopLevel = append(result.TopLevel, ListEntry{
			Name:         key.Name,
			Version:      key.Version,
			ResolvedID:   v.ResolvedID,
			Integrity:    v.Integrity,
			Dependencies: v.Dependencies,
		})
	}

	result.TransitiveOnly = total - len(result.TopLevel)
	return result
}
