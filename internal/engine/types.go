package engine

import (
	"fmt"

	"github.com/actionlock/actionlock/internal/lock"
)

// Discrepancy is one lockfile/workflow mismatch: a (name, version) pair
// declared but not locked, or locked at top level but no longer declared.
type Discrepancy struct {
	Name       string
	Version    string
	ResolvedID string // set for removed entries, for human display
}

func (d Discrepancy) String() string {
	return d.Name + "@" + d.Version
}

// GenerateResult holds the outcome of a resolve run.
type GenerateResult struct {
	Lockfile *lock.Lockfile
	Warnings []string
}

// VerifyResult is the diff between current workflow declarations and the
// lockfile. Changed is reserved: in the multi-version model a version bump
// surfaces as a New entry plus, when the old version was top-level and is no
// longer declared, a Removed entry.
type VerifyResult struct {
	New     []Discrepancy
	Changed []Discrepancy
	Removed []Discrepancy
}

// IsConsistent reports whether no discrepancies were found.
func (r *VerifyResult) IsConsistent() bool {
	return len(r.New) == 0 && len(r.Changed) == 0 && len(r.Removed) == 0
}

// DriftError signals that verification found drift. It is an expected
// outcome, distinguished from operational failures by the exit-code mapping.
type DriftError struct {
	NewCount     int
	RemovedCount int
}

func (e *DriftError) Error() string {
	return fmt.Sprintf("lockfile is out of date: %d new, %d removed", e.NewCount, e.RemovedCount)
}

// ListEntry is one top-level lockfile entry with its dependency edges.
type ListEntry struct {
	Name         string
	Version      string
	ResolvedID   string
	Integrity    string
	Dependencies []lock.LockedDependency
}

// ListResult is the rendered dependency tree of a lockfile.
type ListResult struct {
	TopLevel       []ListEntry
	TransitiveOnly int // locked versions reachable only via dependency edges
}
