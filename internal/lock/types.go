package lock

import (
	"sort"
	"time"

	"github.com/actionlock/actionlock/internal/reference"
)

// SchemaVersion is the current lockfile schema version.
const SchemaVersion = 1

// Lockfile is the persisted snapshot of resolved action dependencies.
// Entries maps a logical dependency name (owner/repo[/path]) to the ordered
// list of locked versions; a name may carry several concurrently-declared
// versions (e.g. a matrix using both v3 and v4 of the same action).
type Lockfile struct {
	SchemaVersion int                        `json:"schemaVersion"`
	GeneratedAt   time.Time                  `json:"generatedAt"`
	Entries       map[string][]LockedVersion `json:"entries"`
}

// LockedVersion is one resolved, pinned instance of a dependency.
type LockedVersion struct {
	// Version is the originally declared ref token, preserved for
	// human-readable diffing.
	Version string `json:"version"`

	// ResolvedID is the immutable commit SHA the ref resolved to.
	ResolvedID string `json:"resolvedId"`

	// Integrity is a content hash (sha256-<hex>) of the dependency's source
	// archive at ResolvedID; empty if it could not be computed.
	Integrity string `json:"integrity"`

	// Dependencies are the edges discovered in this version's own manifest.
	Dependencies []LockedDependency `json:"dependencies"`
}

// LockedDependency is an edge to another dependency, recorded at the version
// actually reached during resolution.
type LockedDependency struct {
	Declaration string `json:"declaration"`
	ResolvedID  string `json:"resolvedId"`
	Integrity   string `json:"integrity"`
}

// Key identifies one locked (name, version) pair. A composite type rather
// than a concatenated string, so separators inside names cannot collide.
type Key struct {
	Name    string
	Version string
}

// New creates an empty lockfile stamped with the current time.
func New() *Lockfile {
	return &Lockfile{
		SchemaVersion: SchemaVersion,
		GeneratedAt:   time.Now().UTC(),
		Entries:       make(map[string][]LockedVersion),
	}
}

// Append adds a locked version under name, preserving first-resolution order.
func (lf *Lockfile) Append(name string, v LockedVersion) {
	if lf.Entries == nil {
		lf.Entries = make(map[string][]LockedVersion)
	}
	lf.Entries[name] = append(lf.Entries[name], v)
}

// FindVersion returns the locked version for (name, version), if present.
func (lf *Lockfile) FindVersion(name, version string) (*LockedVersion, bool) {
	for i := range lf.Entries[name] {
		if lf.Entries[name][i].Version == version {
			return &lf.Entries[name][i], true
		}
	}
	return nil, false
}

// SortedNames returns the entry names in lexical order.
func (lf *Lockfile) SortedNames() []string {
	names := make([]string, 0, len(lf.Entries))
	for name := range lf.Entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TransitiveKeys returns the set of (name, version) pairs reachable via any
// locked entry's dependency edges. Edges whose declaration no longer parses
// are skipped.
func (lf *Lockfile) TransitiveKeys() map[Key]bool {
	keys := make(map[Key]bool)
	for _, versions := range lf.Entries {
		for _, v := range versions {
			for _, dep := range v.Dependencies {
				ref, err := reference.Parse(dep.Declaration)
				if err != nil {
					continue
				}
				keys[Key{Name: ref.FullName(), Version: ref.Ref}] = true
			}
		}
	}
	return keys
}

// TopLevel returns the (name, version) pairs not reachable through any
// dependency edge — the entries directly declared by workflows. Sorted by
// name, then lockfile list order, for deterministic output.
func (lf *Lockfile) TopLevel() []Key {
	transitive := lf.TransitiveKeys()

	var top []Key
	for _, name := range lf.SortedNames() {
		for _, v := range lf.Entries[name] {
			key := Key{Name: name, Version: v.Version}
			if !transitive[key] {
				top = append(top, key)
			}
		}
	}
	return top
}
