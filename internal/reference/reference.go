package reference

import (
	"fmt"
	"strings"
)

// Reference is a parsed action declaration of the form owner/repo[/path]@ref.
type Reference struct {
	Owner string
	Repo  string
	Path  string // optional sub-path within the repository
	Ref   string // tag, branch, or 40-hex commit SHA
	Raw   string // original declaration string, used as dedup key
}

// Skip reports whether a declaration is intentionally unsupported and must be
// filtered out before parsing: local path actions and container images.
// Skipped declarations are not malformed and produce no warning.
func Skip(raw string) bool {
	return strings.HasPrefix(raw, "./") || strings.HasPrefix(raw, "docker://")
}

// Parse parses a raw action declaration. The ref is everything after the last
// '@' and may itself contain '/' (branch names like feature/x). Parse errors
// are warnings to the caller, never fatal to a run.
func Parse(raw string) (*Reference, error) {
	at := strings.LastIndex(raw, "@")
	if at < 0 {
		return nil, fmt.Errorf("invalid action reference '%s': missing @ref", raw)
	}

	name := raw[:at]
	ref := raw[at+1:]
	if ref == "" {
		return nil, fmt.Errorf("invalid action reference '%s': empty ref", raw)
	}

	segments := strings.Split(name, "/")
	if len(segments) < 2 {
		return nil, fmt.Errorf("invalid action reference '%s': expected owner/repo[/path]@ref", raw)
	}

	owner, repo := segments[0], segments[1]
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("invalid action reference '%s': empty owner or repo", raw)
	}
	if strings.Contains(owner, "@") || strings.Contains(repo, "@") {
		return nil, fmt.Errorf("invalid action reference '%s': '@' in owner or repo", raw)
	}

	return &Reference{
		Owner: owner,
		Repo:  repo,
		Path:  strings.Join(segments[2:], "/"),
		Ref:   ref,
		Raw:   raw,
	}, nil
}

// FullName returns owner/repo[/path] — the lockfile entry key and the
// identity used for deduplication across a run.
func (r *Reference) FullName() string {
	if r.Path == "" {
		return r.Owner + "/" + r.Repo
	}
	return r.Owner + "/" + r.Repo + "/" + r.Path
}

// RepoFullName returns owner/repo only, for cases where just the source
// repository matters.
func (r *Reference) RepoFullName() string {
	return r.Owner + "/" + r.Repo
}

// IsCommitSHA reports whether ref is already a 40-character hex commit
// identifier.
func IsCommitSHA(ref string) bool {
	if len(ref) != 40 {
		return false
	}
	for _, c := range ref {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
