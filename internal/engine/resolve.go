package engine

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/actionlock/actionlock/internal/github"
	"github.com/actionlock/actionlock/internal/lock"
	"github.com/actionlock/actionlock/internal/reference"
)

// DefaultMaxDepth is the hard ceiling on dependency recursion. Generous for
// real dependency chains, fatal for pathological or malicious ones.
const DefaultMaxDepth = 10

// ResolveEngine builds a lockfile from a set of top-level references by
// recursively resolving each one and the dependencies its manifest declares.
type ResolveEngine struct {
	Client   github.Client
	MaxDepth int // 0 means DefaultMaxDepth
}

// Resolve resolves all references depth-first and returns the completed
// lockfile. Any unresolvable reference or a max-depth overflow aborts the
// whole run; best-effort failures (integrity hashes, unreadable manifests)
// are returned as warnings.
func (e *ResolveEngine) Resolve(ctx context.Context, refs []*reference.Reference) (*GenerateResult, error) {
	maxDepth := e.MaxDepth
	if maxDepth == 0 {
		maxDepth = DefaultMaxDepth
	}

	run := &resolveRun{
		client:      e.Client,
		maxDepth:    maxDepth,
		resolutions: make(map[string]*resolution),
		lf:          lock.New(),
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, ref := range refs {
		ref := ref
		g.Go(func() error {
			return run.resolveOne(gctx, ref, 0)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &GenerateResult{Lockfile: run.lf, Warnings: run.warnings}, nil
}

// resolution tracks one declaration's resolve. The pinned channel closes as
// soon as resolvedID and integrity are known — before any recursion into the
// declaration's own dependencies — so a parent waiting on it can never form a
// cyclic wait, even when declarations cycle across concurrent branches.
type resolution struct {
	pinned     chan struct{}
	resolvedID string
	integrity  string
	ok         bool // false when the resolve failed and the run is aborting
}

// resolveRun is the mutable state of one Resolve call. The resolutions map
// and the lockfile are shared across concurrently resolving branches, so
// every access goes through mu; the first-visit check-and-insert in
// particular must be a single atomic step or two branches could resolve the
// same declaration.
type resolveRun struct {
	client   github.Client
	maxDepth int

	mu          sync.Mutex
	resolutions map[string]*resolution // keyed by raw declaration
	lf          *lock.Lockfile
	warnings    []string
}

func (r *resolveRun) resolveOne(ctx context.Context, ref *reference.Reference, depth int) error {
	if depth > r.maxDepth {
		return fmt.Errorf("max dependency depth %d exceeded at %s", r.maxDepth, ref.Raw)
	}

	r.mu.Lock()
	if _, claimed := r.resolutions[ref.Raw]; claimed {
		r.mu.Unlock()
		return nil
	}
	res := &resolution{pinned: make(chan struct{})}
	r.resolutions[ref.Raw] = res
	r.mu.Unlock()

	// Ref resolution and the integrity hash run concurrently; both must
	// complete before the manifest fetch, which needs the resolved SHA.
	var sha, integrity string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		resolved, err := r.client.ResolveRef(gctx, ref.Owner, ref.Repo, ref.Ref)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", ref.Raw, err)
		}
		sha = resolved
		return nil
	})
	g.Go(func() error {
		hash, err := r.client.GetIntegrityHash(gctx, ref.Owner, ref.Repo, ref.Ref)
		if err != nil {
			// Best-effort enrichment: record empty and keep going.
			r.warnf("integrity hash for %s: %v", ref.Raw, err)
			return nil
		}
		integrity = hash
		return nil
	})
	if err := g.Wait(); err != nil {
		close(res.pinned)
		return err
	}
	res.resolvedID, res.integrity, res.ok = sha, integrity, true
	close(res.pinned)

	manifest, err := r.client.GetManifest(ctx, ref.Owner, ref.Repo, sha, ref.Path)
	if err != nil {
		// An unreadable manifest means zero transitive dependencies.
		r.warnf("manifest for %s: %v", ref.Raw, err)
		manifest = nil
	}

	version := lock.LockedVersion{
		Version:      ref.Ref,
		ResolvedID:   sha,
		Integrity:    integrity,
		Dependencies: []lock.LockedDependency{},
	}

	if manifest != nil {
		deps, warns := manifest.References()
		r.warnAll(warns)

		dg, dctx := errgroup.WithContext(ctx)
		for _, dep := range deps {
			dep := dep
			dg.Go(func() error {
				return r.resolveOne(dctx, dep, depth+1)
			})
		}
		if err := dg.Wait(); err != nil {
			return err
		}

		// Copy each dependency's pinned state into an edge. The declaration
		// may have been claimed by a concurrent branch (a diamond: two
		// parents declaring the same child), so wait for its pinned signal
		// rather than trusting our own recursion to have resolved it.
		for _, dep := range deps {
			r.mu.Lock()
			depRes := r.resolutions[dep.Raw]
			r.mu.Unlock()
			if depRes == nil {
				continue
			}
			select {
			case <-depRes.pinned:
			case <-ctx.Done():
				return ctx.Err()
			}
			if !depRes.ok {
				continue
			}
			version.Dependencies = append(version.Dependencies, lock.LockedDependency{
				Declaration: dep.Raw,
				ResolvedID:  depRes.resolvedID,
				Integrity:   depRes.integrity,
			})
		}
	}

	r.mu.Lock()
	r.lf.Append(ref.FullName(), version)
	r.mu.Unlock()

	return nil
}

func (r *resolveRun) warnf(format string, args ...any) {
	r.mu.Lock()
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
	r.mu.Unlock()
}

func (r *resolveRun) warnAll(warns []string) {
	if len(warns) == 0 {
		return
	}
	r.mu.Lock()
	r.warnings = append(r.warnings, warns...)
	r.mu.Unlock()
}
