package github

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"golang.org/x/sync/semaphore"
)

const (
	shaCommit = "8f4b7f84864484a7bf31766abe9204da3cbe65b3"
	shaTagObj = "1111111111111111111111111111111111111111"
)

// newTestClient returns a RESTClient pointed at an httptest server routing
// API paths to canned responses.
func newTestClient(t *testing.T, handler http.HandlerFunc) *RESTClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewRESTClient("", 4)
	c.BaseURL = srv.URL
	return c
}

func TestResolveRefCommitSHAPassthrough(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected API call %s", r.URL.Path)
	})

	sha, err := c.ResolveRef(context.Background(), "actions", "checkout", shaCommit)
	if err != nil {
		t.Fatalf("ResolveRef: %v", err)
	}
	if sha != shaCommit {
		t.Errorf("sha = %q, want passthrough", sha)
	}
}

func TestResolveRefLightweightTag(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/actions/checkout/git/ref/tags/v4" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"object":{"sha":"` + shaCommit + `","type":"commit"}}`))
	})

	sha, err := c.ResolveRef(context.Background(), "actions", "checkout", "v4")
	if err != nil {
		t.Fatalf("ResolveRef: %v", err)
	}
	if sha != shaCommit {
		t.Errorf("sha = %q, want %q", sha, shaCommit)
	}
}

func TestResolveRefAnnotatedTag(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/actions/checkout/git/ref/tags/v4":
			w.Write([]byte(`{"object":{"sha":"` + shaTagObj + `","type":"tag"}}`))
		case "/repos/actions/checkout/git/tags/" + shaTagObj:
			w.Write([]byte(`{"object":{"sha":"` + shaCommit + `","type":"commit"}}`))
		default:
			http.NotFound(w, r)
		}
	})

	sha, err := c.ResolveRef(context.Background(), "actions", "checkout", "v4")
	if err != nil {
		t.Fatalf("ResolveRef: %v", err)
	}
	if sha != shaCommit {
		t.Errorf("sha = %q, want dereferenced commit %q", sha, shaCommit)
	}
}

func TestResolveRefBranchFallback(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/owner/repo/git/ref/heads/main":
			w.Write([]byte(`{"object":{"sha":"` + shaCommit + `","type":"commit"}}`))
		default:
			http.NotFound(w, r)
		}
	})

	sha, err := c.ResolveRef(context.Background(), "owner", "repo", "main")
	if err != nil {
		t.Fatalf("ResolveRef: %v", err)
	}
	if sha != shaCommit {
		t.Errorf("sha = %q", sha)
	}
}

func TestResolveRefNotResolvable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	if _, err := c.ResolveRef(context.Background(), "owner", "repo", "ghost"); err == nil {
		t.Fatal("expected error after all fallbacks")
	}
}

func TestResolveRefRateLimitShortCircuits(t *testing.T) {
	var calls int
	var mu sync.Mutex
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := c.ResolveRef(context.Background(), "owner", "repo", "v1")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d — rate limiting must not trigger the branch fallback", calls)
	}
}

func TestGetManifestTriesConventionalNames(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/owner/composite/contents/action.yaml":
			w.Write([]byte("runs:\n  using: composite\n  steps:\n    - uses: actions/checkout@v4\n"))
		default:
			http.NotFound(w, r)
		}
	})

	m, err := c.GetManifest(context.Background(), "owner", "composite", shaCommit, "")
	if err != nil {
		t.Fatalf("GetManifest: %v", err)
	}
	if m == nil {
		t.Fatal("manifest = nil, want composite manifest from action.yaml fallback")
	}
	refs, _ := m.References()
	if len(refs) != 1 || refs[0].Raw != "actions/checkout@v4" {
		t.Errorf("refs = %+v", refs)
	}
}

func TestGetManifestWorkflowPathFetchedDirectly(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/owner/shared/contents/.github/workflows/ci.yml" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("jobs:\n  build:\n    steps:\n      - uses: actions/cache@v3\n"))
	})

	m, err := c.GetManifest(context.Background(), "owner", "shared", shaCommit, ".github/workflows/ci.yml")
	if err != nil {
		t.Fatalf("GetManifest: %v", err)
	}
	if m == nil {
		t.Fatal("manifest = nil")
	}
}

func TestGetManifestAbsent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	m, err := c.GetManifest(context.Background(), "owner", "plain", shaCommit, "")
	if err != nil {
		t.Fatalf("GetManifest: absent manifest must not be an error, got %v", err)
	}
	if m != nil {
		t.Errorf("manifest = %+v, want nil", m)
	}
}

func TestGetManifestUnreadable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{{{not yaml"))
	})

	m, err := c.GetManifest(context.Background(), "owner", "broken", shaCommit, "")
	if err != nil {
		t.Fatalf("GetManifest: %v", err)
	}
	if m != nil {
		t.Errorf("manifest = %+v, want nil for unreadable file", m)
	}
}

func TestGetIntegrityHash(t *testing.T) {
	archive := []byte("tarball bytes")
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/owner/repo/tarball/v1" {
			http.NotFound(w, r)
			return
		}
		w.Write(archive)
	})

	got, err := c.GetIntegrityHash(context.Background(), "owner", "repo", "v1")
	if err != nil {
		t.Fatalf("GetIntegrityHash: %v", err)
	}
	sum := sha256.Sum256(archive)
	want := "sha256-" + hex.EncodeToString(sum[:])
	if got != want {
		t.Errorf("hash = %q, want %q", got, want)
	}
}

func TestGetIntegrityHashFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := c.GetIntegrityHash(context.Background(), "owner", "repo", "v1"); err == nil {
		t.Fatal("expected error")
	}
}

func TestGateReleasedAfterRequests(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"object":{"sha":"` + shaCommit + `","type":"commit"}}`))
	})
	c.gate = semaphore.NewWeighted(1)

	// With a single permit, sequential calls only succeed if each request
	// releases its slot.
	for i := 0; i < 3; i++ {
		if _, err := c.ResolveRef(context.Background(), "owner", "repo", "v1"); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
}
