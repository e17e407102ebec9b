package github

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/sync/semaphore"

	"github.com/actionlock/actionlock/internal/reference"
	"github.com/actionlock/actionlock/internal/workflow"
)

// DefaultBaseURL is the GitHub REST v3 API endpoint.
const DefaultBaseURL = "https://api.github.com"

// DefaultConcurrency is the maximum number of simultaneous API requests.
const DefaultConcurrency = 10

// ErrRateLimited indicates the API refused the request due to rate limiting.
// Callers must propagate it immediately instead of trying further fallbacks.
var ErrRateLimited = errors.New("github: rate limited")

// ErrNotFound indicates the requested object does not exist.
var ErrNotFound = errors.New("github: not found")

// Client is the remote API surface the resolver depends on.
type Client interface {
	// ResolveRef resolves a tag, branch, or commit SHA to a commit SHA.
	ResolveRef(ctx context.Context, owner, repo, ref string) (string, error)

	// GetManifest fetches and parses the dependency's own definition file at
	// the given commit. Returns (nil, nil) when no manifest exists or it
	// cannot be parsed — both mean "no transitive dependencies".
	GetManifest(ctx context.Context, owner, repo, commit, path string) (*workflow.Manifest, error)

	// GetIntegrityHash downloads the source archive for ref and returns its
	// content hash as sha256-<hex>. The archive is requested by the declared
	// ref so the hash can run concurrently with ref resolution; a mutable
	// ref that moves during that window yields a hash for the ref's new
	// target rather than the recorded commit.
	GetIntegrityHash(ctx context.Context, owner, repo, ref string) (string, error)
}

// HTTPClient abstracts HTTP operations for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// RESTClient implements Client against the GitHub REST API. Every outbound
// request passes through a bounded concurrency gate; callers suspend when the
// gate is saturated.
type RESTClient struct {
	BaseURL string
	Token   string
	HTTP    HTTPClient

	gate *semaphore.Weighted
}

// NewRESTClient creates a RESTClient. An empty token disables authentication;
// concurrency <= 0 uses DefaultConcurrency.
func NewRESTClient(token string, concurrency int64) *RESTClient {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &RESTClient{
		BaseURL: DefaultBaseURL,
		Token:   token,
		HTTP:    http.DefaultClient,
		gate:    semaphore.NewWeighted(concurrency),
	}
}

// refObject is the nested object of a git ref or annotated tag response.
type refObject struct {
	SHA  string `json:"sha"`
	Type string `json:"type"`
}

type refResponse struct {
	Object refObject `json:"object"`
}

// ResolveRef returns ref unchanged when it is already a 40-hex commit SHA.
// Otherwise it tries tag resolution (dereferencing annotated tags to their
// target commit), then falls back to branch resolution. Rate limiting
// short-circuits the fallback chain.
func (c *RESTClient) ResolveRef(ctx context.Context, owner, repo, ref string) (string, error) {
	if reference.IsCommitSHA(ref) {
		return ref, nil
	}

	sha, err := c.resolveTag(ctx, owner, repo, ref)
	if err == nil {
		return sha, nil
	}
	if errors.Is(err, ErrRateLimited) {
		return "", err
	}

	sha, branchErr := c.resolveBranch(ctx, owner, repo, ref)
	if branchErr == nil {
		return sha, nil
	}
	if errors.Is(branchErr, ErrRateLimited) {
		return "", branchErr
	}

	return "", fmt.Errorf("resolving %s/%s@%s: not a tag or branch: %w", owner, repo, ref, err)
}

func (c *RESTClient) resolveTag(ctx context.Context, owner, repo, ref string) (string, error) {
	var tag refResponse
	path := fmt.Sprintf("/repos/%s/%s/git/ref/tags/%s", owner, repo, url.PathEscape(ref))
	if err := c.getJSON(ctx, path, &tag); err != nil {
		return "", err
	}

	// A lightweight tag points straight at a commit; an annotated tag points
	// at a tag object that must be dereferenced to its target commit.
	if tag.Object.Type != "tag" {
		return tag.Object.SHA, nil
	}

	var deref refResponse
	path = fmt.Sprintf("/repos/%s/%s/git/tags/%s", owner, repo, tag.Object.SHA)
	if err := c.getJSON(ctx, path, &deref); err != nil {
		return "", fmt.Errorf("dereferencing annotated tag %s: %w", ref, err)
	}
	return deref.Object.SHA, nil
}

func (c *RESTClient) resolveBranch(ctx context.Context, owner, repo, ref string) (string, error) {
	var branch refResponse
	path := fmt.Sprintf("/repos/%s/%s/git/ref/heads/%s", owner, repo, url.PathEscape(ref))
	if err := c.getJSON(ctx, path, &branch); err != nil {
		return "", err
	}
	return branch.Object.SHA, nil
}

// GetManifest tries the conventional manifest filenames under the reference
// path. A path that already names a workflow file is fetched directly.
func (c *RESTClient) GetManifest(ctx context.Context, owner, repo, commit, path string) (*workflow.Manifest, error) {
	for _, candidate := range manifestCandidates(path) {
		apiPath := fmt.Sprintf("/repos/%s/%s/contents/%s?ref=%s", owner, repo, candidate, url.QueryEscape(commit))

		var data []byte
		err := c.do(ctx, apiPath, "application/vnd.github.raw+json", func(r io.Reader) error {
			var readErr error
			data, readErr = io.ReadAll(r)
			return readErr
		})
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		m, parseErr := workflow.ParseManifest(data)
		if parseErr != nil {
			// Unreadable manifest means zero transitive dependencies.
			return nil, nil
		}
		return m, nil
	}
	return nil, nil
}

// manifestCandidates returns the file paths to try for a dependency's
// definition, in order.
func manifestCandidates(path string) []string {
	switch {
	case path == "":
		return []string{"action.yml", "action.yaml"}
	case strings.HasSuffix(path, ".yml") || strings.HasSuffix(path, ".yaml"):
		return []string{path}
	default:
		return []string{path + "/action.yml", path + "/action.yaml"}
	}
}

// GetIntegrityHash streams the repository tarball at ref through SHA-256.
func (c *RESTClient) GetIntegrityHash(ctx context.Context, owner, repo, ref string) (string, error) {
	path := fmt.Sprintf("/repos/%s/%s/tarball/%s", owner, repo, url.PathEscape(ref))

	h := sha256.New()
	err := c.do(ctx, path, "", func(r io.Reader) error {
		_, copyErr := io.Copy(h, r)
		return copyErr
	})
	if err != nil {
		return "", fmt.Errorf("hashing archive %s/%s@%s: %w", owner, repo, ref, err)
	}
	return "sha256-" + hex.EncodeToString(h.Sum(nil)), nil
}

// getJSON performs a GET and decodes the JSON response body.
func (c *RESTClient) getJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, path, "application/vnd.github+json", func(r io.Reader) error {
		return json.NewDecoder(r).Decode(out)
	})
}

// do performs one gated GET against the API and hands the response body to
// consume. The gate slot is held until the body is fully consumed so that
// slow downloads count against the concurrency budget.
func (c *RESTClient) do(ctx context.Context, path, accept string, consume func(io.Reader) error) error {
	if err := c.gate.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.gate.Release(1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("building request GET %s: %w", path, err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	req.Header.Set("User-Agent", "actionlock")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
		return consume(resp.Body)
	case rateLimited(resp):
		return fmt.Errorf("GET %s: %w", path, ErrRateLimited)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("GET %s: %w", path, ErrNotFound)
	default:
		return fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}
}

func rateLimited(resp *http.Response) bool {
	if resp.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0"
}
