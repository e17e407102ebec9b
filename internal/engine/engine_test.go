package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/actionlock/actionlock/internal/reference"
	"github.com/actionlock/actionlock/internal/workflow"
)

// fakeSHA returns a deterministic 40-hex commit SHA for tests.
func fakeSHA(c byte) string {
	return strings.Repeat(string(c), 40)
}

// mockClient implements github.Client from canned data and counts ResolveRef
// calls per reference. resolveDelay slows individual resolves down to widen
// concurrency windows; it is configured before Resolve and read-only after.
type mockClient struct {
	mu           sync.Mutex
	resolveCalls map[string]int

	shas         map[string]string             // "owner/repo@ref" -> commit SHA
	manifests    map[string]*workflow.Manifest // "owner/repo[/path]" -> manifest
	integrity    map[string]string             // "owner/repo@ref" -> hash
	resolveDelay map[string]time.Duration      // "owner/repo@ref" -> delay
	integrityErr error
}

func newMockClient() *mockClient {
	return &mockClient{
		resolveCalls: make(map[string]int),
		shas:         make(map[string]string),
		manifests:    make(map[string]*workflow.Manifest),
		integrity:    make(map[string]string),
		resolveDelay: make(map[string]time.Duration),
	}
}

func (m *mockClient) ResolveRef(_ context.Context, owner, repo, ref string) (string, error) {
	key := owner + "/" + repo + "@" + ref
	m.mu.Lock()
	m.resolveCalls[key]++
	m.mu.Unlock()

	if d := m.resolveDelay[key]; d > 0 {
		time.Sleep(d)
	}

	if sha, ok := m.shas[key]; ok {
		return sha, nil
	}
	if reference.IsCommitSHA(ref) {
		return ref, nil
	}
	return "", fmt.Errorf("cannot resolve %s", key)
}

func (m *mockClient) GetManifest(_ context.Context, owner, repo, _ string, path string) (*workflow.Manifest, error) {
	name := owner + "/" + repo
	if path != "" {
		name += "/" + path
	}
	return m.manifests[name], nil
}

func (m *mockClient) GetIntegrityHash(_ context.Context, owner, repo, ref string) (string, error) {
	if m.integrityErr != nil {
		return "", m.integrityErr
	}
	key := owner + "/" + repo + "@" + ref
	if h, ok := m.integrity[key]; ok {
		return h, nil
	}
	return "sha256-" + fakeSHA('0'), nil
}

func (m *mockClient) calls(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolveCalls[key]
}

// compositeManifest builds a composite-action manifest declaring the given
// dependencies as steps.
func compositeManifest(uses ...string) *workflow.Manifest {
	steps := make([]workflow.Step, 0, len(uses))
	for _, u := range uses {
		steps = append(steps, workflow.Step{Uses: u})
	}
	return &workflow.Manifest{Runs: &workflow.Runs{Using: "composite", Steps: steps}}
}

// singleJobWorkflow builds a workflow with one job whose steps use the given
// declarations.
func singleJobWorkflow(uses ...string) workflow.Workflow {
	steps := make([]workflow.Step, 0, len(uses))
	for _, u := range uses {
		steps = append(steps, workflow.Step{Uses: u})
	}
	return workflow.Workflow{Jobs: workflow.Jobs{
		{ID: "build", Job: workflow.Job{Steps: steps}},
	}}
}

func mustParse(raw string) *reference.Reference {
	ref, err := reference.Parse(raw)
	if err != nil {
		panic(err)
	}
	return ref
}
