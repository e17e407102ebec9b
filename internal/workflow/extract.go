package workflow

import (
	"github.com/actionlock/actionlock/internal/reference"
)

// Extract collects the structured references declared across all workflows,
// from both declaration sites: step-level 'uses' and job-level 'uses'
// (reusable workflow calls). The result is deduplicated by raw declaration,
// preserving insertion order of first encounter. Local and container
// declarations are silently filtered; malformed declarations are reported as
// warnings and skipped. Pure function, no I/O.
func Extract(workflows []Workflow) ([]*reference.Reference, []string) {
	c := newCollector()
	for _, wf := range workflows {
		for _, nj := range wf.Jobs {
			c.add(nj.Job.Uses)
			for _, step := range nj.Job.Steps {
				c.add(step.Uses)
			}
		}
	}
	return c.refs, c.warnings
}

// References extracts the dependencies a manifest itself declares, using the
// same filtering rules as workflow extraction. Composite actions declare
// step-level dependencies under runs.steps; reusable workflows declare them
// under jobs. Plain actions have none.
func (m *Manifest) References() ([]*reference.Reference, []string) {
	c := newCollector()
	switch m.Kind() {
	case KindCompositeAction:
		for _, step := range m.Runs.Steps {
			c.add(step.Uses)
		}
	case KindReusableWorkflow:
		for _, nj := range m.Jobs {
			c.add(nj.Job.Uses)
			for _, step := range nj.Job.Steps {
				c.add(step.Uses)
			}
		}
	}
	return c.refs, c.warnings
}

// collector accumulates references deduplicated by raw declaration.
type collector struct {
	seen     map[string]bool
	refs     []*reference.Reference
	warnings []string
}

func newCollector() *collector {
	return &collector{seen: make(map[string]bool)}
}

func (c *collector) add(raw string) {
	if raw == "" || c.seen[raw] {
		return
	}
	c.seen[raw] = true

	if reference.Skip(raw) {
		return
	}
	ref, err := reference.Parse(raw)
	if err != nil {
		c.warnings = append(c.warnings, err.Error())
		return
	}
	c.refs = append(c.refs, ref)
}
