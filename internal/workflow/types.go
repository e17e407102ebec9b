package workflow

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Workflow represents a parsed CI workflow file.
type Workflow struct {
	Name string `yaml:"name,omitempty"`
	Jobs Jobs   `yaml:"jobs"`
	Path string `yaml:"-"` // source file, set by Load
}

// Job is a single workflow job. A job either runs steps or, via Uses, IS a
// call to a reusable external workflow.
type Job struct {
	Name  string `yaml:"name,omitempty"`
	Uses  string `yaml:"uses,omitempty"`
	Steps []Step `yaml:"steps,omitempty"`
}

// Step is a single job step; Uses declares an external action dependency.
type Step struct {
	Name string `yaml:"name,omitempty"`
	Uses string `yaml:"uses,omitempty"`
	Run  string `yaml:"run,omitempty"`
}

// NamedJob pairs a job with its key in the jobs mapping.
type NamedJob struct {
	ID  string
	Job Job
}

// Jobs is the ordered list of a document's jobs. YAML maps lose document
// order through a Go map, and extraction order must follow the document, so
// the mapping node is decoded pairwise.
type Jobs []NamedJob

func (j *Jobs) UnmarshalYAML(node *yaml.Node) error {
	if node.Tag == "!!null" {
		*j = nil
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("jobs: expected a mapping, got %s", node.Tag)
	}
	out := make(Jobs, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var id string
		if err := node.Content[i].Decode(&id); err != nil {
			return fmt.Errorf("jobs: decoding job id: %w", err)
		}
		var job Job
		if err := node.Content[i+1].Decode(&job); err != nil {
			return fmt.Errorf("jobs: decoding job '%s': %w", id, err)
		}
		out = append(out, NamedJob{ID: id, Job: job})
	}
	*j = out
	return nil
}

// ManifestKind discriminates the shape of a dependency's own definition file.
type ManifestKind string

const (
	// KindCompositeAction is an action whose runs.steps declare further actions.
	KindCompositeAction ManifestKind = "composite"
	// KindReusableWorkflow is a workflow file callable from a job's 'uses'.
	KindReusableWorkflow ManifestKind = "reusable-workflow"
	// KindPlainAction is a javascript/docker action with no action dependencies.
	KindPlainAction ManifestKind = "plain"
)

// Manifest is a dependency's own definition: either an action.yml or a
// reusable workflow file. The shape is a tagged union discriminated by which
// key is present — 'runs' marks an action, 'jobs' marks a reusable workflow.
type Manifest struct {
	Name string `yaml:"name,omitempty"`
	Runs *Runs  `yaml:"runs,omitempty"`
	Jobs Jobs   `yaml:"jobs,omitempty"`
}

// Runs is the execution block of an action manifest.
type Runs struct {
	Using string `yaml:"using,omitempty"`
	Steps []Step `yaml:"steps,omitempty"`
}

// Kind classifies the manifest shape.
func (m *Manifest) Kind() ManifestKind {
	switch {
	case m.Runs != nil && m.Runs.Using == "composite":
		return KindCompositeAction
	case m.Runs == nil && len(m.Jobs) > 0:
		return KindReusableWorkflow
	default:
		return KindPlainAction
	}
}
