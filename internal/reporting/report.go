// internal/reporting/report.go
//
// Diagnostics over a finished run: a human-readable summary, advisory
// recommendations keyed off the configured quality targets, and the
// artifact envelope written to disk.
package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/reflow-cli/api/schemas"
	"github.com/xkilldash9x/reflow-cli/internal/config"
	"github.com/xkilldash9x/reflow-cli/internal/infer"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Report is the advisory quality assessment of one run. Targets are
// advisory only; a failing report never fails the run.
type Report struct {
	Summary         string   `json:"summary"`
	MeetsTargets    bool     `json:"meetsTargets"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// Build derives a report from run metrics and the configured targets.
func Build(m *infer.Metrics, cfg config.ReportConfig) *Report {
	r := &Report{MeetsTargets: true}
	if m == nil {
		r.Summary = "no metrics collected"
		r.MeetsTargets = false
		return r
	}

	if m.OrphanRate > cfg.MaxOrphanRate {
		r.MeetsTargets = false
		r.Recommendations = append(r.Recommendations, fmt.Sprintf(
			"orphan rate %.0f%% exceeds the %.0f%% target; many nodes sit flat under the root, consider loosening gap tolerances",
			m.OrphanRate*100, cfg.MaxOrphanRate*100))
	}
	if m.AutoLayoutCoverage < cfg.MinAutoLayoutCoverage {
		r.MeetsTargets = false
		r.Recommendations = append(r.Recommendations, fmt.Sprintf(
			"auto-layout coverage %.0f%% is below the %.0f%% target; few containers matched a stack or grid pattern",
			m.AutoLayoutCoverage*100, cfg.MinAutoLayoutCoverage*100))
	}
	if m.MaxDepth > cfg.MaxDepth {
		r.MeetsTargets = false
		r.Recommendations = append(r.Recommendations, fmt.Sprintf(
			"tree depth %d exceeds the target of %d; deeply nested wrappers survived elimination",
			m.MaxDepth, cfg.MaxDepth))
	}
	if m.EliminatedWrappers == 0 && m.TotalNodes > 1 {
		r.Recommendations = append(r.Recommendations,
			"no wrappers were eliminated; the capture may already be flat, or the wrapper area ratio is too strict")
	}
	if m.SyntheticFrames > 0 {
		r.Recommendations = append(r.Recommendations, fmt.Sprintf(
			"%d synthetic grouping frame(s) were created to recover structure the markup did not express",
			m.SyntheticFrames))
	}
	if m.Truncated {
		r.Recommendations = append(r.Recommendations,
			"input was truncated at the node cap; the tree covers only the visited prefix")
	}

	tone := "meets targets"
	if !r.MeetsTargets {
		tone = "below targets"
	}
	r.Summary = fmt.Sprintf(
		"%d nodes, %d wrappers eliminated, %d synthetic frames, orphan rate %.0f%%, auto-layout coverage %.0f%%, max depth %d (%s)",
		m.TotalNodes, m.EliminatedWrappers, m.SyntheticFrames,
		m.OrphanRate*100, m.AutoLayoutCoverage*100, m.MaxDepth, tone)
	return r
}

// Artifact is the full run output envelope persisted to disk. Tree carries
// the inferred structure as reported by the engine; Converted is the same
// structure merged back into the capture-node shape consumers render from.
type Artifact struct {
	RunID       string               `json:"runId"`
	GeneratedAt time.Time            `json:"generatedAt"`
	Tree        *infer.InferredNode  `json:"tree"`
	Converted   *schemas.CaptureNode `json:"convertedTree"`
	Metrics     *infer.Metrics       `json:"metrics"`
	Report      *Report              `json:"report"`
}

// NewArtifact assembles an artifact with a fresh run id.
func NewArtifact(tree *infer.InferredNode, converted *schemas.CaptureNode, m *infer.Metrics, r *Report) *Artifact {
	return &Artifact{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Tree:        tree,
		Converted:   converted,
		Metrics:     m,
		Report:      r,
	}
}

// WriteArtifact serializes the artifact as indented JSON at path, creating
// parent directories as needed.
func WriteArtifact(path string, a *Artifact) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating artifact directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing artifact: %w", err)
	}
	return nil
}
