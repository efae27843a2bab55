// internal/infer/metrics.go
package infer

import (
	"sort"

	"github.com/xkilldash9x/reflow-cli/internal/preprocess"
)

// WrapperCandidate records one wrapper-elimination decision for diagnostics.
type WrapperCandidate struct {
	ID         string  `json:"id"`
	Name       string  `json:"name,omitempty"`
	Score      float64 `json:"score"`
	Reason     string  `json:"reason"`
	Eliminated bool    `json:"eliminated"`
}

// Metrics summarizes one inference run. All rates are in [0, 1].
type Metrics struct {
	TotalNodes         int  `json:"totalNodes"`
	VisitedNodes       int  `json:"visitedNodes"`
	DroppedNodes       int  `json:"droppedNodes"`
	Truncated          bool `json:"truncated"`
	EliminatedWrappers int  `json:"eliminatedWrappers"`
	SyntheticFrames    int  `json:"syntheticFrames"`
	OverlayCount       int  `json:"overlayCount"`

	// OrphanRate is the share of all nodes that sit childless directly
	// under the root; a high rate means the page resisted restructuring.
	OrphanRate float64 `json:"orphanRate"`

	// AutoLayoutCoverage is the share of container-typed nodes that
	// received synthesized auto-layout.
	AutoLayoutCoverage float64 `json:"autoLayoutCoverage"`

	MaxDepth int     `json:"maxDepth"`
	AvgDepth float64 `json:"avgDepth"`

	TypeCounts map[InferredType]int `json:"typeCounts"`

	// TopCandidates holds the highest-scoring wrapper decisions, score
	// descending, document order on ties.
	TopCandidates []WrapperCandidate `json:"topCandidates,omitempty"`
}

// Collect walks the inferred tree once and derives the run metrics.
// topN bounds the candidate list; values <= 0 drop it entirely.
func Collect(pre *preprocess.Result, res *Result, topN int) *Metrics {
	m := &Metrics{TypeCounts: make(map[InferredType]int)}
	if pre != nil {
		m.VisitedNodes = pre.VisitedCount
		m.DroppedNodes = pre.DroppedCount
		m.Truncated = pre.Truncated
	}
	if res == nil || res.Root == nil {
		return m
	}
	m.EliminatedWrappers = res.EliminatedCount
	m.SyntheticFrames = res.SyntheticCount

	var depthSum int
	var walk func(n *InferredNode, depth int)
	walk = func(n *InferredNode, depth int) {
		m.TotalNodes++
		depthSum += depth
		if depth > m.MaxDepth {
			m.MaxDepth = depth
		}
		m.TypeCounts[n.Inferred]++
		if n.Inferred == TypeOverlay {
			m.OverlayCount++
		}
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	walk(res.Root, 0)

	orphans := 0
	for _, c := range res.Root.Children {
		if len(c.Children) == 0 {
			orphans++
		}
	}
	if m.TotalNodes > 0 {
		m.OrphanRate = float64(orphans) / float64(m.TotalNodes)
		m.AvgDepth = float64(depthSum) / float64(m.TotalNodes)
	}

	containers := 0
	withLayout := 0
	for _, t := range []InferredType{TypeSection, TypeContainer, TypeStack, TypeGrid} {
		containers += m.TypeCounts[t]
	}
	var count func(n *InferredNode)
	count = func(n *InferredNode) {
		switch n.Inferred {
		case TypeSection, TypeContainer, TypeStack, TypeGrid:
			if n.AutoLayout != nil {
				withLayout++
			}
		}
		for _, c := range n.Children {
			count(c)
		}
	}
	count(res.Root)
	if containers > 0 {
		m.AutoLayoutCoverage = float64(withLayout) / float64(containers)
	}

	if topN > 0 && len(res.Candidates) > 0 {
		ranked := make([]WrapperCandidate, len(res.Candidates))
		copy(ranked, res.Candidates)
		// Candidates arrive in document order; a stable sort keeps that
		// order among equal scores.
		sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
		if len(ranked) > topN {
			ranked = ranked[:topN]
		}
		m.TopCandidates = ranked
	}
	return m
}
