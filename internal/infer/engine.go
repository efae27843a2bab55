// internal/infer/engine.go
//
// The containment and stacking engine. Single pass over the render tree:
// mirror, collapse wrappers bottom-up, classify top-down, synthesize
// auto-layout and synthetic grouping frames. Deterministic throughout;
// every ranked decision breaks ties by document order.
package infer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/reflow-cli/internal/config"
	"github.com/xkilldash9x/reflow-cli/internal/geometry"
	"github.com/xkilldash9x/reflow-cli/internal/preprocess"
)

// Engine restructures a render tree into an inferred layout tree. An Engine
// is cheap to construct and safe to reuse across runs; it holds no per-run
// state.
type Engine struct {
	weights    config.ScoreWeights
	thresholds config.Thresholds
	logger     *zap.Logger
}

// NewEngine creates an Engine from configuration.
func NewEngine(cfg config.EngineConfig, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		weights:    cfg.Weights,
		thresholds: cfg.Thresholds,
		logger:     logger.Named("infer"),
	}
}

// Result is the engine output: the restructured tree plus the evidence
// gathered while building it.
type Result struct {
	Root *InferredNode

	// Candidates lists every wrapper-elimination decision, kept or not,
	// in document order.
	Candidates      []WrapperCandidate
	EliminatedCount int
	SyntheticCount  int
}

// Infer runs the full restructuring over a preprocessed tree. It never
// fails: an empty input yields an empty result.
func (e *Engine) Infer(pre *preprocess.Result) *Result {
	res := &Result{}
	if pre == nil || pre.Root == nil {
		return res
	}

	root := e.build(pre.Root)
	root = e.collapse(root, geometry.Rect{}, false, res)
	e.classify(root, root, res)
	res.Root = root

	e.logger.Debug("inference complete",
		zap.Int("eliminated", res.EliminatedCount),
		zap.Int("synthetic", res.SyntheticCount),
		zap.Int("candidates", len(res.Candidates)))
	return res
}

// build mirrors the render tree into inferred nodes. The originals stay
// referenced, never copied or mutated.
func (e *Engine) build(rn *preprocess.RenderNode) *InferredNode {
	n := &InferredNode{
		ID:        rn.ID,
		Name:      rn.Name,
		Type:      rn.Type,
		Rect:      rn.Rect,
		Style:     rn.Style,
		Original:  rn.Original,
		IsOverlay: rn.IsOverlay,
		docIndex:  rn.DocIndex,
	}
	for _, c := range rn.Children {
		n.Children = append(n.Children, e.build(c))
	}
	return n
}

// collapse eliminates passthrough wrappers bottom-up. A wrapper is a
// paintless flow node with exactly one child whose area nearly matches its
// own (or its parent's); eliminating it promotes the child in place.
// Returns the node that should occupy this position after elimination.
func (e *Engine) collapse(n *InferredNode, parentRect geometry.Rect, hasParent bool, res *Result) *InferredNode {
	for i, c := range n.Children {
		n.Children[i] = e.collapse(c, n.Rect, true, res)
	}

	if len(n.Children) != 1 {
		return n
	}
	child := n.Children[0]
	if n.HasVisiblePaint() || n.Synthetic || n.IsOverlay || child.IsOverlay {
		return n
	}

	t := e.thresholds
	nArea := n.Rect.Area()
	childRatio, parentRatio := 0.0, 0.0
	if nArea > 0 {
		childRatio = child.Rect.Area() / nArea
	}
	if hasParent {
		if pArea := parentRect.Area(); pArea > 0 {
			parentRatio = nArea / pArea
		}
	}
	eliminate := childRatio >= t.WrapperAreaRatio || parentRatio >= t.WrapperAreaRatio

	score := Score(n, child, e.weights, t)
	cand := WrapperCandidate{
		ID:         n.ID,
		Name:       n.Name,
		Score:      score.Total,
		Eliminated: eliminate,
	}
	if eliminate {
		cand.Reason = fmt.Sprintf("paintless wrapper, child fills %.0f%%", childRatio*100)
		res.EliminatedCount++
	} else {
		cand.Reason = fmt.Sprintf("paintless single-child node kept, child fills only %.0f%%", childRatio*100)
	}
	res.Candidates = append(res.Candidates, cand)

	if eliminate {
		return child
	}
	return n
}

// classify assigns each node its structural type and, for detected stacks
// and grids, its auto-layout. Precedence per node: overlay, grid, stack,
// content, section, container. Synthetic frames arrive pre-classified and
// are skipped here.
func (e *Engine) classify(n, root *InferredNode, res *Result) {
	t := e.thresholds

	if !n.Synthetic {
		flow := flowChildren(n.Children)
		switch {
		case n.IsOverlay && n != root:
			n.Inferred = TypeOverlay
		default:
			if info, ok := detectGrid(flow, t); ok {
				n.Inferred = TypeGrid
				n.AutoLayout = synthesizeGrid(n.Rect, info)
				n.Hints = &LayoutHints{
					IsGrid:         true,
					StackDirection: LayoutHorizontal,
					Gap:            round2(info.colGap),
					Alignment:      AlignMin,
				}
			} else if info, ok := detectStack(flow, t); ok {
				n.Inferred = TypeStack
				n.AutoLayout = synthesizeStack(n.Rect, info, n.Style.JustifyContent, t)
				n.Hints = &LayoutHints{
					IsStack:        true,
					StackDirection: info.axis,
					Gap:            round2(info.meanGap),
					Alignment:      info.cross,
				}
			} else if n.IsContentLeaf() && len(n.Children) == 0 {
				n.Inferred = TypeContent
			} else if isSection(n, root, t) {
				n.Inferred = TypeSection
			} else {
				n.Inferred = TypeContainer
			}
		}
	}

	if n.Inferred == TypeContainer || n.Inferred == TypeSection {
		e.groupRuns(n, res)
	}
	for _, c := range n.Children {
		e.classify(c, root, res)
	}
}

// isSection marks wide horizontal bands directly under the root.
func isSection(n, root *InferredNode, t config.Thresholds) bool {
	if n == root || root.Rect.Width <= 0 {
		return false
	}
	for _, c := range root.Children {
		if c == n {
			return n.Rect.Width >= t.SectionMinWidthRatio*root.Rect.Width
		}
	}
	return false
}

// flowChildren filters out overlay children; overlays never participate in
// stack or grid grouping.
func flowChildren(children []*InferredNode) []*InferredNode {
	out := make([]*InferredNode, 0, len(children))
	for _, c := range children {
		if !c.IsOverlay {
			out = append(out, c)
		}
	}
	return out
}

// groupRuns wraps contiguous stack-forming runs of flow siblings into
// synthetic frames. A run must have at least two members, fewer than all
// siblings, and a bounding box below the coverage cap, otherwise the
// grouping would just restate the parent.
func (e *Engine) groupRuns(n *InferredNode, res *Result) {
	t := e.thresholds
	if len(n.Children) < 3 {
		return
	}
	pArea := n.Rect.Area()
	if pArea <= 0 {
		return
	}

	out := make([]*InferredNode, 0, len(n.Children))
	i := 0
	for i < len(n.Children) {
		c := n.Children[i]
		if c.IsOverlay || c.Synthetic {
			out = append(out, c)
			i++
			continue
		}

		// Extend the run while the prefix still reads as a stack.
		j := i + 1
		var info stackInfo
		var ok bool
		for j < len(n.Children) && !n.Children[j].IsOverlay && !n.Children[j].Synthetic {
			next, nextOK := detectStack(n.Children[i:j+1], t)
			if !nextOK {
				break
			}
			info, ok = next, true
			j++
		}

		runLen := j - i
		if ok && runLen >= 2 && runLen < len(n.Children) &&
			info.content.Area() <= t.SyntheticMaxCoverage*pArea {
			out = append(out, e.newSyntheticFrame(n.Children[i:j], info, res))
			i = j
			continue
		}
		out = append(out, c)
		i++
	}
	n.Children = out
}

// newSyntheticFrame wraps a run in an invented frame. Synthetic frames have
// no original payload and inherit the document position of their first
// member.
func (e *Engine) newSyntheticFrame(run []*InferredNode, info stackInfo, res *Result) *InferredNode {
	res.SyntheticCount++
	kids := make([]*InferredNode, len(run))
	copy(kids, run)

	f := &InferredNode{
		ID:        fmt.Sprintf("reflow-group-%d", res.SyntheticCount),
		Name:      fmt.Sprintf("Group %d", res.SyntheticCount),
		Type:      "FRAME",
		Rect:      info.content,
		Children:  kids,
		Inferred:  TypeStack,
		Synthetic: true,
		docIndex:  run[0].docIndex,
	}
	f.AutoLayout = synthesizeStack(info.content, info, "", e.thresholds)
	f.Hints = &LayoutHints{
		IsStack:        true,
		StackDirection: info.axis,
		Gap:            round2(info.meanGap),
		Alignment:      info.cross,
	}
	e.logger.Debug("synthetic frame created",
		zap.String("id", f.ID),
		zap.Int("members", len(kids)))
	return f
}
