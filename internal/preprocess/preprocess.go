// internal/preprocess/preprocess.go
//
// The preprocessor flattens a captured visual-element tree into uniform
// geometric/style records ("render nodes"). It is the only stage that reads
// the caller's payload; everything downstream works on RenderNode alone.
package preprocess

import (
	"go.uber.org/zap"

	"github.com/xkilldash9x/reflow-cli/api/schemas"
	"github.com/xkilldash9x/reflow-cli/internal/geometry"
)

// ComputedStyleLite is a reduced style summary per node, derived once from
// the capture and read-only thereafter.
type ComputedStyleLite struct {
	Display   string
	Position  string
	Overflow  string
	Opacity   float64
	Transform string
	ZIndex    int

	IsText      bool
	IsImageLike bool
	IsSvg       bool
	IsCanvas    bool

	IsFlexContainer bool
	FlexDirection   string
	JustifyContent  string
	AlignItems      string
	Gap             float64

	IsGridContainer bool
	RowGap          float64
	ColumnGap       float64

	BackgroundColor *schemas.Color
	BorderRadius    float64

	// HasPaint records whether any fill of the node is actually visible.
	HasPaint bool
}

// RenderNode is the engine's working unit. Created once here, consumed
// read-mostly by the inference engine, never created after this stage.
type RenderNode struct {
	ID    string
	Name  string
	Type  string
	Rect  geometry.Rect
	Style ComputedStyleLite

	Children []*RenderNode
	// Parent is a non-owning back-reference.
	Parent *RenderNode

	// Original is the caller-owned payload. The pipeline never mutates it.
	Original *schemas.CaptureNode

	// IsOverlay is true when the node is removed from normal flow
	// (position absolute, fixed or sticky).
	IsOverlay bool

	// DocIndex is the pre-order document position, used as the
	// deterministic tie-breaker for all score-ranked decisions.
	DocIndex int
}

// IsContentLeaf reports whether the node is terminal visual content.
func (n *RenderNode) IsContentLeaf() bool {
	s := n.Style
	return s.IsText || s.IsImageLike || s.IsSvg || s.IsCanvas
}

// HasVisiblePaint reports whether the node paints anything of its own.
func (n *RenderNode) HasVisiblePaint() bool {
	return n.Style.HasPaint || n.IsContentLeaf()
}

// Result is the preprocessor output: the render tree plus walk statistics.
type Result struct {
	Root  *RenderNode
	Nodes []*RenderNode // pre-order

	VisitedCount int
	DroppedCount int
	// Truncated is set when the node cap stopped the walk early. The
	// partial tree is still valid.
	Truncated bool
}

// Preprocessor walks a capture tree once and produces render nodes.
type Preprocessor struct {
	maxNodes int
	logger   *zap.Logger
}

// New creates a Preprocessor. maxNodes bounds the walk; values <= 0 fall
// back to a single-node budget so a malicious zero never disables the cap.
func New(maxNodes int, logger *zap.Logger) *Preprocessor {
	if maxNodes <= 0 {
		maxNodes = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Preprocessor{maxNodes: maxNodes, logger: logger.Named("preprocess")}
}

// Run flattens the capture tree. It never returns an error: data-shape
// defects are recovered locally and scale defects degrade to a partial
// result.
func (p *Preprocessor) Run(root *schemas.CaptureNode) *Result {
	res := &Result{}
	if root == nil {
		return res
	}
	w := &walker{
		pre:     p,
		res:     res,
		visited: make(map[string]struct{}),
		seen:    make(map[*schemas.CaptureNode]struct{}),
	}
	w.visit(root, nil, 0)
	if res.Truncated {
		p.logger.Warn("node cap reached, returning partial tree",
			zap.Int("max_nodes", p.maxNodes),
			zap.Int("visited", res.VisitedCount))
	}
	return res
}

type walker struct {
	pre     *Preprocessor
	res     *Result
	visited map[string]struct{}
	seen    map[*schemas.CaptureNode]struct{}
	next    int // next DocIndex
}

// visit processes one capture node. depth 0 is the tree root.
func (w *walker) visit(cn *schemas.CaptureNode, parent *RenderNode, depth int) {
	if cn == nil {
		return
	}
	if w.res.VisitedCount >= w.pre.maxNodes {
		w.res.Truncated = true
		return
	}

	// The same node reappearing is a cycle; everything below it has
	// already been walked, so it is dropped outright.
	if _, cyclic := w.seen[cn]; cyclic {
		w.res.DroppedCount++
		return
	}
	w.seen[cn] = struct{}{}

	// A node without an id cannot be tracked; drop it but keep its
	// subtree attached to the current parent.
	if cn.ID == "" {
		w.res.DroppedCount++
		w.visitChildren(cn, parent, depth)
		return
	}
	// A distinct node reusing a taken id is dropped the same way: the
	// node cannot be tracked, but its subtree stays connected.
	if _, taken := w.visited[cn.ID]; taken {
		w.res.DroppedCount++
		w.visitChildren(cn, parent, depth)
		return
	}
	w.visited[cn.ID] = struct{}{}
	w.res.VisitedCount++

	rect := extractRect(cn)
	rootLike := depth == 0 || cn.HTMLTag == "body" || cn.HTMLTag == "html"

	if rect.IsDegenerate() && !(rootLike && len(cn.Children) > 0) {
		// Geometry-less wrapper: not emitted, but its subtree stays
		// connected under the same parent.
		w.res.DroppedCount++
		w.visitChildren(cn, parent, depth)
		return
	}

	style := extractStyle(cn)
	node := &RenderNode{
		ID:        cn.ID,
		Name:      cn.Name,
		Type:      cn.Type,
		Rect:      rect,
		Style:     style,
		Parent:    parent,
		Original:  cn,
		IsOverlay: isOverlayPosition(style.Position),
		DocIndex:  w.next,
	}
	w.next++
	w.res.Nodes = append(w.res.Nodes, node)
	if parent == nil {
		if w.res.Root == nil {
			w.res.Root = node
		} else {
			// Parentless siblings appear when the tree root itself was
			// dropped; they attach under the first emitted root so every
			// emitted node stays reachable.
			node.Parent = w.res.Root
			w.res.Root.Children = append(w.res.Root.Children, node)
		}
	} else {
		parent.Children = append(parent.Children, node)
	}

	w.visitChildren(cn, node, depth)

	// Root-like nodes that measured zero get their bounds rebuilt from
	// their content, so the root is never degenerate when content exists.
	if node.Rect.IsDegenerate() && rootLike {
		node.Rect = subtreeBounds(node)
	}
}

func (w *walker) visitChildren(cn *schemas.CaptureNode, parent *RenderNode, depth int) {
	for _, child := range cn.Children {
		if w.res.VisitedCount >= w.pre.maxNodes {
			w.res.Truncated = true
			return
		}
		w.visit(child, parent, depth+1)
	}
}

// subtreeBounds unions the rects of every emitted descendant.
func subtreeBounds(n *RenderNode) geometry.Rect {
	out := n.Rect
	for _, c := range n.Children {
		out = out.Union(subtreeBounds(c))
	}
	return out
}

// extractRect resolves the node geometry, preferring document coordinates
// (absoluteLayout) over viewport coordinates (layout) over the zero rect.
// This preference order defines the pipeline's coordinate space.
func extractRect(cn *schemas.CaptureNode) geometry.Rect {
	l := cn.EffectiveLayout()
	if l == nil {
		return geometry.Rect{}
	}
	return geometry.Rect{X: l.X, Y: l.Y, Width: l.Width, Height: l.Height}.Normalized()
}

// extractStyle is a pure function of the node's own fields; no cross-node
// lookups happen at this stage.
func extractStyle(cn *schemas.CaptureNode) ComputedStyleLite {
	s := ComputedStyleLite{
		Display:      cn.Display,
		Position:     cn.EffectivePosition(),
		Overflow:     cn.EffectiveOverflow(),
		Opacity:      1,
		Transform:    cn.Transform,
		ZIndex:       cn.EffectiveZIndex(),
		IsText:       cn.IsText,
		IsImageLike:  cn.IsImage || cn.HTMLTag == "img" || cn.HTMLTag == "picture" || cn.HTMLTag == "video",
		IsSvg:        cn.IsSvg || cn.HTMLTag == "svg",
		IsCanvas:     cn.IsCanvas || cn.HTMLTag == "canvas",
		BorderRadius: cn.CornerRadius,
	}
	if cn.Opacity != nil {
		s.Opacity = *cn.Opacity
	}

	switch cn.Display {
	case "flex", "inline-flex":
		s.IsFlexContainer = true
		s.FlexDirection = cn.FlexDirection
		if s.FlexDirection == "" {
			s.FlexDirection = "row"
		}
		s.JustifyContent = cn.JustifyContent
		s.AlignItems = cn.AlignItems
		s.Gap = cn.Gap
	case "grid", "inline-grid":
		s.IsGridContainer = true
		s.RowGap = cn.RowGap
		s.ColumnGap = cn.ColumnGap
		if cn.Gap > 0 {
			if s.RowGap == 0 {
				s.RowGap = cn.Gap
			}
			if s.ColumnGap == 0 {
				s.ColumnGap = cn.Gap
			}
		}
	}

	for _, fill := range cn.Fills {
		if !fill.IsVisible() {
			continue
		}
		s.HasPaint = true
		if fill.Color != nil && s.BackgroundColor == nil {
			c := *fill.Color
			s.BackgroundColor = &c
		}
	}
	return s
}

// isOverlayPosition is the seed fact separating flow content from overlays.
func isOverlayPosition(position string) bool {
	switch position {
	case "absolute", "fixed", "sticky":
		return true
	}
	return false
}
