// internal/convert/convert.go
//
// The converter materializes an inferred layout tree back into the capture
// node shape, preserving every opaque field of the original payload. The
// inputs are read-only; all merging happens on copies.
package convert

import (
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/reflow-cli/api/schemas"
	"github.com/xkilldash9x/reflow-cli/internal/infer"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Converter turns inferred nodes into output capture nodes.
type Converter struct {
	logger *zap.Logger
}

// New creates a Converter.
func New(logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{logger: logger.Named("convert")}
}

// Tree converts the whole inferred tree. A nil root yields nil.
func (c *Converter) Tree(root *infer.InferredNode) *schemas.CaptureNode {
	if root == nil {
		return nil
	}
	return c.node(root)
}

func (c *Converter) node(n *infer.InferredNode) *schemas.CaptureNode {
	out := &schemas.CaptureNode{}
	if n.Original != nil {
		// Shallow copy keeps every opaque field; maps that this stage
		// writes into are re-copied below before mutation.
		*out = *n.Original
	}

	if n.ID != "" {
		out.ID = n.ID
	}
	if n.Name != "" {
		out.Name = n.Name
	}
	if out.Name == "" {
		out.Name = "Node"
	}
	if n.Type != "" {
		out.Type = n.Type
	}
	if out.Type == "" {
		out.Type = "FRAME"
	}

	// Geometry is authoritative from inference; both coordinate fields are
	// rewritten so stale original values can never leak through.
	rect := &schemas.Layout{X: n.Rect.X, Y: n.Rect.Y, Width: n.Rect.Width, Height: n.Rect.Height}
	out.Layout = rect
	abs := *rect
	out.AbsoluteLayout = &abs

	out.AutoLayout = mergeAutoLayout(out.AutoLayout, n.AutoLayout)
	out.Extra = annotate(out.Extra, n)

	// Children are always an array, even when empty, so consumers never
	// see null.
	out.Children = make([]*schemas.CaptureNode, 0, len(n.Children))
	for _, child := range n.Children {
		out.Children = append(out.Children, c.node(child))
	}
	return out
}

// mergeAutoLayout overlays synthesized parameters on the original
// auto-layout map. The original map is never written to.
func mergeAutoLayout(orig map[string]any, al *infer.AutoLayout) map[string]any {
	if al == nil {
		return orig
	}
	merged := make(map[string]any, len(orig)+8)
	for k, v := range orig {
		merged[k] = v
	}
	merged["layoutMode"] = string(al.LayoutMode)
	if al.PrimaryAxisAlign != "" {
		merged["primaryAxisAlignItems"] = string(al.PrimaryAxisAlign)
	}
	if al.CounterAxisAlign != "" {
		merged["counterAxisAlignItems"] = string(al.CounterAxisAlign)
	}
	merged["paddingTop"] = al.PaddingTop
	merged["paddingRight"] = al.PaddingRight
	merged["paddingBottom"] = al.PaddingBottom
	merged["paddingLeft"] = al.PaddingLeft
	merged["itemSpacing"] = al.ItemSpacing
	return merged
}

// annotate writes the side-channel keys carrying the inference verdict into
// a copy of the node's opaque field map.
func annotate(orig map[string]jsoniter.RawMessage, n *infer.InferredNode) map[string]jsoniter.RawMessage {
	out := make(map[string]jsoniter.RawMessage, len(orig)+2)
	for k, v := range orig {
		out[k] = v
	}
	if raw, err := json.Marshal(string(n.Inferred)); err == nil {
		out["inferredType"] = raw
	}
	if raw, err := json.Marshal(n.Synthetic); err == nil {
		out["isSynthetic"] = raw
	}
	return out
}
