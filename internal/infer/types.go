// internal/infer/types.go
package infer

import (
	"github.com/xkilldash9x/reflow-cli/api/schemas"
	"github.com/xkilldash9x/reflow-cli/internal/geometry"
	"github.com/xkilldash9x/reflow-cli/internal/preprocess"
)

// InferredType classifies a node's structural role. Exactly one type holds
// per node.
type InferredType string

const (
	TypeSection   InferredType = "section"
	TypeContainer InferredType = "container"
	TypeStack     InferredType = "stack"
	TypeGrid      InferredType = "grid"
	TypeOverlay   InferredType = "overlay"
	TypeContent   InferredType = "content"
)

// LayoutMode is the main axis of an auto-layout container.
type LayoutMode string

const (
	LayoutHorizontal LayoutMode = "HORIZONTAL"
	LayoutVertical   LayoutMode = "VERTICAL"
	LayoutNone       LayoutMode = "NONE"
)

// Align is an auto-layout alignment value.
type Align string

const (
	AlignMin          Align = "MIN"
	AlignCenter       Align = "CENTER"
	AlignMax          Align = "MAX"
	AlignSpaceBetween Align = "SPACE_BETWEEN"
)

// AutoLayout holds the synthesized auto-layout parameters of a container.
type AutoLayout struct {
	LayoutMode       LayoutMode `json:"layoutMode"`
	PrimaryAxisAlign Align      `json:"primaryAxisAlignItems,omitempty"`
	CounterAxisAlign Align      `json:"counterAxisAlignItems,omitempty"`
	PaddingTop       float64    `json:"paddingTop"`
	PaddingRight     float64    `json:"paddingRight"`
	PaddingBottom    float64    `json:"paddingBottom"`
	PaddingLeft      float64    `json:"paddingLeft"`
	ItemSpacing      float64    `json:"itemSpacing"`
}

// LayoutHints is the intermediate evidence kept for diagnostics. The
// converter does not need it.
type LayoutHints struct {
	IsStack        bool       `json:"isStack,omitempty"`
	IsGrid         bool       `json:"isGrid,omitempty"`
	StackDirection LayoutMode `json:"stackDirection,omitempty"`
	Gap            float64    `json:"gap,omitempty"`
	Alignment      Align      `json:"alignment,omitempty"`
}

// InferredNode is the engine's output unit. Once the tree is built it is
// immutable and consumed by the converter and the metrics collector.
type InferredNode struct {
	ID   string        `json:"id"`
	Name string        `json:"name,omitempty"`
	Type string        `json:"type,omitempty"`
	Rect geometry.Rect `json:"rect"`

	Style preprocess.ComputedStyleLite `json:"-"`

	// Original is the caller-owned payload; nil for synthetic frames.
	Original *schemas.CaptureNode `json:"-"`

	Children []*InferredNode `json:"children"`

	Inferred   InferredType `json:"inferredType"`
	AutoLayout *AutoLayout  `json:"autoLayout,omitempty"`
	Hints      *LayoutHints `json:"hints,omitempty"`

	// Synthetic is true only for frames the engine invented.
	Synthetic bool `json:"isSynthetic,omitempty"`

	// IsOverlay mirrors the preprocessor's seed fact.
	IsOverlay bool `json:"-"`

	// docIndex is the document-order tie-breaker inherited from the
	// render node; synthetic frames borrow the index of their first child.
	docIndex int
}

// HasVisiblePaint reports whether the node paints anything of its own.
// Synthetic frames never do.
func (n *InferredNode) HasVisiblePaint() bool {
	if n.Synthetic {
		return false
	}
	s := n.Style
	return s.HasPaint || s.IsText || s.IsImageLike || s.IsSvg || s.IsCanvas
}

// IsContentLeaf reports whether the node is terminal visual content.
func (n *InferredNode) IsContentLeaf() bool {
	s := n.Style
	return s.IsText || s.IsImageLike || s.IsSvg || s.IsCanvas
}
