package schemas

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// json is configured for deterministic output: map keys are sorted, so the
// same tree always serializes to the same bytes.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// -- Capture Schemas --
//
// A capture is the generic visual-element tree produced by a DOM extraction
// pipeline. The core only interprets the fields named below; everything else
// a node carries is preserved verbatim in Extra and round-trips untouched.

// Layout is an axis-aligned box in page pixels. Extractors emit either
// x/y or left/top; both spellings are accepted on decode.
type Layout struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// layoutWire mirrors the accepted wire spellings of a Layout.
type layoutWire struct {
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
	Left   *float64 `json:"left,omitempty"`
	Top    *float64 `json:"top,omitempty"`
	Width  float64  `json:"width"`
	Height float64  `json:"height"`
}

// UnmarshalJSON accepts both x/y and left/top coordinate spellings.
func (l *Layout) UnmarshalJSON(data []byte) error {
	var w layoutWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decoding layout: %w", err)
	}
	switch {
	case w.X != nil:
		l.X = *w.X
	case w.Left != nil:
		l.X = *w.Left
	}
	switch {
	case w.Y != nil:
		l.Y = *w.Y
	case w.Top != nil:
		l.Y = *w.Top
	}
	l.Width = w.Width
	l.Height = w.Height
	return nil
}

// MarshalJSON always emits the canonical x/y spelling.
func (l Layout) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}{l.X, l.Y, l.Width, l.Height})
}

// Color is an RGBA color with channels in [0,1].
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// Paint describes a single fill of a node.
type Paint struct {
	Type    string   `json:"type,omitempty"`
	Visible *bool    `json:"visible,omitempty"`
	Opacity *float64 `json:"opacity,omitempty"`
	Color   *Color   `json:"color,omitempty"`
}

// IsVisible reports whether the paint contributes anything to the page.
func (p Paint) IsVisible() bool {
	if p.Visible != nil && !*p.Visible {
		return false
	}
	if p.Opacity != nil && *p.Opacity <= 0 {
		return false
	}
	if p.Color != nil && p.Color.A <= 0 {
		return false
	}
	return true
}

// LayoutContext carries computed-style positioning hints for a node.
type LayoutContext struct {
	Position string `json:"position,omitempty"`
	ZIndex   *int   `json:"zIndex,omitempty"`
	Overflow string `json:"overflow,omitempty"`
}

// CaptureNode is one element of the captured visual tree. The struct fields
// are the shape the core reads; Extra holds every other key of the original
// JSON object, owned by the caller and never interpreted.
type CaptureNode struct {
	ID      string
	Name    string
	Type    string
	HTMLTag string

	// Geometry. AbsoluteLayout (document coordinates) is preferred over
	// Layout (viewport coordinates) throughout the pipeline.
	Layout         *Layout
	AbsoluteLayout *Layout

	// Style-bearing fields.
	Fills        []Paint
	CornerRadius float64
	Opacity      *float64
	Transform    string

	// Structural hints.
	Position       string
	ZIndex         *int
	Overflow       string
	Display        string
	FlexDirection  string
	JustifyContent string
	AlignItems     string
	Gap            float64
	RowGap         float64
	ColumnGap      float64
	IsText         bool
	IsImage        bool
	IsSvg          bool
	IsCanvas       bool
	LayoutContext  *LayoutContext
	AutoLayout     map[string]any

	Children []*CaptureNode

	// Extra holds all keys of the source object that the core does not
	// interpret. They round-trip byte-for-byte through the converter.
	Extra map[string]jsoniter.RawMessage
}

// captureWire is the decode/encode target for the interpreted fields.
type captureWire struct {
	ID             string                 `json:"id,omitempty"`
	Name           string                 `json:"name,omitempty"`
	Type           string                 `json:"type,omitempty"`
	HTMLTag        string                 `json:"htmlTag,omitempty"`
	Layout         *Layout                `json:"layout,omitempty"`
	AbsoluteLayout *Layout                `json:"absoluteLayout,omitempty"`
	Fills          []Paint                `json:"fills,omitempty"`
	CornerRadius   float64                `json:"cornerRadius,omitempty"`
	Opacity        *float64               `json:"opacity,omitempty"`
	Transform      string                 `json:"transform,omitempty"`
	Position       string                 `json:"position,omitempty"`
	ZIndex         *int                   `json:"zIndex,omitempty"`
	Overflow       string                 `json:"overflow,omitempty"`
	Display        string                 `json:"display,omitempty"`
	FlexDirection  string                 `json:"flexDirection,omitempty"`
	JustifyContent string                 `json:"justifyContent,omitempty"`
	AlignItems     string                 `json:"alignItems,omitempty"`
	Gap            float64                `json:"gap,omitempty"`
	RowGap         float64                `json:"rowGap,omitempty"`
	ColumnGap      float64                `json:"columnGap,omitempty"`
	IsText         bool                   `json:"isText,omitempty"`
	IsImage        bool                   `json:"isImage,omitempty"`
	IsSvg          bool                   `json:"isSvg,omitempty"`
	IsCanvas       bool                   `json:"isCanvas,omitempty"`
	LayoutContext  *LayoutContext         `json:"layoutContext,omitempty"`
	AutoLayout     map[string]any         `json:"autoLayout,omitempty"`
	Children       []*CaptureNode         `json:"children,omitempty"`
}

// interpretedKeys lists the JSON keys the core reads. Everything else lands
// in Extra.
var interpretedKeys = map[string]struct{}{
	"id": {}, "name": {}, "type": {}, "htmlTag": {},
	"layout": {}, "absoluteLayout": {},
	"fills": {}, "cornerRadius": {}, "opacity": {}, "transform": {},
	"position": {}, "zIndex": {}, "overflow": {}, "display": {},
	"flexDirection": {}, "justifyContent": {}, "alignItems": {},
	"gap": {}, "rowGap": {}, "columnGap": {},
	"isText": {}, "isImage": {}, "isSvg": {}, "isCanvas": {},
	"layoutContext": {}, "autoLayout": {}, "children": {},
}

// UnmarshalJSON splits the object into interpreted fields and the opaque
// Extra payload.
func (n *CaptureNode) UnmarshalJSON(data []byte) error {
	var w captureWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decoding capture node: %w", err)
	}
	var raw map[string]jsoniter.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding capture node payload: %w", err)
	}
	for key := range raw {
		if _, ok := interpretedKeys[key]; ok {
			delete(raw, key)
		}
	}
	if len(raw) == 0 {
		raw = nil
	}
	*n = CaptureNode{
		ID:             w.ID,
		Name:           w.Name,
		Type:           w.Type,
		HTMLTag:        w.HTMLTag,
		Layout:         w.Layout,
		AbsoluteLayout: w.AbsoluteLayout,
		Fills:          w.Fills,
		CornerRadius:   w.CornerRadius,
		Opacity:        w.Opacity,
		Transform:      w.Transform,
		Position:       w.Position,
		ZIndex:         w.ZIndex,
		Overflow:       w.Overflow,
		Display:        w.Display,
		FlexDirection:  w.FlexDirection,
		JustifyContent: w.JustifyContent,
		AlignItems:     w.AlignItems,
		Gap:            w.Gap,
		RowGap:         w.RowGap,
		ColumnGap:      w.ColumnGap,
		IsText:         w.IsText,
		IsImage:        w.IsImage,
		IsSvg:          w.IsSvg,
		IsCanvas:       w.IsCanvas,
		LayoutContext:  w.LayoutContext,
		AutoLayout:     w.AutoLayout,
		Children:       w.Children,
		Extra:          raw,
	}
	return nil
}

// MarshalJSON merges the interpreted fields over the opaque Extra payload.
// Interpreted fields win on key collision; Extra keys survive unchanged.
func (n CaptureNode) MarshalJSON() ([]byte, error) {
	out := make(map[string]jsoniter.RawMessage, len(n.Extra)+8)
	for k, v := range n.Extra {
		out[k] = v
	}
	w := captureWire{
		ID:             n.ID,
		Name:           n.Name,
		Type:           n.Type,
		HTMLTag:        n.HTMLTag,
		Layout:         n.Layout,
		AbsoluteLayout: n.AbsoluteLayout,
		Fills:          n.Fills,
		CornerRadius:   n.CornerRadius,
		Opacity:        n.Opacity,
		Transform:      n.Transform,
		Position:       n.Position,
		ZIndex:         n.ZIndex,
		Overflow:       n.Overflow,
		Display:        n.Display,
		FlexDirection:  n.FlexDirection,
		JustifyContent: n.JustifyContent,
		AlignItems:     n.AlignItems,
		Gap:            n.Gap,
		RowGap:         n.RowGap,
		ColumnGap:      n.ColumnGap,
		IsText:         n.IsText,
		IsImage:        n.IsImage,
		IsSvg:          n.IsSvg,
		IsCanvas:       n.IsCanvas,
		LayoutContext:  n.LayoutContext,
		AutoLayout:     n.AutoLayout,
	}
	encoded, err := json.Marshal(w)
	if err != nil {
		return nil, err
	}
	var fields map[string]jsoniter.RawMessage
	if err := json.Unmarshal(encoded, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		out[k] = v
	}
	// Children are always present in converter output, even when empty, so
	// they are encoded explicitly rather than relying on omitempty.
	if n.Children != nil {
		kids, err := json.Marshal(n.Children)
		if err != nil {
			return nil, err
		}
		out["children"] = kids
	}
	return json.Marshal(out)
}

// EffectiveLayout returns the node's geometry, preferring document
// coordinates over viewport coordinates. It returns nil when the node
// carries no geometry at all.
func (n *CaptureNode) EffectiveLayout() *Layout {
	if n.AbsoluteLayout != nil {
		return n.AbsoluteLayout
	}
	return n.Layout
}

// EffectivePosition resolves the computed position value, preferring the
// layoutContext over the top-level hint.
func (n *CaptureNode) EffectivePosition() string {
	if n.LayoutContext != nil && n.LayoutContext.Position != "" {
		return n.LayoutContext.Position
	}
	return n.Position
}

// EffectiveOverflow resolves the computed overflow value.
func (n *CaptureNode) EffectiveOverflow() string {
	if n.LayoutContext != nil && n.LayoutContext.Overflow != "" {
		return n.LayoutContext.Overflow
	}
	return n.Overflow
}

// EffectiveZIndex resolves the z-index, defaulting to 0.
func (n *CaptureNode) EffectiveZIndex() int {
	if n.LayoutContext != nil && n.LayoutContext.ZIndex != nil {
		return *n.LayoutContext.ZIndex
	}
	if n.ZIndex != nil {
		return *n.ZIndex
	}
	return 0
}
