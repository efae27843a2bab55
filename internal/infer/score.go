// internal/infer/score.go
package infer

import (
	"math"

	"github.com/xkilldash9x/reflow-cli/internal/config"
)

// ContainmentScore describes how tightly node A contains node B. It is a
// plain value computed on demand and never cached across runs, so the
// scoring function stays trivially testable in isolation.
type ContainmentScore struct {
	ContainTightness     float64 `json:"containTightness"`
	AreaRatio            float64 `json:"areaRatio"`
	StyleBonus           float64 `json:"styleBonus"`
	LayoutBonus          float64 `json:"layoutBonus"`
	ClipBonus            float64 `json:"clipBonus"`
	DecorationPenalty    float64 `json:"decorationPenalty"`
	OverlayPenalty       float64 `json:"overlayPenalty"`
	CrossStackingPenalty float64 `json:"crossStackingPenalty"`

	// Total is the ranking key. Ties between candidates are broken by
	// document order, never by score alone.
	Total float64 `json:"total"`
}

// Score computes the containment score of candidate parent a over child b.
// It is a pure function of the two descriptors and the configured weights.
func Score(a, b *InferredNode, w config.ScoreWeights, t config.Thresholds) ContainmentScore {
	var s ContainmentScore

	aArea := a.Rect.Area()
	bArea := b.Rect.Area()
	if aArea > 0 && bArea > 0 {
		coverage := a.Rect.Intersect(b.Rect).Area() / bArea
		s.AreaRatio = bArea / aArea
		// Tightness rewards the child sitting fully inside the parent
		// with little unused margin.
		s.ContainTightness = clamp01(coverage * (0.5 + 0.5*math.Min(s.AreaRatio, 1)))
	}

	// Matching flex/grid context: the author already declared grouping.
	if a.Style.IsFlexContainer || a.Style.IsGridContainer {
		s.StyleBonus = 1
		if a.Rect.Contains(b.Rect, t.ContainSlackPx) {
			s.LayoutBonus = 1
		}
	}

	// Clipping overflow is a strong signal of intended containment.
	switch a.Style.Overflow {
	case "hidden", "clip", "auto", "scroll":
		s.ClipBonus = 1
	}

	// A parent with no visible paint is unlikely to be semantically
	// significant on its own.
	if !a.HasVisiblePaint() {
		s.DecorationPenalty = 1
	}

	// Flow content and overlays must not be conflated.
	if b.IsOverlay {
		s.OverlayPenalty = 1
	}

	// Mixing z-index stacking contexts into one group is discouraged.
	if a.Style.ZIndex != b.Style.ZIndex {
		s.CrossStackingPenalty = 1
	}

	areaPenalty := 0.0
	if s.AreaRatio >= t.WrapperAreaRatio {
		// A child nearly the size of its parent is a passthrough
		// wrapper, not meaningful containment.
		areaPenalty = s.AreaRatio
	}

	s.Total = w.Tightness*s.ContainTightness -
		w.AreaRatio*areaPenalty +
		w.Style*s.StyleBonus +
		w.Layout*s.LayoutBonus +
		w.Clip*s.ClipBonus -
		w.Decoration*s.DecorationPenalty -
		w.Overlay*s.OverlayPenalty -
		w.CrossStacking*s.CrossStackingPenalty
	return s
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
