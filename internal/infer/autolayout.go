// internal/infer/autolayout.go
//
// Stack and grid detection over sibling geometry, and the synthesis of
// auto-layout parameters once a pattern is found.
package infer

import (
	"math"
	"sort"

	"github.com/xkilldash9x/reflow-cli/internal/config"
	"github.com/xkilldash9x/reflow-cli/internal/geometry"
)

// stackInfo is the evidence gathered for a detected single-axis stack.
type stackInfo struct {
	axis    LayoutMode
	gaps    []float64
	meanGap float64
	cross   Align
	content geometry.Rect
	// span is the content extent along the main axis.
	span float64
}

// detectStack checks whether the children's geometry is explained by a
// single row or column with consistent gaps and a shared cross-axis
// alignment. Children are inspected in geometric order on a copy; the
// caller's slice order is never touched.
func detectStack(children []*InferredNode, t config.Thresholds) (stackInfo, bool) {
	if len(children) < t.MinStackChildren {
		return stackInfo{}, false
	}
	v, vOK := detectAxisStack(children, LayoutVertical, t)
	h, hOK := detectAxisStack(children, LayoutHorizontal, t)
	switch {
	case vOK && hOK:
		// Both axes explain the geometry (rare, needs heavy overlap
		// tolerance); the dominant axis wins.
		if v.span >= h.span {
			return v, true
		}
		return h, true
	case vOK:
		return v, true
	case hOK:
		return h, true
	}
	return stackInfo{}, false
}

func detectAxisStack(children []*InferredNode, axis LayoutMode, t config.Thresholds) (stackInfo, bool) {
	ordered := make([]*InferredNode, len(children))
	copy(ordered, children)
	sort.SliceStable(ordered, func(i, j int) bool {
		if axis == LayoutVertical {
			if ordered[i].Rect.Y != ordered[j].Rect.Y {
				return ordered[i].Rect.Y < ordered[j].Rect.Y
			}
		} else {
			if ordered[i].Rect.X != ordered[j].Rect.X {
				return ordered[i].Rect.X < ordered[j].Rect.X
			}
		}
		return ordered[i].docIndex < ordered[j].docIndex
	})

	gaps := make([]float64, 0, len(ordered)-1)
	for i := 1; i < len(ordered); i++ {
		var gap float64
		if axis == LayoutVertical {
			gap = ordered[i].Rect.Y - ordered[i-1].Rect.Bottom()
		} else {
			gap = ordered[i].Rect.X - ordered[i-1].Rect.Right()
		}
		// Monotonic along the main axis; tiny overlaps are measurement
		// noise, anything larger is not a stack.
		if gap < -t.GapTolerancePx {
			return stackInfo{}, false
		}
		gaps = append(gaps, math.Max(gap, 0))
	}
	mean, ok := uniformGaps(gaps, t)
	if !ok {
		return stackInfo{}, false
	}
	cross, ok := crossAlignment(ordered, axis, t)
	if !ok {
		return stackInfo{}, false
	}

	rects := make([]geometry.Rect, len(ordered))
	for i, c := range ordered {
		rects[i] = c.Rect
	}
	content := geometry.BoundingBox(rects)
	span := content.Height
	if axis == LayoutHorizontal {
		span = content.Width
	}
	return stackInfo{
		axis:    axis,
		gaps:    gaps,
		meanGap: mean,
		cross:   cross,
		content: content,
		span:    span,
	}, true
}

// uniformGaps reports whether a run of gaps is statistically uniform:
// max-min within max(GapTolerancePx, mean*GapToleranceRatio).
func uniformGaps(gaps []float64, t config.Thresholds) (float64, bool) {
	if len(gaps) == 0 {
		return 0, false
	}
	minGap, maxGap, sum := gaps[0], gaps[0], 0.0
	for _, g := range gaps {
		minGap = math.Min(minGap, g)
		maxGap = math.Max(maxGap, g)
		sum += g
	}
	mean := sum / float64(len(gaps))
	tol := math.Max(t.GapTolerancePx, mean*t.GapToleranceRatio)
	if maxGap-minGap > tol {
		return 0, false
	}
	return mean, true
}

// crossAlignment finds the shared cross-axis alignment of the run: leading
// edges, centers, or trailing edges within tolerance.
func crossAlignment(ordered []*InferredNode, axis LayoutMode, t config.Thresholds) (Align, bool) {
	lead := func(r geometry.Rect) float64 {
		if axis == LayoutVertical {
			return r.X
		}
		return r.Y
	}
	center := func(r geometry.Rect) float64 {
		if axis == LayoutVertical {
			return r.CenterX()
		}
		return r.CenterY()
	}
	trail := func(r geometry.Rect) float64 {
		if axis == LayoutVertical {
			return r.Right()
		}
		return r.Bottom()
	}
	if spread(ordered, lead) <= t.CrossAlignTolerancePx {
		return AlignMin, true
	}
	if spread(ordered, center) <= t.CrossAlignTolerancePx {
		return AlignCenter, true
	}
	if spread(ordered, trail) <= t.CrossAlignTolerancePx {
		return AlignMax, true
	}
	return "", false
}

func spread(nodes []*InferredNode, f func(geometry.Rect) float64) float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, n := range nodes {
		v := f(n.Rect)
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return hi - lo
}

// synthesizeStack converts measured gaps and extents into auto-layout
// parameters for a classified stack.
func synthesizeStack(parent geometry.Rect, info stackInfo, justifyContent string, t config.Thresholds) *AutoLayout {
	pad := geometry.InsetOf(parent, info.content)
	al := &AutoLayout{
		LayoutMode:       info.axis,
		PrimaryAxisAlign: AlignMin,
		CounterAxisAlign: info.cross,
		PaddingTop:       round2(pad.Top),
		PaddingRight:     round2(pad.Right),
		PaddingBottom:    round2(pad.Bottom),
		PaddingLeft:      round2(pad.Left),
		ItemSpacing:      round2(info.meanGap),
	}

	parentMain := parent.Height
	if info.axis == LayoutHorizontal {
		parentMain = parent.Width
	}
	var gapTotal float64
	for _, g := range info.gaps {
		gapTotal += g
	}
	// Uniform gaps that eat a large share of the parent indicate
	// distributed items rather than a fixed spacing.
	if justifyContent == "space-between" ||
		(parentMain > 0 && gapTotal/parentMain > t.SpaceBetweenSlackRatio) {
		al.PrimaryAxisAlign = AlignSpaceBetween
	}
	return al
}

// gridInfo is the evidence gathered for a detected regular grid.
type gridInfo struct {
	rows, cols     int
	rowGap, colGap float64
	content        geometry.Rect
}

// detectGrid checks whether the children form a regular row/column grid:
// equal-length rows, near-uniform cell size and pitch in both axes.
func detectGrid(children []*InferredNode, t config.Thresholds) (gridInfo, bool) {
	if len(children) < 4 {
		return gridInfo{}, false
	}
	ordered := make([]*InferredNode, len(children))
	copy(ordered, children)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Rect.Y != ordered[j].Rect.Y {
			return ordered[i].Rect.Y < ordered[j].Rect.Y
		}
		return ordered[i].Rect.X < ordered[j].Rect.X
	})

	// Cluster into rows by top edge.
	var rows [][]*InferredNode
	for _, c := range ordered {
		if len(rows) == 0 || c.Rect.Y-rows[len(rows)-1][0].Rect.Y > t.CrossAlignTolerancePx {
			rows = append(rows, []*InferredNode{c})
			continue
		}
		rows[len(rows)-1] = append(rows[len(rows)-1], c)
	}
	if len(rows) < 2 {
		return gridInfo{}, false
	}
	cols := len(rows[0])
	if cols < 2 {
		return gridInfo{}, false
	}
	for _, row := range rows {
		if len(row) != cols {
			return gridInfo{}, false
		}
		sort.SliceStable(row, func(i, j int) bool { return row[i].Rect.X < row[j].Rect.X })
	}

	// Cell size and pitch must be near-uniform in both axes.
	var widths, heights, xPitches, yPitches []float64
	for ri, row := range rows {
		for ci, cell := range row {
			widths = append(widths, cell.Rect.Width)
			heights = append(heights, cell.Rect.Height)
			if ci > 0 {
				xPitches = append(xPitches, cell.Rect.X-row[ci-1].Rect.X)
			}
		}
		if ri > 0 {
			yPitches = append(yPitches, row[0].Rect.Y-rows[ri-1][0].Rect.Y)
		}
	}
	meanW, okW := nearUniform(widths, t.GridCellToleranceRatio)
	meanH, okH := nearUniform(heights, t.GridCellToleranceRatio)
	meanXP, okXP := nearUniform(xPitches, t.GridCellToleranceRatio)
	meanYP, okYP := nearUniform(yPitches, t.GridCellToleranceRatio)
	if !okW || !okH || !okXP || !okYP {
		return gridInfo{}, false
	}
	colGap := meanXP - meanW
	rowGap := meanYP - meanH
	if colGap < -t.GapTolerancePx || rowGap < -t.GapTolerancePx {
		return gridInfo{}, false
	}

	rects := make([]geometry.Rect, len(ordered))
	for i, c := range ordered {
		rects[i] = c.Rect
	}
	return gridInfo{
		rows:    len(rows),
		cols:    cols,
		rowGap:  math.Max(rowGap, 0),
		colGap:  math.Max(colGap, 0),
		content: geometry.BoundingBox(rects),
	}, true
}

// nearUniform reports whether the values cluster within ratio of the mean.
func nearUniform(values []float64, ratio float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	lo, hi, sum := values[0], values[0], 0.0
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
		sum += v
	}
	mean := sum / float64(len(values))
	if mean <= 0 {
		return mean, hi-lo == 0
	}
	return mean, (hi-lo)/mean <= ratio
}

// synthesizeGrid emits auto-layout for a classified grid. Grids are
// expressed as a wrapping horizontal layout; row spacing rides along in
// the hints.
func synthesizeGrid(parent geometry.Rect, info gridInfo) *AutoLayout {
	pad := geometry.InsetOf(parent, info.content)
	return &AutoLayout{
		LayoutMode:       LayoutHorizontal,
		PrimaryAxisAlign: AlignMin,
		CounterAxisAlign: AlignMin,
		PaddingTop:       round2(pad.Top),
		PaddingRight:     round2(pad.Right),
		PaddingBottom:    round2(pad.Bottom),
		PaddingLeft:      round2(pad.Left),
		ItemSpacing:      round2(info.colGap),
	}
}

// round2 rounds to two decimals to keep float noise out of the output.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
