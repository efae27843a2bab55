// internal/geometry/geometry.go
package geometry

import "math"

// Rect is an axis-aligned box in a single global coordinate space
// (page pixels). After normalization width and height are never negative.
type Rect struct {
	X, Y, Width, Height float64
}

// Normalized clamps negative or NaN dimensions to zero. Positions are kept
// as-is; only sizes are sanitized.
func (r Rect) Normalized() Rect {
	if math.IsNaN(r.X) || math.IsInf(r.X, 0) {
		r.X = 0
	}
	if math.IsNaN(r.Y) || math.IsInf(r.Y, 0) {
		r.Y = 0
	}
	if !(r.Width > 0) || math.IsInf(r.Width, 0) {
		r.Width = 0
	}
	if !(r.Height > 0) || math.IsInf(r.Height, 0) {
		r.Height = 0
	}
	return r
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// CenterX returns the x coordinate of the box center.
func (r Rect) CenterX() float64 { return r.X + r.Width/2 }

// CenterY returns the y coordinate of the box center.
func (r Rect) CenterY() float64 { return r.Y + r.Height/2 }

// Area returns the surface area of the box.
func (r Rect) Area() float64 { return r.Width * r.Height }

// IsDegenerate reports whether the box has no usable area.
func (r Rect) IsDegenerate() bool { return r.Width <= 0 || r.Height <= 0 }

// Contains reports whether other lies fully inside r, allowing each edge to
// spill over by at most tol pixels.
func (r Rect) Contains(other Rect, tol float64) bool {
	return other.X >= r.X-tol &&
		other.Y >= r.Y-tol &&
		other.Right() <= r.Right()+tol &&
		other.Bottom() <= r.Bottom()+tol
}

// Intersects reports whether the two boxes share any area.
func (r Rect) Intersects(other Rect) bool {
	return r.X < other.Right() && other.X < r.Right() &&
		r.Y < other.Bottom() && other.Y < r.Bottom()
}

// Intersect returns the overlapping region of the two boxes, or a zero rect
// when they are disjoint.
func (r Rect) Intersect(other Rect) Rect {
	x1 := math.Max(r.X, other.X)
	y1 := math.Max(r.Y, other.Y)
	x2 := math.Min(r.Right(), other.Right())
	y2 := math.Min(r.Bottom(), other.Bottom())
	if x2 <= x1 || y2 <= y1 {
		return Rect{}
	}
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// Union returns the smallest box enclosing both inputs. A degenerate input
// does not grow the result beyond the other box.
func (r Rect) Union(other Rect) Rect {
	if r.IsDegenerate() {
		return other
	}
	if other.IsDegenerate() {
		return r
	}
	x1 := math.Min(r.X, other.X)
	y1 := math.Min(r.Y, other.Y)
	x2 := math.Max(r.Right(), other.Right())
	y2 := math.Max(r.Bottom(), other.Bottom())
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// BoundingBox returns the union of all given rects.
func BoundingBox(rects []Rect) Rect {
	var out Rect
	for _, r := range rects {
		out = out.Union(r)
	}
	return out
}

// Edges holds per-side extents, used for synthesized padding.
type Edges struct {
	Top, Right, Bottom, Left float64
}

// Clamped returns the edges with any negative side clamped to zero.
func (e Edges) Clamped() Edges {
	if e.Top < 0 {
		e.Top = 0
	}
	if e.Right < 0 {
		e.Right = 0
	}
	if e.Bottom < 0 {
		e.Bottom = 0
	}
	if e.Left < 0 {
		e.Left = 0
	}
	return e
}

// InsetOf computes the per-side distance between an outer box and the
// bounding box of its content. Used to derive padding for auto-layout.
func InsetOf(outer, content Rect) Edges {
	return Edges{
		Top:    content.Y - outer.Y,
		Right:  outer.Right() - content.Right(),
		Bottom: outer.Bottom() - content.Bottom(),
		Left:   content.X - outer.X,
	}.Clamped()
}
