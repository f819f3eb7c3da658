// Package model defines the geometric data model shared by the layout,
// chunking, and retrieval stages: bounding boxes, page elements, detected
// tables, pages, and text chunks.
//
// Coordinates follow the page-layout collaborator's convention: origin at
// the bottom-left of the page, y increasing upward.
package model

// Rect is an axis-aligned bounding box.
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Width returns the horizontal span, clamped to 0 for inverted boxes.
func (r Rect) Width() float64 {
	if r.X1 < r.X0 {
		return 0
	}
	return r.X1 - r.X0
}

// Height returns the vertical span, clamped to 0 for inverted boxes.
func (r Rect) Height() float64 {
	if r.Y1 < r.Y0 {
		return 0
	}
	return r.Y1 - r.Y0
}

// VOverlap reports whether the vertical extents of r and other overlap
// within the given tolerance.
func (r Rect) VOverlap(other Rect, tol float64) bool {
	return !(r.Y1 < other.Y0-tol || r.Y0 > other.Y1+tol)
}

// HOverlap reports whether the horizontal extents of r and other overlap
// within the given tolerance.
func (r Rect) HOverlap(other Rect, tol float64) bool {
	return !(r.X1 < other.X0-tol || r.X0 > other.X1+tol)
}

// CollidesWith reports whether r and other overlap in both axes within
// the given tolerance. It is symmetric: r.CollidesWith(o, t) ==
// o.CollidesWith(r, t).
func (r Rect) CollidesWith(other Rect, tol float64) bool {
	return r.VOverlap(other, tol) && r.HOverlap(other, tol)
}
