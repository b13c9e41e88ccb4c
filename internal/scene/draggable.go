package scene

import "github.com/MeKo-Tech/quadwarp/internal/homography"

// DragRadius is the default grab distance around a corner handle.
const DragRadius = 10

// DraggablePoint is a corner handle that follows the pointer while grabbed,
// keeping the offset between the pointer and the handle from the press.
type DraggablePoint struct {
	Pos    homography.Point
	Radius float64

	dragging bool
	offset   homography.Point
}

// NewDraggablePoint returns a handle at p with the default radius.
func NewDraggablePoint(p homography.Point) *DraggablePoint {
	return &DraggablePoint{Pos: p, Radius: DragRadius}
}

// IsOver reports whether p is within the grab radius.
func (d *DraggablePoint) IsOver(p homography.Point) bool {
	return p.Dist(d.Pos) <= d.Radius
}

// Press starts a drag when p is over the handle.
func (d *DraggablePoint) Press(p homography.Point) bool {
	if !d.IsOver(p) {
		return false
	}
	d.dragging = true
	d.offset = homography.Pt(p.X-d.Pos.X, p.Y-d.Pos.Y)
	return true
}

// Drag moves the handle if it is being dragged.
func (d *DraggablePoint) Drag(p homography.Point) bool {
	if !d.dragging {
		return false
	}
	d.Pos = homography.Point{X: p.X - d.offset.X, Y: p.Y - d.offset.Y, Z: d.Pos.Z}
	return true
}

// Release ends a drag and reports whether one was in progress.
func (d *DraggablePoint) Release() bool {
	was := d.dragging
	d.dragging = false
	return was
}

// Dragging reports whether the handle is grabbed.
func (d *DraggablePoint) Dragging() bool { return d.dragging }
