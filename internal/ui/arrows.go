package ui

import (
	"math"

	"mad-liquid/internal/liquid"
)

// flowArrow is one direction arrow in screen space: a shaft from the cell
// centre towards the neighbour plus two head strokes.
type flowArrow struct {
	x1, y1 float64
	x2, y2 float64

	leftX, leftY   float64
	rightX, rightY float64
}

const (
	arrowReach     = 0.45
	arrowHeadRatio = 0.35
	arrowHeadAngle = math.Pi / 6
)

// flowArrows appends an arrow for every direction set in the per-cell flow
// masks of a w*h grid drawn at scale pixels per cell.
func flowArrows(dst []flowArrow, flow []uint8, w, h, scale int) []flowArrow {
	dst = dst[:0]
	if len(flow) != w*h || scale <= 0 {
		return dst
	}
	reach := arrowReach * float64(scale)
	head := reach * arrowHeadRatio
	for i, mask := range flow {
		if mask == 0 {
			continue
		}
		set := liquid.FlowSet(mask)
		cx := (float64(i%w) + 0.5) * float64(scale)
		cy := (float64(i/w) + 0.5) * float64(scale)
		for _, d := range liquid.Directions {
			if !set.Has(d) {
				continue
			}
			dx, dy := d.Offset()
			tipX := cx + float64(dx)*reach
			tipY := cy + float64(dy)*reach
			angle := math.Atan2(float64(dy), float64(dx))
			dst = append(dst, flowArrow{
				x1:     cx,
				y1:     cy,
				x2:     tipX,
				y2:     tipY,
				leftX:  tipX - math.Cos(angle+arrowHeadAngle)*head,
				leftY:  tipY - math.Sin(angle+arrowHeadAngle)*head,
				rightX: tipX - math.Cos(angle-arrowHeadAngle)*head,
				rightY: tipY - math.Sin(angle-arrowHeadAngle)*head,
			})
		}
	}
	return dst
}

// cellAt converts a cursor position into grid coordinates, reporting false
// when the cursor is outside the w*h grid.
func cellAt(px, py, w, h, scale int) (int, int, bool) {
	if scale <= 0 || px < 0 || py < 0 {
		return 0, 0, false
	}
	x, y := px/scale, py/scale
	if x >= w || y >= h {
		return 0, 0, false
	}
	return x, y, true
}
