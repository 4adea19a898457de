package tracking

import (
	"image"
	"image/color"
	"math"
)

// DrawLine paints a diagnostic line from `from` to `to` into a BGR frame.
//
// The step is the direction vector divided by the integer length with
// truncation, so only horizontal, vertical and exact diagonal lines come out
// straight. The draw is skipped entirely when an endpoint is outside the
// frame, the segment has zero length, or any painted pixel would land
// outside the buffer.
func DrawLine(dst *Frame, from, to image.Point, c color.RGBA) {
	if dst.Validate() != nil {
		return
	}
	bounds := image.Rect(0, 0, dst.Width, dst.Height)
	if !from.In(bounds) || !to.In(bounds) {
		return
	}

	dx, dy := to.X-from.X, to.Y-from.Y
	length := int(math.Sqrt(float64(dx*dx + dy*dy)))
	if length == 0 {
		return
	}

	unitX := dx / length
	unitY := dy / length
	unit := unitY*dst.Width + unitX
	next := from.Y*dst.Width + from.X + 1

	n := dst.Width * dst.Height
	first, last := next+unit, next+unit*length
	if first < 0 || first >= n || last < 0 || last >= n {
		return
	}

	for g := 0; g < length; g++ {
		next += unit
		i := next * Channels
		dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2] = c.B, c.G, c.R
	}
}

// DrawThickLine draws thickness parallel copies of the line, each shifted by
// one more pixel. Lines whose y span exceeds their x span are shifted along
// x, all others along y.
func DrawThickLine(dst *Frame, from, to image.Point, c color.RGBA, thickness int) {
	dx, dy := to.X-from.X, to.Y-from.Y
	for i := 0; i < thickness; i++ {
		off := image.Pt(0, i)
		if dx < dy {
			off = image.Pt(i, 0)
		}
		DrawLine(dst, from.Add(off), to.Add(off), c)
	}
}
