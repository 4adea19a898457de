package tracking

// fillMaskRect marks a w x h rectangle at (x0, y0) as foreground.
func fillMaskRect(m *Mask, x0, y0, w, h int) {
	for y := y0; y < y0+h; y++ {
		for x := x0; x < x0+w; x++ {
			m.Set(x, y, Foreground)
		}
	}
}

// fillFrameRect paints a w x h rectangle at (x0, y0) with one HSV triple.
func fillFrameRect(f *Frame, x0, y0, w, h int, c0, c1, c2 uint8) {
	for y := y0; y < y0+h; y++ {
		for x := x0; x < x0+w; x++ {
			f.Set(x, y, c0, c1, c2)
		}
	}
}

func masksEqual(a, b *Mask) bool {
	if a.Width != b.Width || a.Height != b.Height || len(a.Pix) != len(b.Pix) {
		return false
	}
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			return false
		}
	}
	return true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
