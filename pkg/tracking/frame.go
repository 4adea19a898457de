// Package tracking extracts the screen position and yaw of a single colored
// marker (an armband) from HSV video frames.
//
// A run is a straight pipeline: Segment builds a binary mask from a color
// range, Refiner denoises it with an opening followed by a closing,
// ExtractCentroid derives the marker centroid from the mask moments and
// EstimateYaw scans the mask to either side of the centroid. DrawLine is a
// diagnostic overlay that never affects tracking state.
package tracking

import "fmt"

// Channels is the number of interleaved 8-bit channels in a Frame.
const Channels = 3

// Mask values.
const (
	Background uint8 = 0
	Foreground uint8 = 255
)

// Frame is a 3-channel 8-bit image stored row-major with interleaved channels.
// The channel meaning depends on the producer: HSV for pipeline input,
// BGR for display output.
type Frame struct {
	Width  int
	Height int
	Pix    []uint8 // len == Width*Height*3
}

// NewFrame allocates a zeroed frame.
func NewFrame(width, height int) *Frame {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Frame{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*Channels),
	}
}

// Validate checks the frame dimensions against its buffer.
func (f *Frame) Validate() error {
	if f == nil {
		return fmt.Errorf("%w: nil frame", ErrMalformedFrame)
	}
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrMalformedFrame, f.Width, f.Height)
	}
	if len(f.Pix) != f.Width*f.Height*Channels {
		return fmt.Errorf("%w: buffer holds %d bytes, want %d",
			ErrMalformedFrame, len(f.Pix), f.Width*f.Height*Channels)
	}
	return nil
}

// At returns the three channel values at (x, y).
func (f *Frame) At(x, y int) (c0, c1, c2 uint8) {
	i := (y*f.Width + x) * Channels
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

// Set writes the three channel values at (x, y).
func (f *Frame) Set(x, y int, c0, c1, c2 uint8) {
	i := (y*f.Width + x) * Channels
	f.Pix[i], f.Pix[i+1], f.Pix[i+2] = c0, c1, c2
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	pix := make([]uint8, len(f.Pix))
	copy(pix, f.Pix)
	return &Frame{Width: f.Width, Height: f.Height, Pix: pix}
}

// Mask is a single-channel binary image, Foreground or Background per pixel.
type Mask struct {
	Width  int
	Height int
	Pix    []uint8 // len == Width*Height
}

// NewMask allocates an all-background mask.
func NewMask(width, height int) *Mask {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Mask{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height),
	}
}

// Validate checks the mask dimensions against its buffer.
func (m *Mask) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil mask", ErrMalformedMask)
	}
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrMalformedMask, m.Width, m.Height)
	}
	if len(m.Pix) != m.Width*m.Height {
		return fmt.Errorf("%w: buffer holds %d bytes, want %d",
			ErrMalformedMask, len(m.Pix), m.Width*m.Height)
	}
	return nil
}

// At returns the mask value at (x, y).
func (m *Mask) At(x, y int) uint8 {
	return m.Pix[y*m.Width+x]
}

// Set writes the mask value at (x, y).
func (m *Mask) Set(x, y int, v uint8) {
	m.Pix[y*m.Width+x] = v
}

// Count returns the number of foreground pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v != Background {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the mask.
func (m *Mask) Clone() *Mask {
	pix := make([]uint8, len(m.Pix))
	copy(pix, m.Pix)
	return &Mask{Width: m.Width, Height: m.Height, Pix: pix}
}
