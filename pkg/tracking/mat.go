package tracking

import (
	"fmt"

	"gocv.io/x/gocv"
)

// mat copies the frame into an owned CV_8UC3 Mat. The caller must Close it.
func (f *Frame) mat() (gocv.Mat, error) {
	if err := f.Validate(); err != nil {
		return gocv.Mat{}, err
	}
	return cloneBytes(f.Height, f.Width, gocv.MatTypeCV8UC3, f.Pix)
}

// mat copies the mask into an owned CV_8UC1 Mat. The caller must Close it.
func (m *Mask) mat() (gocv.Mat, error) {
	if err := m.Validate(); err != nil {
		return gocv.Mat{}, err
	}
	return cloneBytes(m.Height, m.Width, gocv.MatTypeCV8U, m.Pix)
}

// maskFromMat copies a single channel 8-bit Mat into a new mask.
func maskFromMat(mat gocv.Mat) (*Mask, error) {
	if mat.Empty() || mat.Type() != gocv.MatTypeCV8U {
		return nil, fmt.Errorf("%w: mat type %v", ErrMalformedMask, mat.Type())
	}
	m := &Mask{Width: mat.Cols(), Height: mat.Rows(), Pix: mat.ToBytes()}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// cloneBytes wraps pix in a temporary Mat header and returns a deep copy, so
// the result never aliases Go memory.
func cloneBytes(rows, cols int, mt gocv.MatType, pix []byte) (gocv.Mat, error) {
	view, err := gocv.NewMatFromBytes(rows, cols, mt, pix)
	if err != nil {
		return gocv.Mat{}, err
	}
	defer view.Close()
	return view.Clone(), nil
}
