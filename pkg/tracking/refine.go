package tracking

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Kernel describes a structuring element anchored at its center.
type Kernel struct {
	Shape  gocv.MorphShape
	Width  int
	Height int
}

// EllipseKernel describes an elliptic structuring element. The 5x5 case is a
// disk with its four corner pairs removed.
func EllipseKernel(width, height int) Kernel {
	return Kernel{Shape: gocv.MorphEllipse, Width: width, Height: height}
}

// RectKernel describes a full rectangular structuring element.
func RectKernel(width, height int) Kernel {
	return Kernel{Shape: gocv.MorphRect, Width: width, Height: height}
}

// DefaultKernel is the 5x5 ellipse used for armband masks.
func DefaultKernel() Kernel {
	return EllipseKernel(5, 5)
}

func (k Kernel) validate() error {
	if k.Width <= 0 || k.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidKernel, k.Width, k.Height)
	}
	switch k.Shape {
	case gocv.MorphRect, gocv.MorphCross, gocv.MorphEllipse:
		return nil
	}
	return fmt.Errorf("%w: shape %d", ErrInvalidKernel, k.Shape)
}

// Mat builds the structuring element. The caller must Close it.
func (k Kernel) Mat() gocv.Mat {
	return gocv.GetStructuringElement(k.Shape, image.Pt(k.Width, k.Height))
}

// Refiner denoises binary masks with a morphological opening followed by a
// closing. Not safe for concurrent use.
type Refiner struct {
	kernel Kernel
}

// NewRefiner creates a refiner for the given structuring element.
func NewRefiner(k Kernel) (*Refiner, error) {
	if err := k.validate(); err != nil {
		return nil, err
	}
	return &Refiner{kernel: k}, nil
}

// Kernel returns the structuring element in use.
func (r *Refiner) Kernel() Kernel {
	return r.kernel
}

// Refine applies erode, dilate (opening) then dilate, erode (closing) to m in
// place. Neighbors outside the mask count as background.
func (r *Refiner) Refine(m *Mask) error {
	return r.run(m, gocv.MorphErode, gocv.MorphDilate, gocv.MorphDilate, gocv.MorphErode)
}

// Open applies only the opening (erode then dilate) in place.
func (r *Refiner) Open(m *Mask) error {
	return r.run(m, gocv.MorphErode, gocv.MorphDilate)
}

// Close applies only the closing (dilate then erode) in place.
func (r *Refiner) Close(m *Mask) error {
	return r.run(m, gocv.MorphDilate, gocv.MorphErode)
}

func (r *Refiner) run(m *Mask, ops ...gocv.MorphType) error {
	cur, err := m.mat()
	if err != nil {
		return err
	}
	defer func() { cur.Close() }()

	elem := r.kernel.Mat()
	defer elem.Close()

	for _, op := range ops {
		next := r.apply(cur, elem, op)
		cur.Close()
		cur = next
	}

	out, err := maskFromMat(cur)
	if err != nil {
		return err
	}
	copy(m.Pix, out.Pix)
	return nil
}

// apply runs one morphological step over src padded with a zero border as
// wide as the kernel reach, so pixels outside the mask are background for
// erosion as well as dilation. The result has src's size; the caller must
// Close it.
func (r *Refiner) apply(src, elem gocv.Mat, op gocv.MorphType) gocv.Mat {
	px, py := r.kernel.Width/2, r.kernel.Height/2

	padded := gocv.NewMat()
	defer padded.Close()
	gocv.CopyMakeBorder(src, &padded, py, py, px, px, gocv.BorderConstant, color.RGBA{})

	out := gocv.NewMat()
	defer out.Close()
	gocv.MorphologyEx(padded, &out, op, elem)

	roi := out.Region(image.Rect(px, py, px+src.Cols(), py+src.Rows()))
	defer roi.Close()
	return roi.Clone()
}
