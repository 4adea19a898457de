package camera

import (
	"errors"
	"fmt"
	"sync/atomic"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-armband/pkg/tracking"
)

// ErrEmptyImage is returned when OpenCV produced no pixels.
var ErrEmptyImage = errors.New("camera: empty image")

// FrameFromMat copies an 8-bit 3-channel Mat into a tracking frame.
func FrameFromMat(m gocv.Mat) (*tracking.Frame, error) {
	if m.Empty() {
		return nil, ErrEmptyImage
	}
	if m.Type() != gocv.MatTypeCV8UC3 {
		return nil, fmt.Errorf("camera: unsupported mat type %v", m.Type())
	}
	f := &tracking.Frame{
		Width:  m.Cols(),
		Height: m.Rows(),
		Pix:    m.ToBytes(),
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// MatFromFrame builds a Mat over a copy of the frame's pixels.
// The caller must Close it.
func MatFromFrame(f *tracking.Frame) (gocv.Mat, error) {
	if err := f.Validate(); err != nil {
		return gocv.Mat{}, err
	}
	return gocv.NewMatFromBytes(f.Height, f.Width, gocv.MatTypeCV8UC3, append([]byte(nil), f.Pix...))
}

// Converter provides the OpenCV color and codec primitives.
// It is safe for concurrent use.
type Converter struct {
	quality atomic.Int32
}

// NewConverter returns a converter that encodes at the given JPEG quality.
func NewConverter(quality int) *Converter {
	c := &Converter{}
	c.SetQuality(quality)
	return c
}

// SetQuality changes the JPEG quality, clamped to 1..100.
func (c *Converter) SetQuality(quality int) {
	c.quality.Store(int32(max(1, min(100, quality))))
}

// Quality returns the current JPEG quality.
func (c *Converter) Quality() int {
	return int(c.quality.Load())
}

// ToHSV converts a BGR frame to HSV with OpenCV's 8-bit convention
// (hue in [0,179]).
func (c *Converter) ToHSV(bgr *tracking.Frame) (*tracking.Frame, error) {
	src, err := MatFromFrame(bgr)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	hsv := gocv.NewMat()
	defer hsv.Close()
	if err := gocv.CvtColor(src, &hsv, gocv.ColorBGRToHSV); err != nil {
		return nil, fmt.Errorf("camera: bgr to hsv: %w", err)
	}
	return FrameFromMat(hsv)
}

// EncodeJPEG compresses a BGR frame.
func (c *Converter) EncodeJPEG(bgr *tracking.Frame) ([]byte, error) {
	src, err := MatFromFrame(bgr)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, src, []int{gocv.IMWriteJpegQuality, c.Quality()})
	if err != nil {
		return nil, fmt.Errorf("camera: encode jpeg: %w", err)
	}
	defer buf.Close()

	// The buffer is owned by OpenCV
	return append([]byte(nil), buf.GetBytes()...), nil
}

// DecodeJPEG decompresses an image into a BGR frame.
func (c *Converter) DecodeJPEG(data []byte) (*tracking.Frame, error) {
	img, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("camera: decode jpeg: %w", err)
	}
	defer img.Close()
	return FrameFromMat(img)
}
