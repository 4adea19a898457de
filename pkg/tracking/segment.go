package tracking

import "gocv.io/x/gocv"

// Segment thresholds an HSV frame into a fresh binary mask. A pixel is
// Foreground iff all three channels fall inside r (inclusive).
func Segment(hsv *Frame, r ColorRange) (*Mask, error) {
	src, err := hsv.mat()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	lo := gocv.NewScalar(float64(r.LowH), float64(r.LowS), float64(r.LowV), 0)
	hi := gocv.NewScalar(float64(r.HighH), float64(r.HighS), float64(r.HighV), 0)
	gocv.InRangeWithScalar(src, lo, hi, &dst)

	return maskFromMat(dst)
}
