package tracking

import (
	"math"

	"gocv.io/x/gocv"
)

// TrackResult is the per-frame tracking output. When Valid is false the
// centroid and yaw hold the last confident detection (or zero before any).
type TrackResult struct {
	X     int     `json:"x"`
	Y     int     `json:"y"`
	Valid bool    `json:"valid"`
	Yaw   float64 `json:"yaw"`

	// Observability
	Area       int64 `json:"area"`
	CountLeft  int   `json:"count_left"`
	CountRight int   `json:"count_right"`
}

// Moments are the zeroth and first order spatial moments of a mask.
type Moments struct {
	M00 int64 // Σ value
	M10 int64 // Σ x·value
	M01 int64 // Σ y·value
}

// ComputeMoments returns the value-weighted spatial moments of m.
func ComputeMoments(m *Mask) (Moments, error) {
	src, err := m.mat()
	if err != nil {
		return Moments{}, err
	}
	defer src.Close()

	raw := gocv.Moments(src, false)
	return Moments{
		M00: int64(math.Round(raw["m00"])),
		M10: int64(math.Round(raw["m10"])),
		M01: int64(math.Round(raw["m01"])),
	}, nil
}

// ExtractCentroid derives the marker centroid from the mask moments.
// When the area does not exceed cfg.AreaThreshold the previous centroid and
// yaw are kept and Valid is false.
func ExtractCentroid(m *Mask, cfg ScanConfig, prev TrackResult) (TrackResult, error) {
	mo, err := ComputeMoments(m)
	if err != nil {
		return prev, err
	}

	res := prev
	res.Area = mo.M00
	if mo.M00 <= int64(cfg.AreaThreshold) {
		res.Valid = false
		return res, nil
	}

	res.X = int(mo.M10 / mo.M00)
	res.Y = int(mo.M01 / mo.M00)
	res.Valid = true
	return res, nil
}
