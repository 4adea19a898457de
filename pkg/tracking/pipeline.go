package tracking

import "fmt"

// Pipeline chains segmentation, refinement, centroid extraction and yaw
// estimation. It holds configuration only; tracking state
// is passed into and returned from Run. Not safe for concurrent use.
type Pipeline struct {
	Color ColorRange
	Scan  ScanConfig

	refiner *Refiner
}

// NewPipeline creates a pipeline with the default 5x5 elliptic kernel.
func NewPipeline(color ColorRange, scan ScanConfig) *Pipeline {
	r, _ := NewRefiner(DefaultKernel())
	return &Pipeline{Color: color, Scan: scan, refiner: r}
}

// NewPipelineWithKernel creates a pipeline with a custom structuring element.
func NewPipelineWithKernel(color ColorRange, scan ScanConfig, k Kernel) (*Pipeline, error) {
	r, err := NewRefiner(k)
	if err != nil {
		return nil, err
	}
	return &Pipeline{Color: color, Scan: scan, refiner: r}, nil
}

// Run processes one HSV frame. prev is the result of the previous run (the
// zero TrackResult before the first one). The yaw is only re-estimated when
// the marker is detected.
func (p *Pipeline) Run(hsv *Frame, prev TrackResult) (TrackResult, error) {
	if p.Scan.ScanDistance <= 0 {
		return prev, fmt.Errorf("%w: %d", ErrInvalidScanDistance, p.Scan.ScanDistance)
	}

	mask, err := Segment(hsv, p.Color)
	if err != nil {
		return prev, fmt.Errorf("segment: %w", err)
	}
	if err := p.refiner.Refine(mask); err != nil {
		return prev, fmt.Errorf("refine: %w", err)
	}

	res, err := ExtractCentroid(mask, p.Scan, prev)
	if err != nil {
		return prev, fmt.Errorf("centroid: %w", err)
	}
	if !res.Valid {
		return res, nil
	}

	est, err := EstimateYaw(mask, res.X, res.Y, p.Scan)
	if err != nil {
		return prev, fmt.Errorf("estimate yaw: %w", err)
	}
	res.Yaw = est.Yaw
	res.CountLeft = est.Left
	res.CountRight = est.Right
	return res, nil
}
