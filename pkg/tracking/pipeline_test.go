package tracking

import (
	"errors"
	"testing"
)

// markerFrame returns a 100x100 HSV frame with a green 50x50 marker at (20,20).
func markerFrame() *Frame {
	f := NewFrame(100, 100)
	fillFrameRect(f, 20, 20, 50, 50, 70, 200, 200)
	return f
}

func TestPipeline_Scenario(t *testing.T) {
	scan := DefaultScanConfig()
	scan.AreaThreshold = 2000
	scan.ScanDistance = 10

	p := NewPipeline(DefaultColorRange(), scan)
	res, err := p.Run(markerFrame(), TrackResult{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !res.Valid {
		t.Fatal("expected a valid detection")
	}
	if abs(res.X-45) > 1 || abs(res.Y-45) > 1 {
		t.Errorf("centroid = (%d,%d), want ≈(45,45)", res.X, res.Y)
	}
	// The scan row lies inside the marker on both sides
	if res.CountLeft != 10 || res.CountRight != 10 {
		t.Errorf("counts = (left %d, right %d), want (10, 10)", res.CountLeft, res.CountRight)
	}
	if res.Yaw != 2 {
		t.Errorf("Yaw = %v, want 2", res.Yaw)
	}
}

func TestPipeline_NoMarkerBeforeFirstDetection(t *testing.T) {
	p := NewPipeline(DefaultColorRange(), DefaultScanConfig())

	res, err := p.Run(NewFrame(100, 100), TrackResult{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Valid || res.X != 0 || res.Y != 0 || res.Yaw != 0 {
		t.Errorf("got %+v, want zero invalid result", res)
	}
}

func TestPipeline_StickyState(t *testing.T) {
	scan := DefaultScanConfig()
	scan.AreaThreshold = 2000
	scan.ScanDistance = 10
	p := NewPipeline(DefaultColorRange(), scan)

	first, err := p.Run(markerFrame(), TrackResult{})
	if err != nil || !first.Valid {
		t.Fatalf("first run: %+v, %v", first, err)
	}

	second, err := p.Run(NewFrame(100, 100), first)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if second.Valid {
		t.Error("empty frame should be invalid")
	}
	if second.X != first.X || second.Y != first.Y || second.Yaw != first.Yaw {
		t.Errorf("state not kept: first %+v, second %+v", first, second)
	}
}

func TestPipeline_IgnoresSpeckNoise(t *testing.T) {
	scan := DefaultScanConfig()
	scan.AreaThreshold = 2000
	scan.ScanDistance = 10
	p := NewPipeline(DefaultColorRange(), scan)

	clean, err := p.Run(markerFrame(), TrackResult{})
	if err != nil {
		t.Fatalf("clean run failed: %v", err)
	}

	noisy := markerFrame()
	for _, pt := range [][2]int{{2, 2}, {90, 5}, {95, 95}, {5, 80}, {85, 50}} {
		noisy.Set(pt[0], pt[1], 70, 200, 200)
	}
	got, err := p.Run(noisy, TrackResult{})
	if err != nil {
		t.Fatalf("noisy run failed: %v", err)
	}

	if got.X != clean.X || got.Y != clean.Y || got.Area != clean.Area {
		t.Errorf("noise moved the result: clean %+v, noisy %+v", clean, got)
	}
}

func TestPipeline_YawFollowsSilhouette(t *testing.T) {
	scan := DefaultScanConfig()
	scan.AreaThreshold = 2000
	scan.ScanDistance = 40
	p := NewPipeline(DefaultColorRange(), scan)

	// The scan reaches further than the block's right edge, so the right
	// side runs out of foreground first.
	f := NewFrame(160, 100)
	fillFrameRect(f, 10, 20, 60, 60, 70, 200, 200)

	res, err := p.Run(f, TrackResult{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.Valid {
		t.Fatal("expected a valid detection")
	}
	// Centroid at x≈39: right scan covers 40..79 (30 foreground), left 40..1 (31).
	if res.Yaw >= 0 {
		t.Errorf("Yaw = %v, want negative for a left-heavy scan (left %d, right %d)",
			res.Yaw, res.CountLeft, res.CountRight)
	}
}

func TestPipeline_InvalidInput(t *testing.T) {
	p := NewPipeline(DefaultColorRange(), DefaultScanConfig())

	prev := TrackResult{X: 3, Y: 4, Valid: true}
	res, err := p.Run(&Frame{Width: 10, Height: 10}, prev)
	if !errors.Is(err, ErrMalformedFrame) {
		t.Errorf("err = %v, want ErrMalformedFrame", err)
	}
	if res != prev {
		t.Errorf("state changed on error: %+v", res)
	}

	p.Scan.ScanDistance = 0
	if _, err := p.Run(markerFrame(), TrackResult{}); !errors.Is(err, ErrInvalidScanDistance) {
		t.Errorf("err = %v, want ErrInvalidScanDistance", err)
	}
}

func TestNewPipelineWithKernel(t *testing.T) {
	if _, err := NewPipelineWithKernel(DefaultColorRange(), DefaultScanConfig(), Kernel{}); !errors.Is(err, ErrInvalidKernel) {
		t.Errorf("err = %v, want ErrInvalidKernel", err)
	}

	p, err := NewPipelineWithKernel(DefaultColorRange(), DefaultScanConfig(), RectKernel(3, 3))
	if err != nil {
		t.Fatalf("NewPipelineWithKernel failed: %v", err)
	}
	if p.refiner.Kernel().Width != 3 {
		t.Errorf("kernel width = %d, want 3", p.refiner.Kernel().Width)
	}
}
