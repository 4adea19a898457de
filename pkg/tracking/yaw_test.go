package tracking

import (
	"errors"
	"testing"
)

func TestYawFromCounts(t *testing.T) {
	cfg := DefaultScanConfig()

	tests := []struct {
		name        string
		left, right int
		expected    float64
	}{
		{"symmetric", 10, 10, 2},
		{"symmetric single", 1, 1, 2},
		{"left saturated", 5, 0, -60},
		{"right saturated", 0, 5, 80},
		{"both empty", 0, 0, 80},
		{"left heavy", 9, 3, -6},
		{"right heavy", 3, 9, 6},
		{"left ratio truncates", 7, 4, -2},
		{"right ratio truncates", 4, 11, 4},
		{"left clamped", 200, 1, -60},
		{"right clamped", 1, 200, 80},
		{"just inside high clamp", 1, 40, 80},
		{"just inside low clamp", 30, 1, -60},
		{"inside low clamp", 29, 1, -58},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := YawFromCounts(tt.left, tt.right, cfg)
			if got != tt.expected {
				t.Errorf("YawFromCounts(%d, %d) = %v, want %v", tt.left, tt.right, got, tt.expected)
			}
		})
	}
}

func TestYawFromCounts_PreciseRatio(t *testing.T) {
	cfg := DefaultScanConfig()
	cfg.PreciseRatio = true

	if got := YawFromCounts(7, 4, cfg); got != -3.5 {
		t.Errorf("precise 7/4 = %v, want -3.5", got)
	}
	if got := YawFromCounts(4, 10, cfg); got != 5 {
		t.Errorf("precise 10/4 = %v, want 5", got)
	}
	// Saturation is unchanged
	if got := YawFromCounts(5, 0, cfg); got != -60 {
		t.Errorf("precise saturation = %v, want -60", got)
	}
}

func TestYawFromCounts_CustomClamp(t *testing.T) {
	cfg := DefaultScanConfig()
	cfg.YawClampLow = -10
	cfg.YawClampHigh = 10

	if got := YawFromCounts(5, 0, cfg); got != -10 {
		t.Errorf("saturated left = %v, want -10", got)
	}
	if got := YawFromCounts(2, 20, cfg); got != 10 {
		t.Errorf("clamped right = %v, want 10", got)
	}
}

func TestEstimateYaw_SideCounts(t *testing.T) {
	m := NewMask(20, 3)
	fillMaskRect(m, 5, 1, 10, 1) // row 1, x 5..14

	cfg := DefaultScanConfig()
	cfg.ScanDistance = 5

	// Scans start at x=11: right covers 11..15, left covers 11..7
	est, err := EstimateYaw(m, 10, 1, cfg)
	if err != nil {
		t.Fatalf("EstimateYaw failed: %v", err)
	}
	if est.Right != 4 || est.Left != 5 {
		t.Errorf("counts = (left %d, right %d), want (5, 4)", est.Left, est.Right)
	}
	if est.Yaw != -2 {
		t.Errorf("Yaw = %v, want -2", est.Yaw)
	}
}

func TestEstimateYaw_TruncatesAtBufferEnd(t *testing.T) {
	m := NewMask(10, 1)
	fillMaskRect(m, 0, 0, 10, 1)

	cfg := DefaultScanConfig()
	cfg.ScanDistance = 5

	est, err := EstimateYaw(m, 8, 0, cfg)
	if err != nil {
		t.Fatalf("EstimateYaw failed: %v", err)
	}
	if est.Right != 1 || est.Left != 5 {
		t.Errorf("counts = (left %d, right %d), want (5, 1)", est.Left, est.Right)
	}
	if est.Yaw != -10 {
		t.Errorf("Yaw = %v, want -10", est.Yaw)
	}
}

func TestEstimateYaw_TruncatesAtBufferStart(t *testing.T) {
	m := NewMask(10, 1)
	fillMaskRect(m, 0, 0, 10, 1)

	cfg := DefaultScanConfig()
	cfg.ScanDistance = 5

	est, err := EstimateYaw(m, 0, 0, cfg)
	if err != nil {
		t.Fatalf("EstimateYaw failed: %v", err)
	}
	if est.Right != 5 || est.Left != 2 {
		t.Errorf("counts = (left %d, right %d), want (2, 5)", est.Left, est.Right)
	}
	if est.Yaw != 4 {
		t.Errorf("Yaw = %v, want 4", est.Yaw)
	}
}

func TestEstimateYaw_ScanWrapsRows(t *testing.T) {
	m := NewMask(5, 2)
	fillMaskRect(m, 0, 1, 5, 1)

	cfg := DefaultScanConfig()
	cfg.ScanDistance = 4

	// Start is the last pixel of row 0; the right scan continues on row 1.
	est, err := EstimateYaw(m, 3, 0, cfg)
	if err != nil {
		t.Fatalf("EstimateYaw failed: %v", err)
	}
	if est.Right != 3 || est.Left != 0 {
		t.Errorf("counts = (left %d, right %d), want (0, 3)", est.Left, est.Right)
	}
	if est.Yaw != 80 {
		t.Errorf("Yaw = %v, want 80", est.Yaw)
	}
}

func TestEstimateYaw_InvalidInput(t *testing.T) {
	m := NewMask(10, 10)

	for _, dist := range []int{0, -5} {
		cfg := DefaultScanConfig()
		cfg.ScanDistance = dist
		if _, err := EstimateYaw(m, 5, 5, cfg); !errors.Is(err, ErrInvalidScanDistance) {
			t.Errorf("dist %d: err = %v, want ErrInvalidScanDistance", dist, err)
		}
	}

	bad := &Mask{Width: 10, Height: 10, Pix: make([]uint8, 50)}
	if _, err := EstimateYaw(bad, 5, 5, DefaultScanConfig()); !errors.Is(err, ErrMalformedMask) {
		t.Errorf("err = %v, want ErrMalformedMask", err)
	}
}
