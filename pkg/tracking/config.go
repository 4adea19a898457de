package tracking

import "fmt"

// Hue uses OpenCV's 8-bit convention (degrees halved) so that ranges can be
// fed straight from gocv.CvtColor(ColorBGRToHSV) output.
const (
	MaxHue        = 179
	MaxSaturation = 255
	MaxValue      = 255
)

// ColorRange holds the inclusive per-channel HSV bounds of the marker color.
type ColorRange struct {
	LowH  int `json:"low_h"`
	HighH int `json:"high_h"`
	LowS  int `json:"low_s"`
	HighS int `json:"high_s"`
	LowV  int `json:"low_v"`
	HighV int `json:"high_v"`
}

// DefaultColorRange returns the green armband range.
func DefaultColorRange() ColorRange {
	return ColorRange{
		LowH: 53, HighH: 83,
		LowS: 60, HighS: 255,
		LowV: 60, HighV: 255,
	}
}

// Contains reports whether an HSV triple lies inside every bound.
func (r ColorRange) Contains(h, s, v uint8) bool {
	return int(h) >= r.LowH && int(h) <= r.HighH &&
		int(s) >= r.LowS && int(s) <= r.HighS &&
		int(v) >= r.LowV && int(v) <= r.HighV
}

// Validate checks every bound against its channel domain.
// Returns a list of validation errors, or nil if valid.
func (r ColorRange) Validate() []string {
	var errors []string

	check := func(name string, lo, hi, max int) {
		if lo < 0 || lo > max {
			errors = append(errors, fmt.Sprintf("low_%s must be between 0 and %d", name, max))
		}
		if hi < 0 || hi > max {
			errors = append(errors, fmt.Sprintf("high_%s must be between 0 and %d", name, max))
		}
		if lo > hi {
			errors = append(errors, fmt.Sprintf("low_%s must not exceed high_%s", name, name))
		}
	}
	check("h", r.LowH, r.HighH, MaxHue)
	check("s", r.LowS, r.HighS, MaxSaturation)
	check("v", r.LowV, r.HighV, MaxValue)

	return errors
}

// ScanConfig holds the area gate and yaw scan parameters.
type ScanConfig struct {
	// AreaThreshold gates detection on the zeroth moment of the mask, which
	// weights every foreground pixel by its value (255). It is measured in
	// those value-weighted units, not pixels: the default 10000 is about 40
	// foreground pixels.
	AreaThreshold int `json:"area_threshold"`

	// ScanDistance is how many pixels to inspect on each side of the centroid.
	ScanDistance int `json:"scan_distance"`

	// Yaw clamp, also used as the saturated value when one side is empty.
	YawClampLow  float64 `json:"yaw_clamp_low"`
	YawClampHigh float64 `json:"yaw_clamp_high"`

	// PreciseRatio divides the side counts as floats instead of truncating.
	// Off by default to keep the established yaw scale.
	PreciseRatio bool `json:"precise_ratio"`
}

// DefaultScanConfig returns the tuned defaults for a 640x480 webcam.
func DefaultScanConfig() ScanConfig {
	return ScanConfig{
		AreaThreshold: 10000,
		ScanDistance:  200,
		YawClampLow:   -60,
		YawClampHigh:  80,
	}
}

// Validate checks the scan configuration.
// Returns a list of validation errors, or nil if valid.
func (c ScanConfig) Validate() []string {
	var errors []string

	if c.AreaThreshold < 0 {
		errors = append(errors, "area_threshold must not be negative")
	}
	if c.ScanDistance <= 0 {
		errors = append(errors, "scan_distance must be positive")
	}
	if c.YawClampLow > c.YawClampHigh {
		errors = append(errors, "yaw_clamp_low must not exceed yaw_clamp_high")
	}

	return errors
}
