// Package camera wraps the capture device and the OpenCV color primitives
// the tracker depends on. Settings follow the same Config/preset/Validate
// pattern as pkg/tracking so they can be changed from the dashboard.
package camera

// Limits for the capture settings.
const (
	MinFrameWidth  = 64
	MinFrameHeight = 48
	MaxFrameWidth  = 4096
	MaxFrameHeight = 2160
	MaxRefreshRate = 60.0
)

// Config holds the capture parameters.
type Config struct {
	// CameraID is the OpenCV device index.
	CameraID int `json:"camera_id"`

	// Resize scales every frame to Width x Height before tracking.
	// When false frames keep the device resolution.
	Resize bool `json:"resize"`
	Width  int  `json:"width"`
	Height int  `json:"height"`

	// RefreshRate is requested from the device in frames per second.
	RefreshRate float64 `json:"refresh_rate"`

	// JPEGQuality is used when frames are encoded for viewers (1-100).
	JPEGQuality int `json:"jpeg_quality"`
}

// DefaultConfig returns the settings the tracker was tuned with: device 0 at
// its native size, 8 fps.
func DefaultConfig() Config {
	return Config{
		CameraID:    0,
		Resize:      false,
		Width:       320,
		Height:      240,
		RefreshRate: 8,
		JPEGQuality: 80,
	}
}

// LowLatencyConfig shrinks frames to 320x240 and raises the rate.
// Pair it with tracking.SmallFrameScanConfig.
func LowLatencyConfig() Config {
	cfg := DefaultConfig()
	cfg.Resize = true
	cfg.RefreshRate = 15
	cfg.JPEGQuality = 60
	return cfg
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.CameraID < 0 {
		errors = append(errors, "camera_id must not be negative")
	}
	if c.Resize {
		if c.Width < MinFrameWidth || c.Width > MaxFrameWidth {
			errors = append(errors, "width must be between 64 and 4096")
		}
		if c.Height < MinFrameHeight || c.Height > MaxFrameHeight {
			errors = append(errors, "height must be between 48 and 2160")
		}
	}
	if c.RefreshRate <= 0 || c.RefreshRate > MaxRefreshRate {
		errors = append(errors, "refresh_rate must be above 0 and at most 60")
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		errors = append(errors, "jpeg_quality must be between 1 and 100")
	}

	return errors
}
