package webcam

import (
	"image/color"
	"time"
)

// Config holds the reader's scheduling and display settings.
type Config struct {
	// RefreshRate is how many frames per second Run processes.
	RefreshRate float64 `json:"refresh_rate"`

	// Overlay draws a line from the centroid to the right on display frames.
	Overlay          bool       `json:"overlay"`
	OverlayLength    int        `json:"overlay_length"`
	OverlayColor     color.RGBA `json:"overlay_color"`
	OverlayThickness int        `json:"overlay_thickness"`

	// MaxConsecutiveErrors marks the stream closed after this many source
	// failures in a row. Zero never closes it.
	MaxConsecutiveErrors int `json:"max_consecutive_errors"`
}

// DefaultConfig returns 8 fps with a 200px red centroid line.
func DefaultConfig() Config {
	return Config{
		RefreshRate:          8,
		Overlay:              true,
		OverlayLength:        200,
		OverlayColor:         color.RGBA{R: 255, A: 255},
		OverlayThickness:     1,
		MaxConsecutiveErrors: 30,
	}
}

// Validate checks the reader configuration.
// Returns a list of validation errors, or nil if valid.
func (c Config) Validate() []string {
	var errors []string

	if c.RefreshRate <= 0 {
		errors = append(errors, "refresh_rate must be positive")
	}
	if c.OverlayLength < 0 {
		errors = append(errors, "overlay_length must not be negative")
	}
	if c.OverlayThickness < 0 {
		errors = append(errors, "overlay_thickness must not be negative")
	}
	if c.MaxConsecutiveErrors < 0 {
		errors = append(errors, "max_consecutive_errors must not be negative")
	}

	return errors
}

// Interval is the tick period for RefreshRate.
func (c Config) Interval() time.Duration {
	return time.Duration(float64(time.Second) / c.RefreshRate)
}
