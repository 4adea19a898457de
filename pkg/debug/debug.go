// Package debug provides global debug logging flags
package debug

import "github.com/teslashibe/go-armband/internal/log"

// Enabled controls whether debug logging is active
var Enabled bool

// Tracking controls whether per-frame tracking logs are shown (yaw side
// counts, centroid). Use --debug-tracking to enable these very verbose logs.
var Tracking bool

// Log emits a message only if debug mode is enabled
func Log(msg string, args ...any) {
	if Enabled {
		log.Debug(msg, args...)
	}
}

// Track emits a message only if tracking debug mode is enabled.
// It logs at info level so it shows without lowering the global level.
func Track(msg string, args ...any) {
	if Tracking {
		log.Info(msg, args...)
	}
}
