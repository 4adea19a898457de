// Package config provides environment helpers for go-armband commands.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Defaults used when the environment is silent.
const (
	DefaultCameraID = 0
	DefaultPort     = "8090"
	DefaultDBPath   = "armband.db"
	DefaultLogLevel = "info"
)

// CameraID returns the capture device index from CAMERA_ID.
// Falls back to DefaultCameraID if unset or not a number.
func CameraID() int {
	if v := os.Getenv("CAMERA_ID"); v != "" {
		if id, err := strconv.Atoi(v); err == nil && id >= 0 {
			return id
		}
	}
	return DefaultCameraID
}

// Port returns the dashboard port from ARMBAND_PORT or the default.
func Port() string {
	if p := os.Getenv("ARMBAND_PORT"); p != "" {
		return p
	}
	return DefaultPort
}

// DBPath returns the recorder database path from ARMBAND_DB.
// An explicit empty value ("-") disables recording.
func DBPath() string {
	if p := os.Getenv("ARMBAND_DB"); p != "" {
		if p == "-" {
			return ""
		}
		return p
	}
	return DefaultDBPath
}

// LogLevel returns the log level from LOG_LEVEL or the default.
func LogLevel() string {
	if l := os.Getenv("LOG_LEVEL"); l != "" {
		return l
	}
	return DefaultLogLevel
}

// TrackerURL returns the tracker websocket base URL from ARMBAND_URL.
// Falls back to the local dashboard.
func TrackerURL() string {
	if u := os.Getenv("ARMBAND_URL"); u != "" {
		return u
	}
	return fmt.Sprintf("ws://localhost:%s", Port())
}
