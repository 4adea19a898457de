// Package rtcsource receives H264 video from a GStreamer webrtcsink
// producer and turns it into tracker frames.
package rtcsource

import (
	"context"
	"time"
)

// Transcoder turns an H264 Annex-B stream starting at a keyframe into the
// JPEG of its last picture.
type Transcoder func(ctx context.Context, h264 []byte) ([]byte, error)

// Config holds the connection and decode settings.
type Config struct {
	// SignallingURL is the webrtcsink signalling server, e.g. ws://host:8443.
	SignallingURL string

	// Producer selects a producer by its meta "name". Empty takes the first.
	Producer string

	// ICEServers are STUN/TURN URLs. Empty is fine on a LAN.
	ICEServers []string

	// DecodeInterval bounds how often the stream is decoded.
	DecodeInterval time.Duration

	// DecodeTimeout bounds a single transcoder run.
	DecodeTimeout time.Duration

	// HandshakeTimeout bounds each signalling step in Dial.
	HandshakeTimeout time.Duration

	// Transcoder defaults to an ffmpeg subprocess.
	Transcoder Transcoder
}

// DefaultConfig returns settings for the signalling server at url.
func DefaultConfig(url string) Config {
	return Config{
		SignallingURL:    url,
		DecodeInterval:   100 * time.Millisecond,
		DecodeTimeout:    2 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		Transcoder:       FFmpegTranscode,
	}
}

// Validate checks the configuration.
// Returns a list of validation errors, or nil if valid.
func (c Config) Validate() []string {
	var errors []string

	if c.SignallingURL == "" {
		errors = append(errors, "signalling_url is required")
	}
	if c.DecodeInterval <= 0 {
		errors = append(errors, "decode_interval must be positive")
	}
	if c.DecodeTimeout <= 0 {
		errors = append(errors, "decode_timeout must be positive")
	}
	if c.HandshakeTimeout <= 0 {
		errors = append(errors, "handshake_timeout must be positive")
	}
	if c.Transcoder == nil {
		errors = append(errors, "transcoder is required")
	}

	return errors
}
