// Package webcam runs the armband tracker against a frame source: it
// schedules frames, converts them to HSV, runs the tracking pipeline, draws
// the debug overlay and hands each result to the registered sinks.
package webcam

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-armband/internal/log"
	"github.com/teslashibe/go-armband/pkg/debug"
	"github.com/teslashibe/go-armband/pkg/tracking"
)

var (
	// ErrNoFrame is returned by a FrameSource that has nothing new yet.
	// The reader skips the tick quietly.
	ErrNoFrame = errors.New("webcam: no frame available")

	// ErrStreamClosed is returned by Step once the source has failed
	// MaxConsecutiveErrors times in a row.
	ErrStreamClosed = errors.New("webcam: stream closed")

	// ErrNilFrame is returned by Step when the source yields neither a
	// frame nor an error. It counts as a source failure.
	ErrNilFrame = errors.New("webcam: source returned a nil frame")
)

// FrameSource yields BGR frames.
type FrameSource interface {
	Next() (*tracking.Frame, error)
}

// Converter turns a BGR frame into an HSV frame of the same size.
type Converter interface {
	ToHSV(bgr *tracking.Frame) (*tracking.Frame, error)
}

// Sink receives every processed frame. HandleUpdate runs on the reader's
// goroutine and must not block.
type Sink interface {
	HandleUpdate(u Update)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(u Update)

// HandleUpdate calls f(u).
func (f SinkFunc) HandleUpdate(u Update) { f(u) }

// Update is the outcome of one tick.
type Update struct {
	FrameID uint64
	Time    time.Time
	Mode    tracking.Mode
	Result  tracking.TrackResult

	// Display is the BGR frame with the overlay drawn, or nil when the mode
	// shows no frames. Sinks must not modify it.
	Display *tracking.Frame
}

// Stats are counters since the reader was created.
type Stats struct {
	Frames     uint64        `json:"frames"`
	Tracked    uint64        `json:"tracked"`
	Detections uint64        `json:"detections"`
	Errors     uint64        `json:"errors"`
	Skipped    uint64        `json:"skipped"`
	StreamOpen bool          `json:"stream_open"`
	Mode       tracking.Mode `json:"mode"`
	LastFrame  time.Time     `json:"last_frame"`
}

// Reader owns the tracking state for one frame source.
type Reader struct {
	cfg    Config
	source FrameSource
	conv   Converter
	log    *slog.Logger

	// stepMu serializes Step; pipeline is only touched under it.
	stepMu   sync.Mutex
	pipeline *tracking.Pipeline

	mu                sync.RWMutex
	mode              tracking.Mode
	color             tracking.ColorRange
	scan              tracking.ScanConfig
	state             tracking.TrackResult
	detected          bool // a valid result has been seen since New
	sinks             []Sink
	stats             Stats
	consecutiveErrors int
}

// New creates a reader in color tracking mode. The pipeline's color range
// and scan config become the reader's initial settings.
func New(cfg Config, source FrameSource, conv Converter, pipeline *tracking.Pipeline) (*Reader, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("webcam: invalid config: %v", errs)
	}
	if source == nil || conv == nil || pipeline == nil {
		return nil, errors.New("webcam: source, converter and pipeline are required")
	}
	return &Reader{
		cfg:      cfg,
		source:   source,
		conv:     conv,
		log:      log.Component("webcam"),
		pipeline: pipeline,
		mode:     tracking.ModeColorTracking,
		color:    pipeline.Color,
		scan:     pipeline.Scan,
		stats:    Stats{StreamOpen: true, Mode: tracking.ModeColorTracking},
	}, nil
}

// Config returns the reader configuration.
func (r *Reader) Config() Config {
	return r.cfg
}

// AddSink registers a sink for every subsequent update.
func (r *Reader) AddSink(s Sink) {
	r.mu.Lock()
	r.sinks = append(r.sinks, s)
	r.mu.Unlock()
}

// Mode returns the current operation mode.
func (r *Reader) Mode() tracking.Mode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mode
}

// SetMode switches the operation mode.
func (r *Reader) SetMode(m tracking.Mode) error {
	if !m.Valid() {
		return fmt.Errorf("webcam: invalid mode %v", m)
	}
	r.mu.Lock()
	r.mode = m
	r.stats.Mode = m
	r.mu.Unlock()
	r.log.Info("operation mode changed", "mode", m)
	return nil
}

// NextMode cycles to the next operation mode and returns it.
func (r *Reader) NextMode() tracking.Mode {
	r.mu.Lock()
	r.mode = r.mode.Next()
	r.stats.Mode = r.mode
	m := r.mode
	r.mu.Unlock()
	r.log.Info("operation mode changed", "mode", m)
	return m
}

// State returns the latest (sticky) track result.
func (r *Reader) State() tracking.TrackResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// ColorRange returns the active marker color range.
func (r *Reader) ColorRange() tracking.ColorRange {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.color
}

// SetColorRange replaces the marker color range from the next frame on.
func (r *Reader) SetColorRange(c tracking.ColorRange) error {
	if errs := c.Validate(); len(errs) > 0 {
		return fmt.Errorf("%w: %v", tracking.ErrInvalidColorRange, errs)
	}
	r.mu.Lock()
	r.color = c
	r.mu.Unlock()
	return nil
}

// ScanConfig returns the active scan configuration.
func (r *Reader) ScanConfig() tracking.ScanConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.scan
}

// SetScanConfig replaces the scan configuration from the next frame on.
func (r *Reader) SetScanConfig(c tracking.ScanConfig) error {
	if errs := c.Validate(); len(errs) > 0 {
		if c.ScanDistance <= 0 {
			return fmt.Errorf("%w: %v", tracking.ErrInvalidScanDistance, errs)
		}
		return fmt.Errorf("webcam: invalid scan config: %v", errs)
	}
	r.mu.Lock()
	r.scan = c
	r.mu.Unlock()
	return nil
}

// Stats returns a snapshot of the counters.
func (r *Reader) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats
}

// StreamOpen reports whether the source is still considered alive.
func (r *Reader) StreamOpen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats.StreamOpen
}

// Step processes a single frame. ErrNoFrame from the source is returned
// unchanged and leaves all state untouched.
func (r *Reader) Step() error {
	r.stepMu.Lock()
	defer r.stepMu.Unlock()

	if !r.StreamOpen() {
		return ErrStreamClosed
	}

	frame, err := r.source.Next()
	if err != nil {
		return r.sourceFailed(err)
	}
	if frame == nil {
		return r.sourceFailed(ErrNilFrame)
	}

	r.mu.Lock()
	r.consecutiveErrors = 0
	mode := r.mode
	r.pipeline.Color = r.color
	r.pipeline.Scan = r.scan
	prev := r.state
	detected := r.detected
	r.mu.Unlock()

	res := prev
	var stepErr error
	if mode.Tracks() {
		res, stepErr = r.track(frame, prev)
	}

	var display *tracking.Frame
	if mode.ShowsFrames() {
		display = frame.Clone()
		// The overlay follows the sticky centroid, which has no position
		// until the marker was detected once.
		if r.cfg.Overlay && mode.Tracks() && (detected || res.Valid) {
			r.drawOverlay(display, res)
		}
	}

	now := time.Now()
	r.mu.Lock()
	r.state = res
	r.stats.Frames++
	r.stats.LastFrame = now
	if mode.Tracks() && stepErr == nil {
		r.stats.Tracked++
		if res.Valid {
			r.stats.Detections++
			r.detected = true
		}
	}
	if stepErr != nil {
		r.stats.Errors++
	}
	id := r.stats.Frames
	sinks := append([]Sink(nil), r.sinks...)
	r.mu.Unlock()

	u := Update{
		FrameID: id,
		Time:    now,
		Mode:    mode,
		Result:  res,
		Display: display,
	}
	for _, s := range sinks {
		s.HandleUpdate(u)
	}

	return stepErr
}

func (r *Reader) track(frame *tracking.Frame, prev tracking.TrackResult) (tracking.TrackResult, error) {
	hsv, err := r.conv.ToHSV(frame)
	if err != nil {
		return prev, fmt.Errorf("convert: %w", err)
	}
	res, err := r.pipeline.Run(hsv, prev)
	if err != nil {
		return prev, err
	}
	if res.Valid {
		debug.Track("marker", "x", res.X, "y", res.Y, "yaw", res.Yaw, "area", res.Area)
	}
	return res, nil
}

func (r *Reader) drawOverlay(dst *tracking.Frame, res tracking.TrackResult) {
	from := image.Pt(res.X, res.Y)
	to := image.Pt(res.X+r.cfg.OverlayLength, res.Y)
	if r.cfg.OverlayThickness <= 1 {
		tracking.DrawLine(dst, from, to, r.cfg.OverlayColor)
		return
	}
	tracking.DrawThickLine(dst, from, to, r.cfg.OverlayColor, r.cfg.OverlayThickness)
}

func (r *Reader) sourceFailed(err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if errors.Is(err, ErrNoFrame) {
		r.stats.Skipped++
		return err
	}

	r.stats.Errors++
	r.consecutiveErrors++
	if r.cfg.MaxConsecutiveErrors > 0 && r.consecutiveErrors >= r.cfg.MaxConsecutiveErrors {
		r.stats.StreamOpen = false
		r.log.Error("frame source failed, closing stream", "error", err, "failures", r.consecutiveErrors)
		return fmt.Errorf("%w: %w", ErrStreamClosed, err)
	}
	return fmt.Errorf("webcam: read frame: %w", err)
}

// Run processes frames at the configured refresh rate until ctx is
// cancelled or the stream closes.
func (r *Reader) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.Interval())
	defer ticker.Stop()

	r.log.Info("webcam reader started",
		"rate", r.cfg.RefreshRate,
		"mode", r.Mode(),
		"overlay", r.cfg.Overlay)

	for {
		select {
		case <-ctx.Done():
			r.log.Info("webcam reader stopped", "frames", r.Stats().Frames)
			return ctx.Err()

		case <-ticker.C:
			err := r.Step()
			switch {
			case err == nil, errors.Is(err, ErrNoFrame):
			case errors.Is(err, ErrStreamClosed):
				return err
			default:
				debug.Log("frame skipped", "error", err)
			}
		}
	}
}
