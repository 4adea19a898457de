package camera

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-armband/internal/log"
	"github.com/teslashibe/go-armband/pkg/tracking"
)

// ErrClosed is returned by Next once the stream has ended or Close was called.
var ErrClosed = errors.New("camera: stream closed")

// Capture reads BGR frames from an OpenCV video device.
type Capture struct {
	mu  sync.Mutex
	cfg Config
	dev *gocv.VideoCapture
	img gocv.Mat
	out gocv.Mat
}

// Open starts capturing from cfg.CameraID.
func Open(cfg Config) (*Capture, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("camera: invalid config: %v", errs)
	}

	c := &Capture{
		cfg: cfg,
		img: gocv.NewMat(),
		out: gocv.NewMat(),
	}
	if err := c.open(cfg); err != nil {
		c.img.Close()
		c.out.Close()
		return nil, err
	}
	return c, nil
}

func (c *Capture) open(cfg Config) error {
	dev, err := gocv.OpenVideoCapture(cfg.CameraID)
	if err != nil {
		return fmt.Errorf("camera: open device %d: %w", cfg.CameraID, err)
	}
	if !dev.IsOpened() {
		dev.Close()
		return fmt.Errorf("camera: device %d not available", cfg.CameraID)
	}
	dev.Set(gocv.VideoCaptureFPS, cfg.RefreshRate)
	c.dev = dev

	log.Info("camera opened",
		"device", cfg.CameraID,
		"width", int(dev.Get(gocv.VideoCaptureFrameWidth)),
		"height", int(dev.Get(gocv.VideoCaptureFrameHeight)),
		"resize", cfg.Resize)
	return nil
}

// Next reads one frame. Frames are resized when the config asks for it.
func (c *Capture) Next() (*tracking.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dev == nil {
		return nil, ErrClosed
	}
	if ok := c.dev.Read(&c.img); !ok || c.img.Empty() {
		if !c.dev.IsOpened() {
			return nil, ErrClosed
		}
		return nil, ErrEmptyImage
	}

	if !c.cfg.Resize {
		return FrameFromMat(c.img)
	}
	size := image.Pt(c.cfg.Width, c.cfg.Height)
	if err := gocv.Resize(c.img, &c.out, size, 0, 0, gocv.InterpolationLinear); err != nil {
		return nil, fmt.Errorf("camera: resize: %w", err)
	}
	return FrameFromMat(c.out)
}

// Apply switches to a new config, reopening the device if it changed.
func (c *Capture) Apply(cfg Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dev != nil && cfg.CameraID != c.cfg.CameraID {
		old := c.dev
		if err := c.open(cfg); err != nil {
			return err
		}
		old.Close()
	} else if c.dev != nil && cfg.RefreshRate != c.cfg.RefreshRate {
		c.dev.Set(gocv.VideoCaptureFPS, cfg.RefreshRate)
	}
	c.cfg = cfg
	return nil
}

// Config returns the active config.
func (c *Capture) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// Close releases the device. Subsequent Next calls return ErrClosed.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dev == nil {
		return nil
	}
	err := c.dev.Close()
	c.dev = nil
	c.img.Close()
	c.out.Close()
	return err
}
