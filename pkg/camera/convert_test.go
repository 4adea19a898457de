package camera

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-armband/pkg/tracking"
)

func solidFrame(w, h int, b, g, r uint8) *tracking.Frame {
	f := tracking.NewFrame(w, h)
	for i := 0; i < len(f.Pix); i += tracking.Channels {
		f.Pix[i], f.Pix[i+1], f.Pix[i+2] = b, g, r
	}
	return f
}

func TestConverter_ToHSV(t *testing.T) {
	conv := NewConverter(80)

	tests := []struct {
		name    string
		b, g, r uint8
		h       uint8
	}{
		{"green", 0, 255, 0, 60},
		{"blue", 255, 0, 0, 120},
		{"red", 0, 0, 255, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hsv, err := conv.ToHSV(solidFrame(4, 3, tt.b, tt.g, tt.r))
			if err != nil {
				t.Fatalf("ToHSV failed: %v", err)
			}
			if hsv.Width != 4 || hsv.Height != 3 {
				t.Errorf("size = %dx%d, want 4x3", hsv.Width, hsv.Height)
			}
			h, s, v := hsv.At(1, 1)
			if h != tt.h || s != 255 || v != 255 {
				t.Errorf("HSV = (%d,%d,%d), want (%d,255,255)", h, s, v, tt.h)
			}
		})
	}
}

func TestConverter_ToHSVFeedsSegment(t *testing.T) {
	conv := NewConverter(80)

	hsv, err := conv.ToHSV(solidFrame(8, 8, 0, 200, 0))
	if err != nil {
		t.Fatalf("ToHSV failed: %v", err)
	}
	mask, err := tracking.Segment(hsv, tracking.DefaultColorRange())
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	if mask.Count() != 64 {
		t.Errorf("Count = %d, want 64", mask.Count())
	}
}

func TestConverter_JPEGRoundTrip(t *testing.T) {
	conv := NewConverter(90)
	src := solidFrame(32, 16, 0, 0, 255)

	data, err := conv.EncodeJPEG(src)
	if err != nil {
		t.Fatalf("EncodeJPEG failed: %v", err)
	}
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		t.Fatalf("not a JPEG: % x", data[:min(4, len(data))])
	}

	out, err := conv.DecodeJPEG(data)
	if err != nil {
		t.Fatalf("DecodeJPEG failed: %v", err)
	}
	if out.Width != 32 || out.Height != 16 {
		t.Errorf("size = %dx%d, want 32x16", out.Width, out.Height)
	}
	// JPEG is lossy; solid red survives within a few levels
	if _, _, r := out.At(10, 8); r < 240 {
		t.Errorf("red channel = %d, want ≈255", r)
	}
}

func TestConverter_Errors(t *testing.T) {
	conv := NewConverter(80)

	if _, err := conv.ToHSV(&tracking.Frame{Width: 2, Height: 2}); !errors.Is(err, tracking.ErrMalformedFrame) {
		t.Errorf("err = %v, want ErrMalformedFrame", err)
	}
	if _, err := conv.DecodeJPEG([]byte("not an image")); err == nil {
		t.Error("expected decode error")
	}
}

func TestConverter_SetQualityClamps(t *testing.T) {
	conv := NewConverter(0)
	if conv.Quality() != 1 {
		t.Errorf("Quality = %d, want 1", conv.Quality())
	}
	conv.SetQuality(500)
	if conv.Quality() != 100 {
		t.Errorf("Quality = %d, want 100", conv.Quality())
	}
}

func TestFrameFromMat_Empty(t *testing.T) {
	m := gocv.NewMat()
	defer m.Close()

	if _, err := FrameFromMat(m); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("err = %v, want ErrEmptyImage", err)
	}
}

func TestOpen_MissingDevice(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CameraID = 97

	c, err := Open(cfg)
	if err == nil {
		c.Close()
		t.Skip("device 97 exists on this machine")
	}
}

func TestOpen_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RefreshRate = 0
	if _, err := Open(cfg); err == nil {
		t.Error("expected config error")
	}
}
