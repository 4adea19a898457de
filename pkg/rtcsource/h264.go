package rtcsource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// H264 NAL unit types
const (
	nalSlice = 1
	nalIDR   = 5
	nalSPS   = 7
	nalPPS   = 8
)

// maxGOPBytes resets the buffer when no keyframe arrives for a long time.
const maxGOPBytes = 8 << 20

// ErrNoPicture is returned when a transcoder run produced no image.
var ErrNoPicture = errors.New("rtcsource: no picture decoded")

var jpegSOI = []byte{0xFF, 0xD8, 0xFF}

// nalTypes lists the NAL unit types found in an Annex-B stream.
func nalTypes(annexB []byte) []byte {
	var types []byte
	for i := 0; i+3 < len(annexB); i++ {
		if annexB[i] != 0 || annexB[i+1] != 0 {
			continue
		}
		switch {
		case annexB[i+2] == 1:
			types = append(types, annexB[i+3]&0x1F)
			i += 2
		case annexB[i+2] == 0 && i+4 < len(annexB) && annexB[i+3] == 1:
			types = append(types, annexB[i+4]&0x1F)
			i += 3
		}
	}
	return types
}

// gop accumulates access units from the latest keyframe on, with the
// parameter sets needed to decode it.
type gop struct {
	params  []byte
	buf     []byte
	keyed   bool
	version uint64
}

func (g *gop) add(au []byte) {
	types := nalTypes(au)
	if len(types) == 0 {
		return
	}

	hasSPS, hasIDR, paramsOnly := false, false, true
	for _, t := range types {
		switch t {
		case nalSPS:
			hasSPS = true
		case nalPPS:
		case nalIDR:
			hasIDR = true
			paramsOnly = false
		default:
			paramsOnly = false
		}
	}

	switch {
	case hasIDR:
		g.buf = g.buf[:0]
		if !hasSPS {
			g.buf = append(g.buf, g.params...)
		}
		g.buf = append(g.buf, au...)
		g.keyed = true
	case paramsOnly:
		if hasSPS {
			g.params = append(g.params[:0], au...)
		} else {
			g.params = append(g.params, au...)
		}
		return
	case !g.keyed:
		return
	case len(g.buf)+len(au) > maxGOPBytes:
		g.buf = g.buf[:0]
		g.keyed = false
		return
	default:
		g.buf = append(g.buf, au...)
	}
	g.version++
}

// snapshot copies the decodable stream.
func (g *gop) snapshot() []byte {
	if !g.keyed {
		return nil
	}
	return bytes.Clone(g.buf)
}

// lastJPEG returns the last image of an MJPEG byte stream.
func lastJPEG(stream []byte) ([]byte, error) {
	i := bytes.LastIndex(stream, jpegSOI)
	if i < 0 {
		return nil, ErrNoPicture
	}
	return stream[i:], nil
}

// FFmpegTranscode decodes h264 with an ffmpeg subprocess and returns the
// last picture as JPEG.
func FFmpegTranscode(ctx context.Context, h264 []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner", "-loglevel", "error",
		"-f", "h264", "-i", "pipe:0",
		"-f", "image2pipe", "-vcodec", "mjpeg", "-q:v", "3",
		"pipe:1",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(h264)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// A truncated final access unit makes ffmpeg exit non-zero after it
	// already wrote the earlier pictures
	if err := cmd.Run(); err != nil && stdout.Len() == 0 {
		return nil, fmt.Errorf("rtcsource: ffmpeg: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}
	return lastJPEG(stdout.Bytes())
}
