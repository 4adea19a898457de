package tracking

import (
	"fmt"

	"github.com/teslashibe/go-armband/pkg/debug"
)

// YawEstimate is the yaw together with the raw side counts it came from.
type YawEstimate struct {
	Yaw   float64
	Left  int
	Right int
}

// EstimateYaw counts foreground pixels on each side of the centroid (x, y)
// and turns their ratio into a yaw.
//
// Both scans start one pixel right of the centroid and walk the flat mask
// buffer, so a scan that runs past the end of a row continues on the
// neighboring row. An index outside the buffer ends that scan.
func EstimateYaw(m *Mask, x, y int, cfg ScanConfig) (YawEstimate, error) {
	if err := m.Validate(); err != nil {
		return YawEstimate{}, err
	}
	if cfg.ScanDistance <= 0 {
		return YawEstimate{}, fmt.Errorf("%w: %d", ErrInvalidScanDistance, cfg.ScanDistance)
	}

	n := len(m.Pix)
	start := y*m.Width + x + 1

	right := 0
	for i := start; i < start+cfg.ScanDistance; i++ {
		if i < 0 || i >= n {
			break
		}
		if m.Pix[i] != 0 {
			right++
		}
	}

	left := 0
	for i := start; i > start-cfg.ScanDistance; i-- {
		if i < 0 || i >= n {
			break
		}
		if m.Pix[i] != 0 {
			left++
		}
	}

	debug.Track("yaw scan", "right", right, "left", left)

	return YawEstimate{
		Yaw:   YawFromCounts(left, right, cfg),
		Left:  left,
		Right: right,
	}, nil
}

// YawFromCounts maps side counts to a yaw. A left-heavy silhouette gives a
// negative yaw, an empty side saturates at the matching clamp.
//
// The ratio is an integer division unless cfg.PreciseRatio is set, so e.g.
// 7 vs 4 scales the same as 4 vs 4 by default.
func YawFromCounts(left, right int, cfg ScanConfig) float64 {
	var yaw float64
	if left > right {
		if right == 0 {
			yaw = cfg.YawClampLow
		} else {
			yaw = ratio(left, right, cfg.PreciseRatio) * -2
		}
	} else {
		if left == 0 {
			yaw = cfg.YawClampHigh
		} else {
			yaw = ratio(right, left, cfg.PreciseRatio) * 2
		}
	}
	return clamp(yaw, cfg.YawClampLow, cfg.YawClampHigh)
}

func ratio(a, b int, precise bool) float64 {
	if precise {
		return float64(a) / float64(b)
	}
	return float64(a / b)
}

func clamp(v, lo, hi float64) float64 {
	if v > hi {
		return hi
	}
	if v < lo {
		return lo
	}
	return v
}
