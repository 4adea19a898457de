package tracking

import (
	"encoding/json"
	"fmt"
)

// Mode selects what the host does with each frame.
type Mode int

const (
	// ModeColorTracking runs the marker pipeline on every frame.
	ModeColorTracking Mode = iota
	// ModePassthrough shows frames without tracking.
	ModePassthrough
	// ModeDisabled neither tracks nor shows frames.
	ModeDisabled

	modeCount
)

var modeNames = [...]string{
	ModeColorTracking: "color",
	ModePassthrough:   "passthrough",
	ModeDisabled:      "disabled",
}

// Modes lists every mode in cycling order.
func Modes() []Mode {
	return []Mode{ModeColorTracking, ModePassthrough, ModeDisabled}
}

// Next returns the following mode, wrapping around after the last one.
func (m Mode) Next() Mode {
	return (m.normalize() + 1) % modeCount
}

// Tracks reports whether the mode runs the tracking pipeline.
func (m Mode) Tracks() bool {
	return m == ModeColorTracking
}

// ShowsFrames reports whether frames are forwarded for display.
func (m Mode) ShowsFrames() bool {
	return m == ModeColorTracking || m == ModePassthrough
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m >= 0 && m < modeCount
}

func (m Mode) normalize() Mode {
	if m.Valid() {
		return m
	}
	return ((m % modeCount) + modeCount) % modeCount
}

func (m Mode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode accepts a mode name.
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if name == s {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown mode: %q", s)
}

// MarshalJSON encodes the mode by name.
func (m Mode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON decodes a mode name.
func (m *Mode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
