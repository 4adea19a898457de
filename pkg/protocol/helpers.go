package protocol

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/teslashibe/go-armband/pkg/tracking"
)

// FormatJPEG is the only frame encoding the tracker accepts.
const FormatJPEG = "jpeg"

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewFrameMessage creates a frame message from raw JPEG data
func NewFrameMessage(width, height int, jpegData []byte, frameID uint64) (*Message, error) {
	return NewMessage(TypeFrame, FrameData{
		Width:   width,
		Height:  height,
		Format:  FormatJPEG,
		Data:    base64.StdEncoding.EncodeToString(jpegData),
		FrameID: frameID,
	})
}

// NewTrackMessage creates a track message for one processed frame
func NewTrackMessage(res tracking.TrackResult, mode tracking.Mode, frameID uint64) (*Message, error) {
	return NewMessage(TypeTrack, TrackData{
		X:          res.X,
		Y:          res.Y,
		Valid:      res.Valid,
		Yaw:        res.Yaw,
		Area:       res.Area,
		CountLeft:  res.CountLeft,
		CountRight: res.CountRight,
		Mode:       mode,
		FrameID:    frameID,
	})
}

// NewModeMessage creates a mode message
func NewModeMessage(mode tracking.Mode) (*Message, error) {
	return NewMessage(TypeMode, ModeData{Mode: mode})
}

// NewNextModeMessage asks the receiver to cycle to its next mode
func NewNextModeMessage() (*Message, error) {
	return NewMessage(TypeMode, ModeData{Next: true})
}

// NewConfigMessage creates a configuration update message
func NewConfigMessage(color *tracking.ColorRange, scan *tracking.ScanConfig) (*Message, error) {
	return NewMessage(TypeConfig, ConfigData{
		Color: color,
		Scan:  scan,
	})
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{
		ID:        id,
		Timestamp: time.Now().UnixMilli(),
	})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetFrameData extracts frame data from a message
func (m *Message) GetFrameData() (*FrameData, error) {
	var data FrameData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// JPEG decodes the base64 image data. Only the jpeg format is accepted.
func (f *FrameData) JPEG() ([]byte, error) {
	if f.Format != "" && f.Format != FormatJPEG {
		return nil, fmt.Errorf("unsupported frame format: %q", f.Format)
	}
	return base64.StdEncoding.DecodeString(f.Data)
}

// GetTrackData extracts track data from a message
func (m *Message) GetTrackData() (*TrackData, error) {
	var data TrackData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetModeData extracts mode data from a message
func (m *Message) GetModeData() (*ModeData, error) {
	var data ModeData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetConfigData extracts a config update from a message
func (m *Message) GetConfigData() (*ConfigData, error) {
	var data ConfigData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
