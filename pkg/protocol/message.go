// Package protocol defines the WebSocket message types exchanged between the
// armband tracker, remote frame publishers and viewers.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/teslashibe/go-armband/pkg/tracking"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Publisher → Tracker messages
	TypeFrame MessageType = "frame" // Camera frame

	// Tracker → Viewer messages
	TypeTrack MessageType = "track" // Per-frame track result

	// Control messages, either direction
	TypeMode   MessageType = "mode"   // Operation mode change
	TypeConfig MessageType = "config" // Color range / scan update

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data any) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v any) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("failed to parse message: missing type")
	}
	return &msg, nil
}

// =============================================================================
// Publisher → Tracker
// =============================================================================

// FrameData contains a camera frame
type FrameData struct {
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Format  string `json:"format"` // "jpeg"
	Data    string `json:"data"`   // base64 encoded
	FrameID uint64 `json:"frame_id,omitempty"`
}

// =============================================================================
// Tracker → Viewer
// =============================================================================

// TrackData is one frame's tracking outcome as seen by viewers.
type TrackData struct {
	X          int           `json:"x"`
	Y          int           `json:"y"`
	Valid      bool          `json:"valid"`
	Yaw        float64       `json:"yaw"`
	Area       int64         `json:"area"`
	CountLeft  int           `json:"count_left"`
	CountRight int           `json:"count_right"`
	Mode       tracking.Mode `json:"mode"`
	FrameID    uint64        `json:"frame_id"`
}

// Result converts the payload back into a tracking result.
func (t *TrackData) Result() tracking.TrackResult {
	return tracking.TrackResult{
		X:          t.X,
		Y:          t.Y,
		Valid:      t.Valid,
		Yaw:        t.Yaw,
		Area:       t.Area,
		CountLeft:  t.CountLeft,
		CountRight: t.CountRight,
	}
}

// =============================================================================
// Control
// =============================================================================

// ModeData carries an operation mode. Next asks the receiver to cycle
// instead of setting Mode.
type ModeData struct {
	Mode tracking.Mode `json:"mode"`
	Next bool          `json:"next,omitempty"`
}

// ConfigData carries a partial tracking configuration update.
type ConfigData struct {
	Color *tracking.ColorRange `json:"color,omitempty"`
	Scan  *tracking.ScanConfig `json:"scan,omitempty"`
}

// =============================================================================
// Bidirectional
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
