// Package hub fans tracker output out to websocket viewers. The tracker
// runs one hub for track results and one for JPEG camera frames, and every
// message remembers the reader frame it was produced from.
package hub

// MessageType selects the websocket opcode a message is written with.
type MessageType int

const (
	// JSONMessage is a text frame (track results, events)
	JSONMessage MessageType = iota
	// BinaryMessage is a binary frame (JPEG camera images)
	BinaryMessage
)

// Message is one broadcast payload.
type Message struct {
	Type MessageType
	Data []byte

	// FrameID is the reader frame the payload belongs to, 0 when it is not
	// tied to a frame. A hub never sends a frame older than one it already
	// fanned out, so slow JPEG encodes cannot make the view jump back.
	FrameID uint64
}

// TrackMessage wraps an encoded track result for a reader frame.
func TrackMessage(frameID uint64, data []byte) Message {
	return Message{Type: JSONMessage, Data: data, FrameID: frameID}
}

// FrameMessage wraps a JPEG camera image for a reader frame.
func FrameMessage(frameID uint64, jpeg []byte) Message {
	return Message{Type: BinaryMessage, Data: jpeg, FrameID: frameID}
}

// olderThan reports whether m belongs to a frame before last.
func (m Message) olderThan(last uint64) bool {
	return m.FrameID != 0 && m.FrameID < last
}
