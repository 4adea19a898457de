package rtcsource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
	"github.com/pion/webrtc/v3"

	"github.com/teslashibe/go-armband/internal/log"
	"github.com/teslashibe/go-armband/pkg/debug"
	"github.com/teslashibe/go-armband/pkg/tracking"
	"github.com/teslashibe/go-armband/pkg/webcam"
)

// ErrProducerNotFound is returned by Dial when no producer matches.
var ErrProducerNotFound = errors.New("rtcsource: producer not found")

// Decoder turns a JPEG into a BGR frame.
type Decoder interface {
	DecodeJPEG(data []byte) (*tracking.Frame, error)
}

// signal is a webrtcsink signalling message.
type signal struct {
	Type      string      `json:"type"`
	PeerID    string      `json:"peerId,omitempty"`
	SessionID string      `json:"sessionId,omitempty"`
	Producers []producer  `json:"producers,omitempty"`
	SDP       *sdpPayload `json:"sdp,omitempty"`
	ICE       *icePayload `json:"ice,omitempty"`
	Details   string      `json:"details,omitempty"`
}

type producer struct {
	ID   string            `json:"id"`
	Meta map[string]string `json:"meta"`
}

type sdpPayload struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

type icePayload struct {
	Candidate     string  `json:"candidate"`
	SDPMid        *string `json:"sdpMid"`
	SDPMLineIndex *uint16 `json:"sdpMLineIndex"`
}

// Stats are the source counters.
type Stats struct {
	Packets      uint64 `json:"packets"`
	AccessUnits  uint64 `json:"access_units"`
	Decoded      uint64 `json:"decoded"`
	DecodeErrors uint64 `json:"decode_errors"`
}

// Source is a webcam.FrameSource fed by a WebRTC video track.
type Source struct {
	cfg     Config
	decoder Decoder
	log     *slog.Logger

	ws   *websocket.Conn
	wsMu sync.Mutex
	pc   *webrtc.PeerConnection

	peerID     string
	producerID string

	mu        sync.Mutex
	sessionID string
	gop       gop
	latest    []byte

	cancel context.CancelFunc
	closed atomic.Bool
	done   sync.WaitGroup

	packets      atomic.Uint64
	accessUnits  atomic.Uint64
	decoded      atomic.Uint64
	decodeErrors atomic.Uint64
}

// Dial joins the signalling server and starts a session with the producer.
// Frames become available once the video track delivers a keyframe.
func Dial(ctx context.Context, cfg Config, decoder Decoder) (*Source, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("rtcsource: invalid config: %v", errs)
	}
	if decoder == nil {
		return nil, errors.New("rtcsource: decoder is required")
	}

	dialer := websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout}
	ws, _, err := dialer.DialContext(ctx, cfg.SignallingURL, nil)
	if err != nil {
		return nil, fmt.Errorf("rtcsource: signalling connect: %w", err)
	}

	s := &Source{cfg: cfg, decoder: decoder, ws: ws, log: log.Component("rtcsource")}
	if err := s.handshake(); err != nil {
		ws.Close()
		return nil, err
	}
	if err := s.createPeerConnection(); err != nil {
		ws.Close()
		return nil, fmt.Errorf("rtcsource: peer connection: %w", err)
	}
	if err := s.send(signal{Type: "startSession", PeerID: s.producerID}); err != nil {
		s.pc.Close()
		ws.Close()
		return nil, fmt.Errorf("rtcsource: start session: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done.Add(2)
	go s.handleSignalling()
	go s.decodeLoop(runCtx)

	s.log.Info("webrtc session requested", "url", cfg.SignallingURL, "producer", s.producerID)
	return s, nil
}

// handshake waits for the welcome and picks a producer from the list.
func (s *Source) handshake() error {
	welcome, err := s.expect("welcome")
	if err != nil {
		return fmt.Errorf("rtcsource: welcome: %w", err)
	}
	s.peerID = welcome.PeerID

	if err := s.send(signal{Type: "list"}); err != nil {
		return fmt.Errorf("rtcsource: list: %w", err)
	}
	list, err := s.expect("list")
	if err != nil {
		return fmt.Errorf("rtcsource: list: %w", err)
	}

	id, ok := pickProducer(list.Producers, s.cfg.Producer)
	if !ok {
		return fmt.Errorf("%w: %q among %d producers", ErrProducerNotFound, s.cfg.Producer, len(list.Producers))
	}
	s.producerID = id
	return nil
}

// expect reads messages until one of type typ arrives.
func (s *Source) expect(typ string) (*signal, error) {
	s.ws.SetReadDeadline(time.Now().Add(s.cfg.HandshakeTimeout))
	defer s.ws.SetReadDeadline(time.Time{})

	for {
		_, data, err := s.ws.ReadMessage()
		if err != nil {
			return nil, err
		}
		var msg signal
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, err
		}
		switch msg.Type {
		case typ:
			return &msg, nil
		case "error":
			return nil, fmt.Errorf("signalling error: %s", msg.Details)
		}
	}
}

func pickProducer(producers []producer, name string) (string, bool) {
	for _, p := range producers {
		if name == "" || p.Meta["name"] == name {
			return p.ID, true
		}
	}
	return "", false
}

func (s *Source) send(msg signal) error {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()
	return s.ws.WriteJSON(msg)
}

func (s *Source) createPeerConnection() error {
	cfg := webrtc.Configuration{}
	if len(s.cfg.ICEServers) > 0 {
		cfg.ICEServers = []webrtc.ICEServer{{URLs: s.cfg.ICEServers}}
	}

	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return err
	}
	if _, err := pc.AddTransceiverFromKind(webrtc.RTPCodecTypeVideo, webrtc.RTPTransceiverInit{
		Direction: webrtc.RTPTransceiverDirectionRecvonly,
	}); err != nil {
		pc.Close()
		return err
	}

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		if track.Kind() != webrtc.RTPCodecTypeVideo {
			return
		}
		if !strings.EqualFold(track.Codec().MimeType, webrtc.MimeTypeH264) {
			s.log.Warn("unsupported video codec", "codec", track.Codec().MimeType)
			return
		}
		s.log.Info("webrtc video track", "codec", track.Codec().MimeType, "ssrc", track.SSRC())
		go s.readTrack(track)
	})

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c != nil {
			s.sendICECandidate(c)
		}
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		s.log.Info("webrtc connection state", "state", state.String())
	})

	s.pc = pc
	return nil
}

func (s *Source) handleSignalling() {
	defer s.done.Done()

	for {
		_, data, err := s.ws.ReadMessage()
		if err != nil {
			if !s.closed.Load() {
				s.log.Warn("signalling read failed", "error", err)
			}
			return
		}

		var msg signal
		if err := json.Unmarshal(data, &msg); err != nil {
			debug.Log("bad signalling message", "error", err)
			continue
		}

		switch msg.Type {
		case "sessionStarted":
			s.setSession(msg.SessionID)
		case "peer":
			s.handlePeerMessage(&msg)
		case "endSession":
			s.log.Info("webrtc session ended by producer", "session", msg.SessionID)
			return
		case "error":
			s.log.Warn("signalling error", "details", msg.Details)
		}
	}
}

func (s *Source) setSession(id string) {
	s.mu.Lock()
	s.sessionID = id
	s.mu.Unlock()
}

// SessionID returns the signalling session, empty until it starts.
func (s *Source) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

func (s *Source) handlePeerMessage(msg *signal) {
	if msg.SessionID != "" && s.SessionID() == "" {
		s.setSession(msg.SessionID)
	}

	if msg.SDP != nil && msg.SDP.Type == "offer" {
		if err := s.answer(msg.SDP.SDP); err != nil {
			s.log.Error("webrtc negotiation failed", "error", err)
		}
	}

	if msg.ICE != nil {
		err := s.pc.AddICECandidate(webrtc.ICECandidateInit{
			Candidate:     msg.ICE.Candidate,
			SDPMid:        msg.ICE.SDPMid,
			SDPMLineIndex: msg.ICE.SDPMLineIndex,
		})
		if err != nil {
			debug.Log("add ice candidate", "error", err)
		}
	}
}

func (s *Source) answer(offer string) error {
	if err := s.pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeOffer,
		SDP:  offer,
	}); err != nil {
		return fmt.Errorf("set remote description: %w", err)
	}

	answer, err := s.pc.CreateAnswer(nil)
	if err != nil {
		return fmt.Errorf("create answer: %w", err)
	}
	if err := s.pc.SetLocalDescription(answer); err != nil {
		return fmt.Errorf("set local description: %w", err)
	}

	return s.send(signal{
		Type:      "peer",
		SessionID: s.SessionID(),
		SDP:       &sdpPayload{Type: answer.Type.String(), SDP: answer.SDP},
	})
}

func (s *Source) sendICECandidate(c *webrtc.ICECandidate) {
	session := s.SessionID()
	if session == "" {
		return
	}

	init := c.ToJSON()
	err := s.send(signal{
		Type:      "peer",
		SessionID: session,
		ICE: &icePayload{
			Candidate:     init.Candidate,
			SDPMid:        init.SDPMid,
			SDPMLineIndex: init.SDPMLineIndex,
		},
	})
	if err != nil {
		debug.Log("send ice candidate", "error", err)
	}
}

// readTrack depacketizes RTP into access units, split on the marker bit.
func (s *Source) readTrack(track *webrtc.TrackRemote) {
	var (
		depacketizer codecs.H264Packet
		au           []byte
	)
	for {
		pkt, _, err := track.ReadRTP()
		if err != nil {
			if !s.closed.Load() {
				s.log.Warn("video track ended", "error", err)
			}
			return
		}
		au = s.handlePacket(&depacketizer, pkt, au)
	}
}

func (s *Source) handlePacket(d *codecs.H264Packet, pkt *rtp.Packet, au []byte) []byte {
	s.packets.Add(1)

	nal, err := d.Unmarshal(pkt.Payload)
	if err != nil {
		debug.Log("h264 depacketize", "seq", pkt.SequenceNumber, "error", err)
		return au
	}
	au = append(au, nal...)

	if !pkt.Marker || len(au) == 0 {
		return au
	}
	s.accessUnits.Add(1)
	s.mu.Lock()
	s.gop.add(au)
	s.mu.Unlock()
	return nil
}

// decodeLoop transcodes the buffered stream whenever it changed.
func (s *Source) decodeLoop(ctx context.Context) {
	defer s.done.Done()

	ticker := time.NewTicker(s.cfg.DecodeInterval)
	defer ticker.Stop()

	var last uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			version := s.gop.version
			var stream []byte
			if version != last {
				stream = s.gop.snapshot()
			}
			s.mu.Unlock()

			if stream == nil {
				continue
			}
			last = version
			s.decode(ctx, stream)
		}
	}
}

func (s *Source) decode(ctx context.Context, stream []byte) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.DecodeTimeout)
	defer cancel()

	jpeg, err := s.cfg.Transcoder(ctx, stream)
	if err != nil {
		s.decodeErrors.Add(1)
		debug.Log("h264 decode failed", "bytes", len(stream), "error", err)
		return
	}

	s.decoded.Add(1)
	s.mu.Lock()
	s.latest = jpeg
	s.mu.Unlock()
}

// Next returns the newest unread picture, or webcam.ErrNoFrame.
func (s *Source) Next() (*tracking.Frame, error) {
	if s.closed.Load() {
		return nil, errors.New("rtcsource: closed")
	}

	s.mu.Lock()
	jpeg := s.latest
	s.latest = nil
	s.mu.Unlock()

	if jpeg == nil {
		return nil, webcam.ErrNoFrame
	}
	return s.decoder.DecodeJPEG(jpeg)
}

// Stats returns the source counters.
func (s *Source) Stats() Stats {
	return Stats{
		Packets:      s.packets.Load(),
		AccessUnits:  s.accessUnits.Load(),
		Decoded:      s.decoded.Load(),
		DecodeErrors: s.decodeErrors.Load(),
	}
}

// Close ends the session and stops the background goroutines.
func (s *Source) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	s.cancel()
	var errs []error
	if err := s.pc.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.ws.Close(); err != nil {
		errs = append(errs, err)
	}
	s.done.Wait()
	return errors.Join(errs...)
}
