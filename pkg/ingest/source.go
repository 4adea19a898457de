// Package ingest accepts camera frames pushed over a WebSocket, so the
// tracker can run next to a dashboard while the camera sits on another host.
package ingest

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/teslashibe/go-armband/internal/log"
	"github.com/teslashibe/go-armband/pkg/debug"
	"github.com/teslashibe/go-armband/pkg/protocol"
	"github.com/teslashibe/go-armband/pkg/tracking"
	"github.com/teslashibe/go-armband/pkg/webcam"
)

// Decoder turns an encoded image into a BGR frame.
type Decoder interface {
	DecodeJPEG(data []byte) (*tracking.Frame, error)
}

// Publisher is a connected frame producer.
type Publisher struct {
	ID        string
	Conn      *websocket.Conn
	Connected time.Time
	LastSeen  time.Time

	mu sync.Mutex
}

// Send writes a message to the publisher.
func (p *Publisher) Send(msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Conn.WriteMessage(websocket.TextMessage, data)
}

type pending struct {
	publisher string
	frameID   uint64
	jpeg      []byte
}

// Source is a webcam.FrameSource fed by publishers. Only the most recent
// frame is kept; each one is returned by Next at most once.
type Source struct {
	decoder Decoder
	log     *slog.Logger

	mu         sync.RWMutex
	publishers map[string]*Publisher
	latest     *pending

	messagesReceived atomic.Uint64
	framesReceived   atomic.Uint64
	framesDropped    atomic.Uint64
	decodeErrors     atomic.Uint64
}

// New creates an ingest source that decodes frames with decoder.
func New(decoder Decoder) *Source {
	return &Source{
		decoder:    decoder,
		log:        log.Component("ingest"),
		publishers: make(map[string]*Publisher),
	}
}

// Next returns the newest unread frame, or webcam.ErrNoFrame.
func (s *Source) Next() (*tracking.Frame, error) {
	s.mu.Lock()
	p := s.latest
	s.latest = nil
	s.mu.Unlock()

	if p == nil {
		return nil, webcam.ErrNoFrame
	}

	frame, err := s.decoder.DecodeJPEG(p.jpeg)
	if err != nil {
		s.decodeErrors.Add(1)
		return nil, fmt.Errorf("ingest: frame %d from %s: %w", p.frameID, p.publisher, err)
	}
	return frame, nil
}

// RegisterRoutes registers the publisher endpoint on a Fiber app.
func (s *Source) RegisterRoutes(app *fiber.App) {
	app.Use("/ws/ingest", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/ingest", websocket.New(s.handlePublisher))
	app.Get("/ws/ingest/:id", websocket.New(s.handlePublisher))
}

func (s *Source) handlePublisher(c *websocket.Conn) {
	id := c.Params("id")
	if id == "" {
		id = uuid.NewString()
	}

	pub := &Publisher{
		ID:        id,
		Conn:      c,
		Connected: time.Now(),
		LastSeen:  time.Now(),
	}

	s.mu.Lock()
	s.publishers[id] = pub
	count := len(s.publishers)
	s.mu.Unlock()
	s.log.Info("publisher connected", "publisher", id, "publishers", count)

	defer func() {
		s.mu.Lock()
		if s.publishers[id] == pub {
			delete(s.publishers, id)
		}
		count := len(s.publishers)
		s.mu.Unlock()
		s.log.Info("publisher disconnected", "publisher", id, "publishers", count)
	}()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			debug.Log("publisher read error", "publisher", id, "error", err)
			return
		}

		pub.mu.Lock()
		pub.LastSeen = time.Now()
		pub.mu.Unlock()

		s.messagesReceived.Add(1)
		s.handleMessage(pub, data)
	}
}

func (s *Source) handleMessage(pub *Publisher, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		debug.Log("publisher parse error", "publisher", pub.ID, "error", err)
		return
	}

	switch msg.Type {
	case protocol.TypeFrame:
		frame, err := msg.GetFrameData()
		if err != nil {
			s.decodeErrors.Add(1)
			return
		}
		jpeg, err := frame.JPEG()
		if err != nil {
			s.decodeErrors.Add(1)
			debug.Log("bad frame payload", "publisher", pub.ID, "error", err)
			return
		}
		s.framesReceived.Add(1)

		s.mu.Lock()
		if s.latest != nil {
			s.framesDropped.Add(1)
		}
		s.latest = &pending{publisher: pub.ID, frameID: frame.FrameID, jpeg: jpeg}
		s.mu.Unlock()

	case protocol.TypePing:
		ping, _ := msg.GetPingData()
		id := ""
		if ping != nil {
			id = ping.ID
		}
		pong, err := protocol.NewPongMessage(id, msg.Timestamp, time.Now().UnixMilli())
		if err == nil {
			if err := pub.Send(pong); err != nil {
				debug.Log("pong failed", "publisher", pub.ID, "error", err)
			}
		}

	default:
		debug.Log("ignoring message", "publisher", pub.ID, "type", msg.Type)
	}
}

// PublisherCount returns the number of connected publishers.
func (s *Source) PublisherCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.publishers)
}

// PublisherInfo describes a connected publisher.
type PublisherInfo struct {
	ID        string    `json:"id"`
	Connected time.Time `json:"connected"`
	LastSeen  time.Time `json:"last_seen"`
}

// Publishers returns info about all connected publishers.
func (s *Source) Publishers() []PublisherInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]PublisherInfo, 0, len(s.publishers))
	for _, p := range s.publishers {
		p.mu.Lock()
		infos = append(infos, PublisherInfo{
			ID:        p.ID,
			Connected: p.Connected,
			LastSeen:  p.LastSeen,
		})
		p.mu.Unlock()
	}
	return infos
}

// Stats contains ingest counters.
type Stats struct {
	Publishers       int    `json:"publishers"`
	MessagesReceived uint64 `json:"messages_received"`
	FramesReceived   uint64 `json:"frames_received"`
	FramesDropped    uint64 `json:"frames_dropped"`
	DecodeErrors     uint64 `json:"decode_errors"`
}

// GetStats returns the ingest counters.
func (s *Source) GetStats() Stats {
	return Stats{
		Publishers:       s.PublisherCount(),
		MessagesReceived: s.messagesReceived.Load(),
		FramesReceived:   s.framesReceived.Load(),
		FramesDropped:    s.framesDropped.Load(),
		DecodeErrors:     s.decodeErrors.Load(),
	}
}

// RegisterAPIRoutes registers publisher inspection routes.
func (s *Source) RegisterAPIRoutes(api fiber.Router) {
	ingest := api.Group("/ingest")

	ingest.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"publishers": s.Publishers(),
			"count":      s.PublisherCount(),
		})
	})

	ingest.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(s.GetStats())
	})
}
