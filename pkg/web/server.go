// Package web serves the armband tracker dashboard: a REST API for mode and
// color/scan tuning, plus live track results and camera frames over
// WebSockets.
package web

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-armband/internal/log"
	"github.com/teslashibe/go-armband/pkg/camera"
	"github.com/teslashibe/go-armband/pkg/hub"
	"github.com/teslashibe/go-armband/pkg/protocol"
	"github.com/teslashibe/go-armband/pkg/recorder"
	"github.com/teslashibe/go-armband/pkg/tracking"
	"github.com/teslashibe/go-armband/pkg/webcam"
)

const maxLogs = 200

// Controller is the tracker surface the dashboard drives.
// *webcam.Reader implements it.
type Controller interface {
	Mode() tracking.Mode
	SetMode(m tracking.Mode) error
	NextMode() tracking.Mode
	State() tracking.TrackResult
	ColorRange() tracking.ColorRange
	SetColorRange(c tracking.ColorRange) error
	ScanConfig() tracking.ScanConfig
	SetScanConfig(c tracking.ScanConfig) error
	Stats() webcam.Stats
}

// FrameEncoder compresses display frames for /ws/camera.
type FrameEncoder interface {
	EncodeJPEG(bgr *tracking.Frame) ([]byte, error)
}

// History serves recorded samples.
type History interface {
	Recent(limit int) ([]recorder.Sample, error)
	Sessions(limit int) ([]recorder.Session, error)
}

// LogEntry is a dashboard event
type LogEntry struct {
	Time    string `json:"time"`
	Type    string `json:"type"` // mode, config, preset, camera
	Message string `json:"message"`
}

// Server is the web dashboard server. It is a webcam.Sink.
type Server struct {
	app  *fiber.App
	port string

	ctrl    Controller
	encoder FrameEncoder
	history History
	camera  *camera.Manager

	// Last track message, replayed to new /ws/track clients
	last   []byte
	lastMu sync.RWMutex

	logs   []LogEntry
	logsMu sync.RWMutex

	trackHub  *hub.Hub
	cameraHub *hub.Hub
}

// NewServer creates a dashboard for ctrl. encoder may be nil to disable
// the camera stream.
func NewServer(port string, ctrl Controller, encoder FrameEncoder) *Server {
	s := &Server{
		port:      port,
		ctrl:      ctrl,
		encoder:   encoder,
		logs:      make([]LogEntry, 0, maxLogs),
		trackHub:  hub.New("track"),
		cameraHub: hub.New("camera"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Armband Tracker",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/track", s.handleTrack)
	api.Get("/config", s.handleGetConfig)
	api.Put("/config/color", s.handleSetColor)
	api.Put("/config/scan", s.handleSetScan)
	api.Get("/presets", s.handleListPresets)
	api.Post("/presets/:name", s.handleApplyPreset)
	api.Get("/mode", s.handleGetMode)
	api.Put("/mode", s.handleSetMode)
	api.Post("/mode/next", s.handleNextMode)
	api.Get("/history", s.handleHistory)
	api.Get("/sessions", s.handleSessions)
	api.Get("/camera", s.handleGetCamera)
	api.Put("/camera", s.handleSetCamera)
	api.Get("/logs", s.handleGetLogs)

	app.Use("/ws/track", upgradeOnly)
	app.Use("/ws/camera", upgradeOnly)
	app.Get("/ws/track", websocket.New(s.handleTrackWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))

	s.app = app
	return s
}

func upgradeOnly(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// App exposes the Fiber app so other components can add routes.
func (s *Server) App() *fiber.App {
	return s.app
}

// SetHistory attaches a recorder for /api/history.
func (s *Server) SetHistory(h History) {
	s.history = h
}

// SetCameraManager attaches local camera settings for /api/camera.
func (s *Server) SetCameraManager(m *camera.Manager) {
	s.camera = m
}

// Start runs the hubs and listens until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	log.Info("web dashboard listening", "url", "http://localhost:"+s.port)

	go s.trackHub.Run(ctx)
	go s.cameraHub.Run(ctx)

	go func() {
		<-ctx.Done()
		if err := s.app.ShutdownWithTimeout(5 * time.Second); err != nil {
			log.Warn("web shutdown", "error", err)
		}
	}()

	return s.app.Listen(":" + s.port)
}

// HandleUpdate broadcasts a processed frame to viewers.
func (s *Server) HandleUpdate(u webcam.Update) {
	msg, err := protocol.NewTrackMessage(u.Result, u.Mode, u.FrameID)
	if err != nil {
		log.Error("encode track message", "error", err)
		return
	}
	data, err := msg.Bytes()
	if err != nil {
		log.Error("encode track message", "error", err)
		return
	}

	s.lastMu.Lock()
	s.last = data
	s.lastMu.Unlock()
	s.trackHub.Broadcast(hub.TrackMessage(u.FrameID, data))

	if u.Display == nil || s.encoder == nil || s.cameraHub.ClientCount() == 0 {
		return
	}
	jpeg, err := s.encoder.EncodeJPEG(u.Display)
	if err != nil {
		log.Warn("encode camera frame", "error", err)
		return
	}
	s.cameraHub.Broadcast(hub.FrameMessage(u.FrameID, jpeg))
}

// AddLog adds a dashboard event
func (s *Server) AddLog(logType, message string) {
	entry := LogEntry{
		Time:    time.Now().Format("15:04:05"),
		Type:    logType,
		Message: message,
	}

	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > maxLogs {
		s.logs = s.logs[1:]
	}
	s.logsMu.Unlock()

	log.Info("dashboard event", "type", logType, "message", message)
}

// TrackHub returns the hub behind /ws/track
func (s *Server) TrackHub() *hub.Hub {
	return s.trackHub
}

// CameraHub returns the hub behind /ws/camera
func (s *Server) CameraHub() *hub.Hub {
	return s.cameraHub
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
