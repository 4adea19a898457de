package web

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-armband/pkg/camera"
	"github.com/teslashibe/go-armband/pkg/hub"
	"github.com/teslashibe/go-armband/pkg/protocol"
	"github.com/teslashibe/go-armband/pkg/tracking"
	"github.com/teslashibe/go-armband/pkg/webcam"
)

// StatusResponse is the body of GET /api/status
type StatusResponse struct {
	Mode    tracking.Mode        `json:"mode"`
	Track   tracking.TrackResult `json:"track"`
	Color   tracking.ColorRange  `json:"color"`
	Scan    tracking.ScanConfig  `json:"scan"`
	Stats   webcam.Stats         `json:"stats"`
	Viewers map[string]int       `json:"viewers"`
}

// ConfigResponse is the body of GET /api/config
type ConfigResponse struct {
	Color tracking.ColorRange `json:"color"`
	Scan  tracking.ScanConfig `json:"scan"`
}

func errorJSON(c *fiber.Ctx, status int, err error) error {
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// handleStatus returns the tracker's current state
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(StatusResponse{
		Mode:  s.ctrl.Mode(),
		Track: s.ctrl.State(),
		Color: s.ctrl.ColorRange(),
		Scan:  s.ctrl.ScanConfig(),
		Stats: s.ctrl.Stats(),
		Viewers: map[string]int{
			"track":  s.trackHub.ClientCount(),
			"camera": s.cameraHub.ClientCount(),
		},
	})
}

// handleTrack returns the latest track result
func (s *Server) handleTrack(c *fiber.Ctx) error {
	return c.JSON(s.ctrl.State())
}

func (s *Server) handleGetConfig(c *fiber.Ctx) error {
	return c.JSON(ConfigResponse{
		Color: s.ctrl.ColorRange(),
		Scan:  s.ctrl.ScanConfig(),
	})
}

// handleSetColor applies a (possibly partial) color range on top of the
// current one
func (s *Server) handleSetColor(c *fiber.Ctx) error {
	cfg := s.ctrl.ColorRange()
	if err := c.BodyParser(&cfg); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}
	if err := s.ctrl.SetColorRange(cfg); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}
	s.AddLog("config", fmt.Sprintf("color H %d-%d S %d-%d V %d-%d",
		cfg.LowH, cfg.HighH, cfg.LowS, cfg.HighS, cfg.LowV, cfg.HighV))
	return c.JSON(cfg)
}

// handleSetScan applies a (possibly partial) scan config on top of the
// current one
func (s *Server) handleSetScan(c *fiber.Ctx) error {
	cfg := s.ctrl.ScanConfig()
	if err := c.BodyParser(&cfg); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}
	if err := s.ctrl.SetScanConfig(cfg); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}
	s.AddLog("config", fmt.Sprintf("scan area>%d dist=%d", cfg.AreaThreshold, cfg.ScanDistance))
	return c.JSON(cfg)
}

func (s *Server) handleListPresets(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"color":  tracking.ColorPresetNames(),
		"scan":   tracking.ScanPresetNames(),
		"camera": camera.PresetNames(),
	})
}

// handleApplyPreset applies a color or scan preset by name
func (s *Server) handleApplyPreset(c *fiber.Ctx) error {
	name := c.Params("name")

	if color := tracking.GetColorPreset(name); color != nil {
		if err := s.ctrl.SetColorRange(*color); err != nil {
			return errorJSON(c, fiber.StatusBadRequest, err)
		}
		s.AddLog("preset", "color "+name)
		return c.JSON(fiber.Map{"preset": name, "color": color})
	}

	if scan := tracking.GetScanPreset(name); scan != nil {
		if err := s.ctrl.SetScanConfig(*scan); err != nil {
			return errorJSON(c, fiber.StatusBadRequest, err)
		}
		s.AddLog("preset", "scan "+name)
		return c.JSON(fiber.Map{"preset": name, "scan": scan})
	}

	return errorJSON(c, fiber.StatusNotFound, fmt.Errorf("unknown preset: %s", name))
}

func (s *Server) handleGetMode(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"mode":  s.ctrl.Mode(),
		"modes": tracking.Modes(),
	})
}

func (s *Server) handleSetMode(c *fiber.Ctx) error {
	var req protocol.ModeData
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}

	mode := req.Mode
	if req.Next {
		mode = s.ctrl.NextMode()
	} else if err := s.ctrl.SetMode(mode); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}

	s.AddLog("mode", mode.String())
	return c.JSON(fiber.Map{"mode": mode})
}

func (s *Server) handleNextMode(c *fiber.Ctx) error {
	mode := s.ctrl.NextMode()
	s.AddLog("mode", mode.String())
	return c.JSON(fiber.Map{"mode": mode})
}

var errNoRecorder = errors.New("recording is disabled")

// handleHistory returns recent recorded samples, newest first
func (s *Server) handleHistory(c *fiber.Ctx) error {
	if s.history == nil {
		return errorJSON(c, fiber.StatusNotFound, errNoRecorder)
	}
	samples, err := s.history.Recent(c.QueryInt("limit", 100))
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(samples)
}

func (s *Server) handleSessions(c *fiber.Ctx) error {
	if s.history == nil {
		return errorJSON(c, fiber.StatusNotFound, errNoRecorder)
	}
	sessions, err := s.history.Sessions(c.QueryInt("limit", 20))
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(sessions)
}

var errRemoteCamera = errors.New("no local camera: frames come from remote publishers")

func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	if s.camera == nil {
		return errorJSON(c, fiber.StatusConflict, errRemoteCamera)
	}
	return c.JSON(s.camera.GetConfig())
}

// handleSetCamera updates camera fields; a "preset" key selects a base config
func (s *Server) handleSetCamera(c *fiber.Ctx) error {
	if s.camera == nil {
		return errorJSON(c, fiber.StatusConflict, errRemoteCamera)
	}

	var params map[string]any
	if err := c.BodyParser(&params); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}
	if err := s.camera.UpdateConfig(params); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}

	s.AddLog("camera", "settings updated")
	return c.JSON(s.camera.GetConfig())
}

// handleGetLogs returns recent dashboard events
func (s *Server) handleGetLogs(c *fiber.Ctx) error {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	return c.JSON(s.logs)
}

// handleTrackWS streams track messages, starting with the latest one
func (s *Server) handleTrackWS(c *websocket.Conn) {
	s.lastMu.RLock()
	last := s.last
	s.lastMu.RUnlock()

	if last != nil {
		if err := c.WriteMessage(websocket.TextMessage, last); err != nil {
			return
		}
	}
	hub.NewClient(s.trackHub, c).Run()
}

// handleCameraWS streams JPEG display frames
func (s *Server) handleCameraWS(c *websocket.Conn) {
	hub.NewClient(s.cameraHub, c).Run()
}
