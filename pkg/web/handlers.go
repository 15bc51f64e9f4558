package web

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-soccerbot/pkg/camera"
	"github.com/teslashibe/go-soccerbot/pkg/hub"
	"github.com/teslashibe/go-soccerbot/pkg/tracking"
)

// StatusResponse is returned by GET /api/status
type StatusResponse struct {
	Uptime        string          `json:"uptime"`
	PoseSeq       uint64          `json:"pose_seq"`
	PoseAgeMs     int64           `json:"pose_age_ms"` // -1 before the first pose
	PoseViewers   int             `json:"pose_viewers"`
	CameraViewers int             `json:"camera_viewers"`
	Dropped       uint64          `json:"dropped"`
	Pipeline      *tracking.Stats `json:"pipeline,omitempty"`
}

// handlePose returns the most recent pose
func (s *Server) handlePose(c *fiber.Ctx) error {
	s.mu.RLock()
	pose, ok := s.pose, s.havePose
	s.mu.RUnlock()

	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no pose yet",
		})
	}
	return c.JSON(pose)
}

// handleFrame returns the most recent annotated frame
func (s *Server) handleFrame(c *fiber.Ctx) error {
	s.mu.RLock()
	frame, at := s.frame, s.frameAt
	s.mu.RUnlock()

	if len(frame) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no frame yet",
		})
	}

	c.Set(fiber.HeaderContentType, "image/jpeg")
	c.Set(fiber.HeaderCacheControl, "no-store")
	c.Set(fiber.HeaderLastModified, at.UTC().Format(time.RFC1123))
	return c.Send(frame)
}

// handleConfig returns the active perception configuration
func (s *Server) handleConfig(c *fiber.Ctx) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return c.JSON(s.config)
}

// handleStatus returns dashboard and pipeline health
func (s *Server) handleStatus(c *fiber.Ctx) error {
	s.mu.RLock()
	resp := StatusResponse{
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		PoseAgeMs: -1,
	}
	if s.havePose {
		resp.PoseSeq = s.pose.Seq
		resp.PoseAgeMs = s.pose.Age(time.Now()).Milliseconds()
	}
	s.mu.RUnlock()

	resp.PoseViewers, resp.CameraViewers = s.Viewers()
	resp.Dropped = s.poseHub.Dropped() + s.cameraHub.Dropped()
	if s.Stats != nil {
		st := s.Stats()
		resp.Pipeline = &st
	}
	return c.JSON(resp)
}

// handleGetCamera returns the capture settings
func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	if s.Camera == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "camera control not configured",
		})
	}
	return c.JSON(s.Camera.GetConfig())
}

// handleUpdateCamera applies a partial update, e.g. {"fps": 15} or {"preset": "low"}
func (s *Server) handleUpdateCamera(c *fiber.Ctx) error {
	if s.Camera == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "camera control not configured",
		})
	}

	var params map[string]interface{}
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid body: " + err.Error(),
		})
	}
	if err := s.Camera.UpdateConfig(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	s.logger.Info("camera settings updated", "params", params)
	return c.JSON(s.Camera.GetConfig())
}

// handleCameraPresets lists the preset names
func (s *Server) handleCameraPresets(c *fiber.Ctx) error {
	return c.JSON(camera.PresetNames())
}

// handlePoseWS streams pose envelopes as JSON text messages
func (s *Server) handlePoseWS(c *websocket.Conn) {
	hub.NewClient(s.poseHub, c).Run()
}

// handleCameraWS streams annotated frames as binary JPEG messages
func (s *Server) handleCameraWS(c *websocket.Conn) {
	hub.NewClient(s.cameraHub, c).Run()
}
