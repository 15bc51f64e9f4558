// Package web provides the live perception dashboard served by the
// camera node.
package web

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-soccerbot/internal/log"
	"github.com/teslashibe/go-soccerbot/pkg/camera"
	"github.com/teslashibe/go-soccerbot/pkg/hub"
	"github.com/teslashibe/go-soccerbot/pkg/protocol"
	"github.com/teslashibe/go-soccerbot/pkg/tracking"
)

//go:embed index.html
var indexHTML []byte

// Server is the web dashboard server. It implements tracking.Publisher.
type Server struct {
	app    *fiber.App
	port   string
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// Latest pipeline output
	mu       sync.RWMutex
	pose     tracking.Pose
	havePose bool
	frame    []byte
	frameAt  time.Time
	config   tracking.Config
	started  time.Time

	// Hubs for websocket broadcast
	poseHub   *hub.Hub
	cameraHub *hub.Hub

	// Stats, if set, is reported under /api/status
	Stats func() tracking.Stats

	// Camera, if set, is exposed under /api/camera
	Camera *camera.Manager
}

// NewServer creates a new web dashboard server
func NewServer(port string, cfg tracking.Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		port:      port,
		logger:    log.Component("web"),
		ctx:       ctx,
		cancel:    cancel,
		config:    cfg,
		started:   time.Now(),
		poseHub:   hub.New("pose", hub.WithRetainLast()),
		cameraHub: hub.New("camera", hub.WithBuffer(8)),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Soccerbot Dashboard",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New())

	app.Get("/", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.Send(indexHTML)
	})

	// API routes
	api := app.Group("/api")
	api.Get("/pose", s.handlePose)
	api.Get("/frame.jpg", s.handleFrame)
	api.Get("/config", s.handleConfig)
	api.Get("/status", s.handleStatus)
	api.Get("/camera", s.handleGetCamera)
	api.Post("/camera", s.handleUpdateCamera)
	api.Get("/camera/presets", s.handleCameraPresets)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/pose", websocket.New(s.handlePoseWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))

	s.app = app
	return s
}

// App exposes the fiber app for tests
func (s *Server) App() *fiber.App {
	return s.app
}

// Start starts the hubs and serves until Shutdown
func (s *Server) Start() error {
	fmt.Printf("🌐 Dashboard: http://localhost:%s\n", s.port)

	go s.poseHub.Run(s.ctx)
	go s.cameraHub.Run(s.ctx)

	return s.app.Listen(":" + s.port)
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Error("dashboard server stopped", "error", err)
		}
	}()
}

// PublishPose stores the pose and broadcasts it as a protocol envelope
func (s *Server) PublishPose(pose tracking.Pose) error {
	msg, err := protocol.NewPoseMessage(pose)
	if err != nil {
		return err
	}
	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.pose = pose
	s.havePose = true
	s.mu.Unlock()

	s.poseHub.Broadcast(hub.TextMessage(data))
	return nil
}

// PublishFrame stores the annotated JPEG and broadcasts it to camera viewers
func (s *Server) PublishFrame(jpeg []byte) error {
	if len(jpeg) == 0 {
		return nil
	}

	s.mu.Lock()
	s.frame = jpeg
	s.frameAt = time.Now()
	s.mu.Unlock()

	s.cameraHub.BroadcastBinary(jpeg)
	return nil
}

// Viewers returns the connected pose and camera websocket clients
func (s *Server) Viewers() (pose, camera int) {
	return s.poseHub.ClientCount(), s.cameraHub.ClientCount()
}

// Shutdown stops the hubs and the HTTP server
func (s *Server) Shutdown() error {
	s.cancel()
	return s.app.Shutdown()
}
