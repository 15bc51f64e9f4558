package drive

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/teslashibe/go-soccerbot/internal/log"
)

// MaxRequest bounds velocity and rotation accepted over HTTP
const MaxRequest = 1000

// DriveRequest is the body of POST /api/drive
type DriveRequest struct {
	Velocity int `json:"velocity"`
	Rotation int `json:"rotation"`
}

// DriveResponse echoes the wheel speeds actually sent
type DriveResponse struct {
	Left  int16 `json:"left"`
	Right int16 `json:"right"`
}

// StatusResponse is the body of GET /api/status
type StatusResponse struct {
	Port   string   `json:"port"`
	Uptime string   `json:"uptime"`
	Stats  Stats    `json:"stats"`
	Modes  []string `json:"modes"`
}

// ErrorResponse is returned for any failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Server exposes a Driver over HTTP
type Server struct {
	app      *fiber.App
	driver   *Driver
	portName string
	started  time.Time
	logger   *slog.Logger
}

// NewServer builds the fiber app for driver. portName is informational.
func NewServer(driver *Driver, portName string) *Server {
	s := &Server{
		driver:   driver,
		portName: portName,
		started:  time.Now(),
		logger:   log.Component("drive-http"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Soccerbot Drive",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())

	api := app.Group("/api")
	api.Post("/drive", s.handleDrive)
	api.Get("/heading", s.handleHeading)
	api.Post("/mode/:name", s.handleMode)
	api.Get("/status", s.handleStatus)

	s.app = app
	return s
}

// App returns the underlying fiber app
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown
func (s *Server) Listen(addr string) error {
	fmt.Printf("🛞 Drive service: http://%s\n", addr)
	return s.app.Listen(addr)
}

// Shutdown stops the server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) handleDrive(c *fiber.Ctx) error {
	var req DriveRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid body: "+err.Error())
	}
	if outOfRange(req.Velocity) || outOfRange(req.Rotation) {
		return badRequest(c, fmt.Sprintf("velocity and rotation must be within ±%d", MaxRequest))
	}

	if err := s.driver.Drive(req.Velocity, req.Rotation); err != nil {
		return s.serialFailure(c, err)
	}

	left, right := WheelSpeeds(req.Velocity, req.Rotation)
	return c.JSON(DriveResponse{Left: left, Right: right})
}

func (s *Server) handleHeading(c *fiber.Ctx) error {
	h, err := s.driver.Heading()
	if err != nil {
		return s.serialFailure(c, err)
	}
	return c.JSON(h)
}

func (s *Server) handleMode(c *fiber.Ctx) error {
	name := c.Params("name")
	if err := s.driver.Mode(name); err != nil {
		if errors.Is(err, ErrUnknownMode) {
			return badRequest(c, err.Error())
		}
		return s.serialFailure(c, err)
	}
	return c.JSON(fiber.Map{"mode": name})
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(StatusResponse{
		Port:   s.portName,
		Uptime: time.Since(s.started).Round(time.Second).String(),
		Stats:  s.driver.Stats(),
		Modes:  Modes(),
	})
}

func (s *Server) serialFailure(c *fiber.Ctx, err error) error {
	code := "serial"
	var de *DecodeError
	if errors.As(err, &de) {
		code = "decode"
	}
	s.logger.Warn("request failed", "path", c.Path(), "code", code, "error", err)
	return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{Error: err.Error(), Code: code})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: msg, Code: "invalid"})
}

func outOfRange(v int) bool {
	return v < -MaxRequest || v > MaxRequest
}
