package node

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/teslashibe/go-soccerbot/internal/log"
	"github.com/teslashibe/go-soccerbot/pkg/discovery"
	"github.com/teslashibe/go-soccerbot/pkg/drive"
)

// DriveApp owns the serial link to the motor controller and serves it
// over HTTP.
type DriveApp struct {
	config DriveConfig
	logger *slog.Logger

	port       drive.Port
	driver     *drive.Driver
	server     *drive.Server
	advertiser *discovery.Advertiser
}

// NewDriveApp validates cfg and returns an uninitialized app
func NewDriveApp(cfg DriveConfig) (*DriveApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &DriveApp{config: cfg, logger: log.Component("drive-node")}, nil
}

// Init opens the serial port and puts the controller in safe mode
func (a *DriveApp) Init() error {
	fmt.Println("🛞 Soccerbot drive node")
	fmt.Println("=======================")

	fmt.Printf("🔌 Opening %s... ", a.config.SerialPort)
	port, err := drive.OpenPort(a.config.SerialPort, a.config.Port)
	if err != nil {
		return err
	}
	a.port = port
	fmt.Println("✅")

	return a.initWithPort(port)
}

// initWithPort finishes Init on an already open port
func (a *DriveApp) initWithPort(port drive.Port) error {
	a.port = port
	a.driver = drive.NewDriver(port)

	fmt.Print("🤖 Starting controller... ")
	if err := a.driver.Start(); err != nil {
		return fmt.Errorf("controller start: %w", err)
	}
	fmt.Println("✅")

	a.server = drive.NewServer(a.driver, a.config.SerialPort)
	return nil
}

// Run serves the drive API until ctx is cancelled
func (a *DriveApp) Run(ctx context.Context) error {
	if a.server == nil {
		return fmt.Errorf("drive node not initialized")
	}

	if a.config.Advertise {
		port, _ := listenPort(a.config.ListenAddr)
		adv, err := discovery.Advertise(a.config.Instance, port, map[string]string{
			"serial":  a.config.SerialPort,
			"version": "1",
		})
		if err != nil {
			fmt.Printf("⚠️  mDNS: %v\n", err)
		} else {
			a.advertiser = adv
			fmt.Printf("📣 Advertised as %s\n", adv.Instance())
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Listen(a.config.ListenAddr)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown stops the wheels, withdraws the advertisement and closes
// the port
func (a *DriveApp) Shutdown() {
	fmt.Println("\n👋 Goodbye!")

	if a.advertiser != nil {
		a.advertiser.Shutdown()
	}
	if a.server != nil {
		if err := a.server.Shutdown(); err != nil {
			a.logger.Warn("http shutdown", "error", err)
		}
	}
	if a.driver != nil {
		// Close sends a final stop before releasing the port
		if err := a.driver.Close(); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
		st := a.driver.Stats()
		a.logger.Info("serial link closed", "commands", st.Commands, "heading_reads", st.HeadingReads, "failures", st.Failures)
	} else if a.port != nil {
		a.port.Close()
	}
}

// listenPort extracts the numeric port from a listen address like ":8090"
func listenPort(addr string) (int, error) {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, fmt.Errorf("listen address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(p)
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("listen address %q: invalid port", addr)
	}
	return port, nil
}
