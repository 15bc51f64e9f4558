// Drive node - owns the motor controller serial link and serves it over
// HTTP, advertised on mDNS
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	logging "github.com/teslashibe/go-soccerbot/internal/log"
	"github.com/teslashibe/go-soccerbot/pkg/node"
)

func main() {
	cfg := parseFlags()
	logging.InitFromEnv(cfg.Debug)

	app, err := node.NewDriveApp(cfg)
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}

	if err := app.Init(); err != nil {
		log.Fatalf("❌ Initialization failed: %v", err)
	}
	defer app.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("❌ Runtime error: %v", err)
	}
}

// parseFlags reads the environment, then lets flags override it
func parseFlags() node.DriveConfig {
	cfg := node.DefaultDriveConfig()
	cfg.LoadEnvConfig()

	flag.BoolVar(&cfg.Debug, "debug", false, "Enable verbose debug logging")
	flag.StringVar(&cfg.SerialPort, "serial", cfg.SerialPort, "Motor controller serial device (SERIAL_PORT)")
	flag.IntVar(&cfg.Port.BaudRate, "baud", cfg.Port.BaudRate, "Serial baud rate, 0 for 115200 (SERIAL_BAUD)")
	flag.DurationVar(&cfg.Port.ReadTimeout, "read-timeout", time.Second, "Serial read timeout")
	flag.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "HTTP listen address (DRIVE_ADDR)")
	flag.BoolVar(&cfg.Advertise, "mdns", cfg.Advertise, "Advertise on mDNS")
	flag.StringVar(&cfg.Instance, "name", "", "mDNS instance name (default <hostname>-drive)")
	flag.Parse()

	return cfg
}
