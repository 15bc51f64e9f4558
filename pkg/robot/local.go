package robot

import (
	"context"

	"github.com/teslashibe/go-soccerbot/pkg/drive"
)

// LocalController drives an in-process Driver, for single-binary setups
// where the controller owns the serial port directly.
type LocalController struct {
	driver *drive.Driver
}

// NewLocalController wraps driver.
func NewLocalController(driver *drive.Driver) *LocalController {
	return &LocalController{driver: driver}
}

// Drive sends a velocity/rotation command.
func (l *LocalController) Drive(ctx context.Context, velocity, rotation int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.driver.Drive(velocity, rotation)
}

// Heading reads the angle turned since the previous read.
func (l *LocalController) Heading(ctx context.Context) (drive.Heading, error) {
	if err := ctx.Err(); err != nil {
		return drive.Heading{}, err
	}
	return l.driver.Heading()
}

// Mode sends a named controller command.
func (l *LocalController) Mode(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.driver.Mode(name)
}
