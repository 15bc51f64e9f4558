// Package robot provides interfaces and implementations for commanding the
// soccer robot's drive base.
//
// Consumers depend only on the small interfaces they use: the play state
// machine needs Drive and Heading, the dashboard only Mode.
package robot

import (
	"context"

	"github.com/teslashibe/go-soccerbot/pkg/drive"
)

// DriveController issues velocity/rotation commands.
type DriveController interface {
	Drive(ctx context.Context, velocity, rotation int) error
}

// HeadingReader queries the angle turned since the previous query.
type HeadingReader interface {
	Heading(ctx context.Context) (drive.Heading, error)
}

// ModeController sends named controller commands (beep, dock, ...).
type ModeController interface {
	Mode(ctx context.Context, name string) error
}

// Controller is the composite interface for full drive control.
type Controller interface {
	DriveController
	HeadingReader
	ModeController
}

// Ensure implementations satisfy Controller
var (
	_ Controller = (*HTTPController)(nil)
	_ Controller = (*LocalController)(nil)
	_ Controller = (*RateController)(nil)
)
