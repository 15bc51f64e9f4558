package node

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-soccerbot/pkg/drive"
	"github.com/teslashibe/go-soccerbot/pkg/play"
	"github.com/teslashibe/go-soccerbot/pkg/robot"
	"github.com/teslashibe/go-soccerbot/pkg/tracking"
)

func TestCameraConfig_Validate(t *testing.T) {
	cfg := DefaultCameraConfig()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.RedisEnabled())

	cfg.Redis.Addr = RedisDisabled
	assert.False(t, cfg.RedisEnabled())

	cfg.Preset = "nope"
	cfg.Camera.Width = 10
	cfg.DashboardPort = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown camera preset")
	assert.Contains(t, err.Error(), "camera:")
	assert.Contains(t, err.Error(), "dashboard port")
}

func TestNewCameraApp_Preset(t *testing.T) {
	cfg := DefaultCameraConfig()
	cfg.Camera.Device = "/dev/video2"
	cfg.Preset = "low"

	app, err := NewCameraApp(cfg)
	require.NoError(t, err)
	assert.Equal(t, 320, app.config.Camera.Width)
	assert.Equal(t, "/dev/video2", app.config.Camera.Device)
}

func TestDriveConfig_Validate(t *testing.T) {
	cfg := DefaultDriveConfig()
	require.NoError(t, cfg.Validate())

	cfg.ListenAddr = "8090"
	assert.Error(t, cfg.Validate())

	cfg = DefaultDriveConfig()
	cfg.Port.Parity = "X"
	assert.Error(t, cfg.Validate())

	cfg = DefaultDriveConfig()
	cfg.SerialPort = ""
	assert.Error(t, cfg.Validate())
}

func TestControllerConfig_Validate(t *testing.T) {
	cfg := DefaultControllerConfig()
	require.NoError(t, cfg.Validate())

	cfg.PoseSource = "carrier-pigeon"
	assert.Error(t, cfg.Validate())

	cfg = DefaultControllerConfig()
	cfg.Redis.Addr = RedisDisabled
	assert.Error(t, cfg.Validate(), "redis source without redis")

	cfg.PoseSource = PoseSourceWS
	assert.NoError(t, cfg.Validate())

	cfg.CommandRate = 0
	assert.Error(t, cfg.Validate())
}

func TestListenPort(t *testing.T) {
	tests := []struct {
		addr    string
		want    int
		wantErr bool
	}{
		{":8090", 8090, false},
		{"0.0.0.0:9000", 9000, false},
		{"[::]:80", 80, false},
		{"8090", 0, true},
		{":0", 0, true},
		{":http", 0, true},
	}
	for _, tt := range tests {
		got, err := listenPort(tt.addr)
		if tt.wantErr {
			assert.Error(t, err, tt.addr)
			continue
		}
		require.NoError(t, err, tt.addr)
		assert.Equal(t, tt.want, got)
	}
}

func TestControllerApp_RunUninitialized(t *testing.T) {
	app, err := NewControllerApp(DefaultControllerConfig())
	require.NoError(t, err)
	assert.Error(t, app.Run(context.Background()))
}

func TestFieldData(t *testing.T) {
	field, err := play.Triangulate(100, 200, 90)
	require.NoError(t, err)

	got := fieldData("run-1", field)
	assert.Equal(t, "run-1", got.RunID)
	assert.InDelta(t, field.Ball.X, got.Ball.X, 1e-9)
	assert.InDelta(t, field.Ball.Y, got.Ball.Y, 1e-9)
	assert.InDelta(t, field.Goal.X, got.Goal.X, 1e-9)
	assert.InDelta(t, field.Goal.Y, got.Goal.Y, 1e-9)
	assert.InDelta(t, 90, got.ViewAngleDeg, 1e-9)
	assert.InDelta(t, field.ApproachAngleDeg, got.ApproachAngleDeg, 1e-9)
	assert.InDelta(t, field.BallGoalSeparation, got.BallGoalSeparation, 1e-9)
}

// startDriveNode serves a drive node backed by a fake serial port
func startDriveNode(t *testing.T, port *drive.FakePort) (*DriveApp, string) {
	t.Helper()

	cfg := DefaultDriveConfig()
	cfg.Advertise = false
	app, err := NewDriveApp(cfg)
	require.NoError(t, err)
	require.NoError(t, app.initWithPort(port))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go app.server.App().Listener(ln)

	return app, "http://" + ln.Addr().String()
}

func TestControllerApp_PlayAgainstDriveNode(t *testing.T) {
	port := drive.NewFakePort()
	port.AutoHeading = []byte{0x00, 0x1E} // 30 degrees
	driveApp, url := startDriveNode(t, port)

	cfg := DefaultControllerConfig()
	cfg.DriveURL = url
	cfg.PoseSource = PoseSourceWS
	cfg.Play.SettleDelay = 0
	cfg.Play.PollInterval = time.Millisecond
	cfg.Play.HeadingBackoff = 0

	app, err := NewControllerApp(cfg)
	require.NoError(t, err)
	app.drive = robot.NewHTTPController(url, time.Second)
	app.rate = robot.NewRateController(app.drive, 10*time.Millisecond, 100*time.Millisecond)

	ballDist, goalDist := 100.0, 150.0
	width, center := 640, 320
	pose := func() tracking.Pose {
		return tracking.Pose{
			Timestamp:  time.Now(),
			FrameWidth: width,
			Ball:       tracking.ObjectEstimate{Box: &tracking.Box{X: center - 10, W: 20, H: 20}, Distance: &ballDist, InView: true, CenterX: center},
			Goal:       tracking.ObjectEstimate{Box: &tracking.Box{X: center - 40, W: 80, H: 40}, Distance: &goalDist, InView: true, CenterX: center},
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Keep the pose fresh while the play runs
	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			app.latest.Store(pose())
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	require.Eventually(t, func() bool {
		_, ok := app.latest.LatestPose()
		return ok
	}, time.Second, 5*time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- app.playOnce(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("play did not finish")
	}
	cancel()

	// Both heading measurements crossed the serial link
	assert.GreaterOrEqual(t, port.CountWrites(drive.EncodeHeadingRequest()), 2)
	assert.GreaterOrEqual(t, port.CountWrites(drive.EncodeDrive(0, 0)), 1)

	driveApp.Shutdown()
	assert.True(t, port.Closed)
	assert.Equal(t, drive.EncodeDrive(0, 0), port.LastWrite())
}
