package play

import (
	"math"

	"github.com/teslashibe/go-soccerbot/pkg/tracking"
)

func estimate(pose tracking.Pose, t Target) tracking.ObjectEstimate {
	if t == Goal {
		return pose.Goal
	}
	return pose.Ball
}

// InView reports whether the target is visible in the pose
func InView(pose tracking.Pose, t Target) bool {
	return estimate(pose, t).InView
}

// CenterOffset returns centerX - frameCenter for the target, positive when
// the target is right of center. ok is false when it is not in view.
func CenterOffset(pose tracking.Pose, t Target, frameCenter int) (offset int, ok bool) {
	est := estimate(pose, t)
	if !est.InView {
		return 0, false
	}
	return est.CenterX - frameCenter, true
}

// TurnRate maps a centering offset to a rotation command.
// Inside the deadband it returns (0, true). Otherwise the magnitude is
// |offset|/Gain but at least Floor, with the sign of the offset, so the
// robot turns toward the target from either side.
func TurnRate(offset int, cfg Config) (rotation int, centered bool) {
	mag := offset
	if mag < 0 {
		mag = -mag
	}
	if mag < cfg.Deadband {
		return 0, true
	}

	rate := int(math.Round(float64(mag) / cfg.Gain))
	if rate < cfg.Floor {
		rate = cfg.Floor
	}
	if offset < 0 {
		rate = -rate
	}
	return rate, false
}
