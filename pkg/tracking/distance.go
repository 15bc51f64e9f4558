package tracking

import "math"

// Unknown is the distance reported when the width cannot be used
const Unknown = -1.0

// PowerLaw maps an observed pixel width to a distance as A * width^(-K).
// The constants come from an offline curve fit per object.
type PowerLaw struct {
	A float64 `json:"a"`
	K float64 `json:"k"`
}

var (
	// BallCalibration is the fitted ball curve
	BallCalibration = PowerLaw{A: 4997, K: 0.95}

	// GoalCalibration is the fitted goal curve
	GoalCalibration = PowerLaw{A: 17263, K: 0.96}
)

// Validate requires a positive scale and exponent
func (p PowerLaw) Validate() error {
	if !(p.A > 0) {
		return &ConfigError{Field: "a", Message: "must be positive"}
	}
	if !(p.K > 0) {
		return &ConfigError{Field: "k", Message: "must be positive"}
	}
	return nil
}

// Distance returns (Unknown, false) for a non-positive, NaN or infinite width
func (p PowerLaw) Distance(width float64) (float64, bool) {
	if !(width > 0) || math.IsInf(width, 0) {
		return Unknown, false
	}
	return p.A * math.Pow(width, -p.K), true
}

// BallDistance applies BallCalibration
func BallDistance(width float64) (float64, bool) {
	return BallCalibration.Distance(width)
}

// GoalDistance applies GoalCalibration
func GoalDistance(width float64) (float64, bool) {
	return GoalCalibration.Distance(width)
}
