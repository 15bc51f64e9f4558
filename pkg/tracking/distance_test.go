package tracking

import (
	"math"
	"testing"
)

func TestPowerLaw_Distance(t *testing.T) {
	tests := []struct {
		name  string
		law   PowerLaw
		width float64
		want  float64
	}{
		{"ball width 1", BallCalibration, 1, 4997},
		{"goal width 1", GoalCalibration, 1, 17263},
		{"ball width 50", BallCalibration, 50, 4997 * math.Pow(50, -0.95)},
		{"goal width 200", GoalCalibration, 200, 17263 * math.Pow(200, -0.96)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.law.Distance(tt.width)
			if !ok {
				t.Fatal("expected known distance")
			}
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPowerLaw_UnknownWidth(t *testing.T) {
	for _, width := range []float64{0, -1, -60, math.NaN(), math.Inf(1)} {
		d, ok := BallDistance(width)
		if ok || d != Unknown {
			t.Errorf("BallDistance(%v): got (%v, %v), want (%v, false)", width, d, ok, Unknown)
		}
	}
}

func TestPowerLaw_StrictlyDecreasing(t *testing.T) {
	for _, law := range []PowerLaw{BallCalibration, GoalCalibration} {
		prev := math.Inf(1)
		for w := 1.0; w <= 640; w++ {
			d, _ := law.Distance(w)
			if d >= prev {
				t.Fatalf("%+v: distance not decreasing at width %v (%v >= %v)", law, w, d, prev)
			}
			prev = d
		}
	}
}

func TestGoalDistance_LargerThanBallAtSameWidth(t *testing.T) {
	// A goal spanning the same pixels as the ball is much farther away
	b, _ := BallDistance(80)
	g, _ := GoalDistance(80)
	if g <= b {
		t.Errorf("goal %v should be farther than ball %v", g, b)
	}
}
