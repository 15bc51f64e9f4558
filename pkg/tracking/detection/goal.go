package detection

import "gocv.io/x/gocv"

// GoalConfig configures a GoalLocator
type GoalConfig struct {
	Color     HSV `json:"color"`
	Tolerance HSV `json:"tolerance"`
	MinPixels int `json:"min_pixels"` // Below this the goal is judged out of view
}

// Validate checks the pixel floor and tolerance
func (c GoalConfig) Validate() error {
	if c.MinPixels < 1 {
		return &ConfigError{Field: "min_pixels", Message: "must be at least 1"}
	}
	return validateTolerance("tolerance", c.Tolerance)
}

// GoalLocator finds a large colored region that often touches the frame
// border. Contours are unreliable there, so the box comes from the extrema
// of the positive mask pixels instead.
type GoalLocator struct {
	config GoalConfig
}

// NewGoalLocator validates cfg and returns a locator
func NewGoalLocator(cfg GoalConfig) (*GoalLocator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &GoalLocator{config: cfg}, nil
}

// Config returns the locator configuration
func (g *GoalLocator) Config() GoalConfig {
	return g.config
}

// Detect thresholds without morphology and bounds every positive pixel:
// left=min(col), right=max(col), top=min(row), bottom=max(row).
func (g *GoalLocator) Detect(hsv gocv.Mat) Detection {
	if hsv.Empty() {
		return NotFound()
	}

	mask := thresholdHSV(hsv, g.config.Color, g.config.Tolerance)
	defer mask.Close()

	if gocv.CountNonZero(mask) < g.config.MinPixels {
		return NotFound()
	}

	// Column sums (1 x cols) and row sums (rows x 1)
	cols := gocv.NewMat()
	defer cols.Close()
	gocv.Reduce(mask, &cols, 0, gocv.ReduceSum, gocv.MatTypeCV32F)

	rows := gocv.NewMat()
	defer rows.Close()
	gocv.Reduce(mask, &rows, 1, gocv.ReduceSum, gocv.MatTypeCV32F)

	left, right, ok := extent(cols.Cols(), func(i int) float32 { return cols.GetFloatAt(0, i) })
	if !ok {
		return NotFound()
	}
	top, bottom, ok := extent(rows.Rows(), func(i int) float32 { return rows.GetFloatAt(i, 0) })
	if !ok {
		return NotFound()
	}

	return Detected(Box{X: left, Y: top, W: right - left, H: bottom - top})
}

// extent returns the first and last index with a positive value
func extent(n int, at func(int) float32) (first, last int, ok bool) {
	first, last = -1, -1
	for i := 0; i < n; i++ {
		if at(i) > 0 {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	return first, last, first >= 0
}
