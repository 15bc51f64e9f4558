package detection

import "gocv.io/x/gocv"

// thresholdHSV returns a binary mask of pixels within color±tol on every
// channel, bounds inclusive. The caller owns the returned Mat.
func thresholdHSV(hsv gocv.Mat, color, tol HSV) gocv.Mat {
	lower := gocv.NewScalar(color.H-tol.H, color.S-tol.S, color.V-tol.V, 0)
	upper := gocv.NewScalar(color.H+tol.H, color.S+tol.S, color.V+tol.V, 0)

	mask := gocv.NewMat()
	gocv.InRangeWithScalar(hsv, lower, upper, &mask)
	return mask
}

func validateTolerance(field string, tol HSV) error {
	if tol.H < 0 || tol.S < 0 || tol.V < 0 {
		return &ConfigError{Field: field, Message: "tolerance must not be negative"}
	}
	return nil
}
