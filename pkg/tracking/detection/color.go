package detection

import (
	"image"

	"gocv.io/x/gocv"
)

// ColorConfig configures a ColorSegmenter
type ColorConfig struct {
	Color       HSV `json:"color"`
	Tolerance   HSV `json:"tolerance"`
	CloseKernel int `json:"close_kernel"` // Side of the square close kernel (fills gaps)
	OpenKernel  int `json:"open_kernel"`  // Side of the square open kernel (removes speckle)
}

// Validate checks the kernel sizes and tolerance
func (c ColorConfig) Validate() error {
	if c.CloseKernel <= 0 {
		return &ConfigError{Field: "close_kernel", Message: "must be positive"}
	}
	if c.OpenKernel <= 0 {
		return &ConfigError{Field: "open_kernel", Message: "must be positive"}
	}
	return validateTolerance("tolerance", c.Tolerance)
}

// ColorSegmenter finds a compact colored object (the ball) by thresholding,
// cleaning the mask with close/open and bounding the first external contour.
type ColorSegmenter struct {
	config ColorConfig
}

// NewColorSegmenter validates cfg and returns a segmenter
func NewColorSegmenter(cfg ColorConfig) (*ColorSegmenter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &ColorSegmenter{config: cfg}, nil
}

// Config returns the segmenter configuration
func (s *ColorSegmenter) Config() ColorConfig {
	return s.config
}

// Detect returns the bounding box of the first external contour in the
// cleaned mask. Contour order is whatever OpenCV returns, so with several
// blobs in view this is not guaranteed to be the largest one.
func (s *ColorSegmenter) Detect(hsv gocv.Mat) Detection {
	if hsv.Empty() {
		return NotFound()
	}

	mask := thresholdHSV(hsv, s.config.Color, s.config.Tolerance)
	defer mask.Close()

	closeKernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(s.config.CloseKernel, s.config.CloseKernel))
	defer closeKernel.Close()
	gocv.MorphologyEx(mask, &mask, gocv.MorphClose, closeKernel)

	openKernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(s.config.OpenKernel, s.config.OpenKernel))
	defer openKernel.Close()
	gocv.MorphologyEx(mask, &mask, gocv.MorphOpen, openKernel)

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxNone)
	defer contours.Close()

	if contours.Size() == 0 {
		return NotFound()
	}

	rect := gocv.BoundingRect(contours.At(0))
	return Detected(BoxFromRect(rect))
}
