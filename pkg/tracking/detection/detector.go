// Package detection finds colored objects in HSV camera frames
package detection

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Box is an axis-aligned bounding box in pixel coordinates
type Box struct {
	X int `json:"x"` // Top-left corner
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// CenterX returns the horizontal center of the box
func (b Box) CenterX() int {
	return b.X + b.W/2
}

// CenterY returns the vertical center of the box
func (b Box) CenterY() int {
	return b.Y + b.H/2
}

// Right returns the x coordinate of the right edge
func (b Box) Right() int {
	return b.X + b.W
}

// Bottom returns the y coordinate of the bottom edge
func (b Box) Bottom() int {
	return b.Y + b.H
}

// Rect converts the box to an image.Rectangle for drawing
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.W, b.Y+b.H)
}

// BoxFromRect converts an image.Rectangle to a Box
func BoxFromRect(r image.Rectangle) Box {
	return Box{X: r.Min.X, Y: r.Min.Y, W: r.Dx(), H: r.Dy()}
}

// Detection is the per-frame result of looking for one object.
// It is either Detected(box) or NotFound(); the zero value is NotFound.
type Detection struct {
	box   Box
	found bool
}

// Detected wraps a box as a positive detection
func Detected(b Box) Detection {
	return Detection{box: b, found: true}
}

// NotFound is the result when the object is not in view
func NotFound() Detection {
	return Detection{}
}

// Found reports whether the object was seen this frame
func (d Detection) Found() bool {
	return d.found
}

// Box returns the bounding box and whether it is valid
func (d Detection) Box() (Box, bool) {
	return d.box, d.found
}

// Legacy returns the [x, y, w, h] wire form, with -1s for a miss
func (d Detection) Legacy() [4]int {
	if !d.found {
		return [4]int{-1, -1, -1, -1}
	}
	return [4]int{d.box.X, d.box.Y, d.box.W, d.box.H}
}

func (d Detection) String() string {
	if !d.found {
		return "not found"
	}
	return fmt.Sprintf("box(%d,%d %dx%d)", d.box.X, d.box.Y, d.box.W, d.box.H)
}

// Detector is implemented by the color-based object finders
type Detector interface {
	// Detect looks for the object in an HSV frame
	Detect(hsv gocv.Mat) Detection
}

// HSV is a color in OpenCV's HSV space (H 0-179, S and V 0-255)
type HSV struct {
	H float64 `json:"h"`
	S float64 `json:"s"`
	V float64 `json:"v"`
}

// ConfigError reports an invalid tunable at construction time
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Message)
}
