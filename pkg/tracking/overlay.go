package tracking

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

var (
	ballColor    = color.RGBA{R: 255, G: 140, B: 0, A: 255}
	goalColor    = color.RGBA{R: 255, G: 230, B: 0, A: 255}
	textColor    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	linedUpColor = color.RGBA{R: 0, G: 220, B: 0, A: 255}
)

// Annotate draws the pose onto a BGR frame in place
func Annotate(bgr *gocv.Mat, pose Pose) {
	if bgr.Empty() {
		return
	}

	drawObject(bgr, "ball", pose.Ball, ballColor)
	drawObject(bgr, "goal", pose.Goal, goalColor)

	// Frame center line
	cx := bgr.Cols() / 2
	gocv.Line(bgr, image.Pt(cx, 0), image.Pt(cx, bgr.Rows()), textColor, 1)

	status := fmt.Sprintf("#%d sep=%dpx", pose.Seq, pose.BallGoalSeparationPx)
	statusColor := textColor
	switch {
	case pose.LinedUpStable:
		status += " LINED UP"
		statusColor = linedUpColor
	case pose.LinedUpMaybe:
		status += " maybe"
	}
	gocv.PutText(bgr, status, image.Pt(10, 24), gocv.FontHersheySimplex, 0.6, statusColor, 2)
}

func drawObject(bgr *gocv.Mat, label string, est ObjectEstimate, c color.RGBA) {
	if !est.InView || est.Box == nil {
		return
	}

	gocv.Rectangle(bgr, est.Box.Rect(), c, 2)
	gocv.Circle(bgr, image.Pt(est.CenterX, est.Box.CenterY()), 4, c, -1)

	text := label
	if est.Distance != nil {
		text = fmt.Sprintf("%s %.0f", label, *est.Distance)
	}
	org := image.Pt(est.Box.X, est.Box.Y-6)
	if org.Y < 12 {
		org.Y = est.Box.Bottom() + 16
	}
	gocv.PutText(bgr, text, org, gocv.FontHersheySimplex, 0.5, c, 1)
}

// EncodeJPEG encodes a BGR frame at the given quality
func EncodeJPEG(bgr gocv.Mat, quality int) ([]byte, error) {
	if bgr.Empty() {
		return nil, ErrEmptyFrame
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, bgr, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	// The native buffer is freed on Close
	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
