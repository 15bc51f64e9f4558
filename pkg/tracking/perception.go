package tracking

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-soccerbot/internal/log"
	"github.com/teslashibe/go-soccerbot/pkg/tracking/detection"
)

// ErrEmptyFrame is returned when the camera delivers an empty Mat
var ErrEmptyFrame = errors.New("tracking: empty frame")

// Publisher receives the pipeline output.
// Errors are logged by the pipeline and never stop frame processing.
type Publisher interface {
	PublishPose(Pose) error
	PublishFrame(jpeg []byte) error
}

// goalEdges holds the contracting goal box estimate: the left/top edges
// take the max over the window and right/bottom take the min.
type goalEdges struct {
	left, top     *Window
	right, bottom *Window
}

func newGoalEdges(size, frameW, frameH int) (*goalEdges, error) {
	var (
		g   goalEdges
		err error
	)
	if g.left, err = NewWindow(size, 0); err != nil {
		return nil, err
	}
	if g.top, err = NewWindow(size, 0); err != nil {
		return nil, err
	}
	if g.right, err = NewWindow(size, float64(frameW)); err != nil {
		return nil, err
	}
	if g.bottom, err = NewWindow(size, float64(frameH)); err != nil {
		return nil, err
	}
	return &g, nil
}

func (g *goalEdges) push(b Box) {
	g.left.Push(float64(b.X))
	g.top.Push(float64(b.Y))
	g.right.Push(float64(b.Right()))
	g.bottom.Push(float64(b.Bottom()))
}

// estimate returns the smoothed box, or ok=false if it has collapsed
func (g *goalEdges) estimate() (Box, bool) {
	left := int(g.left.Max())
	top := int(g.top.Max())
	right := int(g.right.Min())
	bottom := int(g.bottom.Min())
	if right <= left || bottom <= top {
		return Box{}, false
	}
	return Box{X: left, Y: top, W: right - left, H: bottom - top}, true
}

// Pipeline turns camera frames into Poses. It owns every smoothing window,
// so one Pipeline per camera. Calls are serialized by an internal mutex.
type Pipeline struct {
	mu sync.Mutex

	config    Config
	publisher Publisher
	logger    *slog.Logger

	ball detection.Detector
	goal detection.Detector

	ballWidth *Window
	goalEdges *goalEdges
	alignment *AlignmentEvaluator

	frameW, frameH int
	seq            uint64

	// Stats
	frames     uint64
	ballHits   uint64
	goalHits   uint64
	publishErr uint64
}

// NewPipeline validates cfg and builds the detectors and windows.
// publisher may be nil.
func NewPipeline(cfg Config, publisher Publisher) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ball, err := detection.NewColorSegmenter(cfg.Ball)
	if err != nil {
		return nil, fmt.Errorf("ball detector: %w", err)
	}
	goal, err := detection.NewGoalLocator(cfg.Goal)
	if err != nil {
		return nil, fmt.Errorf("goal locator: %w", err)
	}
	ballWidth, err := NewWindow(cfg.BallWindow, 0)
	if err != nil {
		return nil, err
	}
	edges, err := newGoalEdges(cfg.GoalWindow, cfg.FrameWidth, cfg.FrameHeight)
	if err != nil {
		return nil, err
	}
	alignment, err := NewAlignmentEvaluator(cfg.AlignThresholdPx, cfg.AlignWindow)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		config:    cfg,
		publisher: publisher,
		logger:    log.Component("perception"),
		ball:      ball,
		goal:      goal,
		ballWidth: ballWidth,
		goalEdges: edges,
		alignment: alignment,
		frameW:    cfg.FrameWidth,
		frameH:    cfg.FrameHeight,
	}, nil
}

// Config returns the pipeline configuration
func (p *Pipeline) Config() Config {
	return p.config
}

// OnFrame converts a BGR frame to HSV, runs ProcessHSV and publishes the
// pose (and the annotated JPEG when enabled).
func (p *Pipeline) OnFrame(bgr gocv.Mat) (Pose, error) {
	if bgr.Empty() {
		return Pose{}, ErrEmptyFrame
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(bgr, &hsv, gocv.ColorBGRToHSV)

	pose := p.ProcessHSV(hsv)

	if p.publisher == nil {
		return pose, nil
	}

	if err := p.publisher.PublishPose(pose); err != nil {
		p.publishFailed("pose", err)
	}

	if p.config.Annotate {
		jpeg, err := p.encodeAnnotated(bgr, pose)
		if err != nil {
			p.logger.Warn("frame encode failed", "seq", pose.Seq, "error", err)
			return pose, nil
		}
		if err := p.publisher.PublishFrame(jpeg); err != nil {
			p.publishFailed("frame", err)
		}
	}

	return pose, nil
}

func (p *Pipeline) publishFailed(what string, err error) {
	p.mu.Lock()
	p.publishErr++
	p.mu.Unlock()
	p.logger.Debug("publish failed", "what", what, "error", err)
}

func (p *Pipeline) encodeAnnotated(bgr gocv.Mat, pose Pose) ([]byte, error) {
	canvas := bgr.Clone()
	defer canvas.Close()

	Annotate(&canvas, pose)
	return EncodeJPEG(canvas, p.config.JPEGQuality)
}

// ProcessHSV runs detection and smoothing on one HSV frame.
// Misses leave the windows untouched and report the object out of view.
func (p *Pipeline) ProcessHSV(hsv gocv.Mat) Pose {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.resizeIfNeeded(hsv.Cols(), hsv.Rows())

	p.seq++
	p.frames++
	pose := Pose{
		Seq:         p.seq,
		Timestamp:   time.Now(),
		FrameWidth:  p.frameW,
		FrameHeight: p.frameH,
	}

	ballDet := p.ball.Detect(hsv)
	goalDet := p.goal.Detect(hsv)

	var ballEst, goalEst detection.Detection
	pose.Ball, ballEst = p.estimateBall(ballDet)
	pose.Goal, goalEst = p.estimateGoal(goalDet)

	align := p.alignment.Update(ballEst, goalEst)
	pose.BallGoalSeparationPx = align.SeparationPx
	pose.LinedUpMaybe = align.Maybe
	pose.LinedUpStable = align.Stable

	p.logger.Debug("frame",
		"seq", pose.Seq,
		"ball", ballDet,
		"goal", goalDet,
		"separation", align.SeparationPx,
		"stable", align.Stable)

	return pose
}

// estimateBall smooths the ball width. The center uses the smoothed width
// so the reported x moves with the averaged size, not the raw box.
func (p *Pipeline) estimateBall(det detection.Detection) (ObjectEstimate, detection.Detection) {
	raw, ok := det.Box()
	if !ok {
		return notInView(), detection.NotFound()
	}
	p.ballHits++

	p.ballWidth.Push(float64(raw.W))
	width := p.ballWidth.RoundedMean()

	est := ObjectEstimate{
		Box:           &raw,
		SmoothedWidth: width,
		Distance:      distancePtr(p.config.BallCalibration.Distance(float64(width))),
		InView:        true,
		CenterX:       raw.X + width/2,
	}

	// Box seen by the alignment check carries the smoothed width
	return est, detection.Detected(Box{X: raw.X, Y: raw.Y, W: width, H: raw.H})
}

func (p *Pipeline) estimateGoal(det detection.Detection) (ObjectEstimate, detection.Detection) {
	raw, ok := det.Box()
	if !ok {
		return notInView(), detection.NotFound()
	}
	p.goalHits++

	p.goalEdges.push(raw)
	box, ok := p.goalEdges.estimate()
	if !ok {
		box = raw
	}

	est := ObjectEstimate{
		Box:           &box,
		SmoothedWidth: box.W,
		Distance:      distancePtr(p.config.GoalCalibration.Distance(float64(box.W))),
		InView:        true,
		CenterX:       box.CenterX(),
	}
	return est, detection.Detected(box)
}

// resizeIfNeeded reseeds the goal min-windows when the camera delivers a
// different frame size than configured.
func (p *Pipeline) resizeIfNeeded(w, h int) {
	if w == p.frameW && h == p.frameH {
		return
	}
	edges, err := newGoalEdges(p.config.GoalWindow, w, h)
	if err != nil {
		return
	}
	p.logger.Warn("frame size changed",
		"configured", fmt.Sprintf("%dx%d", p.frameW, p.frameH),
		"actual", fmt.Sprintf("%dx%d", w, h))
	p.goalEdges = edges
	p.frameW, p.frameH = w, h
}

// Reset clears all smoothing and hysteresis state
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ballWidth.Reset()
	p.goalEdges, _ = newGoalEdges(p.config.GoalWindow, p.frameW, p.frameH)
	p.alignment.Reset()
}

// Stats is a snapshot of pipeline counters
type Stats struct {
	Frames        uint64 `json:"frames"`
	BallHits      uint64 `json:"ball_hits"`
	GoalHits      uint64 `json:"goal_hits"`
	PublishErrors uint64 `json:"publish_errors"`
}

// Stats returns the pipeline counters
func (p *Pipeline) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Frames:        p.frames,
		BallHits:      p.ballHits,
		GoalHits:      p.goalHits,
		PublishErrors: p.publishErr,
	}
}
