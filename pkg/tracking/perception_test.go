package tracking

import (
	"errors"
	"image"
	"sync"
	"testing"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-soccerbot/pkg/tracking/detection"
)

var (
	testBall       = detection.HSV{H: 170, S: 184, V: 143}
	testGoal       = detection.HSV{H: 30, S: 200, V: 200}
	testBackground = detection.HSV{H: 60, S: 40, V: 40}
)

type patch struct {
	rect  image.Rectangle
	color detection.HSV
}

// testConfig uses small kernels so synthetic patches survive morphology unchanged
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Ball.CloseKernel = 5
	cfg.Ball.OpenKernel = 3
	return cfg
}

func hsvScene(w, h int, patches ...patch) gocv.Mat {
	frame := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	frame.SetTo(gocv.NewScalar(testBackground.H, testBackground.S, testBackground.V, 0))
	for _, p := range patches {
		region := frame.Region(p.rect)
		region.SetTo(gocv.NewScalar(p.color.H, p.color.S, p.color.V, 0))
		region.Close()
	}
	return frame
}

func process(t *testing.T, p *Pipeline, patches ...patch) Pose {
	t.Helper()
	frame := hsvScene(640, 480, patches...)
	defer frame.Close()
	return p.ProcessHSV(frame)
}

func newTestPipeline(t *testing.T, pub Publisher) *Pipeline {
	t.Helper()
	p, err := NewPipeline(testConfig(), pub)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	return p
}

func TestNewPipeline_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.BallWindow = 0

	_, err := NewPipeline(cfg, nil)
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ConfigError, got %v", err)
	}
}

func TestPipeline_EmptyScene(t *testing.T) {
	p := newTestPipeline(t, nil)
	pose := process(t, p)

	if pose.Ball.InView || pose.Goal.InView {
		t.Error("nothing should be in view")
	}
	if pose.Ball.Distance != nil || pose.Goal.Distance != nil {
		t.Error("distances should be unknown")
	}
	if pose.Ball.CenterX != -1 || pose.BallGoalSeparationPx != -1 {
		t.Errorf("expected -1 center/separation, got %d/%d", pose.Ball.CenterX, pose.BallGoalSeparationPx)
	}
	if pose.LinedUpMaybe || pose.LinedUpStable {
		t.Error("should not be lined up")
	}
}

func TestPipeline_BallSmoothing(t *testing.T) {
	p := newTestPipeline(t, nil)
	ball := patch{image.Rect(100, 200, 160, 240), testBall}

	// First frame: one 60px reading in a zero-seeded window of 10
	pose := process(t, p, ball)
	if !pose.Ball.InView {
		t.Fatal("ball should be in view")
	}
	if pose.Ball.SmoothedWidth != 6 {
		t.Errorf("SmoothedWidth after 1 frame: got %d, want 6", pose.Ball.SmoothedWidth)
	}
	if pose.Ball.CenterX != 103 {
		t.Errorf("CenterX after 1 frame: got %d, want 103", pose.Ball.CenterX)
	}
	if pose.Ball.Distance == nil {
		t.Error("distance should be known")
	}

	for i := 0; i < 9; i++ {
		pose = process(t, p, ball)
	}
	if pose.Ball.SmoothedWidth != 60 {
		t.Errorf("SmoothedWidth after 10 frames: got %d, want 60", pose.Ball.SmoothedWidth)
	}
	if pose.Ball.CenterX != 130 {
		t.Errorf("CenterX after 10 frames: got %d, want 130", pose.Ball.CenterX)
	}
	want, _ := BallDistance(60)
	if got := pose.Ball.DistanceOr(Unknown); got != want {
		t.Errorf("Distance: got %v, want %v", got, want)
	}
}

func TestPipeline_MissDoesNotPushWindow(t *testing.T) {
	p := newTestPipeline(t, nil)
	ball := patch{image.Rect(100, 200, 160, 240), testBall}

	for i := 0; i < 10; i++ {
		process(t, p, ball)
	}

	if pose := process(t, p); pose.Ball.InView {
		t.Fatal("ball should be out of view")
	}

	pose := process(t, p, ball)
	if pose.Ball.SmoothedWidth != 60 {
		t.Errorf("SmoothedWidth after a miss: got %d, want 60", pose.Ball.SmoothedWidth)
	}
}

func TestPipeline_GoalContracts(t *testing.T) {
	p := newTestPipeline(t, nil)

	pose := process(t, p, patch{image.Rect(400, 100, 500, 300), testGoal})
	if !pose.Goal.InView || pose.Goal.Box == nil {
		t.Fatal("goal should be in view")
	}
	if got, want := *pose.Goal.Box, (Box{X: 400, Y: 100, W: 99, H: 199}); got != want {
		t.Errorf("first goal box: got %+v, want %+v", got, want)
	}

	// Shift right by 10: left takes the max, right the min
	pose = process(t, p, patch{image.Rect(410, 100, 510, 300), testGoal})
	if got, want := *pose.Goal.Box, (Box{X: 410, Y: 100, W: 89, H: 199}); got != want {
		t.Errorf("contracted goal box: got %+v, want %+v", got, want)
	}
	if pose.Goal.SmoothedWidth != 89 {
		t.Errorf("goal SmoothedWidth: got %d, want 89", pose.Goal.SmoothedWidth)
	}
}

func TestPipeline_GoalDegenerateFallsBackToRaw(t *testing.T) {
	p := newTestPipeline(t, nil)

	process(t, p, patch{image.Rect(0, 100, 100, 300), testGoal})

	// No overlap with the previous box: the smoothed box collapses
	pose := process(t, p, patch{image.Rect(400, 100, 500, 300), testGoal})
	if got, want := *pose.Goal.Box, (Box{X: 400, Y: 100, W: 99, H: 199}); got != want {
		t.Errorf("expected raw box fallback: got %+v, want %+v", got, want)
	}
}

func TestPipeline_Alignment(t *testing.T) {
	p := newTestPipeline(t, nil)
	window := p.Config().AlignWindow

	// Goal center 449, ball left edge 420 so its center converges to 450
	ball := patch{image.Rect(420, 320, 480, 360), testBall}
	goal := patch{image.Rect(400, 100, 500, 300), testGoal}

	var pose Pose
	for i := 1; i <= window; i++ {
		pose = process(t, p, ball, goal)
		if !pose.LinedUpMaybe {
			t.Fatalf("frame %d: expected maybe lined up (sep=%d)", i, pose.BallGoalSeparationPx)
		}
		if pose.LinedUpStable != (i == window) {
			t.Errorf("frame %d: Stable=%v", i, pose.LinedUpStable)
		}
	}

	// Lose the ball for one frame
	pose = process(t, p, goal)
	if pose.LinedUpMaybe || pose.LinedUpStable {
		t.Error("missing ball must clear both flags")
	}
}

func TestPipeline_FrameSizeChange(t *testing.T) {
	p := newTestPipeline(t, nil)

	frame := hsvScene(320, 240, patch{image.Rect(200, 50, 300, 150), testGoal})
	defer frame.Close()

	pose := p.ProcessHSV(frame)
	if pose.FrameWidth != 320 || pose.FrameHeight != 240 {
		t.Errorf("frame size: got %dx%d, want 320x240", pose.FrameWidth, pose.FrameHeight)
	}
	if got, want := *pose.Goal.Box, (Box{X: 200, Y: 50, W: 99, H: 99}); got != want {
		t.Errorf("goal box: got %+v, want %+v", got, want)
	}
}

func TestPipeline_SequenceNumbers(t *testing.T) {
	p := newTestPipeline(t, nil)

	for want := uint64(1); want <= 3; want++ {
		if pose := process(t, p); pose.Seq != want {
			t.Errorf("Seq: got %d, want %d", pose.Seq, want)
		}
	}
	if p.Stats().Frames != 3 {
		t.Errorf("Frames: got %d, want 3", p.Stats().Frames)
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	poses  []Pose
	frames [][]byte
	err    error
}

func (r *recordingPublisher) PublishPose(p Pose) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.poses = append(r.poses, p)
	return r.err
}

func (r *recordingPublisher) PublishFrame(jpeg []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, jpeg)
	return r.err
}

func bgrScene(t *testing.T, patches ...patch) gocv.Mat {
	t.Helper()
	hsv := hsvScene(640, 480, patches...)
	defer hsv.Close()

	bgr := gocv.NewMat()
	gocv.CvtColor(hsv, &bgr, gocv.ColorHSVToBGR)
	return bgr
}

func TestPipeline_OnFramePublishes(t *testing.T) {
	pub := &recordingPublisher{}
	p := newTestPipeline(t, pub)

	bgr := bgrScene(t, patch{image.Rect(100, 200, 160, 240), testBall})
	defer bgr.Close()

	pose, err := p.OnFrame(bgr)
	if err != nil {
		t.Fatalf("OnFrame: %v", err)
	}
	if !pose.Ball.InView {
		t.Error("ball should survive the BGR round trip")
	}
	if len(pub.poses) != 1 || len(pub.frames) != 1 {
		t.Fatalf("published %d poses, %d frames; want 1, 1", len(pub.poses), len(pub.frames))
	}
	if jpeg := pub.frames[0]; len(jpeg) < 2 || jpeg[0] != 0xFF || jpeg[1] != 0xD8 {
		t.Error("published frame is not a JPEG")
	}
}

func TestPipeline_PublishErrorDoesNotAbort(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("bus down")}
	p := newTestPipeline(t, pub)

	bgr := bgrScene(t)
	defer bgr.Close()

	for i := 0; i < 2; i++ {
		if _, err := p.OnFrame(bgr); err != nil {
			t.Fatalf("OnFrame should not fail on publish errors: %v", err)
		}
	}
	if p.Stats().PublishErrors != 4 {
		t.Errorf("PublishErrors: got %d, want 4", p.Stats().PublishErrors)
	}
}

func TestPipeline_OnFrameEmpty(t *testing.T) {
	p := newTestPipeline(t, nil)

	empty := gocv.NewMat()
	defer empty.Close()

	if _, err := p.OnFrame(empty); !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("expected ErrEmptyFrame, got %v", err)
	}
}

func TestAnnotate_EmptyFrameNoPanic(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()

	Annotate(&empty, Pose{})
}

func TestEncodeJPEG(t *testing.T) {
	bgr := bgrScene(t)
	defer bgr.Close()

	jpeg, err := EncodeJPEG(bgr, 80)
	if err != nil {
		t.Fatalf("EncodeJPEG: %v", err)
	}
	if len(jpeg) == 0 {
		t.Error("empty JPEG")
	}
}
