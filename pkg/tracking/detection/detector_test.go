package detection

import (
	"errors"
	"image"
	"testing"

	"gocv.io/x/gocv"
)

var (
	ballColor  = HSV{H: 170, S: 184, V: 143}
	background = HSV{H: 60, S: 40, V: 40}
)

// hsvFrame builds a rows x cols HSV frame filled with bg and one patch of fg
func hsvFrame(rows, cols int, bg HSV, patch image.Rectangle, fg HSV) gocv.Mat {
	frame := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8UC3)
	frame.SetTo(gocv.NewScalar(bg.H, bg.S, bg.V, 0))
	if !patch.Empty() {
		region := frame.Region(patch)
		region.SetTo(gocv.NewScalar(fg.H, fg.S, fg.V, 0))
		region.Close()
	}
	return frame
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestBox_Geometry(t *testing.T) {
	b := Box{X: 100, Y: 40, W: 60, H: 20}

	if b.CenterX() != 130 {
		t.Errorf("CenterX: got %d, want 130", b.CenterX())
	}
	if b.CenterY() != 50 {
		t.Errorf("CenterY: got %d, want 50", b.CenterY())
	}
	if b.Right() != 160 || b.Bottom() != 60 {
		t.Errorf("Right/Bottom: got %d/%d, want 160/60", b.Right(), b.Bottom())
	}
	if got := BoxFromRect(b.Rect()); got != b {
		t.Errorf("BoxFromRect(Rect()): got %+v, want %+v", got, b)
	}
}

func TestDetection_Variant(t *testing.T) {
	miss := NotFound()
	if miss.Found() {
		t.Error("NotFound().Found() should be false")
	}
	if _, ok := miss.Box(); ok {
		t.Error("NotFound().Box() should not be valid")
	}
	if miss.Legacy() != [4]int{-1, -1, -1, -1} {
		t.Errorf("NotFound().Legacy(): got %v", miss.Legacy())
	}

	var zero Detection
	if zero.Found() {
		t.Error("zero Detection should be NotFound")
	}

	hit := Detected(Box{X: 1, Y: 2, W: 3, H: 4})
	b, ok := hit.Box()
	if !ok || b.W != 3 {
		t.Errorf("Detected().Box(): got %+v, %v", b, ok)
	}
	if hit.Legacy() != [4]int{1, 2, 3, 4} {
		t.Errorf("Detected().Legacy(): got %v", hit.Legacy())
	}
}

func TestColorConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ColorConfig
		wantErr bool
	}{
		{"valid", ColorConfig{CloseKernel: 5, OpenKernel: 3}, false},
		{"zero close kernel", ColorConfig{CloseKernel: 0, OpenKernel: 3}, true},
		{"negative open kernel", ColorConfig{CloseKernel: 5, OpenKernel: -1}, true},
		{"negative tolerance", ColorConfig{CloseKernel: 5, OpenKernel: 3, Tolerance: HSV{H: -1}}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewColorSegmenter(tc.cfg)
			if (err != nil) != tc.wantErr {
				t.Fatalf("NewColorSegmenter err = %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil {
				var ce *ConfigError
				if !errors.As(err, &ce) {
					t.Errorf("expected *ConfigError, got %T", err)
				}
			}
		})
	}
}

func TestGoalConfig_Validate(t *testing.T) {
	if _, err := NewGoalLocator(GoalConfig{MinPixels: 0}); err == nil {
		t.Error("MinPixels=0 should be rejected")
	}
	if _, err := NewGoalLocator(GoalConfig{MinPixels: 1}); err != nil {
		t.Errorf("MinPixels=1 should be accepted: %v", err)
	}
}

func TestColorSegmenter_BackgroundOnly(t *testing.T) {
	seg, err := NewColorSegmenter(ColorConfig{Color: ballColor, CloseKernel: 5, OpenKernel: 3})
	if err != nil {
		t.Fatal(err)
	}

	frame := hsvFrame(240, 320, background, image.Rectangle{}, ballColor)
	defer frame.Close()

	if d := seg.Detect(frame); d.Found() {
		t.Errorf("expected not found on background-only frame, got %v", d)
	}
}

func TestColorSegmenter_EmptyFrame(t *testing.T) {
	seg, err := NewColorSegmenter(ColorConfig{Color: ballColor, CloseKernel: 5, OpenKernel: 3})
	if err != nil {
		t.Fatal(err)
	}

	empty := gocv.NewMat()
	defer empty.Close()

	if seg.Detect(empty).Found() {
		t.Error("expected not found on empty Mat")
	}
}

func TestColorSegmenter_SolidPatch(t *testing.T) {
	seg, err := NewColorSegmenter(ColorConfig{Color: ballColor, CloseKernel: 5, OpenKernel: 3})
	if err != nil {
		t.Fatal(err)
	}

	patch := image.Rect(100, 80, 160, 130)
	frame := hsvFrame(240, 320, background, patch, ballColor)
	defer frame.Close()

	d := seg.Detect(frame)
	b, ok := d.Box()
	if !ok {
		t.Fatal("expected ball to be found")
	}

	want := BoxFromRect(patch)
	if abs(b.X-want.X) > 1 || abs(b.Y-want.Y) > 1 || abs(b.W-want.W) > 2 || abs(b.H-want.H) > 2 {
		t.Errorf("box: got %+v, want %+v", b, want)
	}
}

func TestColorSegmenter_OpenRemovesSpeckle(t *testing.T) {
	seg, err := NewColorSegmenter(ColorConfig{Color: ballColor, CloseKernel: 1, OpenKernel: 7})
	if err != nil {
		t.Fatal(err)
	}

	// A 3x3 speck is smaller than the open kernel and must disappear
	frame := hsvFrame(240, 320, background, image.Rect(50, 50, 53, 53), ballColor)
	defer frame.Close()

	if d := seg.Detect(frame); d.Found() {
		t.Errorf("speck should be removed by open, got %v", d)
	}
}

func TestColorSegmenter_ToleranceBounds(t *testing.T) {
	tol := HSV{H: 5, S: 10, V: 10}
	seg, err := NewColorSegmenter(ColorConfig{Color: ballColor, Tolerance: tol, CloseKernel: 3, OpenKernel: 3})
	if err != nil {
		t.Fatal(err)
	}

	edge := HSV{H: ballColor.H + tol.H, S: ballColor.S - tol.S, V: ballColor.V + tol.V}
	frame := hsvFrame(240, 320, background, image.Rect(20, 20, 80, 80), edge)
	defer frame.Close()

	if !seg.Detect(frame).Found() {
		t.Error("color exactly at the tolerance bound should match (inclusive)")
	}

	outside := HSV{H: ballColor.H + tol.H + 1, S: ballColor.S, V: ballColor.V}
	frame2 := hsvFrame(240, 320, background, image.Rect(20, 20, 80, 80), outside)
	defer frame2.Close()

	if seg.Detect(frame2).Found() {
		t.Error("color one step past the bound should not match")
	}
}

func TestGoalLocator_BorderRegion(t *testing.T) {
	goalColor := HSV{H: 30, S: 200, V: 200}
	loc, err := NewGoalLocator(GoalConfig{Color: goalColor, MinPixels: 100})
	if err != nil {
		t.Fatal(err)
	}

	// Goal clipped by the left frame border
	patch := image.Rect(0, 100, 200, 250)
	frame := hsvFrame(480, 640, background, patch, goalColor)
	defer frame.Close()

	b, ok := loc.Detect(frame).Box()
	if !ok {
		t.Fatal("expected goal to be found")
	}

	want := Box{X: 0, Y: 100, W: 199, H: 149}
	if b != want {
		t.Errorf("box: got %+v, want %+v", b, want)
	}
}

func TestGoalLocator_BelowPixelFloor(t *testing.T) {
	goalColor := HSV{H: 30, S: 200, V: 200}
	loc, err := NewGoalLocator(GoalConfig{Color: goalColor, MinPixels: 500})
	if err != nil {
		t.Fatal(err)
	}

	// 10x10 = 100 pixels, under the floor
	frame := hsvFrame(480, 640, background, image.Rect(300, 200, 310, 210), goalColor)
	defer frame.Close()

	if d := loc.Detect(frame); d.Found() {
		t.Errorf("expected not found below pixel floor, got %v", d)
	}
}

func TestExtent(t *testing.T) {
	vals := []float32{0, 0, 3, 0, 5, 0}
	first, last, ok := extent(len(vals), func(i int) float32 { return vals[i] })
	if !ok || first != 2 || last != 4 {
		t.Errorf("extent: got (%d, %d, %v), want (2, 4, true)", first, last, ok)
	}

	_, _, ok = extent(3, func(int) float32 { return 0 })
	if ok {
		t.Error("extent of all zeros should not be ok")
	}
}
