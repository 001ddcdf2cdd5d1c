package capture

import (
	"testing"

	"gocv.io/x/gocv"
)

func solidFrame(v float64) gocv.Mat {
	m := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	m.SetTo(gocv.NewScalar(v, v, v, 0))
	return m
}

func TestMotionDetector_FirstFrameIsQuiet(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	frame := solidFrame(0)
	defer frame.Close()

	if got := md.Detect(&frame); got.Detected || got.Changed != 0 {
		t.Errorf("first frame = %+v, want no motion", got)
	}
}

func TestMotionDetector_IdenticalFrames(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	a := solidFrame(40)
	defer a.Close()
	b := solidFrame(40)
	defer b.Close()

	md.Detect(&a)
	if got := md.Detect(&b); got.Detected {
		t.Errorf("identical frames reported motion: %+v", got)
	}
}

func TestMotionDetector_BlackToWhite(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	black := solidFrame(0)
	defer black.Close()
	white := solidFrame(255)
	defer white.Close()

	md.Detect(&black)
	got := md.Detect(&white)
	if !got.Detected {
		t.Errorf("black to white should be motion: %+v", got)
	}
	if got.Changed < 50 {
		t.Errorf("Changed = %f, want > 50", got.Changed)
	}

	// The white frame is now the baseline.
	if again := md.Detect(&white); again.Detected {
		t.Errorf("repeat of the baseline reported motion: %+v", again)
	}
}

func TestMotionDetector_Reset(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	black := solidFrame(0)
	defer black.Close()
	white := solidFrame(255)
	defer white.Close()

	md.Detect(&black)
	md.Reset()

	if got := md.Detect(&white); got.Detected {
		t.Errorf("first frame after Reset reported motion: %+v", got)
	}
}

func TestMotionDetector_EmptyFrame(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	empty := gocv.NewMat()
	defer empty.Close()

	if got := md.Detect(&empty); got.Detected {
		t.Error("empty frame reported motion")
	}
	if got := md.Detect(nil); got.Detected {
		t.Error("nil frame reported motion")
	}
}

func TestMotionDetector_SetThreshold(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	md.SetThreshold(5.0)
	if md.Threshold() != 5.0 {
		t.Errorf("Threshold() = %f, want 5.0", md.Threshold())
	}

	md.SetThreshold(-1.0)
	if md.Threshold() != 5.0 {
		t.Errorf("negative threshold should be ignored, got %f", md.Threshold())
	}
}

func TestMotionDetector_CloseTwice(t *testing.T) {
	md := NewMotionDetector(1.0)
	md.Close()
	md.Close()

	frame := solidFrame(0)
	defer frame.Close()
	if got := md.Detect(&frame); got.Detected {
		t.Error("first frame after Close reported motion")
	}
}
