package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Motion detection defaults.
const (
	// DefaultBlurSize is the Gaussian kernel size applied before differencing.
	DefaultBlurSize = 21
	// DefaultPixelDelta is the per-pixel grey level change that counts.
	DefaultPixelDelta = 25
)

// Motion is the result of comparing a frame to the previous one.
type Motion struct {
	Detected bool
	// Changed is the percentage of pixels whose grey level moved by more
	// than the pixel delta.
	Changed float64
}

// MotionDetector reports scene activity by frame differencing. It lets the
// frame loop drop to an idle rate while nothing in view moves.
type MotionDetector struct {
	threshold  float64
	blurSize   int
	pixelDelta float32

	mu       sync.Mutex
	baseline gocv.Mat
	primed   bool
}

// NewMotionDetector creates a detector that fires when more than threshold
// percent of pixels change between frames.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{
		threshold:  threshold,
		blurSize:   DefaultBlurSize,
		pixelDelta: DefaultPixelDelta,
		baseline:   gocv.NewMat(),
	}
}

// Threshold returns the change percentage that counts as motion.
func (m *MotionDetector) Threshold() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.threshold
}

// SetThreshold changes the change percentage. Values <= 0 are ignored.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threshold = threshold
}

// Detect compares frame with the previous one and keeps it as the new
// baseline. The first frame after construction or Reset never reports
// motion.
func (m *MotionDetector) Detect(frame *gocv.Mat) Motion {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return Motion{}
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: m.blurSize, Y: m.blurSize}, 0, 0, gocv.BorderDefault)

	if !m.primed || m.baseline.Rows() != blurred.Rows() || m.baseline.Cols() != blurred.Cols() {
		blurred.CopyTo(&m.baseline)
		m.primed = true
		return Motion{}
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.baseline, &diff)
	blurred.CopyTo(&m.baseline)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(diff, &mask, m.pixelDelta, 255, gocv.ThresholdBinary)

	total := mask.Rows() * mask.Cols()
	if total == 0 {
		return Motion{}
	}
	changed := float64(gocv.CountNonZero(mask)) / float64(total) * 100

	return Motion{Detected: changed > m.threshold, Changed: changed}
}

// Reset forgets the baseline.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.primed = false
}

// Close releases the baseline image.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baseline.Close()
	m.baseline = gocv.NewMat()
	m.primed = false
}
