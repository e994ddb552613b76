package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Frame differencing parameters.
const (
	blurKernel    = 21
	diffThreshold = 25
)

// MotionGate reports whether the scene changed since the previous frame.
// The driver uses it to hold the detector back while nobody is in view.
type MotionGate struct {
	// Threshold is the percentage of pixels that must change.
	threshold float64

	mu    sync.Mutex
	prev  gocv.Mat
	gray  gocv.Mat
	blur  gocv.Mat
	diff  gocv.Mat
	ready bool
}

// NewMotionGate creates a MotionGate. threshold is a percentage of pixels,
// so 1.0 means one pixel in a hundred.
func NewMotionGate(threshold float64) *MotionGate {
	return &MotionGate{
		threshold: threshold,
		prev:      gocv.NewMat(),
		gray:      gocv.NewMat(),
		blur:      gocv.NewMat(),
		diff:      gocv.NewMat(),
	}
}

// Moved compares frame with the previous one and returns whether enough
// pixels changed, plus the changed percentage. The first frame only sets
// the baseline.
func (m *MotionGate) Moved(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &m.gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&m.gray)
	}
	gocv.GaussianBlur(m.gray, &m.blur, image.Point{X: blurKernel, Y: blurKernel}, 0, 0, gocv.BorderDefault)

	if !m.ready || m.prev.Rows() != m.blur.Rows() || m.prev.Cols() != m.blur.Cols() {
		m.blur.CopyTo(&m.prev)
		m.ready = true
		return false, 0
	}

	gocv.AbsDiff(m.blur, m.prev, &m.diff)
	gocv.Threshold(m.diff, &m.diff, diffThreshold, 255, gocv.ThresholdBinary)
	changed := float64(gocv.CountNonZero(m.diff)) / float64(m.diff.Rows()*m.diff.Cols()) * 100

	m.blur.CopyTo(&m.prev)
	return changed > m.threshold, changed
}

// Reset forgets the baseline frame.
func (m *MotionGate) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ready = false
}

// Close releases the gate's buffers.
func (m *MotionGate) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mat := range []*gocv.Mat{&m.prev, &m.gray, &m.blur, &m.diff} {
		mat.Close()
	}
	m.ready = false
}
