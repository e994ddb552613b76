// Package detector provides the hand landmark source for the shooting pipeline.
package detector

import (
	"errors"
	"fmt"
	"math"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// ErrMalformedHand is returned when a landmark list cannot form a hand.
var ErrMalformedHand = errors.New("malformed hand landmarks")

// Point3D is a landmark position. X and Y are normalized to the camera
// frame ([0,1], Y growing downward); Z is MediaPipe relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Distance returns the Euclidean distance between p and q.
func (p Point3D) Distance(q Point3D) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	dz := p.Z - q.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func (p Point3D) finite() bool {
	for _, v := range [3]float64{p.X, p.Y, p.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe
// for a single hand in a single frame.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// NewHand builds a HandLandmarks from a detector point list.
// Lists that are not exactly NumLandmarks long are rejected.
func NewHand(points []Point3D, handedness string, score float64) (HandLandmarks, error) {
	if len(points) != NumLandmarks {
		return HandLandmarks{}, fmt.Errorf("%w: got %d points, want %d", ErrMalformedHand, len(points), NumLandmarks)
	}

	hand := HandLandmarks{
		Handedness: handedness,
		Score:      score,
	}
	copy(hand.Points[:], points)

	return hand, nil
}

// Validate reports whether every landmark is a finite point.
func (h *HandLandmarks) Validate() error {
	if h == nil {
		return fmt.Errorf("%w: nil hand", ErrMalformedHand)
	}
	for i, p := range h.Points {
		if !p.finite() {
			return fmt.Errorf("%w: landmark %d is not finite", ErrMalformedHand, i)
		}
	}
	return nil
}

// Span returns the distance between landmarks a and b.
func (h *HandLandmarks) Span(a, b int) float64 {
	return h.Points[a].Distance(h.Points[b])
}
