// Package gesture classifies hand poses for the shooting pipeline.
package gesture

import (
	"github.com/ayusman/fingershot/internal/detector"
)

// Default thresholds, in normalized frame units.
const (
	// DefaultIndexReach is the index-tip to wrist distance a shot must exceed.
	DefaultIndexReach = 0.3
	// DefaultMiddleBend is the middle-tip to middle-knuckle distance a shot must stay under.
	DefaultMiddleBend = 0.1
)

// Classifier decides whether a hand is making a shoot gesture.
type Classifier interface {
	Classify(hand *detector.HandLandmarks) bool
}

// ShootClassifier is a threshold heuristic for the "finger gun" pose:
// index finger pointing away from the wrist, middle finger folded.
// It is a placeholder, not a trained classifier.
type ShootClassifier struct {
	IndexReach float64
	MiddleBend float64
}

// NewShootClassifier creates a ShootClassifier with the default thresholds.
func NewShootClassifier() *ShootClassifier {
	return &ShootClassifier{
		IndexReach: DefaultIndexReach,
		MiddleBend: DefaultMiddleBend,
	}
}

// Classify returns true when the index reach is strictly above IndexReach
// and the middle bend strictly below MiddleBend. A nil hand is never a shot.
func (c *ShootClassifier) Classify(hand *detector.HandLandmarks) bool {
	if hand == nil {
		return false
	}

	indexDist := hand.Span(detector.IndexTip, detector.Wrist)
	middleBend := hand.Span(detector.MiddleTip, detector.MiddleMCP)

	return indexDist > c.IndexReach && middleBend < c.MiddleBend
}
