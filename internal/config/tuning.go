package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/ayusman/fingershot/internal/aim"
	"github.com/ayusman/fingershot/internal/gesture"
	"github.com/ayusman/fingershot/internal/target"
)

// ErrInvalidTuning is returned when a tuning file holds unusable values.
var ErrInvalidTuning = errors.New("invalid tuning")

// Tuning holds the gameplay constants that can be changed without a restart.
type Tuning struct {
	Targets TargetTuning  `yaml:"targets"`
	Gesture GestureTuning `yaml:"gesture"`
	Camera  CameraTuning  `yaml:"camera"`
	Respawn string        `yaml:"respawn"`
}

// TargetTuning controls the live target population.
type TargetTuning struct {
	Count  int          `yaml:"count"`
	Radius float64      `yaml:"radius"`
	Spin   float64      `yaml:"spin"`
	X      target.Range `yaml:"x"`
	Y      target.Range `yaml:"y"`
	Z      target.Range `yaml:"z"`
}

// GestureTuning holds the shoot classifier thresholds.
type GestureTuning struct {
	IndexReach float64 `yaml:"index_reach"`
	MiddleBend float64 `yaml:"middle_bend"`
}

// CameraTuning describes the camera pose and lens. Aspect is not tunable;
// it follows the viewport.
type CameraTuning struct {
	Position [3]float64 `yaml:"position"`
	Target   [3]float64 `yaml:"target"`
	Up       [3]float64 `yaml:"up"`
	Fov      float64    `yaml:"fov"`
	Near     float64    `yaml:"near"`
	Far      float64    `yaml:"far"`
}

// DefaultTuning returns the built-in gameplay constants.
func DefaultTuning() Tuning {
	tc := target.DefaultConfig()
	cam := aim.DefaultCameraConfig()
	return Tuning{
		Targets: TargetTuning{
			Count:  3,
			Radius: tc.Radius,
			Spin:   tc.Spin,
			X:      tc.X,
			Y:      tc.Y,
			Z:      tc.Z,
		},
		Gesture: GestureTuning{
			IndexReach: gesture.DefaultIndexReach,
			MiddleBend: gesture.DefaultMiddleBend,
		},
		Camera: CameraTuning{
			Position: cam.Position,
			Target:   cam.Target,
			Up:       cam.Up,
			Fov:      cam.FovY,
			Near:     cam.Near,
			Far:      cam.Far,
		},
		Respawn: target.ReplaceHit.String(),
	}
}

// LoadTuning reads a YAML tuning file. Keys missing from the file keep
// their default values. An empty path returns the defaults.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, fmt.Errorf("load tuning %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tuning{}, fmt.Errorf("unmarshal tuning %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return Tuning{}, fmt.Errorf("tuning %s: %w", path, err)
	}
	return t, nil
}

// Validate checks that every value is usable by the game.
func (t Tuning) Validate() error {
	if t.Targets.Count < 0 {
		return fmt.Errorf("%w: target count %d", ErrInvalidTuning, t.Targets.Count)
	}
	if !finite(t.Targets.Radius) || t.Targets.Radius <= 0 {
		return fmt.Errorf("%w: target radius %v", ErrInvalidTuning, t.Targets.Radius)
	}
	if !finite(t.Targets.Spin) {
		return fmt.Errorf("%w: target spin %v", ErrInvalidTuning, t.Targets.Spin)
	}
	for name, r := range map[string]target.Range{"x": t.Targets.X, "y": t.Targets.Y, "z": t.Targets.Z} {
		if !finite(r.Min) || !finite(r.Max) || r.Max < r.Min {
			return fmt.Errorf("%w: %s range %v..%v", ErrInvalidTuning, name, r.Min, r.Max)
		}
	}
	if !finite(t.Gesture.IndexReach) || !finite(t.Gesture.MiddleBend) {
		return fmt.Errorf("%w: gesture thresholds %v, %v", ErrInvalidTuning, t.Gesture.IndexReach, t.Gesture.MiddleBend)
	}
	if t.Gesture.IndexReach < 0 || t.Gesture.MiddleBend < 0 {
		return fmt.Errorf("%w: negative gesture threshold", ErrInvalidTuning)
	}
	if _, err := target.ParsePolicy(t.Respawn); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTuning, err)
	}
	if err := t.CameraConfig(aim.DefaultAspect).Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTuning, err)
	}
	return nil
}

// TargetConfig returns the spawn parameters for the target registry.
func (t Tuning) TargetConfig() target.Config {
	return target.Config{
		X:      t.Targets.X,
		Y:      t.Targets.Y,
		Z:      t.Targets.Z,
		Radius: t.Targets.Radius,
		Spin:   t.Targets.Spin,
	}
}

// Classifier returns a shoot classifier with the tuned thresholds.
func (t Tuning) Classifier() *gesture.ShootClassifier {
	return &gesture.ShootClassifier{
		IndexReach: t.Gesture.IndexReach,
		MiddleBend: t.Gesture.MiddleBend,
	}
}

// CameraConfig returns the tuned camera with the given aspect ratio.
func (t Tuning) CameraConfig(aspect float64) aim.CameraConfig {
	return aim.CameraConfig{
		Position: mgl64.Vec3(t.Camera.Position),
		Target:   mgl64.Vec3(t.Camera.Target),
		Up:       mgl64.Vec3(t.Camera.Up),
		FovY:     t.Camera.Fov,
		Aspect:   aspect,
		Near:     t.Camera.Near,
		Far:      t.Camera.Far,
	}
}

// Policy returns the respawn policy. Validate has already rejected unknown
// names, so an error here falls back to ReplaceHit.
func (t Tuning) Policy() target.Policy {
	p, _ := target.ParsePolicy(t.Respawn)
	return p
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
