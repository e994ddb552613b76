// Package target tracks the live set of shootable targets.
package target

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/ayusman/fingershot/internal/aim"
)

// ErrNotFound is returned when removing a target that is not live.
var ErrNotFound = errors.New("target not found")

// Target is a shootable sphere. Rotation is cosmetic.
type Target struct {
	ID       string     `json:"id"`
	Position mgl64.Vec3 `json:"position"`
	Radius   float64    `json:"radius"`
	Rotation mgl64.Vec2 `json:"rotation"`
}

// Hit is the nearest intersection of a ray with a live target.
type Hit struct {
	Target   Target
	Point    mgl64.Vec3
	Distance float64
}

// Policy selects how targets are replaced after a hit.
type Policy int

const (
	// ReplaceHit removes the hit target and spawns exactly one replacement.
	ReplaceHit Policy = iota
	// RefreshAll clears every target and spawns a fresh batch of the same size.
	RefreshAll
)

// String returns the policy name used in tuning files.
func (p Policy) String() string {
	switch p {
	case RefreshAll:
		return "refresh_all"
	default:
		return "replace_hit"
	}
}

// ParsePolicy parses a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "replace_hit":
		return ReplaceHit, nil
	case "refresh_all":
		return RefreshAll, nil
	}
	return ReplaceHit, fmt.Errorf("unknown respawn policy %q", s)
}

// Range is a half-open interval [Min, Max).
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

func (r Range) sample(rng *rand.Rand) float64 {
	return r.Min + rng.Float64()*(r.Max-r.Min)
}

// Config controls where targets spawn and how large they are.
type Config struct {
	X, Y, Z Range
	Radius  float64
	// Spin is the cosmetic rotation rate in radians per second on both axes.
	Spin float64
}

// DefaultConfig returns the standard spawn volume: in front of a camera at
// z=5 looking down -Z, between 10 and 15 units away.
func DefaultConfig() Config {
	return Config{
		X:      Range{Min: -3, Max: 3},
		Y:      Range{Min: -2, Max: 2},
		Z:      Range{Min: -10, Max: -5},
		Radius: 0.5,
		Spin:   0.6,
	}
}

// Registry holds the live targets. All methods are safe for concurrent use;
// Shoot performs intersect and replacement as one step.
type Registry struct {
	mu      sync.Mutex
	config  Config
	rng     *rand.Rand
	targets []*Target
}

// NewRegistry creates an empty Registry. A nil rng uses a randomly seeded source.
func NewRegistry(config Config, rng *rand.Rand) *Registry {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Registry{
		config: config,
		rng:    rng,
	}
}

// SetConfig changes spawn parameters for future spawns.
func (r *Registry) SetConfig(config Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.config = config
}

// Spawn creates count targets at random positions inside the spawn volume.
func (r *Registry) Spawn(count int) []Target {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.spawnLocked(count)
}

func (r *Registry) spawnLocked(count int) []Target {
	spawned := make([]Target, 0, max(count, 0))
	for i := 0; i < count; i++ {
		pos := mgl64.Vec3{
			r.config.X.sample(r.rng),
			r.config.Y.sample(r.rng),
			r.config.Z.sample(r.rng),
		}
		spawned = append(spawned, *r.addLocked(pos))
	}
	return spawned
}

// Add places a target at an exact position.
func (r *Registry) Add(position mgl64.Vec3) Target {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.addLocked(position)
}

func (r *Registry) addLocked(position mgl64.Vec3) *Target {
	t := &Target{
		ID:       uuid.New().String(),
		Position: position,
		Radius:   r.config.Radius,
	}
	r.targets = append(r.targets, t)
	return t
}

// Remove deletes the target with the given ID.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(id)
}

func (r *Registry) removeLocked(id string) error {
	for i, t := range r.targets {
		if t.ID == id {
			r.targets = append(r.targets[:i], r.targets[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Intersect returns the live target nearest along the ray. Equal distances
// resolve to the earlier target in spawn order.
func (r *Registry) Intersect(ray aim.Ray) (Hit, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.intersectLocked(ray)
}

func (r *Registry) intersectLocked(ray aim.Ray) (Hit, bool) {
	var (
		best  Hit
		found bool
	)
	for _, t := range r.targets {
		d, ok := intersectSphere(ray, t.Position, t.Radius)
		if !ok {
			continue
		}
		if !found || d < best.Distance {
			best = Hit{Target: *t, Point: ray.At(d), Distance: d}
			found = true
		}
	}
	return best, found
}

// Shoot resolves a ray against the live set and, on a hit, replaces targets
// according to policy. The returned slice holds the targets spawned.
func (r *Registry) Shoot(ray aim.Ray, policy Policy) (Hit, []Target, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	hit, ok := r.intersectLocked(ray)
	if !ok {
		return Hit{}, nil, false
	}

	switch policy {
	case RefreshAll:
		n := len(r.targets)
		r.targets = r.targets[:0]
		return hit, r.spawnLocked(n), true
	default:
		// The target was found under this lock, so it is still live.
		_ = r.removeLocked(hit.Target.ID)
		return hit, r.spawnLocked(1), true
	}
}

// Tick advances the cosmetic rotation of every target by dt seconds.
func (r *Registry) Tick(dt float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	step := r.config.Spin * dt
	for _, t := range r.targets {
		t.Rotation[0] = math.Mod(t.Rotation[0]+step, 2*math.Pi)
		t.Rotation[1] = math.Mod(t.Rotation[1]+step, 2*math.Pi)
	}
}

// Targets returns a snapshot of the live targets in spawn order.
func (r *Registry) Targets() []Target {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Target, len(r.targets))
	for i, t := range r.targets {
		out[i] = *t
	}
	return out
}

// Len returns the number of live targets.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.targets)
}

// intersectSphere returns the smallest positive distance at which the ray
// meets the sphere. Direction must be unit length.
func intersectSphere(ray aim.Ray, center mgl64.Vec3, radius float64) (float64, bool) {
	oc := ray.Origin.Sub(center)
	b := oc.Dot(ray.Direction)
	c := oc.Dot(oc) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}

	sq := math.Sqrt(disc)
	if t := -b - sq; t > 0 {
		return t, true
	}
	// Origin inside the sphere: the exit point is the first positive hit.
	if t := -b + sq; t > 0 {
		return t, true
	}
	return 0, false
}
