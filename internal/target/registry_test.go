package target

import (
	"errors"
	"math"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/fingershot/internal/aim"
)

const epsilon = 1e-9

func newTestRegistry() *Registry {
	return NewRegistry(DefaultConfig(), rand.New(rand.NewPCG(1, 2)))
}

// forward is a ray from z=5 straight down -Z.
func forward() aim.Ray {
	return aim.Ray{Origin: mgl64.Vec3{0, 0, 5}, Direction: mgl64.Vec3{0, 0, -1}}
}

func TestRegistry_Spawn(t *testing.T) {
	r := newTestRegistry()

	spawned := r.Spawn(200)
	if len(spawned) != 200 {
		t.Fatalf("expected 200 spawned targets, got %d", len(spawned))
	}
	if r.Len() != 200 {
		t.Fatalf("expected 200 live targets, got %d", r.Len())
	}

	ids := make(map[string]bool)
	for _, tg := range spawned {
		x, y, z := tg.Position.Elem()
		if x < -3 || x >= 3 {
			t.Errorf("x out of range: %f", x)
		}
		if y < -2 || y >= 2 {
			t.Errorf("y out of range: %f", y)
		}
		if z < -10 || z >= -5 {
			t.Errorf("z out of range: %f", z)
		}
		if tg.Radius != 0.5 {
			t.Errorf("expected radius 0.5, got %f", tg.Radius)
		}
		if ids[tg.ID] {
			t.Errorf("duplicate target id %s", tg.ID)
		}
		ids[tg.ID] = true
	}
}

func TestRegistry_SpawnZeroOrNegative(t *testing.T) {
	r := newTestRegistry()
	if got := r.Spawn(0); len(got) != 0 {
		t.Errorf("expected no targets, got %d", len(got))
	}
	if got := r.Spawn(-2); len(got) != 0 {
		t.Errorf("expected no targets, got %d", len(got))
	}
	if r.Len() != 0 {
		t.Errorf("expected empty registry, got %d", r.Len())
	}
}

func TestRegistry_Remove(t *testing.T) {
	r := newTestRegistry()
	spawned := r.Spawn(3)

	if err := r.Remove(spawned[1].ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	live := r.Targets()
	if len(live) != 2 {
		t.Fatalf("expected 2 live targets, got %d", len(live))
	}
	if live[0].ID != spawned[0].ID || live[1].ID != spawned[2].ID {
		t.Error("removal disturbed the other targets")
	}

	if err := r.Remove(spawned[1].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for second removal, got %v", err)
	}
	if r.Len() != 2 {
		t.Errorf("failed removal changed the live set: %d", r.Len())
	}
}

func TestRegistry_Intersect(t *testing.T) {
	t.Run("empty set has no hit", func(t *testing.T) {
		r := newTestRegistry()
		if _, ok := r.Intersect(forward()); ok {
			t.Error("expected no hit on empty registry")
		}
	})

	t.Run("returns the nearest target, not the first", func(t *testing.T) {
		r := newTestRegistry()
		far := r.Add(mgl64.Vec3{0, 0, -9})
		near := r.Add(mgl64.Vec3{0, 0, -6})
		r.Add(mgl64.Vec3{0, 0, -7.5})

		hit, ok := r.Intersect(forward())
		if !ok {
			t.Fatal("expected a hit")
		}
		if hit.Target.ID != near.ID {
			t.Errorf("expected nearest target %s, got %s (far is %s)", near.ID, hit.Target.ID, far.ID)
		}
		// Front surface of the sphere at z=-6 with radius 0.5.
		if !hit.Point.ApproxEqualThreshold(mgl64.Vec3{0, 0, -5.5}, epsilon) {
			t.Errorf("expected hit point (0,0,-5.5), got %v", hit.Point)
		}
		if math.Abs(hit.Distance-10.5) > epsilon {
			t.Errorf("expected distance 10.5, got %f", hit.Distance)
		}
	})

	t.Run("ties keep spawn order", func(t *testing.T) {
		r := newTestRegistry()
		first := r.Add(mgl64.Vec3{0, 0, -6})
		r.Add(mgl64.Vec3{0, 0, -6})

		hit, ok := r.Intersect(forward())
		if !ok || hit.Target.ID != first.ID {
			t.Errorf("expected first target on tie, got %+v", hit)
		}
	})

	t.Run("miss has no side effects", func(t *testing.T) {
		r := newTestRegistry()
		r.Spawn(3)
		before := r.Targets()

		up := aim.Ray{Origin: mgl64.Vec3{0, 0, 5}, Direction: mgl64.Vec3{0, 1, 0}}
		if _, ok := r.Intersect(up); ok {
			t.Fatal("expected miss")
		}
		if _, _, ok := r.Shoot(up, ReplaceHit); ok {
			t.Fatal("expected Shoot to miss")
		}

		after := r.Targets()
		if len(after) != len(before) {
			t.Fatalf("miss changed population: %d -> %d", len(before), len(after))
		}
		for i := range before {
			if before[i] != after[i] {
				t.Errorf("target %d changed on miss", i)
			}
		}
	})

	t.Run("targets behind the origin are ignored", func(t *testing.T) {
		r := newTestRegistry()
		r.Add(mgl64.Vec3{0, 0, 8})
		if _, ok := r.Intersect(forward()); ok {
			t.Error("target behind the ray origin should not be hit")
		}
	})

	t.Run("grazing ray off the sphere misses", func(t *testing.T) {
		r := newTestRegistry()
		r.Add(mgl64.Vec3{0.6, 0, -6})
		if _, ok := r.Intersect(forward()); ok {
			t.Error("ray passing 0.6 from center of radius 0.5 should miss")
		}
	})

	t.Run("origin inside a sphere hits its exit point", func(t *testing.T) {
		r := newTestRegistry()
		r.Add(mgl64.Vec3{0, 0, 5})
		hit, ok := r.Intersect(forward())
		if !ok {
			t.Fatal("expected a hit from inside the sphere")
		}
		if math.Abs(hit.Distance-0.5) > epsilon {
			t.Errorf("expected exit distance 0.5, got %f", hit.Distance)
		}
	})
}

func TestRegistry_ShootReplaceHit(t *testing.T) {
	r := newTestRegistry()
	r.Spawn(2)
	victim := r.Add(mgl64.Vec3{0, 0, -6})

	hit, spawned, ok := r.Shoot(forward(), ReplaceHit)
	if !ok {
		t.Fatal("expected a hit")
	}
	if hit.Target.ID != victim.ID {
		t.Errorf("expected to hit %s, got %s", victim.ID, hit.Target.ID)
	}
	if len(spawned) != 1 {
		t.Errorf("expected 1 replacement, got %d", len(spawned))
	}
	if r.Len() != 3 {
		t.Errorf("expected population 3, got %d", r.Len())
	}
	for _, tg := range r.Targets() {
		if tg.ID == victim.ID {
			t.Error("hit target is still live")
		}
	}
}

func TestRegistry_ShootRefreshAll(t *testing.T) {
	r := newTestRegistry()
	old := r.Spawn(2)
	r.Add(mgl64.Vec3{0, 0, -6})

	_, spawned, ok := r.Shoot(forward(), RefreshAll)
	if !ok {
		t.Fatal("expected a hit")
	}
	if len(spawned) != 3 || r.Len() != 3 {
		t.Fatalf("expected a fresh batch of 3, got %d spawned and %d live", len(spawned), r.Len())
	}
	for _, tg := range r.Targets() {
		for _, o := range old {
			if tg.ID == o.ID {
				t.Error("old target survived a refresh")
			}
		}
	}
}

func TestRegistry_PopulationInvariant(t *testing.T) {
	r := newTestRegistry()
	const n = 3
	r.Spawn(n)

	rng := rand.New(rand.NewPCG(7, 7))
	hits := 0
	for i := 0; i < 500; i++ {
		// Aim at a random live target so that most shots land.
		live := r.Targets()
		aimAt := live[rng.IntN(len(live))].Position
		origin := mgl64.Vec3{0, 0, 5}
		ray := aim.Ray{Origin: origin, Direction: aimAt.Sub(origin).Normalize()}

		if _, _, ok := r.Shoot(ray, ReplaceHit); ok {
			hits++
		}
		if r.Len() != n {
			t.Fatalf("population drifted to %d after %d shots", r.Len(), i+1)
		}
	}
	if hits == 0 {
		t.Error("expected at least one hit")
	}
}

func TestRegistry_ConcurrentShotsNeverShareATarget(t *testing.T) {
	r := newTestRegistry()
	victim := r.Add(mgl64.Vec3{0, 0, -6})
	// Replacements spawn far off the firing line.
	r.SetConfig(Config{
		X:      Range{Min: 50, Max: 60},
		Y:      Range{Min: 50, Max: 60},
		Z:      Range{Min: -10, Max: -5},
		Radius: 0.5,
	})

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		hits int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if hit, _, ok := r.Shoot(forward(), ReplaceHit); ok && hit.Target.ID == victim.ID {
				mu.Lock()
				hits++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if hits != 1 {
		t.Errorf("expected exactly one shot to claim the target, got %d", hits)
	}
	if r.Len() != 1 {
		t.Errorf("expected population 1, got %d", r.Len())
	}
}

func TestRegistry_Tick(t *testing.T) {
	r := newTestRegistry()
	r.Spawn(2)

	r.Tick(0.5)
	for _, tg := range r.Targets() {
		if math.Abs(tg.Rotation[0]-0.3) > epsilon || math.Abs(tg.Rotation[1]-0.3) > epsilon {
			t.Errorf("expected rotation 0.3 on both axes, got %v", tg.Rotation)
		}
	}

	r.Tick(20)
	for _, tg := range r.Targets() {
		if tg.Rotation[0] < 0 || tg.Rotation[0] >= 2*math.Pi {
			t.Errorf("rotation not wrapped: %f", tg.Rotation[0])
		}
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"", ReplaceHit, false},
		{"replace_hit", ReplaceHit, false},
		{"refresh_all", RefreshAll, false},
		{"explode", ReplaceHit, true},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParsePolicy(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if !tt.wantErr && tt.in != "" && got.String() != tt.in {
			t.Errorf("String() = %q, want %q", got.String(), tt.in)
		}
	}
}
