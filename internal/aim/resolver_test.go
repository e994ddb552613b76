package aim

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/fingershot/internal/detector"
)

const epsilon = 1e-9

func TestScreenPoint(t *testing.T) {
	tests := []struct {
		name   string
		p      detector.Point3D
		nx, ny float64
	}{
		{"top-left", detector.Point3D{X: 0, Y: 0}, -1, 1},
		{"bottom-right", detector.Point3D{X: 1, Y: 1}, 1, -1},
		{"center", detector.Point3D{X: 0.5, Y: 0.5}, 0, 0},
		{"depth ignored", detector.Point3D{X: 0.5, Y: 0.5, Z: -3}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nx, ny := ScreenPoint(tt.p)
			if math.Abs(nx-tt.nx) > epsilon || math.Abs(ny-tt.ny) > epsilon {
				t.Errorf("ScreenPoint() = (%f, %f), want (%f, %f)", nx, ny, tt.nx, tt.ny)
			}
		})
	}
}

func TestScreenPoint_Monotonic(t *testing.T) {
	prevX, prevY := math.Inf(-1), math.Inf(1)
	for i := 0; i <= 20; i++ {
		v := float64(i) / 20
		nx, _ := ScreenPoint(detector.Point3D{X: v, Y: 0.5})
		_, ny := ScreenPoint(detector.Point3D{X: 0.5, Y: v})

		if nx <= prevX {
			t.Errorf("nx not strictly increasing at x=%f: %f <= %f", v, nx, prevX)
		}
		if ny >= prevY {
			t.Errorf("ny not strictly decreasing at y=%f: %f >= %f", v, ny, prevY)
		}
		prevX, prevY = nx, ny
	}
}

func TestResolveRay(t *testing.T) {
	cam := DefaultCameraConfig()

	t.Run("center points down the view axis", func(t *testing.T) {
		ray, err := ResolveRay(detector.Point3D{X: 0.5, Y: 0.5}, cam)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ray.Origin.ApproxEqualThreshold(cam.Position, epsilon) {
			t.Errorf("expected origin at camera, got %v", ray.Origin)
		}
		if !ray.Direction.ApproxEqualThreshold(mgl64.Vec3{0, 0, -1}, 1e-6) {
			t.Errorf("expected direction -Z, got %v", ray.Direction)
		}
	})

	t.Run("direction is unit length", func(t *testing.T) {
		ray, err := ResolveRay(detector.Point3D{X: 0.1, Y: 0.9}, cam)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(ray.Direction.Len()-1) > 1e-9 {
			t.Errorf("expected unit direction, got length %f", ray.Direction.Len())
		}
	})

	t.Run("top-left points up and left", func(t *testing.T) {
		ray, err := ResolveRay(detector.Point3D{X: 0, Y: 0}, cam)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ray.Direction.X() >= 0 || ray.Direction.Y() <= 0 || ray.Direction.Z() >= 0 {
			t.Errorf("expected direction (-,+,-), got %v", ray.Direction)
		}
	})

	t.Run("ray passes through the screen point", func(t *testing.T) {
		ray, err := ResolveRay(detector.Point3D{X: 0.2, Y: 0.3}, cam)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		nx, ny, ok := Project(ray.At(7), cam)
		if !ok {
			t.Fatal("expected point along the ray to be visible")
		}
		if math.Abs(nx-(-0.6)) > 1e-6 || math.Abs(ny-0.4) > 1e-6 {
			t.Errorf("projected (%f, %f), want (-0.6, 0.4)", nx, ny)
		}
	})

	t.Run("world direction follows landmark order", func(t *testing.T) {
		left, _ := ResolveRay(detector.Point3D{X: 0.3, Y: 0.5}, cam)
		right, _ := ResolveRay(detector.Point3D{X: 0.7, Y: 0.5}, cam)
		if left.Direction.X() >= right.Direction.X() {
			t.Error("larger landmark x should aim further right")
		}

		high, _ := ResolveRay(detector.Point3D{X: 0.5, Y: 0.2}, cam)
		low, _ := ResolveRay(detector.Point3D{X: 0.5, Y: 0.8}, cam)
		if high.Direction.Y() <= low.Direction.Y() {
			t.Error("larger landmark y should aim further down")
		}
	})
}

func TestResolveRay_DegenerateCamera(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *CameraConfig)
	}{
		{"zero aspect", func(c *CameraConfig) { c.Aspect = 0 }},
		{"NaN aspect", func(c *CameraConfig) { c.Aspect = math.NaN() }},
		{"zero fov", func(c *CameraConfig) { c.FovY = 0 }},
		{"straight fov", func(c *CameraConfig) { c.FovY = 180 }},
		{"far before near", func(c *CameraConfig) { c.Near, c.Far = 10, 1 }},
		{"eye on target", func(c *CameraConfig) { c.Target = c.Position }},
		{"up along view", func(c *CameraConfig) { c.Up = mgl64.Vec3{0, 0, -1} }},
		{"infinite position", func(c *CameraConfig) { c.Position = mgl64.Vec3{math.Inf(1), 0, 0} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := DefaultCameraConfig()
			tt.mutate(&cam)

			_, err := ResolveRay(detector.Point3D{X: 0.5, Y: 0.5}, cam)
			if !errors.Is(err, ErrDegenerateCamera) {
				t.Errorf("expected ErrDegenerateCamera, got %v", err)
			}
		})
	}
}

func TestUnproject_NonFinitePoint(t *testing.T) {
	if _, err := Unproject(math.NaN(), 0, DefaultCameraConfig()); err == nil {
		t.Error("expected error for NaN screen point")
	}
}

func TestProject_BehindCamera(t *testing.T) {
	cam := DefaultCameraConfig()
	if _, _, ok := Project(mgl64.Vec3{0, 0, 10}, cam); ok {
		t.Error("point behind the camera should not project")
	}
}

func TestCamera_Resize(t *testing.T) {
	cam := NewCamera(DefaultCameraConfig())

	if err := cam.Resize(800, 400); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cam.Snapshot().Aspect; got != 2 {
		t.Errorf("expected aspect 2, got %f", got)
	}

	if err := cam.Resize(0, 400); !errors.Is(err, ErrDegenerateCamera) {
		t.Errorf("expected ErrDegenerateCamera for zero width, got %v", err)
	}
	if got := cam.Snapshot().Aspect; got != 2 {
		t.Errorf("failed resize should keep aspect, got %f", got)
	}

	next := DefaultCameraConfig()
	next.FovY = 60
	next.Aspect = 99
	cam.Update(next)
	snap := cam.Snapshot()
	if snap.FovY != 60 {
		t.Errorf("expected fov 60, got %f", snap.FovY)
	}
	if snap.Aspect != 2 {
		t.Errorf("Update should keep the viewport aspect, got %f", snap.Aspect)
	}
}
