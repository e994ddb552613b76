package aim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/fingershot/internal/detector"
)

// Ray is a half-line in world space. Direction is unit length.
type Ray struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// ScreenPoint maps a normalized landmark position to normalized device
// coordinates: x from [0,1] to [-1,1], y flipped so that up is positive.
// Depth is ignored.
func ScreenPoint(p detector.Point3D) (nx, ny float64) {
	return 2*p.X - 1, 1 - 2*p.Y
}

// ResolveRay returns the world-space ray through the fingertip's screen
// position, starting at the camera.
func ResolveRay(indexTip detector.Point3D, camera CameraConfig) (Ray, error) {
	nx, ny := ScreenPoint(indexTip)
	return Unproject(nx, ny, camera)
}

// Unproject casts a ray from the camera through the device coordinate
// (nx, ny).
func Unproject(nx, ny float64, camera CameraConfig) (Ray, error) {
	if !finite(nx) || !finite(ny) {
		return Ray{}, fmt.Errorf("unproject: non-finite screen point (%v, %v)", nx, ny)
	}
	if err := camera.Validate(); err != nil {
		return Ray{}, err
	}

	// A 1x1 viewport at the origin makes window coordinates (n+1)/2.
	win := mgl64.Vec3{(nx + 1) / 2, (ny + 1) / 2, 0.5}
	through, err := mgl64.UnProject(win, camera.View(), camera.Projection(), 0, 0, 1, 1)
	if err != nil {
		return Ray{}, fmt.Errorf("%w: %v", ErrDegenerateCamera, err)
	}

	dir := through.Sub(camera.Position)
	if !finiteVec(dir) || dir.Len() < 1e-12 {
		return Ray{}, fmt.Errorf("%w: unprojected point coincides with camera", ErrDegenerateCamera)
	}

	return Ray{Origin: camera.Position, Direction: dir.Normalize()}, nil
}

// Project maps a world point to device coordinates. ok is false when the
// point is behind the camera or the camera is degenerate.
func Project(point mgl64.Vec3, camera CameraConfig) (nx, ny float64, ok bool) {
	if camera.Validate() != nil {
		return 0, 0, false
	}

	clip := camera.Projection().Mul4(camera.View()).Mul4x1(point.Vec4(1))
	if clip[3] <= 0 {
		return 0, 0, false
	}
	return clip[0] / clip[3], clip[1] / clip[3], true
}
