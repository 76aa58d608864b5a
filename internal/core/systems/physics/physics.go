package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Math types are mathgl's float64 flavour. Aliases keep call sites short and
// let mgl64 helpers apply directly.
type (
	Vec3 = mgl64.Vec3
	Quat = mgl64.Quat
)

// Axis constants in the left-handed, Y-up convention of the tracking space.
var (
	Zero    = Vec3{0, 0, 0}
	Right   = Vec3{1, 0, 0}
	Left    = Vec3{-1, 0, 0}
	Up      = Vec3{0, 1, 0}
	Forward = Vec3{0, 0, 1}
)

// angleEpsilon is the smallest half-angle sine treated as a real rotation axis.
const angleEpsilon = 1e-9

// Pose is a rigid transform without scale.
type Pose struct {
	Position Vec3
	Rotation Quat
}

// IdentityPose is the pose at the origin with no rotation.
func IdentityPose() Pose {
	return Pose{Rotation: mgl64.QuatIdent()}
}

// Mul composes p with a child pose expressed in p's local frame.
func (p Pose) Mul(child Pose) Pose {
	return Pose{
		Position: p.Position.Add(p.Rotation.Rotate(child.Position)),
		Rotation: p.Rotation.Mul(child.Rotation).Normalize(),
	}
}

// Inverse returns the pose that undoes p.
func (p Pose) Inverse() Pose {
	inv := p.Rotation.Inverse()
	return Pose{
		Position: inv.Rotate(p.Position.Mul(-1)),
		Rotation: inv,
	}
}

// TransformPoint maps a local point into the frame described by p.
func (p Pose) TransformPoint(v Vec3) Vec3 {
	return p.Position.Add(p.Rotation.Rotate(v))
}

// TransformDirection rotates a local direction into the frame described by p.
func (p Pose) TransformDirection(v Vec3) Vec3 {
	return p.Rotation.Rotate(v)
}

// Distance is the Euclidean distance between two points.
func Distance(a, b Vec3) float64 {
	return b.Sub(a).Len()
}

// ToAngleAxis decomposes q into a rotation angle in radians in [0, π] and a
// unit axis. A rotation with no meaningful axis reports angle 0 around +X.
func ToAngleAxis(q Quat) (float64, Vec3) {
	q = q.Normalize()
	if q.W < 0 {
		// q and -q are the same rotation; pick the shortest arc.
		q = Quat{W: -q.W, V: q.V.Mul(-1)}
	}
	w := mgl64.Clamp(q.W, -1, 1)
	angle := 2 * math.Acos(w)
	s := math.Sqrt(1 - w*w)
	if s < angleEpsilon {
		return 0, Right
	}
	return angle, q.V.Mul(1 / s)
}

// Project returns the component of v along onto.
func Project(v, onto Vec3) Vec3 {
	sq := onto.Dot(onto)
	if sq < angleEpsilon {
		return Zero
	}
	return onto.Mul(v.Dot(onto) / sq)
}

// ProjectOnPlane removes the component of v along the plane normal.
func ProjectOnPlane(v, normal Vec3) Vec3 {
	return v.Sub(Project(v, normal))
}

// Lerp interpolates between a and b; t is not clamped.
func Lerp(a, b Vec3, t float64) Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// Clamp01 clamps a scalar to [0, 1].
func Clamp01(v float64) float64 {
	return mgl64.Clamp(v, 0, 1)
}

// Ray is a half-line from Origin along a unit Direction.
type Ray struct {
	Origin    Vec3
	Direction Vec3
}

// At returns the point at distance d along the ray.
func (r Ray) At(d float64) Vec3 {
	return r.Origin.Add(r.Direction.Mul(d))
}

// Rigidbody carries the dynamic state a throw hands over to the host physics.
type Rigidbody struct {
	Velocity        Vec3
	AngularVelocity Vec3
	Kinematic       bool
	Interpolate     bool
}

// Speed is the magnitude of the linear velocity.
func (rb *Rigidbody) Speed() float64 {
	return rb.Velocity.Len()
}
