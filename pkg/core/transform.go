package core

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Transform is an affine position/rotation/scale mapping from a volume's
// normalized local space to world space. Values are immutable; every method
// returns a new value.
type Transform struct {
	Position Vec3
	Rotation mgl64.Quat
	Scale    Vec3
}

// IdentityTransform returns a transform that maps local space onto itself
func IdentityTransform() Transform {
	return Transform{
		Rotation: mgl64.QuatIdent(),
		Scale:    NewVec3(1, 1, 1),
	}
}

// NewTransform builds a transform from a position, Euler angles in degrees and a scale.
// Angles are applied Z first, then X, then Y (the order most scene editors use).
func NewTransform(position, eulerDegrees, scale Vec3) Transform {
	return Transform{
		Position: position,
		Rotation: EulerToQuat(eulerDegrees),
		Scale:    scale,
	}
}

// EulerToQuat converts Euler angles in degrees to a rotation quaternion
func EulerToQuat(eulerDegrees Vec3) mgl64.Quat {
	return mgl64.AnglesToQuat(
		mgl64.DegToRad(eulerDegrees.Y),
		mgl64.DegToRad(eulerDegrees.X),
		mgl64.DegToRad(eulerDegrees.Z),
		mgl64.YXZ,
	).Normalize()
}

// Matrix returns the local-to-world matrix (translate * rotate * scale)
func (t Transform) Matrix() mgl64.Mat4 {
	translate := mgl64.Translate3D(t.Position.X, t.Position.Y, t.Position.Z)
	scale := mgl64.Scale3D(t.Scale.X, t.Scale.Y, t.Scale.Z)
	return translate.Mul4(t.rotation().Mat4()).Mul4(scale)
}

// TransformPoint maps a local position to world space
func (t Transform) TransformPoint(local Vec3) Vec3 {
	scaled := local.MultiplyVec(t.Scale)
	return fromMgl(t.rotation().Rotate(toMgl(scaled))).Add(t.Position)
}

// TransformDirection rotates a direction into world space, ignoring scale and position
func (t Transform) TransformDirection(direction Vec3) Vec3 {
	return fromMgl(t.rotation().Rotate(toMgl(direction)))
}

// Up returns the world-space unit vector of the local +Y axis
func (t Transform) Up() Vec3 {
	return t.TransformDirection(Up)
}

// Right returns the world-space unit vector of the local +X axis
func (t Transform) Right() Vec3 {
	return t.TransformDirection(Right)
}

// Forward returns the world-space unit vector of the local +Z axis
func (t Transform) Forward() Vec3 {
	return t.TransformDirection(Forward)
}

// WorldBounds returns the world AABB of the transformed unit cube [-0.5, 0.5]^3
func (t Transform) WorldBounds() AABB {
	corners := make([]Vec3, 0, 8)
	for _, x := range []float64{-0.5, 0.5} {
		for _, y := range []float64{-0.5, 0.5} {
			for _, z := range []float64{-0.5, 0.5} {
				corners = append(corners, t.TransformPoint(NewVec3(x, y, z)))
			}
		}
	}
	return NewAABBFromPoints(corners...)
}

// rotation treats the zero quaternion as identity so zero-value transforms stay usable
func (t Transform) rotation() mgl64.Quat {
	if t.Rotation.W == 0 && t.Rotation.V == (mgl64.Vec3{}) {
		return mgl64.QuatIdent()
	}
	return t.Rotation
}

func toMgl(v Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

func fromMgl(v mgl64.Vec3) Vec3 {
	return Vec3{X: v[0], Y: v[1], Z: v[2]}
}
