package geometry

import (
	"github.com/df07/go-probegrid/pkg/core"
)

// planeExtent bounds an infinite plane for the BVH
const planeExtent = 1e6

// Plane represents a single-sided infinite plane defined by a point and normal.
// Rays travelling with the normal pass through it.
type Plane struct {
	Point  core.Vec3 // A point on the plane
	Normal core.Vec3 // Unit normal of the solid side's surface
}

// NewPlane creates a new plane
func NewPlane(point, normal core.Vec3) *Plane {
	return &Plane{
		Point:  point,
		Normal: normal.Normalize(),
	}
}

// Hit tests if a ray crosses the plane from its front side
func (p *Plane) Hit(ray core.Ray, tMin, tMax float64) (*HitRecord, bool) {
	denominator := ray.Direction.Dot(p.Normal)

	// Parallel rays and rays arriving from behind do not register
	if denominator > -1e-12 {
		return nil, false
	}

	t := p.Point.Subtract(ray.Origin).Dot(p.Normal) / denominator
	if t < tMin || t > tMax {
		return nil, false
	}

	hit := &HitRecord{T: t, Point: ray.At(t)}
	hit.SetFaceNormal(ray, p.Normal)
	return hit, true
}

// BoundingBox returns a bounding box for this plane. Axis-aligned planes get a
// thin box so the BVH can still split around them.
func (p *Plane) BoundingBox() core.AABB {
	lo := core.NewVec3(-planeExtent, -planeExtent, -planeExtent)
	hi := core.NewVec3(planeExtent, planeExtent, planeExtent)

	switch getAxisAlignment(p.Normal) {
	case XAxisAligned:
		lo.X, hi.X = p.Point.X-flatPadding, p.Point.X+flatPadding
	case YAxisAligned:
		lo.Y, hi.Y = p.Point.Y-flatPadding, p.Point.Y+flatPadding
	case ZAxisAligned:
		lo.Z, hi.Z = p.Point.Z-flatPadding, p.Point.Z+flatPadding
	}
	return core.NewAABB(lo, hi)
}

// AxisAlignment describes which coordinate axis a normal lies along
type AxisAlignment int

const (
	NotAxisAligned AxisAlignment = iota
	XAxisAligned
	YAxisAligned
	ZAxisAligned
)

// getAxisAlignment reports the axis a unit normal lies along, if any
func getAxisAlignment(normal core.Vec3) AxisAlignment {
	const threshold = 0.9999
	switch {
	case normal.X > threshold || normal.X < -threshold:
		return XAxisAligned
	case normal.Y > threshold || normal.Y < -threshold:
		return YAxisAligned
	case normal.Z > threshold || normal.Z < -threshold:
		return ZAxisAligned
	default:
		return NotAxisAligned
	}
}
