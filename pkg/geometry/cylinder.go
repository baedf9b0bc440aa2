package geometry

import (
	"math"

	"github.com/df07/go-probegrid/pkg/core"
)

// Cylinder represents a solid capped cylinder. Like the other solids it only
// reports the surface a ray enters through.
type Cylinder struct {
	BaseCenter core.Vec3
	TopCenter  core.Vec3
	Radius     float64

	// Cached derived values
	axis   core.Vec3 // Unit vector from base to top
	height float64   // Distance between base and top
}

// NewCylinder creates a new cylinder
func NewCylinder(baseCenter, topCenter core.Vec3, radius float64) *Cylinder {
	axisVector := topCenter.Subtract(baseCenter)
	return &Cylinder{
		BaseCenter: baseCenter,
		TopCenter:  topCenter,
		Radius:     radius,
		axis:       axisVector.Normalize(),
		height:     axisVector.Length(),
	}
}

// BoundingBox returns the bounds of the two cap discs
func (c *Cylinder) BoundingBox() core.AABB {
	extent := func(n float64) float64 {
		return c.Radius * math.Sqrt(math.Max(0, 1-n*n))
	}
	half := core.NewVec3(extent(c.axis.X), extent(c.axis.Y), extent(c.axis.Z))
	return core.NewAABBFromPoints(
		c.BaseCenter.Subtract(half), c.BaseCenter.Add(half),
		c.TopCenter.Subtract(half), c.TopCenter.Add(half),
	)
}

// Contains reports whether a point lies strictly inside the cylinder
func (c *Cylinder) Contains(p core.Vec3) bool {
	delta := p.Subtract(c.BaseCenter)
	h := delta.Dot(c.axis)
	if h <= 0 || h >= c.height {
		return false
	}
	radial := delta.Subtract(c.axis.Multiply(h))
	return radial.LengthSquared() < c.Radius*c.Radius
}

// Hit reports where a ray enters the cylinder through its side or a cap
func (c *Cylinder) Hit(ray core.Ray, tMin, tMax float64) (*HitRecord, bool) {
	if c.Contains(ray.Origin) {
		return nil, false
	}

	var closest *HitRecord
	consider := func(t float64, outwardNormal core.Vec3) {
		if t < tMin || t > tMax || (closest != nil && t >= closest.T) {
			return
		}
		hit := &HitRecord{T: t, Point: ray.At(t)}
		hit.SetFaceNormal(ray, outwardNormal)
		closest = hit
	}

	// Side: |(Δ + tD) - ((Δ + tD)·V̂)V̂|² = r², entry is the smaller root
	delta := ray.Origin.Subtract(c.BaseCenter)
	dv := ray.Direction.Dot(c.axis)
	deltaV := delta.Dot(c.axis)
	a := ray.Direction.LengthSquared() - dv*dv
	b := 2.0 * (delta.Dot(ray.Direction) - deltaV*dv)
	cc := delta.LengthSquared() - deltaV*deltaV - c.Radius*c.Radius

	if math.Abs(a) > 1e-12 {
		discriminant := b*b - 4*a*cc
		if discriminant >= 0 {
			t := (-b - math.Sqrt(discriminant)) / (2 * a)
			point := ray.At(t)
			h := point.Subtract(c.BaseCenter).Dot(c.axis)
			if h >= 0 && h <= c.height {
				axisPoint := c.BaseCenter.Add(c.axis.Multiply(h))
				consider(t, point.Subtract(axisPoint).Normalize())
			}
		}
	}

	// Caps are entered only when travelling against their outward normal
	for _, lid := range []struct {
		center core.Vec3
		normal core.Vec3
	}{
		{c.BaseCenter, c.axis.Negate()},
		{c.TopCenter, c.axis},
	} {
		denom := ray.Direction.Dot(lid.normal)
		if denom > -1e-12 {
			continue
		}
		t := lid.center.Subtract(ray.Origin).Dot(lid.normal) / denom
		if ray.At(t).Subtract(lid.center).LengthSquared() <= c.Radius*c.Radius {
			consider(t, lid.normal)
		}
	}

	if closest == nil {
		return nil, false
	}
	return closest, true
}
