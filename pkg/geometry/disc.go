package geometry

import (
	"math"

	"github.com/df07/go-probegrid/pkg/core"
)

// Disc represents a single-sided circular disc. Only rays travelling against
// the normal hit it.
type Disc struct {
	Center core.Vec3 // Center of the disc
	Normal core.Vec3 // Unit normal of the front face
	Radius float64   // Radius of the disc
}

// NewDisc creates a new disc
func NewDisc(center, normal core.Vec3, radius float64) *Disc {
	return &Disc{
		Center: center,
		Normal: normal.Normalize(),
		Radius: radius,
	}
}

// Hit tests if a ray crosses the front of the disc
func (d *Disc) Hit(ray core.Ray, tMin, tMax float64) (*HitRecord, bool) {
	denom := d.Normal.Dot(ray.Direction)
	if denom > -1e-12 {
		return nil, false
	}

	t := d.Normal.Dot(d.Center.Subtract(ray.Origin)) / denom
	if t < tMin || t > tMax {
		return nil, false
	}

	hitPoint := ray.At(t)
	if hitPoint.Subtract(d.Center).LengthSquared() > d.Radius*d.Radius {
		return nil, false
	}

	hit := &HitRecord{T: t, Point: hitPoint}
	hit.SetFaceNormal(ray, d.Normal)
	return hit, true
}

// BoundingBox returns the tight bounds of the disc's rim
func (d *Disc) BoundingBox() core.AABB {
	// Extent along each axis of a circle with normal n is r * sqrt(1 - n_i²)
	extent := func(n float64) float64 {
		return d.Radius * math.Sqrt(math.Max(0, 1-n*n))
	}
	half := core.NewVec3(extent(d.Normal.X), extent(d.Normal.Y), extent(d.Normal.Z))
	return core.NewAABB(d.Center.Subtract(half), d.Center.Add(half)).Expand(flatPadding)
}
