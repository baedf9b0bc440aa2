package geometry

import (
	"math"

	"github.com/df07/go-probegrid/pkg/core"
)

// Quad represents a single-sided rectangle defined by a corner and two edge vectors.
// Only rays travelling against the normal (U × V) hit it.
type Quad struct {
	Corner core.Vec3 // One corner of the quad
	U      core.Vec3 // First edge vector
	V      core.Vec3 // Second edge vector
	Normal core.Vec3 // Normal vector (computed from U × V)
	D      float64   // Plane equation constant: ax + by + cz = d
	W      core.Vec3 // Cached vector for barycentric coordinates
	bbox   core.AABB
}

// NewQuad creates a new quad from a corner point and two edge vectors
func NewQuad(corner, u, v core.Vec3) *Quad {
	cross := u.Cross(v)
	normal := cross.Normalize()

	q := &Quad{
		Corner: corner,
		U:      u,
		V:      v,
		Normal: normal,
		D:      normal.Dot(corner),
		W:      cross.Multiply(1.0 / cross.Dot(cross)),
	}
	q.bbox = core.NewAABBFromPoints(
		corner,
		corner.Add(u),
		corner.Add(v),
		corner.Add(u).Add(v),
	).Expand(flatPadding)
	return q
}

// Hit tests if a ray crosses the front side of the quad
func (q *Quad) Hit(ray core.Ray, tMin, tMax float64) (*HitRecord, bool) {
	denominator := ray.Direction.Dot(q.Normal)

	// Parallel rays and rays arriving from behind do not register
	if denominator > -1e-12 {
		return nil, false
	}

	t := (q.D - ray.Origin.Dot(q.Normal)) / denominator
	if t < tMin || t > tMax {
		return nil, false
	}

	hitPoint := ray.At(t)
	planar := hitPoint.Subtract(q.Corner)
	alpha := q.W.Dot(planar.Cross(q.V))
	beta := q.W.Dot(q.U.Cross(planar))
	if alpha < 0 || alpha > 1 || beta < 0 || beta > 1 || math.IsNaN(alpha) || math.IsNaN(beta) {
		return nil, false
	}

	hit := &HitRecord{T: t, Point: hitPoint}
	hit.SetFaceNormal(ray, q.Normal)
	return hit, true
}

// BoundingBox returns the axis-aligned bounding box for this quad
func (q *Quad) BoundingBox() core.AABB {
	return q.bbox
}

// Flip returns the same rectangle facing the other way
func (q *Quad) Flip() *Quad {
	return NewQuad(q.Corner, q.V, q.U)
}
