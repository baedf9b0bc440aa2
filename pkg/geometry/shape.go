package geometry

import "github.com/df07/go-probegrid/pkg/core"

// HitRecord contains information about a ray-surface intersection
type HitRecord struct {
	Point     core.Vec3 // Point of intersection
	Normal    core.Vec3 // Surface normal, facing against the ray
	T         float64   // Parameter t along the ray
	FrontFace bool      // Whether the ray hit the outward side
}

// SetFaceNormal sets the normal vector and determines front/back face
func (h *HitRecord) SetFaceNormal(ray core.Ray, outwardNormal core.Vec3) {
	h.FrontFace = ray.Direction.Dot(outwardNormal) < 0
	if h.FrontFace {
		h.Normal = outwardNormal
	} else {
		h.Normal = outwardNormal.Negate()
	}
}

// Shape is collision geometry. Hit reports the nearest intersection the way a
// physics engine does: solids only report the surface a ray enters through
// (a ray that starts inside a solid does not hit it) and open surfaces are
// single-sided.
type Shape interface {
	Hit(ray core.Ray, tMin, tMax float64) (*HitRecord, bool)
	BoundingBox() core.AABB
}

// flatPadding keeps bounding boxes of planar shapes from being culled by
// round-off in the slab test
const flatPadding = 1e-9
