package physics

import (
	"math"
	"sort"

	"github.com/df07/go-probegrid/pkg/core"
)

// World is a frozen snapshot of scene colliders answering ray queries.
// It is safe for concurrent use once built.
type World struct {
	colliders []*Collider
	bvh       *BVH
}

// NewWorld builds the acceleration structure for the given colliders
func NewWorld(colliders ...*Collider) *World {
	return &World{
		colliders: append([]*Collider(nil), colliders...),
		bvh:       NewBVH(colliders),
	}
}

// Colliders returns the colliders the world was built from
func (w *World) Colliders() []*Collider {
	return w.colliders
}

// Bounds returns the AABB enclosing every collider (zero value for an empty world)
func (w *World) Bounds() core.AABB {
	if w.bvh.Root == nil {
		return core.AABB{}
	}
	return w.bvh.Root.BoundingBox
}

// RaycastAll returns every collider the ray enters within maxDistance, nearest first.
// The direction does not need to be normalized. Degenerate rays hit nothing.
func (w *World) RaycastAll(origin, direction core.Vec3, maxDistance float64) []core.RaycastHit {
	length := direction.Length()
	if length == 0 || maxDistance <= 0 || math.IsNaN(maxDistance) || !origin.IsFinite() {
		return nil
	}

	ray := core.NewRay(origin, direction.Multiply(1.0/length))
	found := w.bvh.HitAll(ray, 0, maxDistance, nil)
	if len(found) == 0 {
		return nil
	}

	hits := make([]core.RaycastHit, len(found))
	for i, h := range found {
		hits[i] = core.RaycastHit{
			Distance: h.t,
			Point:    h.point,
			Normal:   h.normal,
			Surface:  h.collider.Surface,
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	return hits
}

// Linecast reports whether anything blocks the segment from start to end
func (w *World) Linecast(start, end core.Vec3) bool {
	return len(w.RaycastAll(start, end.Subtract(start), start.Distance(end))) > 0
}
