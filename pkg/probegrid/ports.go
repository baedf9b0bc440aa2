package probegrid

import "github.com/df07/go-probegrid/pkg/core"

// CollisionQuery answers ray queries against a frozen snapshot of scene
// geometry. Implementations return every surface the ray enters within
// maxDistance, nearest first; the direction need not be normalized.
type CollisionQuery interface {
	RaycastAll(origin, direction core.Vec3, maxDistance float64) []core.RaycastHit
}

// LightField samples baked lighting. It returns one RGB value per direction.
type LightField interface {
	SampleDirections(position core.Vec3, directions []core.Vec3) []core.Vec3
}
