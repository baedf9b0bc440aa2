package probegrid

import (
	"context"

	"github.com/df07/go-probegrid/pkg/core"
)

// CullByProximity removes probes with no geometry within radius along any of
// the six axis directions of the transform. Each direction is cast both ways,
// outward from the probe and back toward it, so single-sided surfaces are
// found whichever way they face.
func CullByProximity(ctx context.Context, set *ProbeSet, transform core.Transform, radius float64,
	onlyStatic bool, query CollisionQuery, opts ...Option) (CullResult, error) {
	if err := requireSet(set); err != nil {
		return CullResult{Stage: StageProximity}, err
	}
	if err := requirePort(query != nil, "collision query"); err != nil {
		return CullResult{Stage: StageProximity, Remaining: set.Count()}, err
	}
	if err := requireRadius(radius, "proximity radius"); err != nil {
		return CullResult{Stage: StageProximity, Remaining: set.Count()}, err
	}

	up := transform.Up()
	right := transform.Right()
	forward := transform.Forward()
	directions := [6]core.Vec3{up, up.Negate(), right, right.Negate(), forward, forward.Negate()}

	o := newOptions(opts)
	return pass(ctx, StageProximity, set, o, func(i int) bool {
		position := transform.TransformPoint(set.At(i))

		for _, direction := range directions {
			target := position.Add(direction.Multiply(radius))
			o.segment(position, target)

			if anyQualifying(query.RaycastAll(position, direction, radius), onlyStatic) ||
				anyQualifying(query.RaycastAll(target, direction.Negate(), radius), onlyStatic) {
				return false
			}
		}
		return true
	})
}

func anyQualifying(hits []core.RaycastHit, onlyStatic bool) bool {
	for _, hit := range hits {
		if qualifies(hit.Surface, onlyStatic) {
			return true
		}
	}
	return false
}
