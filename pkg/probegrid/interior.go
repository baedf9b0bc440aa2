package probegrid

import (
	"context"

	"github.com/google/uuid"

	"github.com/df07/go-probegrid/pkg/core"
)

// CullInterior removes probes buried inside solid geometry. Rays are cast
// toward each probe from radius away along up, right, left, forward and back;
// the probe is removed when one solid is crossed by the up ray and by every
// side ray. Down is never tested so probes can escape through open bottoms
// (tree canopies, arches). radius should exceed the size of the objects.
func CullInterior(ctx context.Context, set *ProbeSet, transform core.Transform, radius float64,
	onlyStatic bool, query CollisionQuery, opts ...Option) (CullResult, error) {
	if err := requireSet(set); err != nil {
		return CullResult{Stage: StageInterior}, err
	}
	if err := requirePort(query != nil, "collision query"); err != nil {
		return CullResult{Stage: StageInterior, Remaining: set.Count()}, err
	}
	if err := requireRadius(radius, "interior radius"); err != nil {
		return CullResult{Stage: StageInterior, Remaining: set.Count()}, err
	}

	up := transform.Up()
	right := transform.Right()
	forward := transform.Forward()
	sides := [4]core.Vec3{right, right.Negate(), forward, forward.Negate()}

	o := newOptions(opts)
	return pass(ctx, StageInterior, set, o, func(i int) bool {
		position := transform.TransformPoint(set.At(i))

		above := castToward(query, position, up, radius, onlyStatic, o)
		// Nothing above means no solid can surround the probe
		if len(above) == 0 {
			return false
		}

		for _, side := range sides {
			if !above.intersects(castToward(query, position, side, radius, onlyStatic, o)) {
				return false
			}
		}
		return true
	})
}

// identitySet holds the distinct surfaces crossed by one ray
type identitySet map[uuid.UUID]struct{}

func (s identitySet) intersects(other identitySet) bool {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	for id := range small {
		if _, ok := large[id]; ok {
			return true
		}
	}
	return false
}

// castToward traces from position+direction*radius back to position and
// collects the identities of every qualifying surface on the way
func castToward(query CollisionQuery, position, direction core.Vec3, radius float64, onlyStatic bool, o *options) identitySet {
	from := position.Add(direction.Multiply(radius))
	o.segment(from, position)

	hits := query.RaycastAll(from, direction.Negate(), radius)
	ids := make(identitySet, len(hits))
	for _, hit := range hits {
		if qualifies(hit.Surface, onlyStatic) {
			ids[hit.Surface.ID] = struct{}{}
		}
	}
	return ids
}
