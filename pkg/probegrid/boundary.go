package probegrid

import (
	"context"
	"fmt"

	"github.com/df07/go-probegrid/pkg/core"
)

// CullByBoundaryTags removes every probe whose line of sight from origin
// crosses a boundary-tagged surface. With onlyStatic set, non-static surfaces
// are ignored.
func CullByBoundaryTags(ctx context.Context, set *ProbeSet, origin core.Vec3, transform core.Transform,
	tags TagSet, onlyStatic bool, query CollisionQuery, opts ...Option) (CullResult, error) {
	if err := requireSet(set); err != nil {
		return CullResult{Stage: StageBoundary}, err
	}
	if err := requirePort(query != nil, "collision query"); err != nil {
		return CullResult{Stage: StageBoundary, Remaining: set.Count()}, err
	}
	if !origin.IsFinite() {
		return CullResult{Stage: StageBoundary, Remaining: set.Count()},
			fmt.Errorf("%w: boundary origin must be finite, got %v", ErrInvalidArgument, origin)
	}

	o := newOptions(opts)
	return pass(ctx, StageBoundary, set, o, func(i int) bool {
		position := transform.TransformPoint(set.At(i))
		o.segment(origin, position)

		hits := query.RaycastAll(origin, position.Subtract(origin), origin.Distance(position))
		return crossesBoundary(hits, tags, onlyStatic)
	})
}

func crossesBoundary(hits []core.RaycastHit, tags TagSet, onlyStatic bool) bool {
	for _, hit := range hits {
		if !qualifies(hit.Surface, onlyStatic) {
			continue
		}
		if tags.IsBoundary(hit.Surface.Tag) {
			return true
		}
	}
	return false
}

// qualifies applies the static-only filter to a single intersection
func qualifies(surface core.Surface, onlyStatic bool) bool {
	return !onlyStatic || surface.Static
}
