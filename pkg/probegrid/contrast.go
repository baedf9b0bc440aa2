package probegrid

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/df07/go-probegrid/pkg/core"
)

// StageSampling reports progress while the light field is being sampled
const StageSampling Stage = "sampling"

// sampleDirections are the world directions each probe is evaluated in
var sampleDirections = []core.Vec3{core.Up, core.Down, core.Left, core.Right, core.Forward, core.Back}

// channelsPerProbe is 6 directions x RGB
const channelsPerProbe = 18

// latticeNeighbours are the six one-step offsets in lattice coordinates
var latticeNeighbours = [6][3]int{
	{0, 1, 0}, {0, -1, 0},
	{1, 0, 0}, {-1, 0, 0},
	{0, 0, 1}, {0, 0, -1},
}

// CullByContrast removes probes whose lighting is indistinguishable from every
// lattice neighbour. A probe survives when, for at least one neighbour present
// in the set, some colour channel in some of the six sampled directions differs
// by more than threshold. Probes without any neighbour are removed.
//
// spec must be the lattice the set was generated from; neighbours are found by
// snapping positions to its cells. Every probe is sampled once up front, so a
// neighbour culled earlier in this same pass still takes part in comparisons.
func CullByContrast(ctx context.Context, set *ProbeSet, transform core.Transform, spec LatticeSpec,
	threshold float64, field LightField, opts ...Option) (CullResult, error) {
	if err := requireSet(set); err != nil {
		return CullResult{Stage: StageContrast}, err
	}
	if err := requirePort(field != nil, "light field"); err != nil {
		return CullResult{Stage: StageContrast, Remaining: set.Count()}, err
	}
	if err := spec.Validate(); err != nil {
		return CullResult{Stage: StageContrast, Remaining: set.Count()}, err
	}
	if math.IsNaN(threshold) || threshold < 0 {
		return CullResult{Stage: StageContrast, Remaining: set.Count()},
			fmt.Errorf("%w: contrast threshold must be >= 0, got %v", ErrInvalidArgument, threshold)
	}

	o := newOptions(opts)
	total := set.Count()
	if total == 0 {
		return CullResult{Stage: StageContrast}, nil
	}

	points := set.ToArray()
	world := make([]core.Vec3, total)
	samples := make([][]float64, total)
	index := make(map[latticeKey]int, total)
	for i, p := range points {
		if err := ctx.Err(); err != nil {
			return CullResult{Stage: StageContrast, Remaining: total}, err
		}

		world[i] = transform.TransformPoint(p)
		samples[i] = flattenSamples(field.SampleDirections(world[i], sampleDirections))
		if key := keyFor(p, spec); !containsKey(index, key) {
			index[key] = i
		}
		o.report(StageSampling, i+1, total)
	}

	// points[i] is still at index i when pass reaches it, see ProbeSet
	return pass(ctx, StageContrast, set, o, func(i int) bool {
		key := keyFor(points[i], spec)
		for _, n := range latticeNeighbours {
			j, ok := index[key.offset(n[0], n[1], n[2])]
			if !ok || j == i {
				continue
			}
			o.segment(world[i], world[j])
			if floats.Distance(samples[i], samples[j], math.Inf(1)) > threshold {
				return false
			}
		}
		return true
	})
}

func containsKey(index map[latticeKey]int, key latticeKey) bool {
	_, ok := index[key]
	return ok
}

// flattenSamples lays out RGB per direction; missing directions read as black
func flattenSamples(colors []core.Vec3) []float64 {
	out := make([]float64, channelsPerProbe)
	for d := 0; d < len(sampleDirections) && d < len(colors); d++ {
		out[d*3] = colors[d].X
		out[d*3+1] = colors[d].Y
		out[d*3+2] = colors[d].Z
	}
	return out
}
