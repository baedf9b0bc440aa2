package lightfield

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-probegrid/pkg/core"
)

// ErrInvalidGrid is returned for bake requests with unusable bounds or resolution
var ErrInvalidGrid = errors.New("invalid bake grid")

// SimpleResolution is the per-axis resolution of a quick preview bake
const SimpleResolution = 2

// Source is anything that can be projected at a position, usually a *Field
type Source interface {
	Project(position core.Vec3) SH9
}

// Baked is lighting precomputed on a regular grid over an AABB. Positions are
// clamped to the bounds and blended trilinearly between grid samples.
type Baked struct {
	bounds     core.AABB
	resolution int
	cells      []SH9
}

// Bake samples source on a resolution^3 grid spanning bounds
func Bake(ctx context.Context, source Source, bounds core.AABB, resolution int) (*Baked, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: no light source", ErrInvalidGrid)
	}
	if resolution < 2 {
		return nil, fmt.Errorf("%w: resolution must be >= 2, got %d", ErrInvalidGrid, resolution)
	}
	if !bounds.IsValid() || !bounds.Min.IsFinite() || !bounds.Max.IsFinite() {
		return nil, fmt.Errorf("%w: bounds %v..%v", ErrInvalidGrid, bounds.Min, bounds.Max)
	}

	b := &Baked{
		bounds:     bounds,
		resolution: resolution,
		cells:      make([]SH9, resolution*resolution*resolution),
	}
	size := bounds.Size()
	step := 1.0 / float64(resolution-1)

	for x := 0; x < resolution; x++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for y := 0; y < resolution; y++ {
			for z := 0; z < resolution; z++ {
				position := bounds.Min.Add(size.MultiplyVec(core.NewVec3(
					float64(x)*step, float64(y)*step, float64(z)*step,
				)))
				b.cells[b.index(x, y, z)] = source.Project(position)
			}
		}
	}
	return b, nil
}

// SimpleBake is Bake at SimpleResolution
func SimpleBake(ctx context.Context, source Source, bounds core.AABB) (*Baked, error) {
	return Bake(ctx, source, bounds, SimpleResolution)
}

// Bounds returns the baked region
func (b *Baked) Bounds() core.AABB {
	return b.bounds
}

// Resolution returns the number of samples per axis
func (b *Baked) Resolution() int {
	return b.resolution
}

// Project returns the interpolated expansion at position. Non-finite
// positions read as darkness.
func (b *Baked) Project(position core.Vec3) SH9 {
	if !position.IsFinite() {
		return SH9{}
	}
	p := b.bounds.ClampPoint(position)
	size := b.bounds.Size()

	var cell [3]int
	var frac [3]float64
	for axis := 0; axis < 3; axis++ {
		extent := size.Component(axis)
		if extent <= 0 {
			continue
		}
		u := (p.Component(axis) - b.bounds.Min.Component(axis)) / extent * float64(b.resolution-1)
		i := min(int(math.Floor(u)), b.resolution-2)
		cell[axis] = i
		frac[axis] = u - float64(i)
	}

	var out SH9
	for corner := 0; corner < 8; corner++ {
		weight := 1.0
		var idx [3]int
		for axis := 0; axis < 3; axis++ {
			if corner&(1<<axis) != 0 {
				idx[axis] = cell[axis] + 1
				weight *= frac[axis]
			} else {
				idx[axis] = cell[axis]
				weight *= 1 - frac[axis]
			}
		}
		if weight == 0 {
			continue
		}
		out = out.Add(b.cells[b.index(idx[0], idx[1], idx[2])].Scale(weight))
	}
	return out
}

// SampleDirections implements the probe culling light field
func (b *Baked) SampleDirections(position core.Vec3, directions []core.Vec3) []core.Vec3 {
	sh := b.Project(position)
	return evaluateAll(&sh, directions)
}

func (b *Baked) index(x, y, z int) int {
	return (x*b.resolution+y)*b.resolution + z
}
