// Package probegrid generates light probe lattices and culls them with
// geometric and lighting tests.
//
// Lattice points live in the normalized local space of their volume, the
// centered unit cube [-0.5, 0.5]^3. A core.Transform maps them to world space.
package probegrid

import (
	"fmt"
	"math"

	"github.com/df07/go-probegrid/pkg/core"
)

// MinAxisCount is the smallest number of samples an axis can have
const MinAxisCount = 2

// LatticeSpec is the number of samples along each local axis
type LatticeSpec struct {
	CountX int `yaml:"x" json:"x"`
	CountY int `yaml:"y" json:"y"`
	CountZ int `yaml:"z" json:"z"`
}

// Validate checks that every axis has at least two samples
func (s LatticeSpec) Validate() error {
	if s.CountX < MinAxisCount || s.CountY < MinAxisCount || s.CountZ < MinAxisCount {
		return fmt.Errorf("%w: lattice counts must be >= %d, got %dx%dx%d",
			ErrInvalidArgument, MinAxisCount, s.CountX, s.CountY, s.CountZ)
	}
	return nil
}

// Clamped raises any axis count below two to two
func (s LatticeSpec) Clamped() LatticeSpec {
	return LatticeSpec{
		CountX: max(s.CountX, MinAxisCount),
		CountY: max(s.CountY, MinAxisCount),
		CountZ: max(s.CountZ, MinAxisCount),
	}
}

// Planned returns the number of points Generate will produce
func (s LatticeSpec) Planned() int {
	return s.CountX * s.CountY * s.CountZ
}

// Step returns the spacing between neighbouring samples on each axis
func (s LatticeSpec) Step() core.Vec3 {
	return core.NewVec3(
		1.0/float64(s.CountX-1),
		1.0/float64(s.CountY-1),
		1.0/float64(s.CountZ-1),
	)
}

// Generate lays out CountX*CountY*CountZ points evenly across [-0.5, 0.5] on
// each axis, X outermost and Z innermost.
func Generate(spec LatticeSpec) (*ProbeSet, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	points := make([]core.Vec3, 0, spec.Planned())
	for x := 0; x < spec.CountX; x++ {
		for y := 0; y < spec.CountY; y++ {
			for z := 0; z < spec.CountZ; z++ {
				points = append(points, core.NewVec3(
					axisCoordinate(x, spec.CountX),
					axisCoordinate(y, spec.CountY),
					axisCoordinate(z, spec.CountZ),
				))
			}
		}
	}

	return &ProbeSet{points: points}, nil
}

// axisCoordinate divides rather than accumulates so both ends land exactly on ±0.5
func axisCoordinate(i, count int) float64 {
	return float64(i)/float64(count-1) - 0.5
}

// latticeKey addresses a lattice cell by integer coordinates
type latticeKey struct {
	x, y, z int
}

// keyFor snaps a local position to the nearest lattice cell of spec
func keyFor(p core.Vec3, spec LatticeSpec) latticeKey {
	return latticeKey{
		x: axisIndex(p.X, spec.CountX),
		y: axisIndex(p.Y, spec.CountY),
		z: axisIndex(p.Z, spec.CountZ),
	}
}

func axisIndex(coordinate float64, count int) int {
	return int(math.Round((coordinate + 0.5) * float64(count-1)))
}

func (k latticeKey) offset(dx, dy, dz int) latticeKey {
	return latticeKey{x: k.x + dx, y: k.y + dy, z: k.z + dz}
}
