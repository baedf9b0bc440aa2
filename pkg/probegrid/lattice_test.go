package probegrid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-probegrid/pkg/core"
)

func TestGenerate_Order(t *testing.T) {
	set, err := Generate(LatticeSpec{CountX: 3, CountY: 3, CountZ: 3})
	require.NoError(t, err)
	require.Equal(t, 27, set.Count())

	tests := []struct {
		index    int
		expected core.Vec3
	}{
		{0, core.NewVec3(-0.5, -0.5, -0.5)},
		{1, core.NewVec3(-0.5, -0.5, 0)}, // Z innermost
		{3, core.NewVec3(-0.5, 0, -0.5)}, // then Y
		{9, core.NewVec3(0, -0.5, -0.5)}, // X outermost
		{13, core.NewVec3(0, 0, 0)},
		{26, core.NewVec3(0.5, 0.5, 0.5)},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, set.At(tt.index), "index %d", tt.index)
	}
}

func TestGenerate_EndpointsAreExact(t *testing.T) {
	set, err := Generate(LatticeSpec{CountX: 7, CountY: 11, CountZ: 13})
	require.NoError(t, err)
	require.Equal(t, 7*11*13, set.Count())

	for _, p := range set.ToArray() {
		for axis := 0; axis < 3; axis++ {
			c := p.Component(axis)
			if c < -0.5 || c > 0.5 {
				t.Fatalf("Point %v outside the normalized cube", p)
			}
		}
	}
	assert.Equal(t, core.NewVec3(0.5, 0.5, 0.5), set.At(set.Count()-1))
}

func TestGenerate_InvalidSpec(t *testing.T) {
	tests := []struct {
		name string
		spec LatticeSpec
	}{
		{"zero", LatticeSpec{}},
		{"one on x", LatticeSpec{CountX: 1, CountY: 2, CountZ: 2}},
		{"one on y", LatticeSpec{CountX: 2, CountY: 1, CountZ: 2}},
		{"negative z", LatticeSpec{CountX: 2, CountY: 2, CountZ: -4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := Generate(tt.spec)
			assert.ErrorIs(t, err, ErrInvalidArgument)
			assert.Nil(t, set)
		})
	}
}

func TestLatticeSpec_Helpers(t *testing.T) {
	spec := LatticeSpec{CountX: 0, CountY: 5, CountZ: 1}.Clamped()
	assert.Equal(t, LatticeSpec{CountX: 2, CountY: 5, CountZ: 2}, spec)
	assert.NoError(t, spec.Validate())
	assert.Equal(t, 20, spec.Planned())
	assert.Equal(t, core.NewVec3(1, 0.25, 1), spec.Step())
}

func TestKeyFor_RoundTripsLatticePoints(t *testing.T) {
	spec := LatticeSpec{CountX: 4, CountY: 3, CountZ: 6}
	set, err := Generate(spec)
	require.NoError(t, err)

	i := 0
	for x := 0; x < spec.CountX; x++ {
		for y := 0; y < spec.CountY; y++ {
			for z := 0; z < spec.CountZ; z++ {
				assert.Equal(t, latticeKey{x, y, z}, keyFor(set.At(i), spec))
				i++
			}
		}
	}
}

func TestGenerate_Properties(t *testing.T) {
	tests := []struct {
		name string
		spec LatticeSpec
	}{
		{"minimal", LatticeSpec{CountX: 2, CountY: 2, CountZ: 2}},
		{"uneven", LatticeSpec{CountX: 3, CountY: 4, CountZ: 5}},
		{"tall", LatticeSpec{CountX: 2, CountY: 9, CountZ: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, err := Generate(tt.spec)
			require.NoError(t, err)
			second, err := Generate(tt.spec)
			require.NoError(t, err)

			points := first.ToArray()
			require.Len(t, points, tt.spec.Planned())
			assert.Equal(t, points, second.ToArray(), "generation is deterministic")

			seen := make(map[core.Vec3]struct{}, len(points))
			for _, p := range points {
				if _, dup := seen[p]; dup {
					t.Fatalf("Duplicate point %v", p)
				}
				seen[p] = struct{}{}
			}

			// X outer, Y middle, Z inner: consecutive indices step along one axis
			step := tt.spec.Step()
			zStride := 1
			yStride := tt.spec.CountZ
			xStride := tt.spec.CountY * tt.spec.CountZ
			for i := range points {
				z := i % tt.spec.CountZ
				y := (i / yStride) % tt.spec.CountY
				x := i / xStride
				if z > 0 {
					assertStep(t, points[i-zStride], points[i], core.NewVec3(0, 0, step.Z))
				}
				if y > 0 {
					assertStep(t, points[i-yStride], points[i], core.NewVec3(0, step.Y, 0))
				}
				if x > 0 {
					assertStep(t, points[i-xStride], points[i], core.NewVec3(step.X, 0, 0))
				}
			}
		})
	}
}

func assertStep(t *testing.T, from, to, want core.Vec3) {
	t.Helper()
	delta := to.Subtract(from)
	for axis := 0; axis < 3; axis++ {
		assert.InDelta(t, want.Component(axis), delta.Component(axis), 1e-12, "%v -> %v", from, to)
	}
}
