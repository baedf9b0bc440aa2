package probegrid

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-probegrid/pkg/core"
)

// cullFunc runs one culler with the given ports so failure semantics can be
// checked for all of them at once
type cullFunc func(ctx context.Context, set *ProbeSet, query CollisionQuery, field LightField, opts ...Option) (CullResult, error)

var cullers = map[Stage]cullFunc{
	StageBoundary: func(ctx context.Context, set *ProbeSet, query CollisionQuery, _ LightField, opts ...Option) (CullResult, error) {
		return CullByBoundaryTags(ctx, set, core.Vec3{}, core.IdentityTransform(), NewTagSet("Wall"), false, query, opts...)
	},
	StageInterior: func(ctx context.Context, set *ProbeSet, query CollisionQuery, _ LightField, opts ...Option) (CullResult, error) {
		return CullInterior(ctx, set, core.IdentityTransform(), 2.5, false, query, opts...)
	},
	StageProximity: func(ctx context.Context, set *ProbeSet, query CollisionQuery, _ LightField, opts ...Option) (CullResult, error) {
		return CullByProximity(ctx, set, core.IdentityTransform(), 1.5, false, query, opts...)
	},
	StageContrast: func(ctx context.Context, set *ProbeSet, _ CollisionQuery, field LightField, opts ...Option) (CullResult, error) {
		return CullByContrast(ctx, set, core.IdentityTransform(), LatticeSpec{CountX: 2, CountY: 2, CountZ: 2}, 0.1, field, opts...)
	},
}

func TestCullers_Preconditions(t *testing.T) {
	field := uniformColor(core.Vec3{})

	for stage, cull := range cullers {
		t.Run(string(stage), func(t *testing.T) {
			_, err := cull(context.Background(), nil, &fakeQuery{}, field)
			assert.ErrorIs(t, err, ErrPreconditionViolation, "nil set")

			set, _ := Generate(LatticeSpec{CountX: 2, CountY: 2, CountZ: 2})
			var result CullResult
			if stage == StageContrast {
				result, err = cull(context.Background(), set, nil, nil)
			} else {
				result, err = cull(context.Background(), set, nil, field)
			}
			assert.ErrorIs(t, err, ErrPreconditionViolation, "missing port")
			assert.Equal(t, 8, result.Remaining)
			assert.Equal(t, 8, set.Count(), "a failed precondition must not touch the set")
		})
	}
}

func TestCullers_EmptySetIsNoOp(t *testing.T) {
	for stage, cull := range cullers {
		t.Run(string(stage), func(t *testing.T) {
			query := &fakeQuery{}
			result, err := cull(context.Background(), NewProbeSet(nil), query, uniformColor(core.Vec3{}))

			require.NoError(t, err)
			assert.Equal(t, CullResult{Stage: stage}, result)
			assert.False(t, result.Changed())
			assert.Empty(t, query.calls)
		})
	}
}

func TestCullers_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for stage, cull := range cullers {
		t.Run(string(stage), func(t *testing.T) {
			set, _ := Generate(LatticeSpec{CountX: 2, CountY: 2, CountZ: 2})
			result, err := cull(ctx, set, &fakeQuery{}, uniformColor(core.Vec3{}))

			assert.ErrorIs(t, err, context.Canceled)
			assert.Equal(t, 0, result.Removed)
			assert.Equal(t, 8, result.Remaining)
			assert.Equal(t, 8, set.Count())
		})
	}
}

func TestCullers_CancelledBetweenPoints(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The first query cancels; the point being processed still completes
	query := &fakeQuery{fn: func(core.Vec3, core.Vec3, float64) []core.RaycastHit {
		cancel()
		return nil
	}}

	set, _ := Generate(LatticeSpec{CountX: 2, CountY: 2, CountZ: 2})
	result, err := CullByProximity(ctx, set, core.IdentityTransform(), 1, false, query)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, CullResult{Stage: StageProximity, Removed: 1, Remaining: 7}, result)
	assert.Equal(t, 7, set.Count())
	assert.Len(t, query.calls, 12, "exactly one point should have been tested")
}

func TestCullers_InvalidRadius(t *testing.T) {
	for _, radius := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		set, _ := Generate(LatticeSpec{CountX: 2, CountY: 2, CountZ: 2})

		_, err := CullInterior(context.Background(), set, core.IdentityTransform(), radius, false, &fakeQuery{})
		assert.ErrorIs(t, err, ErrInvalidArgument, "interior radius %v", radius)

		_, err = CullByProximity(context.Background(), set, core.IdentityTransform(), radius, false, &fakeQuery{})
		assert.ErrorIs(t, err, ErrInvalidArgument, "proximity radius %v", radius)
	}
}

func TestCullers_ProgressAndLogging(t *testing.T) {
	type call struct {
		stage       Stage
		done, total int
	}
	var calls []call
	logger := &recordingLogger{}

	set := NewProbeSet(linePoints(5))
	_, err := CullByProximity(context.Background(), set, core.IdentityTransform(), 1, false, &fakeQuery{},
		WithProgress(func(stage Stage, done, total int) {
			calls = append(calls, call{stage, done, total})
		}, 2),
		WithLogger(logger),
	)

	require.NoError(t, err)
	assert.Equal(t, []call{
		{StageProximity, 2, 5},
		{StageProximity, 4, 5},
		{StageProximity, 5, 5},
	}, calls)
	assert.Equal(t, []string{"proximity pass removed 5 of 5 probes"}, logger.lines)
}

func TestCullByBoundaryTags(t *testing.T) {
	wall := surface("Wall", true)
	// Everything on the +X side of the origin sits behind a wall
	query := &fakeQuery{fn: func(_, direction core.Vec3, _ float64) []core.RaycastHit {
		if direction.X > 0 {
			return []core.RaycastHit{hitOn(wall)}
		}
		return nil
	}}

	set := NewProbeSet([]core.Vec3{
		core.NewVec3(-0.5, 0, 0),
		core.NewVec3(0.5, 0, 0),
		core.NewVec3(0.25, 0.1, 0),
		core.NewVec3(-0.25, 0.1, 0),
	})
	recorder := &SegmentRecorder{}
	result, err := CullByBoundaryTags(context.Background(), set, core.Vec3{}, core.IdentityTransform(),
		NewTagSet("Wall"), false, query, WithSegments(recorder))

	require.NoError(t, err)
	assert.Equal(t, CullResult{Stage: StageBoundary, Removed: 2, Remaining: 2}, result)
	assert.True(t, result.Changed())
	assert.ElementsMatch(t, []core.Vec3{core.NewVec3(-0.5, 0, 0), core.NewVec3(-0.25, 0.1, 0)}, set.ToArray())
	assert.Equal(t, 4, recorder.Len())

	for _, c := range query.calls {
		target := c.origin.Add(c.direction)
		assert.InDelta(t, c.origin.Distance(target), c.maxDistance, 1e-12, "segment must stop at the probe")
	}
}

func TestCullByBoundaryTags_SurfaceFilters(t *testing.T) {
	tests := []struct {
		name       string
		surface    core.Surface
		onlyStatic bool
		removed    int
	}{
		{"listed tag", surface("Wall", false), false, 1},
		{"unlisted tag", surface("Floor", true), false, 0},
		{"untagged even when listed", surface(core.UntaggedTag, true), false, 0},
		{"dynamic ignored when only static", surface("Wall", false), true, 0},
		{"static kept when only static", surface("Wall", true), true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query := &fakeQuery{fn: func(core.Vec3, core.Vec3, float64) []core.RaycastHit {
				return []core.RaycastHit{hitOn(tt.surface)}
			}}
			set := NewProbeSet([]core.Vec3{core.NewVec3(0.5, 0.5, 0.5)})

			result, err := CullByBoundaryTags(context.Background(), set, core.NewVec3(0, -3, 0), core.IdentityTransform(),
				NewTagSet("Wall", core.UntaggedTag), tt.onlyStatic, query)
			require.NoError(t, err)
			assert.Equal(t, tt.removed, result.Removed)
		})
	}
}

func TestCullByBoundaryTags_ClearLineOfSightKeepsEverything(t *testing.T) {
	set, _ := Generate(LatticeSpec{CountX: 3, CountY: 3, CountZ: 3})
	result, err := CullByBoundaryTags(context.Background(), set, core.Vec3{}, core.IdentityTransform(),
		NewTagSet("Wall"), false, &fakeQuery{})

	require.NoError(t, err)
	assert.Equal(t, 0, result.Removed)
	assert.Equal(t, 27, set.Count())
}

func TestCullByBoundaryTags_InvalidOrigin(t *testing.T) {
	set := NewProbeSet(linePoints(2))
	_, err := CullByBoundaryTags(context.Background(), set, core.NewVec3(math.NaN(), 0, 0), core.IdentityTransform(),
		NewTagSet("Wall"), false, &fakeQuery{})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCullByBoundaryTags_UsesTransform(t *testing.T) {
	query := &fakeQuery{}
	transform := core.NewTransform(core.NewVec3(10, 0, 0), core.Vec3{}, core.NewVec3(4, 4, 4))
	set := NewProbeSet([]core.Vec3{core.NewVec3(0.5, 0, 0)})

	_, err := CullByBoundaryTags(context.Background(), set, core.Vec3{}, transform, NewTagSet("Wall"), false, query)
	require.NoError(t, err)
	require.Len(t, query.calls, 1)
	assert.InDelta(t, 12.0, query.calls[0].maxDistance, 1e-9)
}

func TestCullInterior(t *testing.T) {
	shell := surface(core.UntaggedTag, true)
	other := surface(core.UntaggedTag, true)

	tests := []struct {
		name       string
		hits       func(direction core.Vec3) []core.Surface
		onlyStatic bool
		removed    int
		segments   int
	}{
		{
			name:     "same solid from every side",
			hits:     func(core.Vec3) []core.Surface { return []core.Surface{shell} },
			removed:  1,
			segments: 5,
		},
		{
			name:     "nothing above",
			hits:     func(d core.Vec3) []core.Surface { return sidesOnly(d, shell) },
			removed:  0,
			segments: 1,
		},
		{
			name: "one side hits a different solid",
			hits: func(d core.Vec3) []core.Surface {
				// The ray cast from the left travels right
				if approxEqual(d, core.Right) {
					return []core.Surface{other}
				}
				return []core.Surface{shell}
			},
			removed:  0,
			segments: 3,
		},
		{
			name: "nested solids share the outer shell",
			hits: func(d core.Vec3) []core.Surface {
				if approxEqual(d, core.Down) {
					return []core.Surface{other, shell}
				}
				return []core.Surface{shell}
			},
			removed:  1,
			segments: 5,
		},
		{
			name:       "dynamic solid ignored when only static",
			hits:       func(core.Vec3) []core.Surface { return []core.Surface{surface("", false)} },
			onlyStatic: true,
			removed:    0,
			segments:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query := &fakeQuery{fn: func(_, direction core.Vec3, _ float64) []core.RaycastHit {
				var hits []core.RaycastHit
				for _, s := range tt.hits(direction) {
					hits = append(hits, hitOn(s))
				}
				return hits
			}}
			recorder := &SegmentRecorder{}
			set := NewProbeSet([]core.Vec3{{}})

			result, err := CullInterior(context.Background(), set, core.IdentityTransform(), 3, tt.onlyStatic, query,
				WithSegments(recorder))
			require.NoError(t, err)
			assert.Equal(t, tt.removed, result.Removed)
			assert.Equal(t, tt.segments, recorder.Len())
		})
	}
}

// sidesOnly returns the surface for horizontal rays and nothing for the vertical one
func sidesOnly(direction core.Vec3, s core.Surface) []core.Surface {
	if math.Abs(direction.Y) > 0.5 {
		return nil
	}
	return []core.Surface{s}
}

func TestCullInterior_RayGeometry(t *testing.T) {
	shell := surface(core.UntaggedTag, true)
	query := &fakeQuery{fn: func(core.Vec3, core.Vec3, float64) []core.RaycastHit {
		return []core.RaycastHit{hitOn(shell)}
	}}
	transform := core.NewTransform(core.NewVec3(0, 5, 0), core.NewVec3(0, 90, 0), core.NewVec3(2, 2, 2))
	set := NewProbeSet([]core.Vec3{{}})

	_, err := CullInterior(context.Background(), set, transform, 4, false, query)
	require.NoError(t, err)
	require.Len(t, query.calls, 5)

	position := core.NewVec3(0, 5, 0)
	froms := []core.Vec3{transform.Up(), transform.Right(), transform.Right().Negate(), transform.Forward(), transform.Forward().Negate()}
	for i, c := range query.calls {
		expected := position.Add(froms[i].Multiply(4))
		assert.True(t, approxEqual(expected, c.origin), "ray %d starts at %v, expected %v", i, c.origin, expected)
		assert.True(t, approxEqual(position, c.origin.Add(c.direction.Normalize().Multiply(c.maxDistance))),
			"ray %d must end at the probe", i)
	}
}

func TestCullByProximity(t *testing.T) {
	floor := surface("Floor", true)

	tests := []struct {
		name       string
		hit        func(origin, direction core.Vec3) bool
		onlyStatic bool
		removed    int
	}{
		{"nothing nearby", func(core.Vec3, core.Vec3) bool { return false }, false, 1},
		{"outward hit", func(_, d core.Vec3) bool { return approxEqual(d, core.Down) }, false, 0},
		{"only the reverse ray sees the surface", func(o, d core.Vec3) bool {
			return approxEqual(d, core.Up) && o.Y < 0
		}, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query := &fakeQuery{fn: func(origin, direction core.Vec3, _ float64) []core.RaycastHit {
				if tt.hit(origin, direction) {
					return []core.RaycastHit{hitOn(floor)}
				}
				return nil
			}}
			set := NewProbeSet([]core.Vec3{{}})

			result, err := CullByProximity(context.Background(), set, core.IdentityTransform(), 1.5, tt.onlyStatic, query)
			require.NoError(t, err)
			assert.Equal(t, tt.removed, result.Removed)
		})
	}
}

func TestCullByProximity_OnlyStatic(t *testing.T) {
	prop := surface("Prop", false)
	query := &fakeQuery{fn: func(core.Vec3, core.Vec3, float64) []core.RaycastHit {
		return []core.RaycastHit{hitOn(prop)}
	}}

	set := NewProbeSet([]core.Vec3{{}})
	result, err := CullByProximity(context.Background(), set, core.IdentityTransform(), 1.5, true, query)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Removed)
	assert.Len(t, query.calls, 12)

	set = NewProbeSet([]core.Vec3{{}})
	result, err = CullByProximity(context.Background(), set, core.IdentityTransform(), 1.5, false, query)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Removed)
}

func TestCullByProximity_Segments(t *testing.T) {
	recorder := &SegmentRecorder{}
	set := NewProbeSet([]core.Vec3{{}})

	_, err := CullByProximity(context.Background(), set, core.IdentityTransform(), 2, false, &fakeQuery{},
		WithSegments(recorder))
	require.NoError(t, err)

	segments := recorder.Segments()
	require.Len(t, segments, 6)
	for _, s := range segments {
		assert.Equal(t, core.Vec3{}, s.Start)
		assert.InDelta(t, 2.0, s.End.Length(), 1e-12)
	}
}

func TestCullByContrast(t *testing.T) {
	spec := LatticeSpec{CountX: 3, CountY: 2, CountZ: 2}
	bright := core.NewVec3(1, 1, 1)

	tests := []struct {
		name      string
		field     fakeField
		threshold float64
		remaining int
	}{
		{"uniform lighting", uniformColor(bright), 0.1, 0},
		{"no samples read as black", func(core.Vec3, []core.Vec3) []core.Vec3 { return nil }, 0, 0},
		{
			name: "bright end of the volume",
			field: func(p core.Vec3, dirs []core.Vec3) []core.Vec3 {
				if p.X > 0.25 {
					return uniformColor(bright)(p, dirs)
				}
				return uniformColor(core.Vec3{})(p, dirs)
			},
			threshold: 0.1,
			remaining: 8, // x=0 and x=0.5 planes contrast with each other, x=-0.5 does not
		},
		{
			name: "difference equal to threshold is not contrast",
			field: func(p core.Vec3, dirs []core.Vec3) []core.Vec3 {
				return uniformColor(core.NewVec3(0, 0, p.Y))(p, dirs)
			},
			threshold: 1,
			remaining: 0,
		},
		{
			name: "single direction single channel",
			field: func(p core.Vec3, dirs []core.Vec3) []core.Vec3 {
				out := make([]core.Vec3, len(dirs))
				if p.Z > 0 {
					out[5] = core.NewVec3(0, 0.5, 0) // back
				}
				return out
			},
			threshold: 0.1,
			remaining: 12,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := Generate(spec)
			require.NoError(t, err)

			result, err := CullByContrast(context.Background(), set, core.IdentityTransform(), spec, tt.threshold, tt.field)
			require.NoError(t, err)
			assert.Equal(t, tt.remaining, set.Count())
			assert.Equal(t, 12-tt.remaining, result.Removed)
		})
	}
}

func TestCullByContrast_SamplesWorldCardinals(t *testing.T) {
	spec := LatticeSpec{CountX: 2, CountY: 2, CountZ: 2}
	transform := core.NewTransform(core.NewVec3(5, 0, 0), core.NewVec3(0, 45, 0), core.NewVec3(3, 3, 3))
	set, _ := Generate(spec)

	var positions []core.Vec3
	field := fakeField(func(p core.Vec3, dirs []core.Vec3) []core.Vec3 {
		positions = append(positions, p)
		assert.Equal(t, []core.Vec3{core.Up, core.Down, core.Left, core.Right, core.Forward, core.Back}, dirs)
		return make([]core.Vec3, len(dirs))
	})

	_, err := CullByContrast(context.Background(), set, transform, spec, 0, field)
	require.NoError(t, err)
	require.Len(t, positions, 8)
	assert.True(t, approxEqual(transform.TransformPoint(core.NewVec3(-0.5, -0.5, -0.5)), positions[0]))
}

func TestCullByContrast_IsolatedProbeIsRemoved(t *testing.T) {
	spec := LatticeSpec{CountX: 2, CountY: 2, CountZ: 2}
	set := NewProbeSet([]core.Vec3{core.NewVec3(0.5, 0.5, 0.5)})

	result, err := CullByContrast(context.Background(), set, core.IdentityTransform(), spec, 0.1,
		fakeField(func(p core.Vec3, dirs []core.Vec3) []core.Vec3 { return uniformColor(p)(p, dirs) }))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Removed)
}

func TestCullByContrast_InvalidArguments(t *testing.T) {
	field := uniformColor(core.Vec3{})

	tests := []struct {
		name      string
		spec      LatticeSpec
		threshold float64
	}{
		{"negative threshold", LatticeSpec{CountX: 2, CountY: 2, CountZ: 2}, -0.1},
		{"nan threshold", LatticeSpec{CountX: 2, CountY: 2, CountZ: 2}, math.NaN()},
		{"degenerate lattice", LatticeSpec{CountX: 1, CountY: 2, CountZ: 2}, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := NewProbeSet(linePoints(2))
			_, err := CullByContrast(context.Background(), set, core.IdentityTransform(), tt.spec, tt.threshold, field)
			assert.ErrorIs(t, err, ErrInvalidArgument)
			assert.Equal(t, 2, set.Count())
		})
	}
}
