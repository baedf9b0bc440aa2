package group

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-probegrid/pkg/core"
	"github.com/df07/go-probegrid/pkg/geometry"
	"github.com/df07/go-probegrid/pkg/lightfield"
	"github.com/df07/go-probegrid/pkg/physics"
	"github.com/df07/go-probegrid/pkg/probegrid"
)

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) Printf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) contains(prefix string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

type recordingSink struct {
	mu      sync.Mutex
	commits []Commit
	err     error
}

func (s *recordingSink) CommitProbes(_ context.Context, commit Commit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.commits = append(s.commits, commit)
	return nil
}

// floorEnvironment has a single floor just below the bottom layer of a unit volume
func floorEnvironment() Environment {
	floor := physics.NewCollider("floor", "", true,
		geometry.NewQuad(core.NewVec3(-1, -0.6, -1), core.NewVec3(0, 0, 2), core.NewVec3(2, 0, 0)))
	world := physics.NewWorld(floor)
	return Environment{
		Collision: world,
		Light:     lightfield.NewField(world, lightfield.UniformAmbient{Color: core.NewVec3(0.3, 0.3, 0.3)}),
	}
}

func smallSettings() Settings {
	settings := DefaultSettings()
	settings.Lattice = probegrid.LatticeSpec{CountX: 3, CountY: 3, CountZ: 3}
	settings.ProximityRadius = 0.5
	return settings
}

func TestDefaultSettings(t *testing.T) {
	settings := DefaultSettings()
	assert.Equal(t, probegrid.LatticeSpec{CountX: 5, CountY: 5, CountZ: 5}, settings.Lattice)
	assert.Equal(t, []string{core.UntaggedTag}, settings.BoundaryTags)
	assert.Equal(t, 2.5, settings.InteriorRadius)
	assert.Equal(t, 1.5, settings.ProximityRadius)
	assert.Equal(t, 0.1, settings.ContrastThreshold)
	assert.False(t, settings.OnlyStatic)
	assert.False(t, settings.ShowSegments)
}

func TestGenerate_ClampsAndWarns(t *testing.T) {
	tests := []struct {
		name    string
		lattice probegrid.LatticeSpec
		planned int
		prefix  string
	}{
		{"clamped", probegrid.LatticeSpec{CountX: 0, CountY: 1, CountZ: 3}, 12, ""},
		{"warning", probegrid.LatticeSpec{CountX: 30, CountY: 30, CountZ: 30}, 27000, "Warning"},
		{"danger", probegrid.LatticeSpec{CountX: 50, CountY: 50, CountZ: 50}, 125000, "DANGER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &recordingLogger{}
			settings := DefaultSettings()
			settings.Lattice = tt.lattice

			g := New("volume", core.IdentityTransform(), settings)
			require.NoError(t, g.Generate(Environment{Logger: logger}))
			assert.Len(t, g.Probes(), tt.planned)

			if tt.prefix == "" {
				assert.Empty(t, logger.lines)
			} else {
				assert.True(t, logger.contains(tt.prefix), "expected a %q line, got %v", tt.prefix, logger.lines)
			}
		})
	}
}

func TestCutBeforeGenerate(t *testing.T) {
	g := New("volume", core.IdentityTransform(), DefaultSettings())
	env := floorEnvironment()

	_, err := g.CutTaggedBoundaries(context.Background(), env)
	assert.ErrorIs(t, err, probegrid.ErrPreconditionViolation)
	assert.Contains(t, err.Error(), `group "volume"`)

	_, err = g.CutByLight(context.Background(), env)
	assert.ErrorIs(t, err, probegrid.ErrPreconditionViolation)

	assert.ErrorIs(t, g.Commit(context.Background(), &recordingSink{}), probegrid.ErrPreconditionViolation)
	assert.Nil(t, g.Probes())
}

func TestMakeAllColliders(t *testing.T) {
	g := New("floor", core.IdentityTransform(), smallSettings())
	report, err := g.MakeAllColliders(context.Background(), floorEnvironment())
	require.NoError(t, err)

	assert.Equal(t, "floor", report.Group)
	assert.Equal(t, 27, report.Planned)
	require.Len(t, report.Passes, 3)
	assert.Equal(t, probegrid.StageBoundary, report.Passes[0].Stage)
	assert.Equal(t, 0, report.Passes[0].Removed, "untagged surfaces are never boundaries")
	assert.Equal(t, 0, report.Passes[1].Removed)
	assert.Equal(t, 18, report.Passes[2].Removed)
	assert.Equal(t, 9, report.Remaining)
	assert.Equal(t, 18, report.Removed())

	for _, p := range g.Probes() {
		assert.Equal(t, -0.5, p.Y)
	}
}

func TestGenerate_RestoresCulledProbes(t *testing.T) {
	g := New("floor", core.IdentityTransform(), smallSettings())
	require.NoError(t, g.Generate(Environment{}))
	fresh := g.Probes()
	require.Len(t, fresh, 27)

	_, err := g.CutFarFromObjects(context.Background(), floorEnvironment())
	require.NoError(t, err)
	require.Len(t, g.Probes(), 9)

	require.NoError(t, g.Generate(Environment{}))
	assert.Equal(t, fresh, g.Probes(), "regenerating replaces the culled set with the full lattice")
}

func TestMakeEverything(t *testing.T) {
	g := New("floor", core.IdentityTransform(), smallSettings())
	report, err := g.MakeEverything(context.Background(), floorEnvironment())
	require.NoError(t, err)

	require.Len(t, report.Passes, 4)
	assert.Equal(t, probegrid.StageContrast, report.Passes[3].Stage)
	assert.Equal(t, 9, report.Passes[3].Removed, "flat ambient light has no contrast")
	assert.Equal(t, 0, report.Remaining)
}

func TestMakeEverything_MissingLight(t *testing.T) {
	env := floorEnvironment()
	env.Light = nil

	g := New("floor", core.IdentityTransform(), smallSettings())
	report, err := g.MakeEverything(context.Background(), env)

	assert.ErrorIs(t, err, probegrid.ErrPreconditionViolation)
	require.Len(t, report.Passes, 4)
	assert.Equal(t, 9, report.Remaining, "geometric passes still ran")
}

func TestSegmentsFollowSettings(t *testing.T) {
	recorder := &probegrid.SegmentRecorder{}
	env := floorEnvironment()
	env.Segments = recorder

	g := New("floor", core.IdentityTransform(), smallSettings())
	_, err := g.MakeAllColliders(context.Background(), env)
	require.NoError(t, err)
	assert.Equal(t, 0, recorder.Len())

	g.Settings.ShowSegments = true
	_, err = g.MakeAllColliders(context.Background(), env)
	require.NoError(t, err)
	assert.Positive(t, recorder.Len())
}

func TestCommit(t *testing.T) {
	transform := core.NewTransform(core.NewVec3(0, 10, 0), core.Vec3{}, core.NewVec3(2, 2, 2))
	g := New("lobby", transform, smallSettings())
	require.NoError(t, g.Generate(Environment{}))

	sink := &recordingSink{}
	require.NoError(t, g.Commit(context.Background(), sink))
	require.Len(t, sink.commits, 1)

	commit := sink.commits[0]
	assert.Equal(t, "lobby", commit.Group)
	assert.Len(t, commit.Local, 27)
	assert.Equal(t, core.NewVec3(-1, 9, -1), commit.World[0])
	assert.Equal(t, commit.Local, g.Committed())
	assert.Equal(t, 27, CountAll([]*Group{g}))
}

func TestCommit_SinkErrors(t *testing.T) {
	g := New("lobby", core.IdentityTransform(), smallSettings())
	require.NoError(t, g.Generate(Environment{}))

	boom := errors.New("disk full")
	err := g.Commit(context.Background(), &recordingSink{err: boom})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, g.Committed(), "a failed commit is not remembered")
	assert.Equal(t, 0, CountAll([]*Group{g}))

	assert.ErrorIs(t, g.Commit(context.Background(), nil), probegrid.ErrPreconditionViolation)
}

func TestMultiSink(t *testing.T) {
	first := &recordingSink{}
	broken := &recordingSink{err: errors.New("offline")}
	last := &recordingSink{}

	err := MultiSink{first, broken, last}.CommitProbes(context.Background(), Commit{Group: "a"})
	assert.ErrorIs(t, err, broken.err)
	assert.Len(t, first.commits, 1)
	assert.Len(t, last.commits, 1, "one failing sink does not stop the others")
}

func TestCountAll(t *testing.T) {
	assert.Equal(t, 0, CountAll(nil))

	a := New("a", core.IdentityTransform(), smallSettings())
	b := New("b", core.IdentityTransform(), smallSettings())
	require.NoError(t, a.Generate(Environment{}))
	require.NoError(t, b.Generate(Environment{}))
	require.NoError(t, a.Commit(context.Background(), &recordingSink{}))

	assert.Equal(t, 27, CountAll([]*Group{a, b}), "only committed probes count")
}
