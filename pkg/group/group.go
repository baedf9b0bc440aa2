// Package group manages named probe volumes: it runs the cull pipeline for a
// volume and publishes the surviving probes to a sink.
package group

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/df07/go-probegrid/pkg/core"
	"github.com/df07/go-probegrid/pkg/probegrid"
)

// Planned probe counts above which Generate logs a warning
const (
	WarnProbeCount   = 10000
	DangerProbeCount = 100000
)

// Settings are the per-volume knobs
type Settings struct {
	Lattice           probegrid.LatticeSpec `yaml:"lattice" json:"lattice"`
	OnlyStatic        bool                  `yaml:"onlyStatic" json:"onlyStatic"`
	BoundaryTags      []string              `yaml:"boundaryTags" json:"boundaryTags"`
	InteriorRadius    float64               `yaml:"interiorRadius" json:"interiorRadius"`
	ProximityRadius   float64               `yaml:"proximityRadius" json:"proximityRadius"`
	ContrastThreshold float64               `yaml:"contrastThreshold" json:"contrastThreshold"`
	ShowSegments      bool                  `yaml:"showSegments" json:"showSegments"`
}

// DefaultSettings returns the settings a new volume starts with
func DefaultSettings() Settings {
	return Settings{
		Lattice:           probegrid.LatticeSpec{CountX: 5, CountY: 5, CountZ: 5},
		BoundaryTags:      []string{core.UntaggedTag},
		InteriorRadius:    2.5,
		ProximityRadius:   1.5,
		ContrastThreshold: 0.1,
	}
}

// Environment is the scene a group is culled against. Collision is required by
// the geometric passes and Light by the contrast pass. When groups run
// concurrently the sinks and callbacks must be safe for concurrent use.
type Environment struct {
	Collision     probegrid.CollisionQuery
	Light         probegrid.LightField
	Logger        core.Logger
	Segments      probegrid.SegmentSink
	Progress      probegrid.ProgressFunc
	ProgressEvery int
}

// Commit is the set of probes published for one group
type Commit struct {
	Group     string
	Transform core.Transform
	Local     []core.Vec3
	World     []core.Vec3
}

// Sink receives committed probes
type Sink interface {
	CommitProbes(ctx context.Context, commit Commit) error
}

// MultiSink commits to every sink in order and joins their errors
type MultiSink []Sink

// CommitProbes implements Sink
func (m MultiSink) CommitProbes(ctx context.Context, commit Commit) error {
	var errs []error
	for _, sink := range m {
		if err := sink.CommitProbes(ctx, commit); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Report summarizes one pipeline run
type Report struct {
	Group     string                 `json:"group"`
	Planned   int                    `json:"planned"`
	Passes    []probegrid.CullResult `json:"passes"`
	Remaining int                    `json:"remaining"`
	Duration  time.Duration          `json:"duration"`
}

// Removed returns the total number of probes culled across all passes
func (r Report) Removed() int {
	n := 0
	for _, p := range r.Passes {
		n += p.Removed
	}
	return n
}

// Group is a named probe volume. A group is not safe for concurrent use.
type Group struct {
	Name      string
	Transform core.Transform
	Settings  Settings

	spec      probegrid.LatticeSpec
	probes    *probegrid.ProbeSet
	committed []core.Vec3
}

// New creates a group that has not been generated yet
func New(name string, transform core.Transform, settings Settings) *Group {
	return &Group{
		Name:      name,
		Transform: transform,
		Settings:  settings,
	}
}

// Generate replaces the working probes with a fresh lattice. Axis counts
// below two are raised to two.
func (g *Group) Generate(env Environment) error {
	logger := core.LoggerOrDiscard(env.Logger)
	spec := g.Settings.Lattice.Clamped()

	planned := spec.Planned()
	switch {
	case planned > DangerProbeCount:
		logger.Printf("DANGER: group %q plans %d probes, culling will be very slow", g.Name, planned)
	case planned > WarnProbeCount:
		logger.Printf("Warning: group %q plans %d probes", g.Name, planned)
	}

	probes, err := probegrid.Generate(spec)
	if err != nil {
		return fmt.Errorf("group %q: %w", g.Name, err)
	}
	g.spec = spec
	g.probes = probes
	return nil
}

// CutTaggedBoundaries removes probes hidden from the group's position by a boundary-tagged surface
func (g *Group) CutTaggedBoundaries(ctx context.Context, env Environment) (probegrid.CullResult, error) {
	return g.wrap(probegrid.CullByBoundaryTags(ctx, g.probes, g.Transform.Position, g.Transform,
		probegrid.NewTagSet(g.Settings.BoundaryTags...), g.Settings.OnlyStatic, env.Collision, g.options(env)...))
}

// CutInsideObjects removes probes buried inside solids
func (g *Group) CutInsideObjects(ctx context.Context, env Environment) (probegrid.CullResult, error) {
	return g.wrap(probegrid.CullInterior(ctx, g.probes, g.Transform, g.Settings.InteriorRadius,
		g.Settings.OnlyStatic, env.Collision, g.options(env)...))
}

// CutFarFromObjects removes probes with no geometry nearby
func (g *Group) CutFarFromObjects(ctx context.Context, env Environment) (probegrid.CullResult, error) {
	return g.wrap(probegrid.CullByProximity(ctx, g.probes, g.Transform, g.Settings.ProximityRadius,
		g.Settings.OnlyStatic, env.Collision, g.options(env)...))
}

// CutByLight removes probes whose lighting matches all their neighbours
func (g *Group) CutByLight(ctx context.Context, env Environment) (probegrid.CullResult, error) {
	return g.wrap(probegrid.CullByContrast(ctx, g.probes, g.Transform, g.spec, g.Settings.ContrastThreshold,
		env.Light, g.options(env)...))
}

// MakeAllColliders generates the lattice and runs the three geometric passes
func (g *Group) MakeAllColliders(ctx context.Context, env Environment) (Report, error) {
	return g.run(ctx, env, g.CutTaggedBoundaries, g.CutInsideObjects, g.CutFarFromObjects)
}

// MakeEverything runs MakeAllColliders followed by the contrast pass
func (g *Group) MakeEverything(ctx context.Context, env Environment) (Report, error) {
	return g.run(ctx, env, g.CutTaggedBoundaries, g.CutInsideObjects, g.CutFarFromObjects, g.CutByLight)
}

type passFunc func(ctx context.Context, env Environment) (probegrid.CullResult, error)

func (g *Group) run(ctx context.Context, env Environment, passes ...passFunc) (Report, error) {
	start := time.Now()
	report := Report{Group: g.Name}

	if err := g.Generate(env); err != nil {
		return report, err
	}
	report.Planned = g.probes.Count()
	report.Remaining = report.Planned

	for _, pass := range passes {
		result, err := pass(ctx, env)
		report.Passes = append(report.Passes, result)
		report.Remaining = result.Remaining
		if err != nil {
			report.Duration = time.Since(start)
			return report, err
		}
	}

	report.Duration = time.Since(start)
	core.LoggerOrDiscard(env.Logger).Printf("group %q: %d of %d probes kept in %v",
		g.Name, report.Remaining, report.Planned, report.Duration)
	return report, nil
}

// Commit publishes the working probes to sink and remembers them as committed
func (g *Group) Commit(ctx context.Context, sink Sink) error {
	if g.probes == nil {
		return fmt.Errorf("group %q: %w: nothing generated", g.Name, probegrid.ErrPreconditionViolation)
	}
	if sink == nil {
		return fmt.Errorf("group %q: %w: no sink", g.Name, probegrid.ErrPreconditionViolation)
	}

	commit := Commit{
		Group:     g.Name,
		Transform: g.Transform,
		Local:     g.Probes(),
		World:     g.WorldProbes(),
	}
	if err := sink.CommitProbes(ctx, commit); err != nil {
		return fmt.Errorf("group %q: commit: %w", g.Name, err)
	}
	g.committed = commit.Local
	return nil
}

// Probes returns the working probes in local space
func (g *Group) Probes() []core.Vec3 {
	if g.probes == nil {
		return nil
	}
	return g.probes.ToArray()
}

// WorldProbes returns the working probes in world space
func (g *Group) WorldProbes() []core.Vec3 {
	local := g.Probes()
	for i, p := range local {
		local[i] = g.Transform.TransformPoint(p)
	}
	return local
}

// Committed returns the probes of the last successful commit
func (g *Group) Committed() []core.Vec3 {
	return append([]core.Vec3(nil), g.committed...)
}

// CountAll returns the number of committed probes across groups
func CountAll(groups []*Group) int {
	total := 0
	for _, g := range groups {
		total += len(g.committed)
	}
	return total
}

func (g *Group) options(env Environment) []probegrid.Option {
	opts := []probegrid.Option{probegrid.WithLogger(env.Logger)}
	if g.Settings.ShowSegments && env.Segments != nil {
		opts = append(opts, probegrid.WithSegments(env.Segments))
	}
	if env.Progress != nil {
		opts = append(opts, probegrid.WithProgress(env.Progress, env.ProgressEvery))
	}
	return opts
}

func (g *Group) wrap(result probegrid.CullResult, err error) (probegrid.CullResult, error) {
	if err != nil {
		return result, fmt.Errorf("group %q: %w", g.Name, err)
	}
	return result, nil
}
