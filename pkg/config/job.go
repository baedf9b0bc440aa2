package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/df07/go-probegrid/pkg/core"
	"github.com/df07/go-probegrid/pkg/group"
	"github.com/df07/go-probegrid/pkg/scene"
	"github.com/df07/go-probegrid/pkg/store"
)

// Job is a resolved and preprocessed scene ready to be culled
type Job struct {
	Scene   *scene.Scene
	Groups  []*group.Group
	Env     group.Environment
	Workers int
}

// Prepare resolves the scene, builds its collision world and selects the
// lighting the contrast pass reads
func (c Config) Prepare(ctx context.Context, logger core.Logger) (*Job, error) {
	logger = core.LoggerOrDiscard(logger)

	s, err := c.ResolveScene()
	if err != nil {
		return nil, err
	}
	if err := s.Preprocess(); err != nil {
		return nil, err
	}
	logger.Printf("scene %q: %d colliders (%d primitives), %d lights, %d groups",
		s.Name, len(s.Colliders), s.PrimitiveCount(), len(s.Lights), len(s.Groups))

	field, err := c.Bake.LightField(ctx, s)
	if err != nil {
		return nil, err
	}
	if c.Bake.Mode != BakeNone && c.Bake.Mode != "" {
		logger.Printf("baked light field (%s)", c.Bake.Mode)
	}

	env := s.Environment(logger)
	env.Light = field
	return &Job{
		Scene:   s,
		Groups:  s.NewGroups(),
		Env:     env,
		Workers: c.Workers,
	}, nil
}

// Run culls every group with the full pipeline and commits the survivors to
// sink, which may be nil
func (j *Job) Run(ctx context.Context, sink group.Sink) []group.Result {
	return group.RunAll(ctx, j.Env, j.Groups, (*group.Group).MakeEverything, sink, j.Workers)
}

// OpenSinks opens the configured store and export. The returned close
// function must be called once the run is over.
func (c Config) OpenSinks() (group.MultiSink, func() error, error) {
	var sinks group.MultiSink
	var closers []func() error
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}

	if c.Store != "" {
		db, err := store.OpenSQLite(c.Store)
		if err != nil {
			return nil, nil, fmt.Errorf("open store: %w", err)
		}
		sinks = append(sinks, db)
		closers = append(closers, db.Close)
	}
	if c.Export != "" {
		exporter, err := store.NewExporter(c.Export)
		if err != nil {
			_ = closeAll()
			return nil, nil, fmt.Errorf("open export: %w", err)
		}
		sinks = append(sinks, exporter)
		closers = append(closers, exporter.Close)
	}
	return sinks, closeAll, nil
}
