// Package config loads run configurations and scene files from YAML.
// Both are validated against embedded JSON schemas before decoding.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/df07/go-probegrid/pkg/group"
	"github.com/df07/go-probegrid/pkg/lightfield"
	"github.com/df07/go-probegrid/pkg/probegrid"
	"github.com/df07/go-probegrid/pkg/scene"
)

// ErrInvalidConfig marks documents that fail to parse or validate
var ErrInvalidConfig = errors.New("invalid config")

// DefaultBakeResolution is the per-axis resolution of a normal bake
const DefaultBakeResolution = 8

// BakeMode selects how the contrast pass reads lighting
type BakeMode string

const (
	BakeNone   BakeMode = "none"   // Evaluate the lights directly
	BakeNormal BakeMode = "normal" // Bake at the configured resolution
	BakeSimple BakeMode = "simple" // Quick low resolution bake
)

// Bake configures light baking
type Bake struct {
	Mode       BakeMode `yaml:"mode"`
	Resolution int      `yaml:"resolution"`
}

// Config is a complete run configuration
type Config struct {
	Scene   string                   `yaml:"scene"`   // Built-in scene id or path to a scene file
	Workers int                      `yaml:"workers"` // Zero uses every CPU
	Store   string                   `yaml:"store"`   // SQLite database path, empty to skip
	Export  string                   `yaml:"export"`  // .jsonl.zst export path, empty to skip
	Bake    Bake                     `yaml:"bake"`
	Groups  map[string]GroupOverride `yaml:"groups"` // Settings overrides by group name
}

// GroupOverride replaces the settings it names and leaves the rest alone
type GroupOverride struct {
	Lattice           *probegrid.LatticeSpec `yaml:"lattice" json:"lattice,omitempty"`
	OnlyStatic        *bool                  `yaml:"onlyStatic" json:"onlyStatic,omitempty"`
	BoundaryTags      []string               `yaml:"boundaryTags" json:"boundaryTags,omitempty"`
	InteriorRadius    *float64               `yaml:"interiorRadius" json:"interiorRadius,omitempty"`
	ProximityRadius   *float64               `yaml:"proximityRadius" json:"proximityRadius,omitempty"`
	ContrastThreshold *float64               `yaml:"contrastThreshold" json:"contrastThreshold,omitempty"`
	ShowSegments      *bool                  `yaml:"showSegments" json:"showSegments,omitempty"`
}

// Apply returns settings with the override applied
func (o GroupOverride) Apply(settings group.Settings) group.Settings {
	if o.Lattice != nil {
		settings.Lattice = *o.Lattice
	}
	if o.OnlyStatic != nil {
		settings.OnlyStatic = *o.OnlyStatic
	}
	if o.BoundaryTags != nil {
		settings.BoundaryTags = append([]string(nil), o.BoundaryTags...)
	}
	if o.InteriorRadius != nil {
		settings.InteriorRadius = *o.InteriorRadius
	}
	if o.ProximityRadius != nil {
		settings.ProximityRadius = *o.ProximityRadius
	}
	if o.ContrastThreshold != nil {
		settings.ContrastThreshold = *o.ContrastThreshold
	}
	if o.ShowSegments != nil {
		settings.ShowSegments = *o.ShowSegments
	}
	return settings
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		Scene: "cornell",
		Bake:  Bake{Mode: BakeNone, Resolution: DefaultBakeResolution},
	}
}

// Load reads and validates a configuration file
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := Parse(raw)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse validates a YAML configuration and decodes it over the defaults
func Parse(raw []byte) (Config, error) {
	if err := validateYAML(configSchema, raw); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if cfg.Bake.Mode == "" {
		cfg.Bake.Mode = BakeNone
	}
	if cfg.Bake.Resolution == 0 {
		cfg.Bake.Resolution = DefaultBakeResolution
	}
	return cfg, nil
}

// IsSceneFile reports whether ref names a scene file rather than a built-in scene
func IsSceneFile(ref string) bool {
	ext := strings.ToLower(filepath.Ext(ref))
	return ext == ".yaml" || ext == ".yml" || strings.ContainsRune(ref, filepath.Separator)
}

// ResolveScene loads the configured scene and applies the group overrides.
// An override naming a group the scene does not have is an error.
func (c Config) ResolveScene() (*scene.Scene, error) {
	var s *scene.Scene
	var err error
	if IsSceneFile(c.Scene) {
		s, err = LoadScene(c.Scene)
	} else {
		s, err = scene.NewScene(c.Scene)
	}
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(s.Groups))
	for i := range s.Groups {
		known[s.Groups[i].Name] = true
		if override, ok := c.Groups[s.Groups[i].Name]; ok {
			s.Groups[i].Settings = override.Apply(s.Groups[i].Settings)
		}
	}

	var unknown []string
	for name := range c.Groups {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: scene %q has no group named %s", ErrInvalidConfig, s.Name, strings.Join(unknown, ", "))
	}
	return s, nil
}

// LightField returns the lighting the contrast pass should read for a
// preprocessed scene
func (b Bake) LightField(ctx context.Context, s *scene.Scene) (probegrid.LightField, error) {
	if s.Field == nil {
		return nil, fmt.Errorf("scene %q is not preprocessed", s.Name)
	}

	resolution := b.Resolution
	switch b.Mode {
	case BakeNone, "":
		return s.Field, nil
	case BakeNormal:
	case BakeSimple:
		resolution = lightfield.SimpleResolution
	default:
		return nil, fmt.Errorf("%w: unknown bake mode %q", ErrInvalidConfig, b.Mode)
	}

	baked, err := s.Bake(ctx, resolution)
	if err != nil {
		return nil, err
	}
	return baked, nil
}
