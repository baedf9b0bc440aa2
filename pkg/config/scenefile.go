package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/df07/go-probegrid/pkg/core"
	"github.com/df07/go-probegrid/pkg/geometry"
	"github.com/df07/go-probegrid/pkg/group"
	"github.com/df07/go-probegrid/pkg/lightfield"
	"github.com/df07/go-probegrid/pkg/loaders"
	"github.com/df07/go-probegrid/pkg/scene"
)

// Vec is a YAML [x, y, z] triple
type Vec []float64

// Or returns the vector, or fallback when it was not given
func (v Vec) Or(fallback core.Vec3) core.Vec3 {
	if len(v) != 3 {
		return fallback
	}
	return core.NewVec3(v[0], v[1], v[2])
}

type sceneFile struct {
	Name      string         `yaml:"name"`
	Colliders []colliderFile `yaml:"colliders"`
	Lights    []lightFile    `yaml:"lights"`
	Groups    []groupFile    `yaml:"groups"`
}

type colliderFile struct {
	Name   string `yaml:"name"`
	Tag    string `yaml:"tag"`
	Static bool   `yaml:"static"`
	Box    *struct {
		Center   Vec `yaml:"center"`
		Size     Vec `yaml:"size"`
		Rotation Vec `yaml:"rotation"`
	} `yaml:"box"`
	Sphere *struct {
		Center Vec     `yaml:"center"`
		Radius float64 `yaml:"radius"`
	} `yaml:"sphere"`
	Quad *struct {
		Corner Vec `yaml:"corner"`
		U      Vec `yaml:"u"`
		V      Vec `yaml:"v"`
	} `yaml:"quad"`
	Plane *struct {
		Point  Vec `yaml:"point"`
		Normal Vec `yaml:"normal"`
	} `yaml:"plane"`
	Disc *struct {
		Center Vec     `yaml:"center"`
		Normal Vec     `yaml:"normal"`
		Radius float64 `yaml:"radius"`
	} `yaml:"disc"`
	Cylinder *struct {
		Base   Vec     `yaml:"base"`
		Top    Vec     `yaml:"top"`
		Radius float64 `yaml:"radius"`
	} `yaml:"cylinder"`
	Mesh *struct {
		Vertices []Vec  `yaml:"vertices"`
		Faces    []int  `yaml:"faces"`
		PLY      string `yaml:"ply"`
		Position Vec    `yaml:"position"`
		Rotation Vec    `yaml:"rotation"`
		Scale    Vec    `yaml:"scale"`
	} `yaml:"mesh"`
}

type lightFile struct {
	Point *struct {
		Position  Vec     `yaml:"position"`
		Color     Vec     `yaml:"color"`
		Intensity float64 `yaml:"intensity"`
		Range     float64 `yaml:"range"`
	} `yaml:"point"`
	Directional *struct {
		Direction      Vec     `yaml:"direction"`
		Color          Vec     `yaml:"color"`
		ShadowDistance float64 `yaml:"shadowDistance"`
	} `yaml:"directional"`
	Ambient *struct {
		Color Vec `yaml:"color"`
	} `yaml:"ambient"`
	Gradient *struct {
		Top    Vec `yaml:"top"`
		Bottom Vec `yaml:"bottom"`
	} `yaml:"gradient"`
}

type groupFile struct {
	Name     string         `yaml:"name"`
	Position Vec            `yaml:"position"`
	Rotation Vec            `yaml:"rotation"`
	Scale    Vec            `yaml:"scale"`
	Settings *GroupOverride `yaml:"settings"`
}

// LoadScene reads a YAML scene file. Mesh ply paths are relative to the file.
func LoadScene(path string) (*scene.Scene, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := parseScene(raw, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseScene validates and builds a scene from YAML
func ParseScene(raw []byte) (*scene.Scene, error) {
	return parseScene(raw, ".")
}

func parseScene(raw []byte, dir string) (*scene.Scene, error) {
	if err := validateYAML(sceneSchema, raw); err != nil {
		return nil, err
	}

	var file sceneFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	s := &scene.Scene{Name: file.Name}
	for i, c := range file.Colliders {
		shape, err := c.shape(dir)
		if err != nil {
			return nil, fmt.Errorf("%w: collider %d (%s): %v", ErrInvalidConfig, i, c.Name, err)
		}
		s.AddCollider(c.Name, c.Tag, c.Static, shape)
	}
	for _, l := range file.Lights {
		s.AddLight(l.light())
	}
	for _, g := range file.Groups {
		settings := group.DefaultSettings()
		if g.Settings != nil {
			settings = g.Settings.Apply(settings)
		}
		transform := core.NewTransform(
			g.Position.Or(core.Vec3{}),
			g.Rotation.Or(core.Vec3{}),
			g.Scale.Or(core.NewVec3(1, 1, 1)),
		)
		s.AddGroup(g.Name, transform, settings)
	}
	return s, nil
}

func (c colliderFile) shape(dir string) (geometry.Shape, error) {
	switch {
	case c.Box != nil:
		// Files give the full size, boxes take half-extents
		size := c.Box.Size.Or(core.Vec3{}).Multiply(0.5)
		return geometry.NewBox(c.Box.Center.Or(core.Vec3{}), size, c.Box.Rotation.Or(core.Vec3{})), nil
	case c.Sphere != nil:
		return geometry.NewSphere(c.Sphere.Center.Or(core.Vec3{}), c.Sphere.Radius), nil
	case c.Quad != nil:
		return geometry.NewQuad(c.Quad.Corner.Or(core.Vec3{}), c.Quad.U.Or(core.Vec3{}), c.Quad.V.Or(core.Vec3{})), nil
	case c.Plane != nil:
		normal := c.Plane.Normal.Or(core.Up)
		if normal.Length() == 0 {
			return nil, errors.New("plane normal is zero")
		}
		return geometry.NewPlane(c.Plane.Point.Or(core.Vec3{}), normal), nil
	case c.Disc != nil:
		normal := c.Disc.Normal.Or(core.Up)
		if normal.Length() == 0 {
			return nil, errors.New("disc normal is zero")
		}
		return geometry.NewDisc(c.Disc.Center.Or(core.Vec3{}), normal, c.Disc.Radius), nil
	case c.Cylinder != nil:
		base, top := c.Cylinder.Base.Or(core.Vec3{}), c.Cylinder.Top.Or(core.Vec3{})
		if base.Distance(top) == 0 {
			return nil, errors.New("cylinder has no height")
		}
		return geometry.NewCylinder(base, top, c.Cylinder.Radius), nil
	case c.Mesh != nil:
		vertices := make([]core.Vec3, len(c.Mesh.Vertices))
		for i, v := range c.Mesh.Vertices {
			vertices[i] = v.Or(core.Vec3{})
		}
		faces := c.Mesh.Faces
		if c.Mesh.PLY != "" {
			path := c.Mesh.PLY
			if !filepath.IsAbs(path) {
				path = filepath.Join(dir, path)
			}
			ply, err := loaders.LoadPLY(path)
			if err != nil {
				return nil, err
			}
			vertices, faces = ply.Vertices, ply.Faces
		}
		placement := core.NewTransform(
			c.Mesh.Position.Or(core.Vec3{}),
			c.Mesh.Rotation.Or(core.Vec3{}),
			c.Mesh.Scale.Or(core.NewVec3(1, 1, 1)),
		)
		mesh, err := geometry.NewTriangleMesh(vertices, faces, placement)
		if err != nil {
			return nil, err
		}
		return mesh, nil
	default:
		return nil, errors.New("no shape")
	}
}

func (l lightFile) light() lightfield.Light {
	switch {
	case l.Point != nil:
		return lightfield.PointLight{
			Position:  l.Point.Position.Or(core.Vec3{}),
			Color:     l.Point.Color.Or(core.Vec3{}),
			Intensity: l.Point.Intensity,
			Range:     l.Point.Range,
		}
	case l.Directional != nil:
		return lightfield.DirectionalLight{
			Direction:      l.Directional.Direction.Or(core.Down),
			Color:          l.Directional.Color.Or(core.Vec3{}),
			ShadowDistance: l.Directional.ShadowDistance,
		}
	case l.Gradient != nil:
		return lightfield.GradientAmbient{
			Top:    l.Gradient.Top.Or(core.Vec3{}),
			Bottom: l.Gradient.Bottom.Or(core.Vec3{}),
		}
	default:
		return lightfield.UniformAmbient{Color: l.Ambient.Color.Or(core.Vec3{})}
	}
}
