package scene

import (
	"context"
	"fmt"

	"github.com/df07/go-probegrid/pkg/core"
	"github.com/df07/go-probegrid/pkg/geometry"
	"github.com/df07/go-probegrid/pkg/group"
	"github.com/df07/go-probegrid/pkg/lightfield"
	"github.com/df07/go-probegrid/pkg/physics"
)

// GroupSpec describes a probe volume placed in a scene
type GroupSpec struct {
	Name      string
	Transform core.Transform
	Settings  group.Settings
}

// Scene contains the colliders, lights and probe volumes of a level
type Scene struct {
	Name      string
	Colliders []*physics.Collider // Solid objects
	Lights    []lightfield.Light  // Lights, ambient included
	Groups    []GroupSpec         // Probe volumes
	World     *physics.World      // Built by Preprocess
	Field     *lightfield.Field   // Built by Preprocess
}

// NewGroundQuad creates a horizontal square centered at the given point with normal pointing up (0,1,0)
func NewGroundQuad(center core.Vec3, size float64) *geometry.Quad {
	corner := core.NewVec3(center.X-size/2, center.Y, center.Z-size/2)
	// (0,0,size) × (size,0,0) = (0,size²,0)
	u := core.NewVec3(0, 0, size)
	v := core.NewVec3(size, 0, 0)
	return geometry.NewQuad(corner, u, v)
}

// AddCollider wraps a shape in a new collider and adds it to the scene
func (s *Scene) AddCollider(name, tag string, static bool, shape geometry.Shape) *physics.Collider {
	collider := physics.NewCollider(name, tag, static, shape)
	s.Colliders = append(s.Colliders, collider)
	return collider
}

// AddLight adds a light to the scene
func (s *Scene) AddLight(light lightfield.Light) {
	s.Lights = append(s.Lights, light)
}

// AddGroup places a probe volume
func (s *Scene) AddGroup(name string, transform core.Transform, settings group.Settings) {
	s.Groups = append(s.Groups, GroupSpec{Name: name, Transform: transform, Settings: settings})
}

// Preprocess builds the collision world and the live light field
func (s *Scene) Preprocess() error {
	for i, collider := range s.Colliders {
		if collider == nil || collider.Shape == nil {
			return fmt.Errorf("scene %q: collider %d has no shape", s.Name, i)
		}
	}
	for i, light := range s.Lights {
		if light == nil {
			return fmt.Errorf("scene %q: light %d is nil", s.Name, i)
		}
	}

	s.World = physics.NewWorld(s.Colliders...)
	s.Field = lightfield.NewField(s.World, s.Lights...)
	return nil
}

// NewGroups creates a fresh group for every volume in the scene
func (s *Scene) NewGroups() []*group.Group {
	groups := make([]*group.Group, 0, len(s.Groups))
	for _, spec := range s.Groups {
		groups = append(groups, group.New(spec.Name, spec.Transform, spec.Settings))
	}
	return groups
}

// Environment returns the culling environment backed by the live light field.
// Preprocess must have been called.
func (s *Scene) Environment(logger core.Logger) group.Environment {
	return group.Environment{
		Collision: s.World,
		Light:     s.Field,
		Logger:    logger,
	}
}

// Bounds returns the region covered by colliders and probe volumes. Infinite
// planes are left out.
func (s *Scene) Bounds() core.AABB {
	var bounds core.AABB
	first := true
	extend := func(b core.AABB) {
		if first {
			bounds, first = b, false
			return
		}
		bounds = bounds.Union(b)
	}

	for _, collider := range s.Colliders {
		// Unbounded planes would swamp the region
		if _, ok := collider.Shape.(*geometry.Plane); ok {
			continue
		}
		extend(collider.BoundingBox())
	}
	for _, spec := range s.Groups {
		extend(spec.Transform.WorldBounds())
	}
	return bounds
}

// Bake precomputes the light field over the scene bounds. Preprocess must
// have been called.
func (s *Scene) Bake(ctx context.Context, resolution int) (*lightfield.Baked, error) {
	if s.Field == nil {
		return nil, fmt.Errorf("scene %q: bake before preprocess", s.Name)
	}
	return lightfield.Bake(ctx, s.Field, s.Bounds(), resolution)
}

// PrimitiveCount returns the number of primitives, counting each mesh triangle
func (s *Scene) PrimitiveCount() int {
	count := 0
	for _, collider := range s.Colliders {
		switch shape := collider.Shape.(type) {
		case *geometry.TriangleMesh:
			count += shape.TriangleCount()
		default:
			count++
		}
	}
	return count
}
