package physics

import (
	"github.com/google/uuid"

	"github.com/df07/go-probegrid/pkg/core"
	"github.com/df07/go-probegrid/pkg/geometry"
)

// Collider is a tagged solid in the collision world
type Collider struct {
	core.Surface
	Shape geometry.Shape
}

// NewCollider wraps a shape with a fresh identity. An empty tag becomes core.UntaggedTag.
func NewCollider(name, tag string, static bool, shape geometry.Shape) *Collider {
	if tag == "" {
		tag = core.UntaggedTag
	}
	return &Collider{
		Surface: core.Surface{
			ID:     uuid.New(),
			Name:   name,
			Tag:    tag,
			Static: static,
		},
		Shape: shape,
	}
}

// BoundingBox returns the collider's world bounds
func (c *Collider) BoundingBox() core.AABB {
	return c.Shape.BoundingBox()
}
