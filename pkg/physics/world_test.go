package physics

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-probegrid/pkg/core"
	"github.com/df07/go-probegrid/pkg/geometry"
)

func TestNewCollider_DefaultsAndIdentity(t *testing.T) {
	sphere := geometry.NewSphere(core.Vec3{}, 1)
	a := NewCollider("rock", "", false, sphere)
	b := NewCollider("rock", "Boundary", true, sphere)

	assert.Equal(t, core.UntaggedTag, a.Tag)
	assert.Equal(t, "Boundary", b.Tag)
	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.NotEqual(t, a.ID, b.ID, "colliders with the same name must have distinct identities")
}

func TestWorld_RaycastAllSortedByDistance(t *testing.T) {
	far := NewCollider("far", "", true, geometry.NewAxisAlignedBox(core.NewVec3(10, 0, 0), core.NewVec3(1, 1, 1)))
	near := NewCollider("near", "", false, geometry.NewSphere(core.NewVec3(4, 0, 0), 1))
	world := NewWorld(far, near)

	hits := world.RaycastAll(core.Vec3{}, core.NewVec3(5, 0, 0), 100)
	require.Len(t, hits, 2)

	assert.Equal(t, near.ID, hits[0].Surface.ID)
	assert.InDelta(t, 3.0, hits[0].Distance, 1e-9)
	assert.False(t, hits[0].Surface.Static)

	assert.Equal(t, far.ID, hits[1].Surface.ID)
	assert.InDelta(t, 9.0, hits[1].Distance, 1e-9)
	assert.True(t, hits[1].Surface.Static)
}

func TestWorld_RaycastAllRespectsDistance(t *testing.T) {
	world := NewWorld(NewCollider("box", "", true, geometry.NewAxisAlignedBox(core.NewVec3(5, 0, 0), core.NewVec3(1, 1, 1))))

	assert.Empty(t, world.RaycastAll(core.Vec3{}, core.Right, 3.9))
	assert.Len(t, world.RaycastAll(core.Vec3{}, core.Right, 4), 1)
}

func TestWorld_DegenerateRays(t *testing.T) {
	world := NewWorld(NewCollider("box", "", true, geometry.NewAxisAlignedBox(core.Vec3{}, core.NewVec3(1, 1, 1))))

	assert.Nil(t, world.RaycastAll(core.NewVec3(0, 5, 0), core.Vec3{}, 10), "zero direction")
	assert.Nil(t, world.RaycastAll(core.NewVec3(0, 5, 0), core.Down, 0), "zero distance")
}

func TestWorld_EmptyWorld(t *testing.T) {
	world := NewWorld()

	assert.Nil(t, world.RaycastAll(core.Vec3{}, core.Up, 100))
	assert.Equal(t, core.AABB{}, world.Bounds())
	assert.False(t, world.Linecast(core.Vec3{}, core.NewVec3(0, 10, 0)))
}

func TestWorld_LinecastIsDirectional(t *testing.T) {
	// A single floor quad facing up: blocks from above only
	floor := geometry.NewQuad(core.NewVec3(-5, 0, -5), core.NewVec3(0, 0, 10), core.NewVec3(10, 0, 0))
	world := NewWorld(NewCollider("floor", "Ground", true, floor))

	assert.True(t, world.Linecast(core.NewVec3(0, 1, 0), core.NewVec3(0, -1, 0)))
	assert.False(t, world.Linecast(core.NewVec3(0, -1, 0), core.NewVec3(0, 1, 0)))

	bounds := world.Bounds()
	assert.InDelta(t, -5, bounds.Min.X, 1e-6)
	assert.InDelta(t, 5, bounds.Max.Z, 1e-6)
}
