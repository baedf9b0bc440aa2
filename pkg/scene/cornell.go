package scene

import (
	"github.com/df07/go-probegrid/pkg/core"
	"github.com/df07/go-probegrid/pkg/geometry"
	"github.com/df07/go-probegrid/pkg/group"
	"github.com/df07/go-probegrid/pkg/lightfield"
	"github.com/df07/go-probegrid/pkg/probegrid"
)

// WallTag marks the walls of the built-in rooms
const WallTag = "Wall"

// NewCornellScene creates a Cornell box room with two blocks and a ceiling light.
// The front is open; the probe volume is larger than the room so the boundary
// pass has something to cut.
func NewCornellScene() *Scene {
	s := &Scene{Name: "cornell"}

	// Cornell box dimensions (555 units, one unit per centimetre)
	boxSize := 5.55

	// Walls face into the room
	s.AddCollider("floor", WallTag, true, geometry.NewQuad(
		core.NewVec3(0, 0, 0),
		core.NewVec3(0, 0, boxSize), // u vector (Z direction)
		core.NewVec3(boxSize, 0, 0), // v vector (X direction)
	))
	s.AddCollider("ceiling", WallTag, true, geometry.NewQuad(
		core.NewVec3(0, boxSize, 0),
		core.NewVec3(boxSize, 0, 0),
		core.NewVec3(0, 0, boxSize),
	))
	s.AddCollider("back wall", WallTag, true, geometry.NewQuad(
		core.NewVec3(0, 0, boxSize),
		core.NewVec3(0, boxSize, 0),
		core.NewVec3(boxSize, 0, 0),
	))
	s.AddCollider("left wall", WallTag, true, geometry.NewQuad(
		core.NewVec3(0, 0, 0),
		core.NewVec3(0, boxSize, 0),
		core.NewVec3(0, 0, boxSize),
	))
	s.AddCollider("right wall", WallTag, true, geometry.NewQuad(
		core.NewVec3(boxSize, 0, 0),
		core.NewVec3(0, 0, boxSize),
		core.NewVec3(0, boxSize, 0),
	))

	// Short and tall blocks
	s.AddCollider("short block", "", true, geometry.NewBox(
		core.NewVec3(1.85, 0.825, 1.69),
		core.NewVec3(0.825, 0.825, 0.825),
		core.NewVec3(0, -18, 0),
	))
	s.AddCollider("tall block", "", true, geometry.NewBox(
		core.NewVec3(3.68, 1.65, 3.51),
		core.NewVec3(0.825, 1.65, 0.825),
		core.NewVec3(0, 15, 0),
	))

	// Ceiling light slightly below the ceiling
	s.AddLight(lightfield.PointLight{
		Position:  core.NewVec3(boxSize/2, boxSize-0.3, boxSize/2),
		Color:     core.NewVec3(1, 0.95, 0.85),
		Intensity: 15,
	})
	s.AddLight(lightfield.UniformAmbient{Color: core.NewVec3(0.02, 0.02, 0.02)})

	settings := group.DefaultSettings()
	settings.Lattice = probegrid.LatticeSpec{CountX: 8, CountY: 8, CountZ: 8}
	settings.BoundaryTags = []string{WallTag}
	settings.InteriorRadius = 4
	settings.ProximityRadius = 1.2

	center := core.NewVec3(boxSize/2, boxSize/2, boxSize/2)
	s.AddGroup("room", core.NewTransform(center, core.Vec3{}, core.NewVec3(7, 5.4, 6.6)), settings)

	return s
}
