package scene

import (
	"fmt"
	"math"

	"github.com/df07/go-probegrid/pkg/core"
	"github.com/df07/go-probegrid/pkg/geometry"
	"github.com/df07/go-probegrid/pkg/group"
	"github.com/df07/go-probegrid/pkg/lightfield"
	"github.com/df07/go-probegrid/pkg/probegrid"
)

// NewEmptyScene creates a 3x3x3 volume with nothing around it
func NewEmptyScene() *Scene {
	s := &Scene{Name: "empty"}
	s.AddLight(lightfield.UniformAmbient{Color: core.NewVec3(0.5, 0.5, 0.5)})

	settings := group.DefaultSettings()
	settings.Lattice = probegrid.LatticeSpec{CountX: 3, CountY: 3, CountZ: 3}
	settings.BoundaryTags = nil
	settings.ProximityRadius = 100
	s.AddGroup("volume", core.IdentityTransform(), settings)
	return s
}

// NewSolidCubeScene creates a 2x2x2 volume buried in an untagged cube
func NewSolidCubeScene() *Scene {
	s := &Scene{Name: "solid-cube"}
	s.AddCollider("cube", core.UntaggedTag, false, geometry.NewAxisAlignedBox(core.Vec3{}, core.NewVec3(1, 1, 1)))
	s.AddLight(lightfield.DirectionalLight{Direction: core.NewVec3(-0.3, -1, 0.2), Color: core.NewVec3(1, 1, 1)})

	settings := group.DefaultSettings()
	settings.Lattice = probegrid.LatticeSpec{CountX: 2, CountY: 2, CountZ: 2}
	settings.InteriorRadius = 2
	s.AddGroup("volume", core.IdentityTransform(), settings)
	return s
}

// NewTreeScene creates a tree whose canopy is open underneath, standing on a
// ground plane under a sun and a sky gradient
func NewTreeScene() *Scene {
	s := &Scene{Name: "tree"}

	s.AddCollider("ground", "", true, NewGroundQuad(core.Vec3{}, 20))
	s.AddCollider("trunk", "", true, geometry.NewAxisAlignedBox(core.NewVec3(0, 1, 0), core.NewVec3(0.2, 1, 0.2)))
	canopy, err := newCanopy(core.NewVec3(0, 1.8, 0), 2.2, 3.2, 12)
	if err != nil {
		panic(fmt.Sprintf("tree canopy: %v", err))
	}
	s.AddCollider("canopy", "", true, canopy)

	s.AddLight(lightfield.DirectionalLight{Direction: core.NewVec3(0.4, -1, 0.3), Color: core.NewVec3(1, 0.95, 0.8)})
	s.AddLight(lightfield.GradientAmbient{Top: core.NewVec3(0.5, 0.7, 1.0), Bottom: core.NewVec3(0.3, 0.25, 0.2)})

	settings := group.DefaultSettings()
	settings.Lattice = probegrid.LatticeSpec{CountX: 7, CountY: 6, CountZ: 7}
	settings.InteriorRadius = 6
	settings.ProximityRadius = 1.5
	settings.ContrastThreshold = 0.05
	s.AddGroup("tree", core.NewTransform(core.NewVec3(0, 2.6, 0), core.Vec3{}, core.NewVec3(7, 5, 7)), settings)
	return s
}

// newCanopy builds an outward-facing cone with no base
func newCanopy(base core.Vec3, radius, height float64, segments int) (*geometry.TriangleMesh, error) {
	vertices := make([]core.Vec3, 0, segments+1)
	for k := 0; k < segments; k++ {
		theta := 2 * math.Pi * (float64(k) + 0.5) / float64(segments)
		vertices = append(vertices, core.NewVec3(radius*math.Cos(theta), 0, radius*math.Sin(theta)))
	}
	apex := len(vertices)
	vertices = append(vertices, core.NewVec3(0, height, 0))

	faces := make([]int, 0, segments*3)
	for k := 0; k < segments; k++ {
		faces = append(faces, k, apex, (k+1)%segments)
	}

	placement := core.NewTransform(base, core.Vec3{}, core.NewVec3(1, 1, 1))
	return geometry.NewTriangleMesh(vertices, faces, placement)
}
