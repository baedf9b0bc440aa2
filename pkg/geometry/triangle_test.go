package geometry

import (
	"math"
	"testing"

	"github.com/df07/go-probegrid/pkg/core"
)

func TestTriangle_FrontFaceOnly(t *testing.T) {
	// Counter-clockwise seen from +Z, so the normal is +Z
	tri := NewTriangle(core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0))
	if tri.Normal() != core.Forward {
		t.Fatalf("Expected +Z normal, got %v", tri.Normal())
	}

	hit, isHit := tri.Hit(core.NewRay(core.NewVec3(0.25, 0.25, 2), core.Back), 0, 10)
	if !isHit {
		t.Fatal("Expected hit from the front")
	}
	if math.Abs(hit.T-2) > 1e-9 {
		t.Errorf("Expected t=2, got %f", hit.T)
	}

	if _, isHit := tri.Hit(core.NewRay(core.NewVec3(0.25, 0.25, -2), core.Forward), 0, 10); isHit {
		t.Error("Expected back face to be culled")
	}
	if _, isHit := tri.Hit(core.NewRay(core.NewVec3(0.9, 0.9, 2), core.Back), 0, 10); isHit {
		t.Error("Expected miss outside the triangle")
	}
}

func TestTriangleMesh_ClosedTetrahedronActsSolid(t *testing.T) {
	vertices := []core.Vec3{
		core.NewVec3(0, 0, 0),
		core.NewVec3(1, 0, 0),
		core.NewVec3(0, 1, 0),
		core.NewVec3(0, 0, 1),
	}
	// Outward winding
	faces := []int{
		0, 2, 1,
		0, 1, 3,
		0, 3, 2,
		1, 2, 3,
	}

	mesh, err := NewTriangleMesh(vertices, faces, core.IdentityTransform())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if mesh.TriangleCount() != 4 {
		t.Errorf("Expected 4 triangles, got %d", mesh.TriangleCount())
	}

	inside := core.NewVec3(0.1, 0.1, 0.1)
	if _, isHit := mesh.Hit(core.NewRay(core.NewVec3(0.1, 0.1, -1), core.Forward), 0, 10); !isHit {
		t.Error("Expected entering hit from outside")
	}
	if _, isHit := mesh.Hit(core.NewRay(inside, core.Forward), 0, 10); isHit {
		t.Error("Expected no hit from inside a closed outward-wound mesh")
	}
}

func TestTriangleMesh_InvalidFaces(t *testing.T) {
	vertices := []core.Vec3{{}, {X: 1}, {Y: 1}}

	if _, err := NewTriangleMesh(vertices, []int{0, 1}, core.IdentityTransform()); err == nil {
		t.Error("Expected error for incomplete face")
	}
	if _, err := NewTriangleMesh(vertices, []int{0, 1, 5}, core.IdentityTransform()); err == nil {
		t.Error("Expected error for out of range index")
	}
	if _, err := NewTriangleMesh(vertices, nil, core.IdentityTransform()); err == nil {
		t.Error("Expected error for empty mesh")
	}
}
