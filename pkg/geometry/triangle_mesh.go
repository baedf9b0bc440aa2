package geometry

import (
	"fmt"

	"github.com/df07/go-probegrid/pkg/core"
)

// TriangleMesh is a mesh collider: a set of single-sided triangles reported as
// one object. A closed, outward-wound mesh behaves like a solid.
type TriangleMesh struct {
	triangles []*Triangle
	bbox      core.AABB
}

// NewTriangleMesh creates a mesh from vertices and face indices.
// Each group of 3 indices forms a triangle. The placement transform is applied
// to every vertex; pass core.IdentityTransform() for world-space vertices.
func NewTriangleMesh(vertices []core.Vec3, faces []int, placement core.Transform) (*TriangleMesh, error) {
	if len(faces)%3 != 0 {
		return nil, fmt.Errorf("face indices must be a multiple of 3, got %d", len(faces))
	}
	if len(faces) == 0 {
		return nil, fmt.Errorf("mesh has no faces")
	}

	world := make([]core.Vec3, len(vertices))
	for i, vertex := range vertices {
		world[i] = placement.TransformPoint(vertex)
	}

	mesh := &TriangleMesh{triangles: make([]*Triangle, 0, len(faces)/3)}
	for i := 0; i < len(faces); i += 3 {
		i0, i1, i2 := faces[i], faces[i+1], faces[i+2]
		for _, idx := range []int{i0, i1, i2} {
			if idx < 0 || idx >= len(world) {
				return nil, fmt.Errorf("face %d: vertex index %d out of range [0,%d)", i/3, idx, len(world))
			}
		}

		triangle := NewTriangle(world[i0], world[i1], world[i2])
		if len(mesh.triangles) == 0 {
			mesh.bbox = triangle.BoundingBox()
		} else {
			mesh.bbox = mesh.bbox.Union(triangle.BoundingBox())
		}
		mesh.triangles = append(mesh.triangles, triangle)
	}

	return mesh, nil
}

// Hit returns the nearest front-facing triangle hit
func (tm *TriangleMesh) Hit(ray core.Ray, tMin, tMax float64) (*HitRecord, bool) {
	if !tm.bbox.Hit(ray, tMin, tMax) {
		return nil, false
	}

	var closestHit *HitRecord
	closestT := tMax
	for _, triangle := range tm.triangles {
		if hit, isHit := triangle.Hit(ray, tMin, closestT); isHit {
			closestT = hit.T
			closestHit = hit
		}
	}
	return closestHit, closestHit != nil
}

// BoundingBox returns the axis-aligned bounding box for the entire mesh
func (tm *TriangleMesh) BoundingBox() core.AABB {
	return tm.bbox
}

// TriangleCount returns the number of triangles in this mesh
func (tm *TriangleMesh) TriangleCount() int {
	return len(tm.triangles)
}
