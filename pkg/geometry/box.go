package geometry

import (
	"github.com/df07/go-probegrid/pkg/core"
)

// Box represents a solid oriented box made up of 6 outward-facing quads
type Box struct {
	Center   core.Vec3 // Center point of the box
	Size     core.Vec3 // Half-extents along each local axis
	Rotation core.Vec3 // Euler angles in degrees
	faces    [6]*Quad  // The 6 quad faces
	bbox     core.AABB // Cached bounding box
}

// NewBox creates a new box with the given center, half-extents and rotation.
// A size of (1,1,1) creates a 2x2x2 box.
func NewBox(center, size, rotationDegrees core.Vec3) *Box {
	box := &Box{
		Center:   center,
		Size:     size,
		Rotation: rotationDegrees,
	}
	box.generateFaces()
	return box
}

// NewAxisAlignedBox creates a new axis-aligned box (no rotation)
func NewAxisAlignedBox(center, size core.Vec3) *Box {
	return NewBox(center, size, core.Vec3{})
}

// generateFaces creates the 6 quad faces of the box with outward normals
func (b *Box) generateFaces() {
	frame := core.NewTransform(b.Center, b.Rotation, b.Size.Multiply(2))

	// Corners of the unit cube, scaled, rotated and moved into place
	corners := [8]core.Vec3{
		frame.TransformPoint(core.NewVec3(-0.5, -0.5, -0.5)), // 0: left-bottom-back
		frame.TransformPoint(core.NewVec3(0.5, -0.5, -0.5)),  // 1: right-bottom-back
		frame.TransformPoint(core.NewVec3(0.5, 0.5, -0.5)),   // 2: right-top-back
		frame.TransformPoint(core.NewVec3(-0.5, 0.5, -0.5)),  // 3: left-top-back
		frame.TransformPoint(core.NewVec3(-0.5, -0.5, 0.5)),  // 4: left-bottom-front
		frame.TransformPoint(core.NewVec3(0.5, -0.5, 0.5)),   // 5: right-bottom-front
		frame.TransformPoint(core.NewVec3(0.5, 0.5, 0.5)),    // 6: right-top-front
		frame.TransformPoint(core.NewVec3(-0.5, 0.5, 0.5)),   // 7: left-top-front
	}

	face := func(corner, uEnd, vEnd int) *Quad {
		return NewQuad(
			corners[corner],
			corners[uEnd].Subtract(corners[corner]),
			corners[vEnd].Subtract(corners[corner]),
		)
	}

	b.faces[0] = face(4, 5, 7) // Front (Z+)
	b.faces[1] = face(1, 0, 2) // Back (Z-)
	b.faces[2] = face(5, 1, 6) // Right (X+)
	b.faces[3] = face(0, 4, 3) // Left (X-)
	b.faces[4] = face(3, 7, 2) // Top (Y+)
	b.faces[5] = face(4, 0, 5) // Bottom (Y-)

	b.bbox = core.NewAABBFromPoints(corners[:]...)
}

// Hit reports where a ray enters the box. Rays leaving the box see only back faces.
func (b *Box) Hit(ray core.Ray, tMin, tMax float64) (*HitRecord, bool) {
	var closestHit *HitRecord
	closestT := tMax

	for _, face := range b.faces {
		if hit, isHit := face.Hit(ray, tMin, closestT); isHit {
			closestT = hit.T
			closestHit = hit
		}
	}

	return closestHit, closestHit != nil
}

// BoundingBox returns the axis-aligned bounding box for this box
func (b *Box) BoundingBox() core.AABB {
	return b.bbox
}

// Faces returns the six faces of the box
func (b *Box) Faces() [6]*Quad {
	return b.faces
}
