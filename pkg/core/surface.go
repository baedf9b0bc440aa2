package core

import "github.com/google/uuid"

// UntaggedTag is the tag every surface carries unless it was given another one.
// It never marks a boundary.
const UntaggedTag = "Untagged"

// Surface identifies the solid object behind an intersection
type Surface struct {
	ID     uuid.UUID // Stable per-object identity; names may repeat
	Name   string    // Display name
	Tag    string    // Tag used for boundary tests
	Static bool      // Whether the object is flagged as non-moving
}

// RaycastHit is a single intersection reported by a collision query
type RaycastHit struct {
	Distance float64 // Distance from the ray origin
	Point    Vec3    // World position of the intersection
	Normal   Vec3    // Surface normal facing the ray
	Surface  Surface // Object that was hit
}
