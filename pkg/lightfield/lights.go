package lightfield

import (
	"math"

	"github.com/df07/go-probegrid/pkg/core"
)

// DefaultShadowDistance is how far toward a directional light occluders are searched for
const DefaultShadowDistance = 1000.0

// minDistanceSquared keeps point lights finite at their own position
const minDistanceSquared = 1e-4

// Occluder answers visibility queries. physics.World satisfies it.
type Occluder interface {
	RaycastAll(origin, direction core.Vec3, maxDistance float64) []core.RaycastHit
}

// Light projects its contribution at a position into spherical harmonics
type Light interface {
	Project(sh *SH9, position core.Vec3, occluder Occluder)
}

// PointLight emits from a single point with inverse-square falloff
type PointLight struct {
	Position  core.Vec3
	Color     core.Vec3
	Intensity float64
	Range     float64 // Zero or negative means unlimited
}

// Project implements Light
func (l PointLight) Project(sh *SH9, position core.Vec3, occluder Occluder) {
	toLight := l.Position.Subtract(position)
	distance := toLight.Length()
	if l.Range > 0 && distance > l.Range {
		return
	}
	if occluded(occluder, position, toLight, distance) {
		return
	}

	attenuation := l.Intensity / math.Max(distance*distance, minDistanceSquared)
	sh.AddDirectionalLight(toLight, l.Color.Multiply(attenuation))
}

// DirectionalLight is an infinitely distant light such as the sun
type DirectionalLight struct {
	Direction      core.Vec3 // Direction the light travels
	Color          core.Vec3
	ShadowDistance float64
}

// Project implements Light
func (l DirectionalLight) Project(sh *SH9, position core.Vec3, occluder Occluder) {
	toLight := l.Direction.Negate()
	distance := l.ShadowDistance
	if distance <= 0 {
		distance = DefaultShadowDistance
	}
	if occluded(occluder, position, toLight, distance) {
		return
	}
	sh.AddDirectionalLight(toLight, l.Color)
}

// UniformAmbient is constant light from every direction
type UniformAmbient struct {
	Color core.Vec3
}

// Project implements Light. Ambient light is never occluded.
func (l UniformAmbient) Project(sh *SH9, _ core.Vec3, _ Occluder) {
	sh.AddAmbient(l.Color)
}

// GradientAmbient blends between a sky color overhead and a ground color below
type GradientAmbient struct {
	Top    core.Vec3
	Bottom core.Vec3
}

// Project implements Light. Ambient light is never occluded.
func (l GradientAmbient) Project(sh *SH9, _ core.Vec3, _ Occluder) {
	sh.AddGradient(l.Top, l.Bottom)
}

// Emission returns the sky color seen looking along direction
func (l GradientAmbient) Emission(direction core.Vec3) core.Vec3 {
	t := 0.5 * (direction.Normalize().Y + 1.0) // Map Y from [-1,1] to [0,1]
	return l.Bottom.Multiply(1.0 - t).Add(l.Top.Multiply(t))
}

func occluded(occluder Occluder, position, direction core.Vec3, distance float64) bool {
	if occluder == nil || distance <= 0 {
		return false
	}
	return len(occluder.RaycastAll(position, direction, distance)) > 0
}
