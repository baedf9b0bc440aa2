// Package lightfield projects scene lights into L2 spherical harmonics and
// answers directional lighting queries, either live or from a baked grid.
package lightfield

import (
	"math"

	"github.com/df07/go-probegrid/pkg/core"
)

// SHCoefficients is the number of coefficients in an L2 expansion
const SHCoefficients = 9

// Real SH basis constants
const (
	shY00 = 0.282095
	shY1  = 0.488603
	shY2  = 1.092548
	shY20 = 0.315392
	shY22 = 0.546274
)

// Cosine lobe convolution per band
var shBand = [SHCoefficients]float64{
	math.Pi,
	2 * math.Pi / 3, 2 * math.Pi / 3, 2 * math.Pi / 3,
	math.Pi / 4, math.Pi / 4, math.Pi / 4, math.Pi / 4, math.Pi / 4,
}

// SH9 is an RGB radiance function stored as L2 spherical harmonics.
// Coefficient order is (l,m): (0,0) (1,-1) (1,0) (1,1) (2,-2) (2,-1) (2,0) (2,1) (2,2).
type SH9 [SHCoefficients]core.Vec3

// shBasis evaluates the nine basis functions for a unit direction
func shBasis(d core.Vec3) [SHCoefficients]float64 {
	return [SHCoefficients]float64{
		shY00,
		shY1 * d.Y,
		shY1 * d.Z,
		shY1 * d.X,
		shY2 * d.X * d.Y,
		shY2 * d.Y * d.Z,
		shY20 * (3*d.Z*d.Z - 1),
		shY2 * d.X * d.Z,
		shY22 * (d.X*d.X - d.Y*d.Y),
	}
}

// AddAmbient adds a constant radiance from every direction
func (sh *SH9) AddAmbient(color core.Vec3) {
	sh[0] = sh[0].Add(color.Multiply(shY00 * 4 * math.Pi))
}

// AddGradient adds a radiance that blends linearly from bottom (straight down)
// to top (straight up), the same sky model as a gradient background.
func (sh *SH9) AddGradient(top, bottom core.Vec3) {
	mean := top.Add(bottom).Multiply(0.5)
	slope := top.Subtract(bottom).Multiply(0.5)
	sh.AddAmbient(mean)
	sh[1] = sh[1].Add(slope.Multiply(shY1 * 4 * math.Pi / 3))
}

// AddDirectionalLight adds light arriving from direction (pointing toward the
// light). color is the diffuse response of a surface facing the light head on.
func (sh *SH9) AddDirectionalLight(direction, color core.Vec3) {
	d := direction.Normalize()
	if d == (core.Vec3{}) {
		return
	}
	basis := shBasis(d)
	for i := range sh {
		sh[i] = sh[i].Add(color.Multiply(basis[i] * math.Pi))
	}
}

// Evaluate returns the diffuse radiance of a white Lambertian surface whose
// normal is direction. Negative ringing is clamped to black.
func (sh *SH9) Evaluate(direction core.Vec3) core.Vec3 {
	d := direction.Normalize()
	basis := shBasis(d)

	var irradiance core.Vec3
	for i := range sh {
		irradiance = irradiance.Add(sh[i].Multiply(shBand[i] * basis[i]))
	}
	return irradiance.Multiply(1 / math.Pi).Clamp(0, math.Inf(1))
}

// Add returns the sum of two expansions
func (sh SH9) Add(other SH9) SH9 {
	for i := range sh {
		sh[i] = sh[i].Add(other[i])
	}
	return sh
}

// Scale returns the expansion multiplied by s
func (sh SH9) Scale(s float64) SH9 {
	for i := range sh {
		sh[i] = sh[i].Multiply(s)
	}
	return sh
}

// Lerp blends from sh (t=0) to other (t=1)
func (sh SH9) Lerp(other SH9, t float64) SH9 {
	return sh.Scale(1 - t).Add(other.Scale(t))
}
