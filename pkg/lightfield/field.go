package lightfield

import "github.com/df07/go-probegrid/pkg/core"

// Field evaluates lighting directly from the scene lights, with optional
// occlusion. It is safe for concurrent use.
type Field struct {
	lights   []Light
	occluder Occluder
}

// NewField creates a live light field. occluder may be nil.
func NewField(occluder Occluder, lights ...Light) *Field {
	return &Field{
		lights:   append([]Light(nil), lights...),
		occluder: occluder,
	}
}

// Lights returns the lights the field was built from
func (f *Field) Lights() []Light {
	return f.lights
}

// Project returns the spherical harmonic expansion of the lighting at position
func (f *Field) Project(position core.Vec3) SH9 {
	var sh SH9
	for _, light := range f.lights {
		light.Project(&sh, position, f.occluder)
	}
	return sh
}

// SampleDirections returns the diffuse lighting at position for each direction
func (f *Field) SampleDirections(position core.Vec3, directions []core.Vec3) []core.Vec3 {
	sh := f.Project(position)
	return evaluateAll(&sh, directions)
}

func evaluateAll(sh *SH9, directions []core.Vec3) []core.Vec3 {
	out := make([]core.Vec3, len(directions))
	for i, d := range directions {
		out[i] = sh.Evaluate(d)
	}
	return out
}
