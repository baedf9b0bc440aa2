package probegrid

import "github.com/df07/go-probegrid/pkg/core"

// ProbeSet is the working collection of local probe positions. Order is not
// meaningful: RemoveAt fills the hole with the last element.
//
// Removing while walking indices from Count()-1 down to 0 visits every
// original element exactly once, because the element moved into slot i always
// comes from a slot that was already visited.
type ProbeSet struct {
	points []core.Vec3
}

// NewProbeSet copies points into a new set
func NewProbeSet(points []core.Vec3) *ProbeSet {
	return &ProbeSet{points: append([]core.Vec3(nil), points...)}
}

// Count returns the number of probes
func (s *ProbeSet) Count() int {
	return len(s.points)
}

// At returns the probe at index i. It panics when i is out of range.
func (s *ProbeSet) At(i int) core.Vec3 {
	return s.points[i]
}

// RemoveAt overwrites index i with the last probe and shrinks the set by one.
// It panics when i is out of range.
func (s *ProbeSet) RemoveAt(i int) {
	last := len(s.points) - 1
	s.points[i] = s.points[last]
	s.points = s.points[:last]
}

// ToArray returns a copy of the probes
func (s *ProbeSet) ToArray() []core.Vec3 {
	return append([]core.Vec3(nil), s.points...)
}
