package probegrid

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/df07/go-probegrid/pkg/core"
)

type raycast struct {
	origin, direction core.Vec3
	maxDistance       float64
}

// fakeQuery answers every raycast with fn and records the calls
type fakeQuery struct {
	fn    func(origin, direction core.Vec3, maxDistance float64) []core.RaycastHit
	calls []raycast
}

func (q *fakeQuery) RaycastAll(origin, direction core.Vec3, maxDistance float64) []core.RaycastHit {
	q.calls = append(q.calls, raycast{origin, direction, maxDistance})
	if q.fn == nil {
		return nil
	}
	return q.fn(origin, direction, maxDistance)
}

type fakeField func(position core.Vec3, directions []core.Vec3) []core.Vec3

func (f fakeField) SampleDirections(position core.Vec3, directions []core.Vec3) []core.Vec3 {
	return f(position, directions)
}

// uniformColor lights every direction with c
func uniformColor(c core.Vec3) fakeField {
	return func(_ core.Vec3, directions []core.Vec3) []core.Vec3 {
		out := make([]core.Vec3, len(directions))
		for i := range out {
			out[i] = c
		}
		return out
	}
}

func surface(tag string, static bool) core.Surface {
	return core.Surface{ID: uuid.New(), Name: tag, Tag: tag, Static: static}
}

func hitOn(s core.Surface) core.RaycastHit {
	return core.RaycastHit{Distance: 0.1, Surface: s}
}

type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) Printf(format string, args ...interface{}) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func approxEqual(a, b core.Vec3) bool {
	return a.Distance(b) < 1e-9
}
