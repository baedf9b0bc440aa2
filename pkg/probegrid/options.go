package probegrid

import (
	"sync"

	"github.com/df07/go-probegrid/pkg/core"
)

// DefaultProgressInterval matches how often the editor tool refreshed its progress bar
const DefaultProgressInterval = 10000

// Segment is one test line a culler traced, for debug drawing
type Segment struct {
	Start core.Vec3 `json:"start"`
	End   core.Vec3 `json:"end"`
}

// SegmentSink receives test segments as they are traced. The stream is advisory.
type SegmentSink interface {
	Segment(start, end core.Vec3)
}

// SegmentFunc adapts a function to SegmentSink
type SegmentFunc func(start, end core.Vec3)

// Segment implements SegmentSink
func (f SegmentFunc) Segment(start, end core.Vec3) {
	f(start, end)
}

// SegmentRecorder keeps every segment in memory. Safe for concurrent use.
type SegmentRecorder struct {
	mu       sync.Mutex
	segments []Segment
}

// Segment implements SegmentSink
func (r *SegmentRecorder) Segment(start, end core.Vec3) {
	r.mu.Lock()
	r.segments = append(r.segments, Segment{Start: start, End: end})
	r.mu.Unlock()
}

// Segments returns a copy of the recorded segments
func (r *SegmentRecorder) Segments() []Segment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Segment(nil), r.segments...)
}

// Len returns the number of recorded segments
func (r *SegmentRecorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.segments)
}

// ProgressFunc reports that done of total points have been processed in stage
type ProgressFunc func(stage Stage, done, total int)

// Option configures a cull pass
type Option func(*options)

type options struct {
	segments      SegmentSink
	progress      ProgressFunc
	progressEvery int
	logger        core.Logger
}

// WithSegments streams every traced test segment to sink
func WithSegments(sink SegmentSink) Option {
	return func(o *options) {
		o.segments = sink
	}
}

// WithProgress reports progress every `every` points and once at the end.
// A non-positive interval uses DefaultProgressInterval.
func WithProgress(fn ProgressFunc, every int) Option {
	return func(o *options) {
		o.progress = fn
		if every > 0 {
			o.progressEvery = every
		}
	}
}

// WithLogger logs a summary line per pass
func WithLogger(logger core.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		progressEvery: DefaultProgressInterval,
		logger:        core.DiscardLogger,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = core.LoggerOrDiscard(o.logger)
	return o
}

func (o *options) segment(start, end core.Vec3) {
	if o.segments != nil {
		o.segments.Segment(start, end)
	}
}

func (o *options) report(stage Stage, done, total int) {
	if o.progress == nil {
		return
	}
	if done == total || done%o.progressEvery == 0 {
		o.progress(stage, done, total)
	}
}
