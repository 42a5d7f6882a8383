package timeline

import (
	"fmt"
	"image"
	"time"
)

var (
	ErrOutOfRange = fmt.Errorf("timestamp outside recording")
	ErrNoSegment  = fmt.Errorf("unknown segment id")
)

// Segment is a contiguous time range of the source recording. Excluded
// segments keep their extent and identity; only visibility toggles.
type Segment struct {
	ID       int           `yaml:"id"`
	Start    time.Duration `yaml:"start"`
	End      time.Duration `yaml:"end"`
	Included bool          `yaml:"included"`
}

// Range is a half-open [Start, End) slice of source time.
type Range struct {
	Start time.Duration `yaml:"start"`
	End   time.Duration `yaml:"end"`
}

func (r Range) Duration() time.Duration { return r.End - r.Start }

// ClickMarker is a display-only annotation on the timeline ruler.
type ClickMarker struct {
	At  time.Duration `yaml:"at"`
	Pos image.Point   `yaml:"pos"`
}

// Timeline holds the ordered segment sequence for one recording. The
// segments always tile [0, duration) exactly: cut points split, they
// never remove; exclusion flips a flag. All mutations happen on the
// single editing owner, so there is no internal locking.
type Timeline struct {
	duration time.Duration
	segments []Segment
	markers  []ClickMarker
	strokes  []Stroke
	nextID   int
}

// New creates a timeline for a recording of the given duration,
// initialized as a single fully-included segment.
func New(duration time.Duration) *Timeline {
	return &Timeline{
		duration: duration,
		segments: []Segment{{ID: 1, Start: 0, End: duration, Included: true}},
		nextID:   2,
	}
}

func (t *Timeline) Duration() time.Duration { return t.duration }

// Segments returns a copy of the ordered segment sequence.
func (t *Timeline) Segments() []Segment {
	out := make([]Segment, len(t.segments))
	copy(out, t.segments)
	return out
}

// AddCutPoint splits the segment containing ts into two halves that
// both keep the original inclusion flag. Cutting at an existing
// boundary is a no-op, so repeated cuts are idempotent.
func (t *Timeline) AddCutPoint(ts time.Duration) error {
	if ts < 0 || ts >= t.duration {
		return fmt.Errorf("%w: cut at %v, recording is %v", ErrOutOfRange, ts, t.duration)
	}
	for i, seg := range t.segments {
		if ts == seg.Start {
			return nil
		}
		if ts > seg.Start && ts < seg.End {
			left := seg
			left.End = ts
			right := Segment{ID: t.nextID, Start: ts, End: seg.End, Included: seg.Included}
			t.nextID++
			t.segments = append(t.segments[:i+1], append([]Segment{right}, t.segments[i+1:]...)...)
			t.segments[i] = left
			return nil
		}
	}
	return nil
}

// RemoveSegment excludes a segment from export. The segment keeps its
// extent and identity; adjacent segments are never merged.
func (t *Timeline) RemoveSegment(id int) error {
	return t.setIncluded(id, false)
}

// RestoreSegment re-includes a previously removed segment.
func (t *Timeline) RestoreSegment(id int) error {
	return t.setIncluded(id, true)
}

func (t *Timeline) setIncluded(id int, included bool) error {
	for i := range t.segments {
		if t.segments[i].ID == id {
			t.segments[i].Included = included
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrNoSegment, id)
}

// ExportableRanges returns the included segments' source ranges in
// order. Conceptually concatenated, they are the output timeline: every
// downstream mapping from output time to source time goes through them.
func (t *Timeline) ExportableRanges() []Range {
	var out []Range
	for _, seg := range t.segments {
		if seg.Included {
			out = append(out, Range{Start: seg.Start, End: seg.End})
		}
	}
	return out
}

// ExportDuration is the total length of the output timeline.
func (t *Timeline) ExportDuration() time.Duration {
	var total time.Duration
	for _, r := range t.ExportableRanges() {
		total += r.Duration()
	}
	return total
}

// ToSource maps an output timestamp to the source timestamp it plays.
func (t *Timeline) ToSource(output time.Duration) (time.Duration, error) {
	if output < 0 {
		return 0, fmt.Errorf("%w: output %v", ErrOutOfRange, output)
	}
	rest := output
	for _, r := range t.ExportableRanges() {
		if rest < r.Duration() {
			return r.Start + rest, nil
		}
		rest -= r.Duration()
	}
	return 0, fmt.Errorf("%w: output %v beyond export duration %v", ErrOutOfRange, output, t.ExportDuration())
}

// AddClickMarker records a display-only click marker. Implements
// events.MarkerSink.
func (t *Timeline) AddClickMarker(at time.Duration, pos image.Point) {
	t.markers = append(t.markers, ClickMarker{At: at, Pos: pos})
}

// Markers returns the recorded click markers.
func (t *Timeline) Markers() []ClickMarker {
	out := make([]ClickMarker, len(t.markers))
	copy(out, t.markers)
	return out
}

// Clone returns an independent copy, used to freeze a snapshot for an
// export while the editing session keeps mutating the original.
func (t *Timeline) Clone() *Timeline {
	c := &Timeline{
		duration: t.duration,
		segments: make([]Segment, len(t.segments)),
		markers:  make([]ClickMarker, len(t.markers)),
		strokes:  make([]Stroke, len(t.strokes)),
		nextID:   t.nextID,
	}
	copy(c.segments, t.segments)
	copy(c.markers, t.markers)
	copy(c.strokes, t.strokes)
	return c
}
