package timeline

import (
	"image"
	"time"
)

// Stroke is a user-drawn annotation: an ordered polyline visible during
// [Start, End). Strokes are additive and never mutated after creation;
// clearing removes whole strokes.
type Stroke struct {
	ID     int           `yaml:"id"`
	Points []image.Point `yaml:"points"`
	Start  time.Duration `yaml:"start"`
	End    time.Duration `yaml:"end"`
}

// AddStroke records a new annotation stroke and returns its id.
func (t *Timeline) AddStroke(points []image.Point, start, end time.Duration) int {
	pts := make([]image.Point, len(points))
	copy(pts, points)
	id := t.nextID
	t.nextID++
	t.strokes = append(t.strokes, Stroke{ID: id, Points: pts, Start: start, End: end})
	return id
}

// ActiveStrokesAt returns the strokes visible at a source timestamp, in
// recording order.
func (t *Timeline) ActiveStrokesAt(ts time.Duration) []Stroke {
	var out []Stroke
	for _, s := range t.strokes {
		if ts >= s.Start && ts < s.End {
			out = append(out, s)
		}
	}
	return out
}

// ClearActiveAt removes every stroke active at the given instant.
// Strokes whose windows do not cover ts are untouched, so a clear never
// rewrites already-recorded time ranges it did not target.
func (t *Timeline) ClearActiveAt(ts time.Duration) int {
	kept := t.strokes[:0]
	removed := 0
	for _, s := range t.strokes {
		if ts >= s.Start && ts < s.End {
			removed++
			continue
		}
		kept = append(kept, s)
	}
	t.strokes = kept
	return removed
}

// Strokes returns all recorded strokes.
func (t *Timeline) Strokes() []Stroke {
	out := make([]Stroke, len(t.strokes))
	copy(out, t.strokes)
	return out
}
