package timeline

import (
	"fmt"
	"time"
)

// State is the serializable form of a timeline, owned-format-agnostic:
// the surrounding application decides where and how it is stored.
type State struct {
	Duration time.Duration `yaml:"duration"`
	Segments []Segment     `yaml:"segments"`
	Markers  []ClickMarker `yaml:"markers,omitempty"`
	Strokes  []Stroke      `yaml:"strokes,omitempty"`
	NextID   int           `yaml:"next_id"`
}

// State captures the timeline for persistence.
func (t *Timeline) State() State {
	return State{
		Duration: t.duration,
		Segments: t.Segments(),
		Markers:  t.Markers(),
		Strokes:  t.Strokes(),
		NextID:   t.nextID,
	}
}

// FromState rebuilds a timeline, validating the tiling invariant: the
// segments must cover [0, duration) exactly, in order, with no gaps.
func FromState(s State) (*Timeline, error) {
	if s.Duration <= 0 {
		return nil, fmt.Errorf("invalid duration %v", s.Duration)
	}
	if len(s.Segments) == 0 {
		return nil, fmt.Errorf("no segments")
	}
	cursor := time.Duration(0)
	maxID := 0
	for i, seg := range s.Segments {
		if seg.Start != cursor {
			return nil, fmt.Errorf("segment %d starts at %v, want %v", i, seg.Start, cursor)
		}
		if seg.End <= seg.Start {
			return nil, fmt.Errorf("segment %d is empty or inverted", i)
		}
		cursor = seg.End
		if seg.ID > maxID {
			maxID = seg.ID
		}
	}
	if cursor != s.Duration {
		return nil, fmt.Errorf("segments end at %v, want %v", cursor, s.Duration)
	}
	for _, st := range s.Strokes {
		if st.ID > maxID {
			maxID = st.ID
		}
	}
	nextID := s.NextID
	if nextID <= maxID {
		nextID = maxID + 1
	}
	t := &Timeline{
		duration: s.Duration,
		segments: make([]Segment, len(s.Segments)),
		markers:  make([]ClickMarker, len(s.Markers)),
		strokes:  make([]Stroke, len(s.Strokes)),
		nextID:   nextID,
	}
	copy(t.segments, s.Segments)
	copy(t.markers, s.Markers)
	copy(t.strokes, s.Strokes)
	return t, nil
}
