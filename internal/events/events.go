package events

import (
	"image"
	"time"
)

// Timestamp is a monotonic offset from the start of the recording.
// Frames, clicks and cursor samples recorded on independent loops are
// correlated through it.
type Timestamp = time.Duration

// MouseButton identifies a mouse button.
type MouseButton int

const (
	ButtonLeft  MouseButton = 0
	ButtonRight MouseButton = 1
)

func (b MouseButton) String() string {
	if b == ButtonRight {
		return "right"
	}
	return "left"
}

// ClickEvent is a single recorded click. Immutable once recorded.
// Two clicks inside a debounce window are both retained; coalescing is
// a zoom-planning decision, not a capture decision.
type ClickEvent struct {
	At     Timestamp   `yaml:"at"`
	Pos    image.Point `yaml:"pos"`
	Button MouseButton `yaml:"button"`
}

// CursorSample is the cursor position at a frame timestamp. Ideally one
// per captured frame; gaps are tolerated and interpolated downstream.
type CursorSample struct {
	At  Timestamp   `yaml:"at"`
	Pos image.Point `yaml:"pos"`
}
