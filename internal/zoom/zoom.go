package zoom

import (
	"time"
)

// Mode selects how the zoom plan is derived from the capture log.
type Mode int

const (
	ModeNone Mode = iota
	ModeZoomOnClick
	ModeFollowMouse
)

func (m Mode) String() string {
	switch m {
	case ModeZoomOnClick:
		return "zoom-on-click"
	case ModeFollowMouse:
		return "follow-mouse"
	default:
		return "none"
	}
}

// ParseMode maps a CLI/config string to a Mode. Unknown values fall
// back to ModeNone.
func ParseMode(s string) Mode {
	switch s {
	case "zoom-on-click", "click":
		return ModeZoomOnClick
	case "follow-mouse", "follow":
		return ModeFollowMouse
	default:
		return ModeNone
	}
}

// Rect is a viewport rectangle in source-frame coordinates. Origin and
// size are float64 so interpolation stays sub-pixel.
type Rect struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	W float64 `yaml:"w"`
	H float64 `yaml:"h"`
}

// Keyframe pins the viewport at one instant; between keyframes the
// viewport is interpolated linearly on origin and size.
type Keyframe struct {
	At       time.Duration `yaml:"at"`
	Viewport Rect          `yaml:"viewport"`
}

// Options tunes plan generation.
type Options struct {
	Scale      float64       `yaml:"scale"`      // zoom factor, 1.0 = no zoom
	Hold       time.Duration `yaml:"hold"`       // zoomed dwell after a click
	Transition time.Duration `yaml:"transition"` // zoom in/out ramp length
	Cadence    time.Duration `yaml:"cadence"`    // follow-mouse resample step
	Smoothing  float64       `yaml:"smoothing"`  // follow-mouse EMA coefficient (0..1]
}

// DefaultOptions returns the generation defaults.
func DefaultOptions() Options {
	return Options{
		Scale:      2.0,
		Hold:       500 * time.Millisecond,
		Transition: 300 * time.Millisecond,
		Cadence:    100 * time.Millisecond,
		Smoothing:  0.25,
	}
}

func (o Options) normalized() Options {
	if o.Scale < 1.0 {
		o.Scale = 1.0
	}
	if o.Hold <= 0 {
		o.Hold = 500 * time.Millisecond
	}
	if o.Transition <= 0 {
		o.Transition = 300 * time.Millisecond
	}
	if o.Cadence <= 0 {
		o.Cadence = 100 * time.Millisecond
	}
	if o.Smoothing <= 0 || o.Smoothing > 1 {
		o.Smoothing = 0.25
	}
	return o
}
