package config

import (
	"image"
	"image/color"
)

// Rect is an axis-aligned rectangle in output-space pixels, shaped for
// YAML persistence.
type Rect struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	W int `yaml:"w"`
	H int `yaml:"h"`
}

func (r Rect) Bounds() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
}

// Background of the output canvas: a solid color, or an image when
// Image is a non-empty path.
type Background struct {
	Color string `yaml:"color"` // hex, e.g. "#1e1e2e"
	Image string `yaml:"image,omitempty"`
}

// RGBA resolves the background color; unparseable values fall back to
// black rather than failing, matching the compositor's clamp-don't-fail
// policy.
func (b Background) RGBA() color.NRGBA {
	if c, ok := ParseHexColor(b.Color); ok {
		return c
	}
	return color.NRGBA{A: 0xff}
}

// OverlayConfig places the selfie camera frame in the output. Mutable
// at edit time; an export reads a frozen copy.
type OverlayConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CameraID string `yaml:"camera_id,omitempty"`
	Mirrored bool   `yaml:"mirrored"`
	Rect     Rect   `yaml:"rect"`
}

// ExportConfig is everything the render of a single export depends on
// besides the timeline and the zoom plan.
type ExportConfig struct {
	Background  Background `yaml:"background"`
	BorderWidth int        `yaml:"border_width"` // 1..20, clamped
	BorderColor string     `yaml:"border_color,omitempty"`
	Mute        bool       `yaml:"mute"`
	Width       int        `yaml:"width"`
	Height      int        `yaml:"height"`
	FPS         int        `yaml:"fps"`
	Quality     int        `yaml:"quality"`
}

// DefaultExport returns the export defaults. Border color is empty by
// default: the gap around the video then shows the background.
func DefaultExport() ExportConfig {
	return ExportConfig{
		Background:  Background{Color: "#000000"},
		BorderWidth: 5,
		Width:       1920,
		Height:      1080,
		FPS:         30,
		Quality:     23,
	}
}

// Normalize clamps the config into valid ranges instead of failing.
func (c ExportConfig) Normalize() ExportConfig {
	if c.BorderWidth < 1 {
		c.BorderWidth = 1
	}
	if c.BorderWidth > 20 {
		c.BorderWidth = 20
	}
	if c.Width <= 0 {
		c.Width = 1920
	}
	if c.Height <= 0 {
		c.Height = 1080
	}
	// Even dimensions keep yuv420p encoders happy.
	if c.Width%2 != 0 {
		c.Width++
	}
	if c.Height%2 != 0 {
		c.Height++
	}
	if c.FPS <= 0 {
		c.FPS = 30
	}
	if c.Quality <= 0 {
		c.Quality = 23
	}
	return c
}

// ParseHexColor parses "#rgb" and "#rrggbb" notations.
func ParseHexColor(s string) (color.NRGBA, bool) {
	if len(s) == 0 || s[0] != '#' {
		return color.NRGBA{}, false
	}
	hexVal := func(b byte) (uint8, bool) {
		switch {
		case b >= '0' && b <= '9':
			return b - '0', true
		case b >= 'a' && b <= 'f':
			return b - 'a' + 10, true
		case b >= 'A' && b <= 'F':
			return b - 'A' + 10, true
		}
		return 0, false
	}
	switch len(s) {
	case 4:
		var v [3]uint8
		for i := 0; i < 3; i++ {
			h, ok := hexVal(s[i+1])
			if !ok {
				return color.NRGBA{}, false
			}
			v[i] = h*16 + h
		}
		return color.NRGBA{R: v[0], G: v[1], B: v[2], A: 0xff}, true
	case 7:
		var v [3]uint8
		for i := 0; i < 3; i++ {
			hi, ok1 := hexVal(s[i*2+1])
			lo, ok2 := hexVal(s[i*2+2])
			if !ok1 || !ok2 {
				return color.NRGBA{}, false
			}
			v[i] = hi*16 + lo
		}
		return color.NRGBA{R: v[0], G: v[1], B: v[2], A: 0xff}, true
	}
	return color.NRGBA{}, false
}
