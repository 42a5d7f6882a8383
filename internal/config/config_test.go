package config

import (
	"image/color"
	"testing"
)

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
		ok   bool
	}{
		{"#ff0000", color.NRGBA{R: 0xff, A: 0xff}, true},
		{"#00FF7f", color.NRGBA{G: 0xff, B: 0x7f, A: 0xff}, true},
		{"#f00", color.NRGBA{R: 0xff, A: 0xff}, true},
		{"ff0000", color.NRGBA{}, false},
		{"#gg0000", color.NRGBA{}, false},
		{"", color.NRGBA{}, false},
		{"#ff00", color.NRGBA{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseHexColor(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseHexColor(%q) = %+v, %v; want %+v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestBackgroundFallsBackToBlack(t *testing.T) {
	b := Background{Color: "not-a-color"}
	if got := b.RGBA(); got != (color.NRGBA{A: 0xff}) {
		t.Errorf("bad color resolved to %+v, want opaque black", got)
	}
}

func TestNormalizeClampsBorderAndDimensions(t *testing.T) {
	tests := []struct {
		name       string
		in         ExportConfig
		wantBorder int
		wantW      int
		wantH      int
	}{
		{"border too small", ExportConfig{BorderWidth: 0, Width: 1280, Height: 720, FPS: 30, Quality: 23}, 1, 1280, 720},
		{"border too large", ExportConfig{BorderWidth: 99, Width: 1280, Height: 720, FPS: 30, Quality: 23}, 20, 1280, 720},
		{"odd dimensions", ExportConfig{BorderWidth: 5, Width: 1279, Height: 719, FPS: 30, Quality: 23}, 5, 1280, 720},
		{"zero everything", ExportConfig{}, 1, 1920, 1080},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			if got.BorderWidth != tt.wantBorder || got.Width != tt.wantW || got.Height != tt.wantH {
				t.Errorf("Normalize() = border %d, %dx%d; want border %d, %dx%d",
					got.BorderWidth, got.Width, got.Height, tt.wantBorder, tt.wantW, tt.wantH)
			}
			if got.FPS <= 0 || got.Quality <= 0 {
				t.Errorf("Normalize() left invalid fps/quality: %d/%d", got.FPS, got.Quality)
			}
		})
	}
}
