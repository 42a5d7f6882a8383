package compositor

import (
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/ivlev/screencut/internal/config"
	"github.com/ivlev/screencut/internal/events"
	"github.com/ivlev/screencut/internal/source"
	"github.com/ivlev/screencut/internal/timeline"
	"github.com/ivlev/screencut/internal/zoom"
)

func uniform(w, h int, c color.NRGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A})
		}
	}
	return img
}

func solidStream(w, h int, c color.NRGBA, frameCount int, interval time.Duration) *source.Stream {
	var frames []source.Frame
	img := uniform(w, h, c)
	for i := 0; i < frameCount; i++ {
		frames = append(frames, source.Frame{Image: img, At: time.Duration(i) * interval})
	}
	dur := time.Duration(frameCount) * interval
	return source.NewStream(source.NewMemorySource(frames, w, h, dur), interval)
}

func pixel(img *image.RGBA, x, y int) color.NRGBA {
	r, g, b, a := img.At(x, y).RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
}

var (
	red   = color.NRGBA{R: 0xff, A: 0xff}
	green = color.NRGBA{G: 0xff, A: 0xff}
	blue  = color.NRGBA{B: 0xff, A: 0xff}
	white = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

func baseSnapshot(dur time.Duration, w, h int) Snapshot {
	cfg := config.DefaultExport()
	cfg.Width = w
	cfg.Height = h
	cfg.BorderWidth = 5
	cfg.Background = config.Background{Color: "#ff0000"}
	return Snapshot{
		Timeline: timeline.New(dur),
		Plan:     zoom.BuildPlan(zoom.ModeNone, nil, nil, w, h, dur, zoom.DefaultOptions()),
		Export:   cfg,
	}
}

func TestBackgroundShowsAsBorderRing(t *testing.T) {
	snap := baseSnapshot(time.Second, 200, 200)
	screen := solidStream(200, 200, blue, 30, 33*time.Millisecond)

	c := New(snap, screen, nil)
	frame, err := c.Render(100 * time.Millisecond)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	defer c.Release(frame)

	if got := pixel(frame, 2, 2); got != red {
		t.Errorf("border ring pixel = %+v, want red background", got)
	}
	if got := pixel(frame, 100, 100); got != blue {
		t.Errorf("video center pixel = %+v, want blue source", got)
	}
	// Ring must be present on every edge at the configured width.
	for _, p := range []image.Point{{100, 2}, {2, 100}, {197, 100}, {100, 197}} {
		if got := pixel(frame, p.X, p.Y); got != red {
			t.Errorf("edge pixel %v = %+v, want red", p, got)
		}
	}
}

func TestExplicitBorderColor(t *testing.T) {
	snap := baseSnapshot(time.Second, 200, 200)
	snap.Export.BorderColor = "#ffffff"
	screen := solidStream(200, 200, blue, 30, 33*time.Millisecond)

	c := New(snap, screen, nil)
	frame, err := c.Render(0)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Release(frame)

	if got := pixel(frame, 2, 2); got != white {
		t.Errorf("border pixel = %+v, want explicit white border", got)
	}
}

func TestOverlayCompositedAndClamped(t *testing.T) {
	snap := baseSnapshot(time.Second, 200, 200)
	snap.Overlay = config.OverlayConfig{
		Enabled: true,
		// Deliberately hangs off the canvas edge; clamped, not an error.
		Rect: config.Rect{X: 170, Y: 170, W: 60, H: 60},
	}
	screen := solidStream(200, 200, blue, 30, 33*time.Millisecond)
	selfie := solidStream(64, 64, green, 30, 33*time.Millisecond)

	c := New(snap, screen, selfie)
	frame, err := c.Render(100 * time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Release(frame)

	if got := pixel(frame, 185, 185); got != green {
		t.Errorf("overlay pixel = %+v, want green selfie", got)
	}
	if got := pixel(frame, 100, 100); got != blue {
		t.Errorf("video outside overlay rect = %+v, want blue", got)
	}
}

func TestOverlayMirrored(t *testing.T) {
	// Selfie: left half white, right half green.
	selfieImg := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if x < 32 {
				selfieImg.Set(x, y, white)
			} else {
				selfieImg.Set(x, y, green)
			}
		}
	}
	selfie := source.NewStream(source.NewMemorySource(
		[]source.Frame{{Image: selfieImg, At: 0}}, 64, 64, time.Second), 0)

	snap := baseSnapshot(time.Second, 200, 200)
	snap.Overlay = config.OverlayConfig{
		Enabled:  true,
		Mirrored: true,
		Rect:     config.Rect{X: 10, Y: 10, W: 64, H: 64},
	}
	screen := solidStream(200, 200, blue, 30, 33*time.Millisecond)

	c := New(snap, screen, selfie)
	frame, err := c.Render(0)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Release(frame)

	// Mirrored: the selfie's white left half lands on the right side.
	if got := pixel(frame, 15, 42); got != green {
		t.Errorf("mirrored overlay left = %+v, want green", got)
	}
	if got := pixel(frame, 68, 42); got != white {
		t.Errorf("mirrored overlay right = %+v, want white", got)
	}
}

func TestMissingSelfieSkipsOverlayOnly(t *testing.T) {
	snap := baseSnapshot(time.Second, 200, 200)
	snap.Overlay = config.OverlayConfig{Enabled: true, Rect: config.Rect{X: 10, Y: 10, W: 40, H: 40}}
	screen := solidStream(200, 200, blue, 30, 33*time.Millisecond)
	selfie := source.NewStream(source.NewMemorySource(nil, 64, 64, 0), 0) // empty camera track

	c := New(snap, screen, selfie)
	frame, err := c.Render(0)
	if err != nil {
		t.Fatalf("missing selfie must not fail the frame: %v", err)
	}
	defer c.Release(frame)

	if got := pixel(frame, 30, 30); got != blue {
		t.Errorf("pixel under skipped overlay = %+v, want base video", got)
	}
}

func TestStrokesDrawnOnlyWhileActive(t *testing.T) {
	snap := baseSnapshot(time.Second, 200, 200)
	snap.Timeline.AddStroke(
		[]image.Point{{X: 20, Y: 100}, {X: 180, Y: 100}},
		200*time.Millisecond, 600*time.Millisecond,
	)
	screen := solidStream(200, 200, blue, 30, 33*time.Millisecond)

	c := New(snap, screen, nil)

	active, err := c.Render(300 * time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if got := pixel(active, 100, 100); got != (color.NRGBA{R: 0xff, G: 0x3b, B: 0x30, A: 0xff}) {
		t.Errorf("stroke pixel during window = %+v, want stroke color", got)
	}
	c.Release(active)

	inactive, err := c.Render(800 * time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if got := pixel(inactive, 100, 100); got != blue {
		t.Errorf("stroke pixel after window = %+v, want base video", got)
	}
	c.Release(inactive)
}

func TestZoomCropsSource(t *testing.T) {
	// Source: left half green, right half blue.
	src := image.NewRGBA(image.Rect(0, 0, 200, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			if x < 100 {
				src.Set(x, y, green)
			} else {
				src.Set(x, y, blue)
			}
		}
	}
	screen := source.NewStream(source.NewMemorySource(
		[]source.Frame{{Image: src, At: 0}}, 200, 200, time.Second), 0)

	snap := baseSnapshot(time.Second, 200, 200)
	snap.Export.BorderWidth = 1
	// Click on the left half pins the viewport there for the hold.
	clicks := []events.ClickEvent{{At: 100 * time.Millisecond, Pos: image.Point{X: 50, Y: 100}}}
	snap.Plan = zoom.BuildPlan(zoom.ModeZoomOnClick,
		clicks, nil, 200, 200, time.Second, zoom.DefaultOptions())

	c := New(snap, screen, nil)
	frame, err := c.Render(300 * time.Millisecond) // inside the hold window
	if err != nil {
		t.Fatal(err)
	}
	defer c.Release(frame)

	// The whole visible frame comes from the zoomed-in left half.
	for _, p := range []image.Point{{20, 100}, {100, 100}, {180, 100}} {
		if got := pixel(frame, p.X, p.Y); got != green {
			t.Errorf("zoomed pixel %v = %+v, want green left half", p, got)
		}
	}
}

func TestSubstitutionCountedNotFatal(t *testing.T) {
	const interval = 100 * time.Millisecond
	img := uniform(200, 200, blue)
	// 10-frame track with frames 3..5 missing.
	var frames []source.Frame
	for i := 0; i < 10; i++ {
		if i >= 3 && i <= 5 {
			continue
		}
		frames = append(frames, source.Frame{Image: img, At: time.Duration(i) * interval})
	}
	screen := source.NewStream(source.NewMemorySource(frames, 200, 200, time.Second), interval)

	snap := baseSnapshot(time.Second, 200, 200)
	c := New(snap, screen, nil)

	if _, err := c.Render(450 * time.Millisecond); err != nil {
		t.Fatalf("decode gap must substitute, not fail: %v", err)
	}
	if c.Substituted() == 0 {
		t.Error("substitution not counted")
	}
}

func TestRenderBeyondExportFails(t *testing.T) {
	snap := baseSnapshot(time.Second, 200, 200)
	screen := solidStream(200, 200, blue, 30, 33*time.Millisecond)
	c := New(snap, screen, nil)

	if _, err := c.Render(5 * time.Second); !errors.Is(err, timeline.ErrOutOfRange) {
		t.Errorf("got %v, want ErrOutOfRange", err)
	}
}
