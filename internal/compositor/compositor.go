package compositor

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"sync/atomic"
	"time"

	xdraw "golang.org/x/image/draw"

	"github.com/ivlev/screencut/internal/config"
	"github.com/ivlev/screencut/internal/source"
	"github.com/ivlev/screencut/internal/system"
	"github.com/ivlev/screencut/internal/timeline"
	"github.com/ivlev/screencut/internal/zoom"
)

// Stroke rendering is a fixed visual style, not per-stroke
// configurable.
var (
	strokeColor = color.NRGBA{R: 0xff, G: 0x3b, B: 0x30, A: 0xff}
)

const strokeWidth = 4

// Snapshot is the frozen edit state one render run depends on. An
// in-progress export owns its snapshot; later edits do not affect it.
type Snapshot struct {
	Timeline   *timeline.Timeline
	Plan       *zoom.Plan
	Overlay    config.OverlayConfig
	Export     config.ExportConfig
	Background image.Image // pre-decoded Export.Background.Image, may be nil
}

// Compositor renders one output frame per call from the snapshot and
// the frame streams. The same compositor drives preview and export, so
// the two are pixel-identical by construction.
//
// Render is sequential: the underlying streams advance monotonically.
type Compositor struct {
	snap   Snapshot
	screen *source.Stream
	selfie *source.Stream
	scaler xdraw.Scaler

	substituted atomic.Int64
}

// New creates a compositor over a frozen snapshot. selfie may be nil;
// the overlay is then skipped regardless of config.
func New(snap Snapshot, screen, selfie *source.Stream) *Compositor {
	snap.Export = snap.Export.Normalize()
	return &Compositor{
		snap:   snap,
		screen: screen,
		selfie: selfie,
		scaler: xdraw.ApproxBiLinear,
	}
}

// Render produces the output frame for an output-timeline timestamp.
// The caller releases the frame with Release once encoded.
//
// Step order is fixed: time mapping, viewport crop+scale, background,
// bordered blit, selfie overlay, strokes. Zoom must apply before the
// overlay composite or the overlay itself would be distorted.
func (c *Compositor) Render(outputTS time.Duration) (*image.RGBA, error) {
	cfg := c.snap.Export

	srcTS, err := c.snap.Timeline.ToSource(outputTS)
	if err != nil {
		return nil, err
	}

	frame, substituted, err := c.screen.FrameAt(srcTS)
	if err != nil {
		return nil, fmt.Errorf("source frame at %v: %w", srcTS, err)
	}
	if substituted {
		c.substituted.Add(1)
		log.Printf("[!] frame substituted at output %v (source %v)", outputTS, srcTS)
	}

	viewport := clampViewport(c.snap.Plan.ViewportAt(srcTS), frame.Image.Bounds())

	canvas := system.GetImage(image.Rect(0, 0, cfg.Width, cfg.Height))
	c.paintBackground(canvas)

	videoRect := canvas.Bounds().Inset(cfg.BorderWidth)
	fitted := aspectFit(viewport, videoRect)

	if border, ok := config.ParseHexColor(cfg.BorderColor); ok {
		ring := fitted.Inset(-cfg.BorderWidth).Intersect(canvas.Bounds())
		fillRect(canvas, ring, border)
	}
	c.scaler.Scale(canvas, fitted, frame.Image, viewport, draw.Src, nil)

	if c.snap.Overlay.Enabled && c.selfie != nil {
		c.paintOverlay(canvas, srcTS)
	}

	for _, s := range c.snap.Timeline.ActiveStrokesAt(srcTS) {
		drawStroke(canvas, s.Points, strokeColor, strokeWidth)
	}

	return canvas, nil
}

// Release returns a rendered frame to the canvas pool.
func (c *Compositor) Release(img *image.RGBA) {
	system.PutImage(img)
}

// Substituted reports how many frames were filled from a prior frame
// because of decode gaps.
func (c *Compositor) Substituted() int64 {
	return c.substituted.Load()
}

func (c *Compositor) paintBackground(canvas *image.RGBA) {
	if bg := c.snap.Background; bg != nil {
		c.scaler.Scale(canvas, canvas.Bounds(), bg, bg.Bounds(), draw.Src, nil)
		return
	}
	fillRect(canvas, canvas.Bounds(), c.snap.Export.Background.RGBA())
}

// paintOverlay composites the selfie frame into its configured rect. A
// missing selfie frame skips the overlay for this output frame only.
func (c *Compositor) paintOverlay(canvas *image.RGBA, srcTS time.Duration) {
	frame, _, err := c.selfie.FrameAt(srcTS)
	if err != nil {
		return
	}

	target := c.snap.Overlay.Rect.Bounds().Intersect(canvas.Bounds())
	if target.Empty() {
		return
	}

	tmp := system.GetImage(image.Rect(0, 0, target.Dx(), target.Dy()))
	c.scaler.Scale(tmp, tmp.Bounds(), frame.Image, frame.Image.Bounds(), draw.Src, nil)
	if c.snap.Overlay.Mirrored {
		mirrorH(tmp)
	}
	draw.Draw(canvas, target, tmp, image.Point{}, draw.Src)
	system.PutImage(tmp)
}

// clampViewport shifts and shrinks a viewport to stay inside the frame,
// preferring a valid rect over an error.
func clampViewport(v zoom.Rect, bounds image.Rectangle) image.Rectangle {
	r := image.Rect(int(v.X), int(v.Y), int(v.X+v.W), int(v.Y+v.H))
	if r.Dx() < 1 {
		r.Max.X = r.Min.X + 1
	}
	if r.Dy() < 1 {
		r.Max.Y = r.Min.Y + 1
	}
	if dx := bounds.Min.X - r.Min.X; dx > 0 {
		r = r.Add(image.Point{X: dx})
	}
	if dy := bounds.Min.Y - r.Min.Y; dy > 0 {
		r = r.Add(image.Point{Y: dy})
	}
	if dx := r.Max.X - bounds.Max.X; dx > 0 {
		r = r.Sub(image.Point{X: dx})
	}
	if dy := r.Max.Y - bounds.Max.Y; dy > 0 {
		r = r.Sub(image.Point{Y: dy})
	}
	return r.Intersect(bounds)
}

// aspectFit centers the largest rect of the viewport's aspect ratio
// inside target.
func aspectFit(viewport, target image.Rectangle) image.Rectangle {
	vw, vh := viewport.Dx(), viewport.Dy()
	tw, th := target.Dx(), target.Dy()
	if vw <= 0 || vh <= 0 || tw <= 0 || th <= 0 {
		return target
	}

	w, h := tw, vh*tw/vw
	if h > th {
		w, h = vw*th/vh, th
	}
	x := target.Min.X + (tw-w)/2
	y := target.Min.Y + (th-h)/2
	return image.Rect(x, y, x+w, y+h)
}
