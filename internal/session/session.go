package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"github.com/ivlev/screencut/internal/compositor"
	"github.com/ivlev/screencut/internal/config"
	"github.com/ivlev/screencut/internal/encoder"
	"github.com/ivlev/screencut/internal/events"
	"github.com/ivlev/screencut/internal/export"
	"github.com/ivlev/screencut/internal/source"
	"github.com/ivlev/screencut/internal/system"
	"github.com/ivlev/screencut/internal/timeline"
	"github.com/ivlev/screencut/internal/zoom"
)

// ErrExportRunning rejects a second export while one is in flight for
// this session.
var ErrExportRunning = errors.New("an export is already running for this session")

// Session owns the edit state of one recording: the segment timeline,
// overlay and export configs, the zoom mode and the capture log. All
// mutations go through the session on a single logical owner; the UI
// observes through queries and the change callback, never the other
// way around.
type Session struct {
	tl       *timeline.Timeline
	clicks   []events.ClickEvent
	cursor   []events.CursorSample
	srcW     int
	srcH     int
	overlay  config.OverlayConfig
	exportCf config.ExportConfig
	zoomMode zoom.Mode
	zoomOpts zoom.Options

	plan *zoom.Plan // rebuilt lazily after invalidation

	onChange func()
	version  uint64

	mu      sync.Mutex
	current *export.Pipeline
}

// New creates an editing session for a finished recording. The
// timeline starts as a single fully-included segment.
func New(rec *events.Recorder, srcW, srcH int, duration time.Duration) *Session {
	s := &Session{
		tl:       timeline.New(duration),
		srcW:     srcW,
		srcH:     srcH,
		exportCf: config.DefaultExport(),
		zoomOpts: zoom.DefaultOptions(),
	}
	if rec != nil {
		s.clicks = rec.Clicks()
		s.cursor = rec.Cursor()
		for _, c := range s.clicks {
			s.tl.AddClickMarker(c.At, c.Pos)
		}
	}
	return s
}

// OnChange registers the UI notification hook. One subscriber is
// enough: the session is observed, it never observes back.
func (s *Session) OnChange(fn func()) { s.onChange = fn }

// Version increments on every successful mutation.
func (s *Session) Version() uint64 { return s.version }

func (s *Session) changed() {
	s.version++
	if s.onChange != nil {
		s.onChange()
	}
}

// Timeline queries.

func (s *Session) Duration() time.Duration              { return s.tl.Duration() }
func (s *Session) Segments() []timeline.Segment         { return s.tl.Segments() }
func (s *Session) ExportableRanges() []timeline.Range   { return s.tl.ExportableRanges() }
func (s *Session) Markers() []timeline.ClickMarker      { return s.tl.Markers() }
func (s *Session) ExportDuration() time.Duration        { return s.tl.ExportDuration() }
func (s *Session) ActiveStrokesAt(ts time.Duration) []timeline.Stroke {
	return s.tl.ActiveStrokesAt(ts)
}

// Timeline mutations.

func (s *Session) AddCutPoint(ts time.Duration) error {
	if err := s.tl.AddCutPoint(ts); err != nil {
		return err
	}
	s.changed()
	return nil
}

func (s *Session) RemoveSegment(id int) error {
	if err := s.tl.RemoveSegment(id); err != nil {
		return err
	}
	s.changed()
	return nil
}

func (s *Session) RestoreSegment(id int) error {
	if err := s.tl.RestoreSegment(id); err != nil {
		return err
	}
	s.changed()
	return nil
}

func (s *Session) AddStroke(points []image.Point, start, end time.Duration) int {
	id := s.tl.AddStroke(points, start, end)
	s.changed()
	return id
}

func (s *Session) ClearStrokesAt(ts time.Duration) int {
	n := s.tl.ClearActiveAt(ts)
	if n > 0 {
		s.changed()
	}
	return n
}

// Config mutations.

func (s *Session) SetOverlay(cfg config.OverlayConfig) {
	s.overlay = cfg
	s.changed()
}

func (s *Session) Overlay() config.OverlayConfig { return s.overlay }

func (s *Session) SetExportConfig(cfg config.ExportConfig) {
	s.exportCf = cfg.Normalize()
	s.changed()
}

func (s *Session) ExportConfig() config.ExportConfig { return s.exportCf }

// SetZoomMode selects the zoom mode and invalidates the current plan;
// the next query regenerates it.
func (s *Session) SetZoomMode(mode zoom.Mode) {
	if mode == s.zoomMode {
		return
	}
	s.zoomMode = mode
	s.plan = nil
	s.changed()
}

func (s *Session) ZoomMode() zoom.Mode { return s.zoomMode }

// SetZoomOptions tunes plan generation and invalidates the plan.
func (s *Session) SetZoomOptions(opts zoom.Options) {
	s.zoomOpts = opts
	s.plan = nil
	s.changed()
}

func (s *Session) currentPlan() *zoom.Plan {
	if s.plan == nil {
		s.plan = zoom.BuildPlan(s.zoomMode, s.clicks, s.cursor, s.srcW, s.srcH, s.tl.Duration(), s.zoomOpts)
	}
	return s.plan
}

// ZoomAt returns the viewport at a source timestamp under the current
// mode.
func (s *Session) ZoomAt(ts time.Duration) zoom.Rect {
	return s.currentPlan().ViewportAt(ts)
}

// snapshot freezes the edit state for one render run.
func (s *Session) snapshot() compositor.Snapshot {
	return compositor.Snapshot{
		Timeline:   s.tl.Clone(),
		Plan:       s.currentPlan(),
		Overlay:    s.overlay,
		Export:     s.exportCf,
		Background: loadBackground(s.exportCf.Background),
	}
}

// RenderPreviewFrame renders the output frame at an output-timeline
// timestamp using the same compositor as export, so preview and export
// are pixel-identical for an unchanged session. The caller returns the
// frame through ReleasePreviewFrame once displayed.
func (s *Session) RenderPreviewFrame(ts time.Duration, screen, selfie *source.Stream) (*image.RGBA, error) {
	comp := compositor.New(s.snapshot(), screen, selfie)
	img, err := comp.Render(ts)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// ReleasePreviewFrame recycles a frame from RenderPreviewFrame.
func (s *Session) ReleasePreviewFrame(img *image.RGBA) {
	system.PutImage(img)
}

// StartExport freezes the current edit state and starts the export
// pipeline on its own goroutine. At most one export runs per session;
// a second call while one is running returns ErrExportRunning. The
// returned pipeline reports progress and accepts cancellation through
// ctx.
func (s *Session) StartExport(ctx context.Context, screen, selfie *source.Stream, sink encoder.Sink, audio ...source.AudioSource) (*export.Pipeline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Idle is in flight too: the previous pipeline's goroutine may not
	// have entered Run yet.
	if s.current != nil && !s.current.State().Terminal() {
		return nil, ErrExportRunning
	}

	snap := s.snapshot()
	if snap.Timeline.ExportDuration() == 0 {
		return nil, fmt.Errorf("nothing to export: every segment is excluded")
	}

	comp := compositor.New(snap, screen, selfie)
	cfg := snap.Export
	p := export.New(comp, sink, snap.Timeline, cfg.FPS, cfg.Width, cfg.Height, cfg.Mute, audio...)
	s.current = p

	go func() {
		if err := p.Run(ctx); err != nil {
			log.Printf("[-] export failed: %v", err)
		}
		if n := comp.Substituted(); n > 0 {
			log.Printf("[!] %d frames substituted during export", n)
		}
	}()
	return p, nil
}

func loadBackground(bg config.Background) image.Image {
	if bg.Image == "" {
		return nil
	}
	img, err := decodeImageFile(bg.Image)
	if err != nil {
		// Clamp-don't-fail: fall back to the solid color.
		log.Printf("[!] background image %s unusable, using color: %v", bg.Image, err)
		return nil
	}
	return img
}
