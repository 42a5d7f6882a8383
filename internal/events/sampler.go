package events

import (
	"image"
	"log"
	"sync/atomic"
)

// MarkerSink receives display-only click markers. The segment timeline
// implements it; markers never affect timeline extent.
type MarkerSink interface {
	AddClickMarker(at Timestamp, pos image.Point)
}

// Sampler turns the platform's frame and input callbacks into the
// append-only capture log. OnFrame runs on the frame-delivery path and
// must never block: platform clicks are queued on a bounded channel by
// PushClick and drained on the next frame.
type Sampler struct {
	rec      *Recorder
	markers  MarkerSink
	pending  chan ClickEvent
	degraded atomic.Bool
	dropped  atomic.Int64
}

// NewSampler creates a sampler feeding rec. markers may be nil.
// queueSize bounds the click backlog between two frames; anything
// beyond it is dropped and counted rather than blocking the producer.
func NewSampler(rec *Recorder, markers MarkerSink, queueSize int) *Sampler {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Sampler{
		rec:     rec,
		markers: markers,
		pending: make(chan ClickEvent, queueSize),
	}
}

// PushClick enqueues a platform click event. Called from the platform
// input callback; never blocks.
func (s *Sampler) PushClick(ev ClickEvent) {
	select {
	case s.pending <- ev:
	default:
		s.dropped.Add(1)
	}
}

// OnFrame records one cursor sample at the frame's timestamp and drains
// every click queued since the previous frame. A sample is produced for
// every frame even when nothing happened, so downstream interpolation
// never needs gap detection.
func (s *Sampler) OnFrame(at Timestamp, cursor image.Point) {
	s.rec.appendCursor(CursorSample{At: at, Pos: cursor})

	for {
		select {
		case ev := <-s.pending:
			s.rec.appendClick(ev)
			if s.markers != nil {
				s.markers.AddClickMarker(ev.At, ev.Pos)
			}
		default:
			return
		}
	}
}

// Degrade marks the input event feed as lost. Recording continues in
// cursor-only mode; the condition is logged once and queryable.
func (s *Sampler) Degrade(err error) {
	if s.degraded.CompareAndSwap(false, true) {
		log.Printf("[!] input event feed unavailable, continuing cursor-only: %v", err)
	}
}

// Degraded reports whether click capture was lost during the session.
func (s *Sampler) Degraded() bool {
	return s.degraded.Load()
}

// DroppedClicks reports how many clicks overflowed the queue.
func (s *Sampler) DroppedClicks() int64 {
	return s.dropped.Load()
}
