package export

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/screencut/internal/compositor"
	"github.com/ivlev/screencut/internal/encoder"
	"github.com/ivlev/screencut/internal/source"
	"github.com/ivlev/screencut/internal/system"
	"github.com/ivlev/screencut/internal/timeline"
)

// State is the pipeline's lifecycle position. It only moves forward:
// Idle -> Running -> one of the terminal states.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateCancelled
	StateFailed
)

// Terminal reports whether the state is final. A pipeline that is not
// terminal is in flight: Idle counts, since a launched pipeline may not
// have entered Run yet.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateCancelled, StateFailed:
		return true
	}
	return false
}

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Pipeline drives one export attempt over a frozen snapshot. Each
// attempt is its own instance: status, snapshot and error live here,
// never in shared globals.
type Pipeline struct {
	comp   *compositor.Compositor
	sink   encoder.Sink
	ranges []timeline.Range
	dur    time.Duration
	fps    int
	mute   bool
	audio  []source.AudioSource
	width  int
	height int

	state      atomic.Int32
	ticksDone  atomic.Int64
	totalTicks int64

	mu   sync.Mutex
	err  error
	done chan struct{}
}

// New assembles a pipeline. tl must be the same frozen snapshot the
// compositor was built on. audio carries the system and microphone
// tracks; pass none for a silent recording.
func New(comp *compositor.Compositor, sink encoder.Sink, tl *timeline.Timeline, fps, width, height int, mute bool, audio ...source.AudioSource) *Pipeline {
	dur := tl.ExportDuration()
	return &Pipeline{
		comp:       comp,
		sink:       sink,
		ranges:     tl.ExportableRanges(),
		dur:        dur,
		fps:        fps,
		mute:       mute,
		audio:      audio,
		width:      width,
		height:     height,
		totalTicks: int64(dur) * int64(fps) / int64(time.Second),
		done:       make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// Progress reports completed output ticks over total ticks, 0..1.
// Observable from any goroutine while the export runs.
func (p *Pipeline) Progress() float64 {
	if p.totalTicks == 0 {
		return 1
	}
	return float64(p.ticksDone.Load()) / float64(p.totalTicks)
}

// Err returns the terminal error after StateFailed.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Done is closed once the pipeline reaches a terminal state.
func (p *Pipeline) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the pipeline terminates and returns its error, nil
// for Completed and Cancelled.
func (p *Pipeline) Wait() error {
	<-p.done
	return p.Err()
}

// Run executes the export to completion, cancellation or failure. It
// is called once; the session owner usually runs it on its own
// goroutine and watches Progress/State.
func (p *Pipeline) Run(ctx context.Context) error {
	if !p.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return fmt.Errorf("export already started (state %s)", p.State())
	}
	defer close(p.done)

	if err := p.run(ctx); err != nil {
		if ctx.Err() != nil {
			// User-initiated: not an error, but nothing half-written
			// may survive.
			p.sink.Discard()
			p.state.Store(int32(StateCancelled))
			log.Printf("[*] export cancelled after %d/%d frames", p.ticksDone.Load(), p.totalTicks)
			return nil
		}
		p.sink.Discard()
		p.setErr(err)
		p.state.Store(int32(StateFailed))
		return err
	}

	if err := p.sink.Finalize(); err != nil {
		p.sink.Discard()
		p.setErr(err)
		p.state.Store(int32(StateFailed))
		return err
	}
	p.state.Store(int32(StateCompleted))
	return nil
}

func (p *Pipeline) run(ctx context.Context) error {
	if err := p.writeVideo(ctx); err != nil {
		return err
	}
	if p.mute || len(p.audio) == 0 {
		return nil
	}
	return p.writeAudio(ctx)
}

type renderedFrame struct {
	img *image.RGBA
}

// writeVideo composites and encodes every output tick. Compositing for
// frame N+1 overlaps frame N's encode through a bounded channel; a
// single producer and a single consumer keep sink order strictly
// monotonic.
func (p *Pipeline) writeVideo(ctx context.Context) error {
	depth := system.PrefetchDepth(p.width * p.height * 4)
	frames := make(chan renderedFrame, depth)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(frames)
		for tick := int64(0); tick < p.totalTicks; tick++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			ts := time.Duration(tick) * time.Second / time.Duration(p.fps)
			img, err := p.comp.Render(ts)
			if err != nil {
				return fmt.Errorf("compose frame %d: %w", tick, err)
			}
			select {
			case frames <- renderedFrame{img: img}:
			case <-ctx.Done():
				p.comp.Release(img)
				return ctx.Err()
			}
		}
		return nil
	})

	g.Go(func() error {
		for f := range frames {
			err := p.sink.WriteFrame(f.img)
			p.comp.Release(f.img)
			if err != nil {
				return fmt.Errorf("encode frame %d: %w", p.ticksDone.Load(), err)
			}
			p.ticksDone.Add(1)
		}
		return nil
	})

	return g.Wait()
}

// writeAudio trims each track to the exportable ranges, sample
// accurately, and forwards the samples in output order. The tracks pass
// through otherwise unchanged.
func (p *Pipeline) writeAudio(ctx context.Context) error {
	for _, src := range p.audio {
		track, err := p.sink.AddAudioTrack(src.SampleRate(), src.Channels())
		if err != nil {
			return fmt.Errorf("audio track: %w", err)
		}
		if err := p.copyTrack(ctx, src, track); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) copyTrack(ctx context.Context, src source.AudioSource, track int) error {
	rate := src.SampleRate()
	frameBytes := 2 * src.Channels() // s16le

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		block, err := src.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("audio read: %w", err)
		}

		samples := len(block.Data) / frameBytes
		blockEnd := block.At + time.Duration(samples)*time.Second/time.Duration(rate)

		// Blocks and ranges are both source-time ordered, so emitting
		// per-range slices in order yields output-time order.
		for _, r := range p.ranges {
			start, end := block.At, blockEnd
			if r.Start > start {
				start = r.Start
			}
			if r.End < end {
				end = r.End
			}
			if start >= end {
				continue
			}
			s0 := int((start - block.At) * time.Duration(rate) / time.Second)
			s1 := int((end - block.At) * time.Duration(rate) / time.Second)
			if s1 > samples {
				s1 = samples
			}
			if s0 >= s1 {
				continue
			}
			out := source.AudioBlock{At: start, Data: block.Data[s0*frameBytes : s1*frameBytes]}
			if err := p.sink.WriteAudio(track, out); err != nil {
				return fmt.Errorf("audio write: %w", err)
			}
		}
	}
}

func (p *Pipeline) setErr(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}
