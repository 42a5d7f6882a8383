package source

import (
	"fmt"
	"io"
	"time"
)

// Stream adapts a sequential FrameSource to the compositor's
// frame-at-timestamp access pattern. Requests must be monotonically
// non-decreasing, which holds for both preview scrubbing within an
// export and the export tick loop itself.
//
// When the source has no frame at the requested timestamp (a decode
// gap), the nearest prior frame is substituted and reported, never an
// error: a dropped frame must not abort an export.
type Stream struct {
	src      FrameSource
	interval time.Duration

	cur      Frame
	pending  Frame
	havePend bool
	started  bool
	eof      bool
}

// NewStream wraps src. nominalInterval is the expected frame spacing
// used to flag substitutions; zero disables gap detection (substituted
// is then never reported).
func NewStream(src FrameSource, nominalInterval time.Duration) *Stream {
	return &Stream{src: src, interval: nominalInterval}
}

// FrameAt returns the latest frame at or before ts. substituted is true
// when the returned frame is more than one and a half nominal intervals
// older than ts.
func (s *Stream) FrameAt(ts time.Duration) (Frame, bool, error) {
	if !s.started {
		f, err := s.src.Next()
		if err == io.EOF {
			return Frame{}, false, ErrNoFrames
		}
		if err != nil {
			return Frame{}, false, fmt.Errorf("first frame: %w", err)
		}
		s.cur = f
		s.started = true
	}

	for {
		if s.havePend {
			if s.pending.At > ts {
				break
			}
			s.cur = s.pending
			s.havePend = false
			continue
		}
		if s.eof {
			break
		}
		f, err := s.src.Next()
		if err == io.EOF {
			s.eof = true
			continue
		}
		if err != nil {
			return Frame{}, false, fmt.Errorf("frame read: %w", err)
		}
		s.pending = f
		s.havePend = true
	}

	substituted := s.interval > 0 && ts-s.cur.At > s.interval+s.interval/2
	return s.cur, substituted, nil
}

// Size reports the underlying source resolution.
func (s *Stream) Size() (int, int) { return s.src.Size() }

// Duration reports the underlying source duration.
func (s *Stream) Duration() time.Duration { return s.src.Duration() }

func (s *Stream) Close() error { return s.src.Close() }
