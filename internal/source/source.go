package source

import (
	"errors"
	"image"
	"time"
)

// ErrNoFrames is returned by streams over an empty frame sequence.
var ErrNoFrames = errors.New("source contains no frames")

// Frame is one decoded raster frame with its capture timestamp.
type Frame struct {
	Image image.Image
	At    time.Duration
}

// FrameSource produces a lazy, time-ordered, finite sequence of decoded
// frames. How frames are physically captured is the platform layer's
// business; the core only consumes this interface.
type FrameSource interface {
	// Next returns the next frame in timestamp order, or io.EOF.
	Next() (Frame, error)
	// Size is the frame resolution in pixels.
	Size() (w, h int)
	// Duration is the total length of the sequence.
	Duration() time.Duration
	Close() error
}

// AudioBlock is a block of interleaved PCM samples (s16le) starting at
// a capture timestamp.
type AudioBlock struct {
	At   time.Duration
	Data []byte
}

// AudioSource produces time-ordered PCM blocks for one track (system
// audio or microphone).
type AudioSource interface {
	// Next returns the next block in timestamp order, or io.EOF.
	Next() (AudioBlock, error)
	SampleRate() int
	Channels() int
	Close() error
}
