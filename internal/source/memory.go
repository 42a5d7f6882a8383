package source

import (
	"io"
	"time"
)

// MemorySource serves pre-decoded frames from memory. It backs the
// capture-session frame buffer and the tests.
type MemorySource struct {
	frames   []Frame
	w, h     int
	duration time.Duration
	i        int
}

func NewMemorySource(frames []Frame, w, h int, duration time.Duration) *MemorySource {
	return &MemorySource{frames: frames, w: w, h: h, duration: duration}
}

func (m *MemorySource) Next() (Frame, error) {
	if m.i >= len(m.frames) {
		return Frame{}, io.EOF
	}
	f := m.frames[m.i]
	m.i++
	return f, nil
}

func (m *MemorySource) Size() (int, int)        { return m.w, m.h }
func (m *MemorySource) Duration() time.Duration { return m.duration }
func (m *MemorySource) Close() error            { return nil }

// MemoryAudio serves PCM blocks from memory, one track.
type MemoryAudio struct {
	blocks   []AudioBlock
	rate     int
	channels int
	i        int
}

func NewMemoryAudio(rate, channels int, blocks []AudioBlock) *MemoryAudio {
	return &MemoryAudio{blocks: blocks, rate: rate, channels: channels}
}

func (m *MemoryAudio) Next() (AudioBlock, error) {
	if m.i >= len(m.blocks) {
		return AudioBlock{}, io.EOF
	}
	b := m.blocks[m.i]
	m.i++
	return b, nil
}

func (m *MemoryAudio) SampleRate() int { return m.rate }
func (m *MemoryAudio) Channels() int   { return m.channels }
func (m *MemoryAudio) Close() error    { return nil }
