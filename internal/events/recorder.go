package events

import "sync"

// Recorder is the append-only capture log for one recording session.
// Appends are amortized O(1) and safe to call from the frame-delivery
// callback; readers take copies.
type Recorder struct {
	mu     sync.Mutex
	clicks []ClickEvent
	cursor []CursorSample
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) appendClick(ev ClickEvent) {
	r.mu.Lock()
	r.clicks = append(r.clicks, ev)
	r.mu.Unlock()
}

func (r *Recorder) appendCursor(s CursorSample) {
	r.mu.Lock()
	r.cursor = append(r.cursor, s)
	r.mu.Unlock()
}

// Clicks returns the recorded click sequence, ordered by timestamp.
func (r *Recorder) Clicks() []ClickEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ClickEvent, len(r.clicks))
	copy(out, r.clicks)
	return out
}

// Cursor returns the recorded cursor samples, ordered by timestamp.
func (r *Recorder) Cursor() []CursorSample {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CursorSample, len(r.cursor))
	copy(out, r.cursor)
	return out
}
