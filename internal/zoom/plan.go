package zoom

import (
	"sort"
	"time"
)

// Plan is an immutable, ordered keyframe sequence for one recording.
// It is O(keyframes) in memory and queried lazily per timestamp, so the
// result is independent of the output frame rate.
type Plan struct {
	keyframes []Keyframe
	srcW      float64
	srcH      float64
}

// Identity is the full-frame viewport for a source of the given size.
func Identity(srcW, srcH int) Rect {
	return Rect{X: 0, Y: 0, W: float64(srcW), H: float64(srcH)}
}

// Keyframes returns a copy of the plan's keyframe sequence.
func (p *Plan) Keyframes() []Keyframe {
	out := make([]Keyframe, len(p.keyframes))
	copy(out, p.keyframes)
	return out
}

// ViewportAt returns the viewport at a source timestamp. An empty plan
// is the identity viewport everywhere. Outside the keyframe span the
// nearest endpoint holds; inside, origin and size interpolate linearly.
func (p *Plan) ViewportAt(ts time.Duration) Rect {
	kfs := p.keyframes
	if len(kfs) == 0 {
		return Rect{X: 0, Y: 0, W: p.srcW, H: p.srcH}
	}
	if ts <= kfs[0].At {
		return kfs[0].Viewport
	}
	if ts >= kfs[len(kfs)-1].At {
		return kfs[len(kfs)-1].Viewport
	}

	// First keyframe strictly after ts; its predecessor starts the span.
	i := sort.Search(len(kfs), func(i int) bool { return kfs[i].At > ts })
	prev, next := kfs[i-1], kfs[i]

	span := next.At - prev.At
	if span <= 0 {
		return next.Viewport
	}
	t := float64(ts-prev.At) / float64(span)
	return Rect{
		X: lerp(prev.Viewport.X, next.Viewport.X, t),
		Y: lerp(prev.Viewport.Y, next.Viewport.Y, t),
		W: lerp(prev.Viewport.W, next.Viewport.W, t),
		H: lerp(prev.Viewport.H, next.Viewport.H, t),
	}
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// zoomedRect is the viewport of the given scale centered on (cx, cy),
// shifted as needed to stay inside the source frame.
func zoomedRect(cx, cy, srcW, srcH, scale float64) Rect {
	w := srcW / scale
	h := srcH / scale
	x := cx - w/2
	y := cy - h/2
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	if x+w > srcW {
		x = srcW - w
	}
	if y+h > srcH {
		y = srcH - h
	}
	return Rect{X: x, Y: y, W: w, H: h}
}

func clampTS(ts, max time.Duration) time.Duration {
	if ts < 0 {
		return 0
	}
	if ts >= max {
		return max - time.Nanosecond
	}
	return ts
}
