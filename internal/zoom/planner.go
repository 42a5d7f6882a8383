package zoom

import (
	"time"

	"github.com/ivlev/screencut/internal/events"
)

// BuildPlan derives the keyframe sequence for a recording from the
// capture log and the selected mode. The plan is immutable; switching
// modes means building a new plan.
func BuildPlan(mode Mode, clicks []events.ClickEvent, cursor []events.CursorSample, srcW, srcH int, duration time.Duration, opts Options) *Plan {
	p := &Plan{srcW: float64(srcW), srcH: float64(srcH)}
	opts = opts.normalized()

	switch mode {
	case ModeZoomOnClick:
		p.keyframes = clickKeyframes(clicks, p.srcW, p.srcH, duration, opts)
	case ModeFollowMouse:
		p.keyframes = followKeyframes(cursor, p.srcW, p.srcH, duration, opts)
	}
	return p
}

// clickKeyframes emits, per click burst, an identity anchor one
// transition before the first click, the zoomed viewport held until
// hold expires after the last click of the burst, then a ramp back to
// identity. Clicks whose windows overlap extend the hold of the earlier
// click instead of re-triggering, so rapid clicking never re-snaps.
func clickKeyframes(clicks []events.ClickEvent, srcW, srcH float64, duration time.Duration, opts Options) []Keyframe {
	if len(clicks) == 0 {
		return nil
	}

	identity := Rect{X: 0, Y: 0, W: srcW, H: srcH}
	var kfs []Keyframe
	prevEnd := time.Duration(-1)

	i := 0
	for i < len(clicks) {
		first := clicks[i]
		rect := zoomedRect(float64(first.Pos.X), float64(first.Pos.Y), srcW, srcH, opts.Scale)

		holdEnd := first.At + opts.Hold
		i++
		for i < len(clicks) && clicks[i].At <= holdEnd+opts.Transition {
			holdEnd = clicks[i].At + opts.Hold
			i++
		}
		end := holdEnd + opts.Transition

		anchor := first.At - opts.Transition
		if anchor < 0 {
			anchor = 0
		}
		if anchor > prevEnd && anchor < first.At {
			kfs = append(kfs, Keyframe{At: clampTS(anchor, duration), Viewport: identity})
		}
		kfs = append(kfs,
			Keyframe{At: clampTS(first.At, duration), Viewport: rect},
			Keyframe{At: clampTS(holdEnd, duration), Viewport: rect},
			Keyframe{At: clampTS(end, duration), Viewport: identity},
		)
		prevEnd = end
	}
	return kfs
}

// followKeyframes resamples the cursor trail at a fixed cadence. An
// exponential moving average over position keeps high-zoom output from
// amplifying cursor jitter.
func followKeyframes(cursor []events.CursorSample, srcW, srcH float64, duration time.Duration, opts Options) []Keyframe {
	if len(cursor) == 0 {
		return nil
	}

	emaX := float64(cursor[0].Pos.X)
	emaY := float64(cursor[0].Pos.Y)
	alpha := opts.Smoothing

	var kfs []Keyframe
	si := 0
	for ts := time.Duration(0); ts < duration; ts += opts.Cadence {
		for si+1 < len(cursor) && cursor[si+1].At <= ts {
			si++
		}
		emaX += alpha * (float64(cursor[si].Pos.X) - emaX)
		emaY += alpha * (float64(cursor[si].Pos.Y) - emaY)
		kfs = append(kfs, Keyframe{
			At:       ts,
			Viewport: zoomedRect(emaX, emaY, srcW, srcH, opts.Scale),
		})
	}
	return kfs
}
