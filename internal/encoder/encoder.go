package encoder

import (
	"image"

	"github.com/ivlev/screencut/internal/source"
)

// Sink accepts the export's ordered frame and audio output. Frame write
// order is the output order: the export pipeline never reorders, and a
// sink may assume frame N arrives before frame N+1.
//
// A sink ends in Finalize (keep the output) or Discard (remove every
// partial artifact, used on cancel and on failure). A failed Finalize
// is followed by Discard, so Discard must tolerate a sink that already
// tore itself down.
type Sink interface {
	// AddAudioTrack declares a PCM track before the first write and
	// returns its handle.
	AddAudioTrack(sampleRate, channels int) (int, error)
	WriteFrame(img *image.RGBA) error
	WriteAudio(track int, block source.AudioBlock) error
	Finalize() error
	Discard() error
}
