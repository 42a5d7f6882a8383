package encoder

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/ivlev/screencut/internal/source"
)

type audioTrack struct {
	file       *os.File
	path       string
	sampleRate int
	channels   int
}

// FFmpegSink encodes via the system ffmpeg. Video frames stream as raw
// RGBA over stdin (no intermediate frame files on disk); audio tracks
// accumulate as raw PCM and are muxed in at Finalize.
type FFmpegSink struct {
	outputPath string
	tempDir    string
	videoPath  string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	fflog  bytes.Buffer
	tracks []audioTrack

	width, height int
	fps           int
	encoderName   string
	quality       int

	ctx context.Context
}

// NewFFmpeg prepares a sink writing the final container to outputPath.
// encoderName comes from system.BestH264Encoder; quality is interpreted
// per encoder the same way throughout (CRF for x264, CQ for NVENC,
// bitrate basis for VideoToolbox).
func NewFFmpeg(ctx context.Context, outputPath string, width, height, fps int, encoderName string, quality int) (*FFmpegSink, error) {
	tempDir, err := os.MkdirTemp("", "screencut_")
	if err != nil {
		return nil, err
	}

	s := &FFmpegSink{
		outputPath:  outputPath,
		tempDir:     tempDir,
		videoPath:   filepath.Join(tempDir, "video.mp4"),
		width:       width,
		height:      height,
		fps:         fps,
		encoderName: encoderName,
		quality:     quality,
		ctx:         ctx,
	}

	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", width, height),
		"-framerate", fmt.Sprintf("%d", fps),
		"-i", "-",
		"-pix_fmt", "yuv420p",
		"-c:v", encoderName,
	}
	args = append(args, qualityArgs(encoderName, quality)...)
	args = append(args, s.videoPath)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stdout = &s.fflog
	cmd.Stderr = &s.fflog

	stdin, err := cmd.StdinPipe()
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, fmt.Errorf("ffmpeg stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		os.RemoveAll(tempDir)
		return nil, fmt.Errorf("ffmpeg start: %w", err)
	}

	s.cmd = cmd
	s.stdin = stdin
	return s, nil
}

func qualityArgs(encoderName string, quality int) []string {
	switch encoderName {
	case "h264_videotoolbox":
		// VideoToolbox has no reliable -q:v; use a bitrate derived from
		// the quality knob.
		return []string{"-b:v", fmt.Sprintf("%dk", quality*100)}
	case "h264_nvenc":
		return []string{"-cq", fmt.Sprintf("%d", quality)}
	default: // libx264
		return []string{"-crf", fmt.Sprintf("%d", quality), "-preset", "medium"}
	}
}

func (s *FFmpegSink) AddAudioTrack(sampleRate, channels int) (int, error) {
	path := filepath.Join(s.tempDir, fmt.Sprintf("a%d.pcm", len(s.tracks)))
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	s.tracks = append(s.tracks, audioTrack{
		file:       f,
		path:       path,
		sampleRate: sampleRate,
		channels:   channels,
	})
	return len(s.tracks) - 1, nil
}

func (s *FFmpegSink) WriteFrame(img *image.RGBA) error {
	if err := writeRawRGBA(s.stdin, img); err != nil {
		return fmt.Errorf("encode frame: %w (ffmpeg: %s)", err, lastLog(&s.fflog))
	}
	return nil
}

func (s *FFmpegSink) WriteAudio(track int, block source.AudioBlock) error {
	if track < 0 || track >= len(s.tracks) {
		return fmt.Errorf("unknown audio track %d", track)
	}
	if _, err := s.tracks[track].file.Write(block.Data); err != nil {
		return fmt.Errorf("write audio: %w", err)
	}
	return nil
}

// Finalize closes the video stream and muxes the audio tracks into the
// final container.
func (s *FFmpegSink) Finalize() error {
	defer os.RemoveAll(s.tempDir)

	s.stdin.Close()
	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg encode: %w (log: %s)", err, lastLog(&s.fflog))
	}

	args := []string{"-y", "-i", s.videoPath}
	for i := range s.tracks {
		s.tracks[i].file.Close()
		args = append(args,
			"-f", "s16le",
			"-ar", fmt.Sprintf("%d", s.tracks[i].sampleRate),
			"-ac", fmt.Sprintf("%d", s.tracks[i].channels),
			"-i", s.tracks[i].path,
		)
	}
	args = append(args, "-map", "0:v", "-c:v", "copy")
	for i := range s.tracks {
		args = append(args, "-map", fmt.Sprintf("%d:a", i+1))
	}
	if len(s.tracks) > 0 {
		args = append(args, "-c:a", "aac")
	}
	args = append(args, s.outputPath)

	cmd := exec.CommandContext(s.ctx, "ffmpeg", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		os.Remove(s.outputPath)
		return fmt.Errorf("ffmpeg mux: %w (log: %s)", err, tail(string(out)))
	}
	return nil
}

// Discard tears the encode down and removes every partial artifact,
// including a half-written output file.
func (s *FFmpegSink) Discard() error {
	s.stdin.Close()
	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	s.cmd.Wait()
	for i := range s.tracks {
		s.tracks[i].file.Close()
	}
	os.RemoveAll(s.tempDir)
	return os.RemoveAll(s.outputPath)
}

func writeRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(bounds)
		draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix)
	return err
}

func lastLog(b *bytes.Buffer) string {
	return tail(b.String())
}

func tail(s string) string {
	const max = 512
	if len(s) > max {
		return "..." + s[len(s)-max:]
	}
	return s
}
