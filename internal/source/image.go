package source

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// ImageDirSource plays a directory of numbered PNG/JPEG captures as a
// frame sequence at a fixed rate. Frames decode lazily on Next, one at
// a time, so a long recording never sits in memory at once.
type ImageDirSource struct {
	paths    []string
	w, h     int
	interval time.Duration
	i        int
}

func NewImageDirSource(dir string, fps int) (*ImageDirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".png", ".jpg", ".jpeg":
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no images in %s", ErrNoFrames, dir)
	}
	if fps <= 0 {
		fps = 30
	}

	f, err := os.Open(paths[0])
	if err != nil {
		return nil, err
	}
	cfg, _, err := image.DecodeConfig(f)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", paths[0], err)
	}

	return &ImageDirSource{
		paths:    paths,
		w:        cfg.Width,
		h:        cfg.Height,
		interval: time.Second / time.Duration(fps),
	}, nil
}

func (s *ImageDirSource) Next() (Frame, error) {
	if s.i >= len(s.paths) {
		return Frame{}, io.EOF
	}
	f, err := os.Open(s.paths[s.i])
	if err != nil {
		return Frame{}, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return Frame{}, fmt.Errorf("decode %s: %w", s.paths[s.i], err)
	}

	frame := Frame{Image: img, At: time.Duration(s.i) * s.interval}
	s.i++
	return frame, nil
}

func (s *ImageDirSource) Size() (int, int) { return s.w, s.h }

func (s *ImageDirSource) Duration() time.Duration {
	return time.Duration(len(s.paths)) * s.interval
}

// Interval is the nominal frame spacing, for substitution detection.
func (s *ImageDirSource) Interval() time.Duration { return s.interval }

func (s *ImageDirSource) Close() error { return nil }
