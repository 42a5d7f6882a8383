package session

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/screencut/internal/config"
	"github.com/ivlev/screencut/internal/events"
	"github.com/ivlev/screencut/internal/timeline"
	"github.com/ivlev/screencut/internal/zoom"
)

// State is the serializable edit state of a session. The surrounding
// application owns where it lives on disk; the core only defines the
// shape and validates it on restore.
type State struct {
	Version  string                `yaml:"version"`
	SourceW  int                   `yaml:"source_width"`
	SourceH  int                   `yaml:"source_height"`
	Timeline timeline.State        `yaml:"timeline"`
	Clicks   []events.ClickEvent   `yaml:"clicks,omitempty"`
	Cursor   []events.CursorSample `yaml:"cursor,omitempty"`
	Overlay  config.OverlayConfig  `yaml:"overlay"`
	Export   config.ExportConfig   `yaml:"export"`
	ZoomMode string                `yaml:"zoom_mode"`
	ZoomOpts zoom.Options          `yaml:"zoom_options"`
}

// State captures the session for persistence.
func (s *Session) State() State {
	return State{
		Version:  "1.0",
		SourceW:  s.srcW,
		SourceH:  s.srcH,
		Timeline: s.tl.State(),
		Clicks:   s.clicks,
		Cursor:   s.cursor,
		Overlay:  s.overlay,
		Export:   s.exportCf,
		ZoomMode: s.zoomMode.String(),
		ZoomOpts: s.zoomOpts,
	}
}

// FromState rebuilds a session from persisted state.
func FromState(st State) (*Session, error) {
	tl, err := timeline.FromState(st.Timeline)
	if err != nil {
		return nil, fmt.Errorf("restore timeline: %w", err)
	}
	return &Session{
		tl:       tl,
		clicks:   st.Clicks,
		cursor:   st.Cursor,
		srcW:     st.SourceW,
		srcH:     st.SourceH,
		overlay:  st.Overlay,
		exportCf: st.Export.Normalize(),
		zoomMode: zoom.ParseMode(st.ZoomMode),
		zoomOpts: st.ZoomOpts,
	}, nil
}

// Save writes the session state as YAML.
func Save(s *Session, path string) error {
	data, err := yaml.Marshal(s.State())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Load reads a session state written by Save.
func Load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var st State
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", path, err)
	}
	return FromState(st)
}

func decodeImageFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}
