package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ivlev/screencut/internal/config"
	"github.com/ivlev/screencut/internal/encoder"
	"github.com/ivlev/screencut/internal/session"
	"github.com/ivlev/screencut/internal/source"
	"github.com/ivlev/screencut/internal/system"
	"github.com/ivlev/screencut/internal/zoom"
)

func main() {
	system.InitResourceLimits()

	framesPtr := flag.String("frames", "", "Directory with captured screen frames (png/jpg, sorted by name)")
	selfiePtr := flag.String("selfie", "", "Directory with camera overlay frames (optional)")
	sessionPtr := flag.String("session", "", "Session state YAML to load; created next to the output if missing")
	outputPtr := flag.String("output", "", "Output mp4 path (default: output/<frames-dir>_<timestamp>.mp4)")
	fpsPtr := flag.Int("fps", 30, "Capture and export frame rate")
	widthPtr := flag.Int("width", 1920, "Output width")
	heightPtr := flag.Int("height", 1080, "Output height")
	cutPtr := flag.String("cut", "", "Comma-separated cut points in seconds, e.g. 2.0,6.5")
	excludePtr := flag.String("exclude", "", "Comma-separated segment indexes to exclude after cutting (0-based)")
	zoomPtr := flag.String("zoom-mode", "none", "Zoom mode: none, zoom-on-click, follow-mouse")
	backgroundPtr := flag.String("background", "#000000", "Background color (#rrggbb) or image path")
	borderPtr := flag.Int("border", 5, "Border width around the video, 1-20")
	borderColorPtr := flag.String("border-color", "", "Border color (#rrggbb); empty shows the background through")
	mutePtr := flag.Bool("mute", false, "Export without audio")
	qualityPtr := flag.Int("quality", 0, "Quality (0 - auto; x264: CRF, VideoToolbox: bitrate = Q*100kbit/s)")

	flag.Parse()

	if *framesPtr == "" {
		log.Fatalf("[-] -frames is required: point it at a directory of captured frames")
	}

	screen, err := source.NewImageDirSource(*framesPtr, *fpsPtr)
	if err != nil {
		log.Fatalf("[-] cannot open frame source: %v", err)
	}
	defer screen.Close()

	w, h := screen.Size()
	fmt.Printf("[*] Source: %dx%d, %v of footage\n", w, h, screen.Duration().Round(time.Millisecond))

	sess, err := loadOrCreateSession(*sessionPtr, screen)
	if err != nil {
		log.Fatalf("[-] session: %v", err)
	}

	if err := applyFlags(sess, *cutPtr, *excludePtr, *zoomPtr); err != nil {
		log.Fatalf("[-] %v", err)
	}

	cfg := sess.ExportConfig()
	cfg.Width, cfg.Height, cfg.FPS = *widthPtr, *heightPtr, *fpsPtr
	cfg.BorderWidth = *borderPtr
	cfg.BorderColor = *borderColorPtr
	cfg.Mute = *mutePtr
	if strings.HasPrefix(*backgroundPtr, "#") {
		cfg.Background = config.Background{Color: *backgroundPtr}
	} else {
		cfg.Background = config.Background{Image: *backgroundPtr}
	}
	sess.SetExportConfig(cfg)
	cfg = sess.ExportConfig()

	var selfie *source.Stream
	if *selfiePtr != "" {
		cam, err := source.NewImageDirSource(*selfiePtr, *fpsPtr)
		if err != nil {
			log.Fatalf("[-] cannot open selfie source: %v", err)
		}
		defer cam.Close()
		selfie = source.NewStream(cam, cam.Interval())

		ov := sess.Overlay()
		if !ov.Enabled {
			ov.Enabled = true
			ov.Mirrored = true
			ov.Rect = config.Rect{X: cfg.Width - 340, Y: cfg.Height - 210, W: 320, H: 180}
			sess.SetOverlay(ov)
		}
	}

	outputPath := *outputPtr
	if outputPath == "" {
		os.MkdirAll("output", 0755)
		base := filepath.Base(strings.TrimRight(*framesPtr, "/"))
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		outputPath = filepath.Join("output", fmt.Sprintf("%s_%s.mp4", base, timestamp))
	}

	encoderName := system.BestH264Encoder()
	if encoderName != "libx264" {
		fmt.Printf("[*] Hardware encoder detected: %s\n", encoderName)
	}

	quality := *qualityPtr
	if quality == 0 {
		switch encoderName {
		case "h264_videotoolbox":
			quality = 75
		case "h264_nvenc":
			quality = 28
		default:
			quality = 23
		}
	}
	cfg.Quality = quality
	sess.SetExportConfig(cfg)
	cfg = sess.ExportConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink, err := encoder.NewFFmpeg(ctx, outputPath, cfg.Width, cfg.Height, cfg.FPS, encoderName, cfg.Quality)
	if err != nil {
		log.Fatalf("[-] ffmpeg: %v", err)
	}

	fmt.Printf("[*] Exporting %v to %s (%dx%d @%dfps, %s)\n",
		sess.ExportDuration().Round(time.Millisecond), outputPath, cfg.Width, cfg.Height, cfg.FPS, encoderName)

	pipe, err := sess.StartExport(ctx, source.NewStream(screen, screen.Interval()), selfie, sink)
	if err != nil {
		log.Fatalf("[-] export: %v", err)
	}

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for done := false; !done; {
		select {
		case <-pipe.Done():
			done = true
		case <-ticker.C:
			fmt.Printf("\r[>] Progress: %5.1f%%", pipe.Progress()*100)
		}
	}
	fmt.Println()

	if err := pipe.Wait(); err != nil {
		log.Fatalf("[-] export failed: %v", err)
	}
	if ctx.Err() != nil {
		fmt.Println("[!] Export cancelled, partial output discarded")
		return
	}

	if *sessionPtr != "" {
		if err := session.Save(sess, *sessionPtr); err != nil {
			log.Printf("[!] cannot save session: %v", err)
		}
	}

	fmt.Printf("[+++] Done! Result: %s\n", outputPath)
}

func loadOrCreateSession(path string, screen *source.ImageDirSource) (*session.Session, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			fmt.Printf("[*] Loading session: %s\n", path)
			return session.Load(path)
		}
	}
	w, h := screen.Size()
	return session.New(nil, w, h, screen.Duration()), nil
}

func applyFlags(sess *session.Session, cuts, exclude, zoomMode string) error {
	for _, part := range splitList(cuts) {
		var sec float64
		if _, err := fmt.Sscanf(part, "%g", &sec); err != nil {
			return fmt.Errorf("bad cut point %q: %w", part, err)
		}
		ts := time.Duration(sec * float64(time.Second))
		if err := sess.AddCutPoint(ts); err != nil {
			return fmt.Errorf("cut at %v: %w", ts, err)
		}
	}

	segs := sess.Segments()
	for _, part := range splitList(exclude) {
		var idx int
		if _, err := fmt.Sscanf(part, "%d", &idx); err != nil {
			return fmt.Errorf("bad segment index %q: %w", part, err)
		}
		if idx < 0 || idx >= len(segs) {
			return fmt.Errorf("segment index %d out of range (have %d segments)", idx, len(segs))
		}
		if err := sess.RemoveSegment(segs[idx].ID); err != nil {
			return err
		}
	}

	if sess.ExportDuration() == 0 {
		return fmt.Errorf("every segment excluded, nothing to export")
	}

	sess.SetZoomMode(zoom.ParseMode(zoomMode))
	return nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
