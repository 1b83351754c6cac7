// Package media inspects uploaded files with the ffmpeg tools.
package media

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ErrNoProbe is returned when ffprobe is not installed.
var ErrNoProbe = errors.New("ffprobe not found")

// Prober runs ffprobe.
type Prober struct {
	bin string
	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewProber looks up ffprobe on PATH.
func NewProber() (*Prober, error) {
	bin, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, ErrNoProbe
	}
	return &Prober{bin: bin, run: runCommand}, nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Duration returns the container duration of the media file at path.
func (p *Prober) Duration(ctx context.Context, path string) (time.Duration, error) {
	// ffprobe -v error -show_entries format=duration -of default=nw=1:nk=1 input
	out, err := p.run(ctx, p.bin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return parseDuration(string(out))
}

func parseDuration(out string) (time.Duration, error) {
	s := strings.TrimSpace(out)
	if s == "" || s == "N/A" {
		return 0, nil
	}
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return time.Duration(sec * float64(time.Second)).Round(time.Millisecond), nil
}
