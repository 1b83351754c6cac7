// Command sadoo is a terminal client for Uzbek speech transcription.
//
//	sadoo [-config path] [-file media] [-device name]     start the TUI
//	sadoo devices [-config path]
//	sadoo transliterate [-to lat|cyr] [text...]
//	sadoo export -id ID [-format txt|md|doc|pdf] [-script lat|cyr] [-out dir] [-audio path]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwulff/sadoo/internal/app"
	"github.com/jwulff/sadoo/internal/config"
	"github.com/jwulff/sadoo/internal/daemon"
	"github.com/jwulff/sadoo/internal/db"
	"github.com/jwulff/sadoo/internal/export"
	"github.com/jwulff/sadoo/internal/gemini"
	"github.com/jwulff/sadoo/internal/media"
	"github.com/jwulff/sadoo/internal/session"
	"github.com/jwulff/sadoo/internal/stream"
	"github.com/jwulff/sadoo/internal/translit"
)

func main() {
	var err error
	args := os.Args[1:]
	switch {
	case len(args) > 0 && args[0] == "transliterate":
		err = runTransliterate(args[1:], os.Stdin, os.Stdout)
	case len(args) > 0 && args[0] == "export":
		err = runExport(args[1:], os.Stdout)
	case len(args) > 0 && args[0] == "devices":
		err = runDevices(args[1:], os.Stdout)
	default:
		err = runTUI(args)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "sadoo:", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Config, error) {
	config.LoadDefaultEnv()
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg config.Config) (*slog.Logger, func(), error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	if cfg.LogFile == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	return logger, func() { f.Close() }, nil
}

func newCapturer(cfg config.Config, logger *slog.Logger) session.Capturer {
	if cfg.Capture == config.CaptureStream {
		return stream.New(cfg.StreamURL,
			stream.WithAPIKey(cfg.StreamAPIKey),
			stream.WithLogger(logger.With("component", "stream")),
		)
	}
	return newDaemonCapturer(cfg, logger)
}

func newDaemonCapturer(cfg config.Config, logger *slog.Logger) *daemon.Capturer {
	return daemon.NewCapturer(cfg.DaemonSocket,
		daemon.WithDevice(cfg.DaemonDevice),
		daemon.WithLogger(logger.With("component", "daemon")),
	)
}

// runDevices prints the daemon's status and the inputs it can record from.
func runDevices(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("devices", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	c := newDaemonCapturer(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	st, err := c.Status(ctx)
	if err != nil {
		return fmt.Errorf("daemon status: %w", err)
	}
	devices, err := c.Devices(ctx)
	if err != nil {
		return fmt.Errorf("daemon devices: %w", err)
	}
	fmt.Fprintf(stdout, "holat: %s (yozilmoqda: %t)\n", st.State, st.Recording)
	for _, d := range devices {
		mark := " "
		if d == st.Device {
			mark = "*"
		}
		fmt.Fprintf(stdout, "%s %s\n", mark, d)
	}
	return nil
}

func runTUI(args []string) error {
	fs := flag.NewFlagSet("sadoo", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file (default $SADOO_CONFIG or ~/.config/sadoo/config.yaml)")
	file := fs.String("file", "", "audio, video or image file to transcribe at startup")
	device := fs.String("device", "", "daemon input device (default from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *device != "" {
		cfg.DaemonDevice = *device
	}
	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	store, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	script, _ := translit.ParseScript(cfg.Script)
	if v, ok, err := store.Preference(ctx, app.PrefScript); err != nil {
		logger.Warn("read script preference", "error", err)
	} else if ok {
		if s, err := translit.ParseScript(v); err == nil {
			script = s
		}
	}

	deps := session.Deps{
		Capturer: newCapturer(cfg, logger),
		Store:    store,
	}
	if cfg.Gemini.APIKey != "" {
		gc, err := gemini.New(ctx, cfg.Gemini.APIKey,
			gemini.WithModel(cfg.Gemini.Model),
			gemini.WithLogger(logger.With("component", "gemini")),
		)
		if err != nil {
			return err
		}
		deps.Files = gc
		deps.Assistant = gc
	} else {
		logger.Info("no gemini api key; file transcription and artifacts disabled")
	}

	opts := app.Options{
		Prefs:     store,
		Script:    script,
		Languages: cfg.Languages,
		ExportDir: cfg.ExportDir,
		File:      *file,
		Logger:    logger,
	}
	if p, err := media.NewProber(); err == nil {
		opts.Prober = p
	} else {
		logger.Info("media durations unavailable", "error", err)
	}

	opts.Controller = session.New(deps,
		session.WithLogger(logger.With("component", "session")),
		session.WithLimits(session.Limits{
			MaxVideoBytes: int64(cfg.MaxVideoMB) << 20,
			MaxOtherBytes: int64(cfg.MaxAudioMB) << 20,
		}),
	)

	p := tea.NewProgram(app.New(opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

func runTransliterate(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("transliterate", flag.ContinueOnError)
	to := fs.String("to", "cyr", "target script: lat or cyr")
	if err := fs.Parse(args); err != nil {
		return err
	}
	script, err := translit.ParseScript(*to)
	if err != nil {
		return err
	}

	text := strings.Join(fs.Args(), " ")
	if fs.NArg() == 0 {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}
	_, err = io.WriteString(stdout, translit.ToScript(text, script))
	if err == nil && !strings.HasSuffix(text, "\n") {
		_, err = io.WriteString(stdout, "\n")
	}
	return err
}

func runExport(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file")
	id := fs.String("id", "", "saved session id (required)")
	formatFlag := fs.String("format", "txt", "txt, md, doc or pdf")
	scriptFlag := fs.String("script", "lat", "lat or cyr")
	out := fs.String("out", "", "output directory (default export_dir)")
	audioPath := fs.String("audio", "", "also write the session audio to this path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("export: -id is required")
	}
	format, err := export.ParseFormat(*formatFlag)
	if err != nil {
		return err
	}
	script, err := translit.ParseScript(*scriptFlag)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	store, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	s, err := store.Get(ctx, *id)
	if err != nil {
		return err
	}
	dir := *out
	if dir == "" {
		dir = cfg.ExportDir
	}
	path, err := export.WriteFile(dir, export.Document{
		Text:     translit.ToScript(s.Text, script),
		Created:  s.CreatedAt,
		Duration: s.Duration(),
	}, format)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, path)

	if *audioPath != "" {
		data, _, err := store.Audio(ctx, *id)
		if err != nil {
			return err
		}
		if len(data) == 0 {
			return fmt.Errorf("session %s has no audio", *id)
		}
		if err := os.WriteFile(*audioPath, data, 0o644); err != nil {
			return fmt.Errorf("write audio: %w", err)
		}
		fmt.Fprintln(stdout, *audioPath)
	}
	return nil
}
