// Package config loads sadoo settings from a YAML file, env files and the
// environment. Priority (highest to lowest): env > file > defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned by Validate for unusable settings.
var ErrInvalid = errors.New("invalid config")

// EnvPrefix is prepended to key names for environment variable lookup, so
// db_path maps to SADOO_DB_PATH.
const EnvPrefix = "SADOO_"

// Capture backends.
const (
	CaptureDaemon = "daemon"
	CaptureStream = "stream"
)

// Gemini holds the Gemini API settings.
type Gemini struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// Config is the resolved configuration.
type Config struct {
	DBPath       string   `yaml:"db_path"`
	LogFile      string   `yaml:"log_file"`
	LogLevel     string   `yaml:"log_level"`
	Script       string   `yaml:"script"`
	Capture      string   `yaml:"capture"`
	DaemonSocket string   `yaml:"daemon_socket"`
	DaemonDevice string   `yaml:"daemon_device"`
	StreamURL    string   `yaml:"stream_url"`
	StreamAPIKey string   `yaml:"stream_api_key"`
	Gemini       Gemini   `yaml:"gemini"`
	Languages    []string `yaml:"languages"`
	MaxAudioMB   int      `yaml:"max_audio_mb"`
	MaxVideoMB   int      `yaml:"max_video_mb"`
	ExportDir    string   `yaml:"export_dir"`
}

// Dir returns the sadoo config directory.
func Dir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "sadoo")
}

// DefaultPath is where Load looks when SADOO_CONFIG is unset.
func DefaultPath() string {
	if p := strings.TrimSpace(os.Getenv(EnvPrefix + "CONFIG")); p != "" {
		return p
	}
	return filepath.Join(Dir(), "config.yaml")
}

// Default returns the built-in settings.
func Default() Config {
	dir := Dir()
	home, _ := os.UserHomeDir()
	return Config{
		DBPath:     filepath.Join(dir, "sadoo.sqlite"),
		LogFile:    filepath.Join(dir, "sadoo.log"),
		LogLevel:   "info",
		Script:     "lat",
		Capture:    CaptureDaemon,
		Gemini:     Gemini{Model: "gemini-2.5-flash"},
		Languages:  []string{"en", "ru"},
		MaxAudioMB: 20,
		MaxVideoMB: 50,
		ExportDir:  home,
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"DB_PATH":        &c.DBPath,
		"LOG_FILE":       &c.LogFile,
		"LOG_LEVEL":      &c.LogLevel,
		"SCRIPT":         &c.Script,
		"CAPTURE":        &c.Capture,
		"DAEMON_SOCKET":  &c.DaemonSocket,
		"DAEMON_DEVICE":  &c.DaemonDevice,
		"STREAM_URL":     &c.StreamURL,
		"STREAM_API_KEY": &c.StreamAPIKey,
		"GEMINI_MODEL":   &c.Gemini.Model,
		"EXPORT_DIR":     &c.ExportDir,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}

	// the usual variable name wins over nothing, the prefixed one over both
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Gemini.APIKey = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "GEMINI_API_KEY"); ok {
		c.Gemini.APIKey = v
	}

	if v, ok := os.LookupEnv(EnvPrefix + "LANGUAGES"); ok {
		c.Languages = splitList(v)
	}

	ints := map[string]*int{
		"MAX_AUDIO_MB": &c.MaxAudioMB,
		"MAX_VIDEO_MB": &c.MaxVideoMB,
	}
	for key, dst := range ints {
		v, ok := os.LookupEnv(EnvPrefix + key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s=%q: %w", EnvPrefix, key, v, ErrInvalid)
		}
		*dst = n
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate rejects settings the application cannot run with.
func (c Config) Validate() error {
	var problems []string
	switch c.Script {
	case "lat", "latin", "cyr", "cyrillic":
	default:
		problems = append(problems, fmt.Sprintf("script %q (want lat or cyr)", c.Script))
	}
	switch c.Capture {
	case CaptureDaemon:
	case CaptureStream:
		if c.StreamURL == "" {
			problems = append(problems, "capture is stream but stream_url is empty")
		}
	default:
		problems = append(problems, fmt.Sprintf("capture %q (want daemon or stream)", c.Capture))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("log_level %q", c.LogLevel))
	}
	if strings.TrimSpace(c.Gemini.Model) == "" {
		problems = append(problems, "gemini.model is empty")
	}
	if c.DBPath == "" {
		problems = append(problems, "db_path is empty")
	}
	if c.MaxAudioMB <= 0 || c.MaxVideoMB <= 0 {
		problems = append(problems, "size limits must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// Save writes the configuration as YAML, creating the directory if needed.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
