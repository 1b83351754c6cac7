package session

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MediaKind is the broad type of an uploaded file.
type MediaKind string

const (
	MediaAudio MediaKind = "audio"
	MediaVideo MediaKind = "video"
	MediaImage MediaKind = "image"
)

// File is an uploaded file submitted for transcription.
type File struct {
	Name     string
	MIMEType string
	Data     []byte
	// Duration is the probed media length; zero when unknown.
	Duration time.Duration
}

// Kind classifies the file by MIME type.
func (f File) Kind() (MediaKind, bool) {
	base, _, err := mime.ParseMediaType(f.MIMEType)
	if err != nil {
		base = strings.ToLower(strings.TrimSpace(strings.SplitN(f.MIMEType, ";", 2)[0]))
	}
	switch {
	case strings.HasPrefix(base, "audio/"):
		return MediaAudio, true
	case strings.HasPrefix(base, "video/"):
		return MediaVideo, true
	case strings.HasPrefix(base, "image/"):
		return MediaImage, true
	}
	return "", false
}

// Limits bounds the size of uploaded files.
type Limits struct {
	MaxVideoBytes int64
	MaxOtherBytes int64
}

// DefaultLimits allows 50 MB videos and 20 MB audio or images.
func DefaultLimits() Limits {
	return Limits{MaxVideoBytes: 50 << 20, MaxOtherBytes: 20 << 20}
}

func (l Limits) max(kind MediaKind) int64 {
	if kind == MediaVideo {
		return l.MaxVideoBytes
	}
	return l.MaxOtherBytes
}

// mediaTypes covers extensions the system MIME tables often lack.
var mediaTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".opus": "audio/ogg",
	".flac": "audio/flac",
	".webm": "video/webm",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".heic": "image/heic",
}

// LoadFile reads a file from disk and detects its MIME type from the
// extension, falling back to content sniffing.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", path, err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	mt := mime.TypeByExtension(ext)
	if mt == "" {
		mt = mediaTypes[ext]
	}
	if mt == "" {
		mt = http.DetectContentType(data)
	}
	return File{Name: filepath.Base(path), MIMEType: mt, Data: data}, nil
}
