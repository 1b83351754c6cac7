// Package db persists saved sessions and preferences in SQLite.
package db

import "time"

// Session is a saved transcript. Audio bytes are only populated by Get.
type Session struct {
	ID              string
	Text            string
	Audio           []byte
	AudioMIME       string
	HasAudio        bool
	DurationSeconds float64
	CreatedAt       time.Time
}

// Duration returns the recording length.
func (s Session) Duration() time.Duration {
	return time.Duration(s.DurationSeconds * float64(time.Second))
}

// NewSession carries the fields a caller supplies when saving. The store
// assigns the id and creation time.
type NewSession struct {
	Text      string
	Audio     []byte
	AudioMIME string
	Duration  time.Duration
}
