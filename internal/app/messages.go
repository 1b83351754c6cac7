package app

import (
	"github.com/jwulff/sadoo/internal/db"
	"github.com/jwulff/sadoo/internal/session"
)

// CaptureStartedMsg is sent when a capture source is open.
type CaptureStartedMsg struct {
	Epoch  uint64
	Events <-chan session.Event
}

// CaptureEventMsg wraps one event read from the capture source.
type CaptureEventMsg struct {
	Epoch uint64
	Event session.Event
}

// SourceClosedMsg is sent when the capture source closed its event channel.
type SourceClosedMsg struct {
	Epoch uint64
}

// CaptureStoppedMsg is sent after a stop request completed.
type CaptureStoppedMsg struct {
	Err error
}

// TickMsg refreshes the elapsed time while capturing.
type TickMsg struct{}

// FileLoadedMsg carries a file read from disk, ready to submit.
type FileLoadedMsg struct {
	File session.File
}

// FileTranscribedMsg is sent when a file transcription resolved.
type FileTranscribedMsg struct {
	Err error
}

// ArtifactMsg carries a computed summary or translation.
type ArtifactMsg struct {
	Title string
	Text  string
	Err   error
}

// ChatMsg carries the answer to a question about the transcript.
type ChatMsg struct {
	Question string
	Answer   string
	Err      error
}

// EditedMsg carries the text saved from the external editor.
type EditedMsg struct {
	Text string
	Err  error
}

// HistoryMsg carries the reloaded list of saved sessions.
type HistoryMsg struct {
	Sessions []db.Session
	Err      error
}

// ActionDoneMsg reports the outcome of a controller action.
type ActionDoneMsg struct {
	Notice string
	Err    error
}

// ExportedMsg reports a written export file.
type ExportedMsg struct {
	Path string
	Err  error
}

// QuitMsg is sent once the session was closed for shutdown.
type QuitMsg struct {
	Err error
}

// ErrorMsg surfaces an error from a command.
type ErrorMsg struct {
	Err error
}

// ClearTransientErrorMsg clears a transient error after a timeout.
type ClearTransientErrorMsg struct{}
