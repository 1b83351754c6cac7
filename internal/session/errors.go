package session

import "errors"

var (
	// ErrCaptureUnavailable means the capture source could not be acquired
	// (permission denied, device missing, daemon unreachable).
	ErrCaptureUnavailable = errors.New("capture unavailable")

	// ErrTranscriptionFailed means a file or stream could not be transcribed.
	ErrTranscriptionFailed = errors.New("transcription failed")

	// ErrPersistenceFailed means the storage service rejected a save or delete.
	ErrPersistenceFailed = errors.New("persistence failed")

	// ErrInvalidTransition means the requested action is not allowed in the
	// current state.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrConfirmationRequired means the action discards unsaved content and
	// must be confirmed first.
	ErrConfirmationRequired = errors.New("confirmation required")

	// ErrNoContent means there is no transcript to act on.
	ErrNoContent = errors.New("no content")

	// ErrUnsupportedMedia means the submitted file is not audio, video or an image.
	ErrUnsupportedMedia = errors.New("unsupported media type")

	// ErrFileTooLarge means the submitted file exceeds the size limit for its kind.
	ErrFileTooLarge = errors.New("file too large")

	// ErrSuperseded means a newer action replaced the one that just finished,
	// so its result was dropped.
	ErrSuperseded = errors.New("superseded")

	// ErrNotConfigured means the collaborator needed for the action is missing.
	ErrNotConfigured = errors.New("not configured")

	// ErrBusy means another lifecycle action is running and the request
	// was not queued behind it.
	ErrBusy = errors.New("another action is in progress")
)
