package session

import (
	"context"

	"github.com/jwulff/sadoo/internal/db"
	"github.com/jwulff/sadoo/internal/transcript"
)

// EventKind distinguishes capture events.
type EventKind int

const (
	EventPartial EventKind = iota
	EventFinal
	EventError
)

// Event is one recognition result or failure from a capture source.
type Event struct {
	Kind EventKind
	Text string
	Err  error
}

// Source is an active capture. Events are delivered in production order and
// the channel is closed when the source ends.
type Source interface {
	Events() <-chan Event
	// Stop detaches the source and releases the device. It returns the
	// recorded audio, if the source kept any.
	Stop() (*transcript.Audio, error)
}

// Capturer acquires capture sources.
type Capturer interface {
	Open(ctx context.Context) (Source, error)
}

// FileTranscriber turns an uploaded audio, video or image file into text.
type FileTranscriber interface {
	Transcribe(ctx context.Context, f File) (string, error)
}

// ChatRole is the speaker of one chat turn.
type ChatRole string

const (
	ChatUser  ChatRole = "user"
	ChatModel ChatRole = "model"
)

// ChatTurn is one question or answer in a conversation about the transcript.
type ChatTurn struct {
	Role ChatRole
	Text string
}

// Assistant computes derived artifacts from transcript text and answers
// questions about it.
type Assistant interface {
	Summarize(ctx context.Context, text string) (string, error)
	Translate(ctx context.Context, text, lang string) (string, error)
	// Chat answers question about transcript given the earlier turns.
	Chat(ctx context.Context, transcript string, history []ChatTurn, question string) (string, error)
}

// Store persists saved sessions.
type Store interface {
	Save(ctx context.Context, s db.NewSession) (db.Session, error)
	List(ctx context.Context) ([]db.Session, error)
	Get(ctx context.Context, id string) (*db.Session, error)
	Delete(ctx context.Context, id string) error
}
