package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jwulff/sadoo/internal/db"
	"github.com/jwulff/sadoo/internal/transcript"
)

type fakeSource struct {
	events  chan Event
	audio   *transcript.Audio
	mu      sync.Mutex
	stopped bool

	// when set, Stop signals stopEntered and waits for release
	stopEntered chan struct{}
	release     chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		events: make(chan Event, 16),
		audio:  &transcript.Audio{Data: []byte("webm"), MIMEType: "audio/webm"},
	}
}

func (s *fakeSource) Events() <-chan Event { return s.events }

func (s *fakeSource) Stop() (*transcript.Audio, error) {
	if s.release != nil {
		close(s.stopEntered)
		<-s.release
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	return s.audio, nil
}

func (s *fakeSource) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

type fakeCapturer struct {
	err     error
	sources []*fakeSource
	// slowStop makes the sources it opens block in Stop until released.
	slowStop bool
}

func (c *fakeCapturer) Open(context.Context) (Source, error) {
	if c.err != nil {
		return nil, c.err
	}
	src := newFakeSource()
	if c.slowStop {
		src.stopEntered = make(chan struct{})
		src.release = make(chan struct{})
	}
	c.sources = append(c.sources, src)
	return src, nil
}

func (c *fakeCapturer) last() *fakeSource { return c.sources[len(c.sources)-1] }

type fakeFiles struct {
	text string
	err  error
	got  []File
}

func (f *fakeFiles) Transcribe(_ context.Context, file File) (string, error) {
	f.got = append(f.got, file)
	return f.text, f.err
}

type fakeAssistant struct {
	mu         sync.Mutex
	summaries  int
	translated map[string]int
	histories  []int
	chatHook   func()
	err        error
}

func (a *fakeAssistant) Summarize(_ context.Context, text string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.summaries++
	if a.err != nil {
		return "", a.err
	}
	return "Xulosa: " + text, nil
}

func (a *fakeAssistant) Translate(_ context.Context, text, lang string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.translated == nil {
		a.translated = make(map[string]int)
	}
	a.translated[lang]++
	if a.err != nil {
		return "", a.err
	}
	switch text {
	case "Salom.":
		return "Hello.", nil
	case "Salom, dunyo.":
		return "Hello, world.", nil
	}
	return "[" + lang + "] " + text, nil
}

func (a *fakeAssistant) Chat(_ context.Context, transcript string, history []ChatTurn, question string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.histories = append(a.histories, len(history))
	if a.err != nil {
		return "", a.err
	}
	if a.chatHook != nil {
		a.chatHook()
	}
	return "Javob: " + question, nil
}

func (a *fakeAssistant) translations(lang string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.translated[lang]
}

// flakyStore wraps a real store and can fail saves and deletes.
type flakyStore struct {
	*db.Store
	failSave   bool
	failDelete bool
}

var errStoreDown = errors.New("storage unavailable")

func (s *flakyStore) Save(ctx context.Context, in db.NewSession) (db.Session, error) {
	if s.failSave {
		return db.Session{}, errStoreDown
	}
	return s.Store.Save(ctx, in)
}

func (s *flakyStore) Delete(ctx context.Context, id string) error {
	if s.failDelete {
		return errStoreDown
	}
	return s.Store.Delete(ctx, id)
}

type harness struct {
	ctrl      *Controller
	capturer  *fakeCapturer
	files     *fakeFiles
	assistant *fakeAssistant
	store     *flakyStore
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	store, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	h := &harness{
		capturer:  &fakeCapturer{},
		files:     &fakeFiles{},
		assistant: &fakeAssistant{},
		store:     &flakyStore{Store: store},
	}
	h.ctrl = New(Deps{
		Capturer:  h.capturer,
		Files:     h.files,
		Assistant: h.assistant,
		Store:     h.store,
	}, opts...)
	return h
}

func (h *harness) saved(t *testing.T) []db.Session {
	t.Helper()
	sessions, err := h.store.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	return sessions
}
