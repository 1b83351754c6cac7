// Package session drives the lifecycle of the live transcript:
//
//	Idle → Capturing → Finalizing → Reviewing → Idle
//
// It feeds capture events into the transcript model, runs file
// transcription, computes derived artifacts through the model's cache, and
// saves work to the storage service before anything would discard it.
//
// Controller methods are safe to call from multiple goroutines; lifecycle
// actions are serialized.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jwulff/sadoo/internal/artifact"
	"github.com/jwulff/sadoo/internal/db"
	"github.com/jwulff/sadoo/internal/transcript"
	"github.com/jwulff/sadoo/internal/translit"
)

// Deps are the collaborators a Controller drives. Capturer and Store are
// required; Files and Assistant may be nil, in which case the actions that
// need them return ErrNotConfigured.
type Deps struct {
	Capturer  Capturer
	Files     FileTranscriber
	Assistant Assistant
	Store     Store
}

// Snapshot is a consistent view of the session for rendering.
type Snapshot struct {
	State     State
	Committed string
	Partial   string
	Elapsed   time.Duration
	HasAudio  bool
	Saved     bool
}

// Controller owns one live session.
//
// Two locks guard it. mu protects the session state and is only held for
// in-memory work, so rendering never waits on a collaborator. op serializes
// lifecycle actions, which may hold it across capture, storage and
// transcription calls.
type Controller struct {
	op    sync.Mutex
	mu    sync.Mutex
	deps  Deps
	model *transcript.Model

	state     State
	source    Source
	epoch     uint64
	startedAt time.Time
	// stopping is closed when the capture being detached has stopped.
	stopping chan struct{}

	saved    bool
	savedRev uint64
	savedID  string

	chat    []ChatTurn
	chatGen uint64

	history []db.Session

	logger    *slog.Logger
	now       func() time.Time
	limits    Limits
	observers []func(Transition)
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger for lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithLimits sets the upload size limits.
func WithLimits(l Limits) Option {
	return func(c *Controller) { c.limits = l }
}

// WithObserver registers a callback for every state transition. Observers
// run with the controller locked and must not call back into it.
func WithObserver(fn func(Transition)) Option {
	return func(c *Controller) { c.observers = append(c.observers, fn) }
}

// New returns a controller in the Idle state with an empty transcript.
func New(deps Deps, opts ...Option) *Controller {
	c := &Controller{
		deps:   deps,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
		limits: DefaultLimits(),
	}
	for _, o := range opts {
		o(c)
	}
	c.model = transcript.New(artifact.New(artifact.WithLogger(c.logger)))
	return c
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns the current session contents.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:     c.state,
		Committed: c.model.Committed(),
		Partial:   c.model.Partial(),
		Elapsed:   c.elapsedLocked(),
		HasAudio:  c.model.Audio() != nil,
		Saved:     c.isSavedLocked(),
	}
}

// View renders the committed text and partial segment in script.
func (c *Controller) View(script translit.Script) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model.View(script)
}

// Artifact returns a cached artifact without computing it.
func (c *Controller) Artifact(key artifact.Key) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model.Cache().Get(key)
}

func (c *Controller) elapsedLocked() time.Duration {
	if c.state == Capturing {
		return c.now().Sub(c.startedAt)
	}
	return c.model.Elapsed()
}

func (c *Controller) isSavedLocked() bool {
	return c.saved && c.savedRev == c.model.Revision()
}

func (c *Controller) markSavedLocked(id string) {
	c.saved = true
	c.savedRev = c.model.Revision()
	c.savedID = id
}

func (c *Controller) setState(to State, event string) {
	from := c.state
	c.state = to
	c.logger.Debug("session transition", "from", from.String(), "to", to.String(), "event", event)
	tr := Transition{From: from, To: to, Event: event}
	for _, fn := range c.observers {
		fn(tr)
	}
}

// StartCapture acquires a capture source and enters Capturing. From
// Reviewing the current session is saved and the model reset first; if the
// save fails the controller stays in Reviewing. It returns the capture epoch
// that events must be applied with.
func (c *Controller) StartCapture(ctx context.Context) (uint64, error) {
	c.op.Lock()
	defer c.op.Unlock()
	c.waitStopped()

	c.mu.Lock()
	state := c.state
	c.mu.Unlock()
	switch state {
	case Capturing, Finalizing:
		return 0, fmt.Errorf("start capture while %s: %w", state, ErrInvalidTransition)
	case Reviewing:
		if err := c.autosave(ctx); err != nil {
			return 0, err
		}
	}
	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()

	src, err := c.deps.Capturer.Open(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.logger.Warn("capture unavailable", "error", err)
		c.setState(Idle, "capture failed")
		return 0, fmt.Errorf("%w: %w", ErrCaptureUnavailable, err)
	}
	c.epoch++
	c.source = src
	c.startedAt = c.now()
	c.setState(Capturing, "start capture")
	return c.epoch, nil
}

// Events returns the event channel of the capture identified by epoch, or
// nil if that capture is no longer active.
func (c *Controller) Events(epoch uint64) <-chan Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Capturing || c.epoch != epoch || c.source == nil {
		return nil
	}
	return c.source.Events()
}

// Apply feeds one capture event into the transcript. Events from a capture
// other than the active one are dropped and Apply reports false. An error
// event ends the capture: the partial segment is discarded and the session
// moves to Reviewing, or Idle if nothing was committed.
func (c *Controller) Apply(epoch uint64, ev Event) (bool, error) {
	c.mu.Lock()
	if c.state != Capturing || c.epoch != epoch {
		c.mu.Unlock()
		return false, nil
	}
	switch ev.Kind {
	case EventPartial:
		c.model.UpdatePartial(ev.Text)
	case EventFinal:
		c.model.CommitFinal(ev.Text)
	case EventError:
		src, token := c.beginStopLocked("stream failed", true)
		c.mu.Unlock()
		c.finishStop(src, token, true)
		c.logger.Warn("capture stream failed", "error", ev.Err)
		return true, fmt.Errorf("%w: %w", ErrTranscriptionFailed, ev.Err)
	}
	c.mu.Unlock()
	return true, nil
}

// SourceClosed handles a capture source that ended on its own. It behaves
// like StopCapture for that epoch.
func (c *Controller) SourceClosed(epoch uint64) error {
	c.mu.Lock()
	if c.state != Capturing || c.epoch != epoch {
		c.mu.Unlock()
		return nil
	}
	src, token := c.beginStopLocked("source closed", false)
	c.mu.Unlock()
	c.finishStop(src, token, false)
	return nil
}

// Pump reads events from the capture identified by epoch and applies them
// until the source closes, the capture is stopped, or ctx is done.
func (c *Controller) Pump(ctx context.Context, epoch uint64) error {
	events := c.Events(epoch)
	if events == nil {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return c.SourceClosed(epoch)
			}
			applied, err := c.Apply(epoch, ev)
			if err != nil {
				return err
			}
			if !applied {
				return nil
			}
		}
	}
}

// StopCapture ends the active capture. A pending partial segment is
// committed as a final one, the source is detached before the state changes,
// and the recorded audio is attached to the session.
func (c *Controller) StopCapture() error {
	c.op.Lock()
	defer c.op.Unlock()

	c.mu.Lock()
	if c.state != Capturing {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("stop capture while %s: %w", state, ErrInvalidTransition)
	}
	src, token := c.beginStopLocked("stop capture", false)
	c.mu.Unlock()
	c.finishStop(src, token, false)
	return nil
}

// beginStopLocked detaches the active source and enters Finalizing. The
// epoch advances so late events from the source are dropped; the returned
// token is the epoch finishStop must still find.
func (c *Controller) beginStopLocked(event string, failed bool) (Source, uint64) {
	if failed {
		c.model.DiscardPartial()
	} else {
		c.model.FlushPartial()
	}
	c.model.SetElapsed(c.now().Sub(c.startedAt))
	src := c.source
	c.source = nil
	c.epoch++
	c.stopping = make(chan struct{})
	c.setState(Finalizing, event)
	return src, c.epoch
}

// finishStop stops src without holding mu, then attaches its audio and
// leaves Finalizing.
func (c *Controller) finishStop(src Source, token uint64, failed bool) {
	var audio *transcript.Audio
	if src != nil {
		a, err := src.Stop()
		if err != nil {
			c.logger.Warn("stop capture source", "error", err)
		}
		audio = a
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopping != nil {
		close(c.stopping)
		c.stopping = nil
	}
	if c.state != Finalizing || c.epoch != token {
		return
	}
	if audio != nil {
		c.model.AttachAudio(audio)
	}
	switch {
	case !failed:
		c.setState(Reviewing, "capture artifact ready")
	case c.model.HasContent():
		c.setState(Reviewing, "stream failed")
	default:
		c.resetLocked()
		c.setState(Idle, "stream failed")
	}
}

// waitStopped blocks until a capture being detached outside op has stopped.
func (c *Controller) waitStopped() {
	c.mu.Lock()
	ch := c.stopping
	c.mu.Unlock()
	if ch != nil {
		<-ch
	}
}

// settle stops an active capture and drops a file transcription in flight.
// The caller holds op.
func (c *Controller) settle(event string) {
	c.waitStopped()
	c.mu.Lock()
	switch c.state {
	case Capturing:
		src, token := c.beginStopLocked(event, false)
		c.mu.Unlock()
		c.finishStop(src, token, false)
		return
	case Finalizing:
		// supersede the file transcription in flight
		c.epoch++
		c.resetLocked()
		c.setState(Idle, event)
	}
	c.mu.Unlock()
}

// SubmitFile transcribes an uploaded file. The session enters Finalizing
// while the transcription runs and Reviewing when it resolves. On failure
// the attached media is dropped and the session returns to Idle. From
// Reviewing the current session is saved first.
func (c *Controller) SubmitFile(ctx context.Context, f File) error {
	epoch, err := c.beginFile(ctx, f)
	if err != nil {
		return err
	}
	text, terr := c.deps.Files.Transcribe(ctx, f)
	return c.completeFile(epoch, text, terr)
}

func (c *Controller) beginFile(ctx context.Context, f File) (uint64, error) {
	kind, ok := f.Kind()
	if !ok {
		return 0, fmt.Errorf("%s (%s): %w", f.Name, f.MIMEType, ErrUnsupportedMedia)
	}
	if limit := c.limits.max(kind); limit > 0 && int64(len(f.Data)) > limit {
		return 0, fmt.Errorf("%s is %d bytes, limit %d: %w", f.Name, len(f.Data), limit, ErrFileTooLarge)
	}
	if c.deps.Files == nil {
		return 0, fmt.Errorf("file transcription: %w", ErrNotConfigured)
	}

	c.op.Lock()
	defer c.op.Unlock()
	c.waitStopped()

	c.mu.Lock()
	state := c.state
	c.mu.Unlock()
	switch state {
	case Capturing, Finalizing:
		return 0, fmt.Errorf("submit file while %s: %w", state, ErrInvalidTransition)
	case Reviewing:
		if err := c.autosave(ctx); err != nil {
			return 0, err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
	c.epoch++
	if kind != MediaImage {
		c.model.AttachAudio(&transcript.Audio{Data: f.Data, MIMEType: f.MIMEType})
		c.model.SetElapsed(f.Duration)
	}
	c.setState(Finalizing, "file submitted")
	return c.epoch, nil
}

func (c *Controller) completeFile(epoch uint64, text string, terr error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Finalizing || c.epoch != epoch {
		return fmt.Errorf("file transcription result: %w", ErrSuperseded)
	}
	if terr != nil {
		c.resetLocked()
		c.setState(Idle, "transcription failed")
		c.logger.Warn("file transcription failed", "error", terr)
		return fmt.Errorf("%w: %w", ErrTranscriptionFailed, terr)
	}
	c.model.ManualEdit(strings.TrimSpace(text))
	c.setState(Reviewing, "transcription resolved")
	return nil
}

// Edit replaces the committed transcript with text the user edited in the
// given display script. Editing from Idle starts a session in Reviewing.
// Edit does not wait for a lifecycle action in progress; it returns ErrBusy.
func (c *Controller) Edit(text string, script translit.Script) error {
	if !c.op.TryLock() {
		return fmt.Errorf("edit: %w", ErrBusy)
	}
	defer c.op.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Finalizing {
		return fmt.Errorf("edit while %s: %w", c.state, ErrInvalidTransition)
	}
	c.model.EditDisplayed(text, script)
	if c.state == Idle {
		c.setState(Reviewing, "manual edit")
	}
	return nil
}

// NewConversation saves the current session, if it has unsaved content,
// and returns to Idle with an empty transcript.
func (c *Controller) NewConversation(ctx context.Context) error {
	c.op.Lock()
	defer c.op.Unlock()
	c.waitStopped()

	c.mu.Lock()
	state := c.state
	c.mu.Unlock()
	switch state {
	case Capturing, Finalizing:
		return fmt.Errorf("new conversation while %s: %w", state, ErrInvalidTransition)
	}
	if err := c.autosave(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
	c.setState(Idle, "new conversation")
	return nil
}

// Discard drops the current session without saving. Unsaved content is only
// dropped when confirmed is true; otherwise ErrConfirmationRequired is
// returned and nothing changes. Like Edit it returns ErrBusy rather than
// wait for a lifecycle action in progress.
func (c *Controller) Discard(confirmed bool) error {
	if !c.op.TryLock() {
		return fmt.Errorf("discard: %w", ErrBusy)
	}
	defer c.op.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case Capturing, Finalizing:
		return fmt.Errorf("discard while %s: %w", c.state, ErrInvalidTransition)
	}
	if c.model.HasContent() && !c.isSavedLocked() && !confirmed {
		return ErrConfirmationRequired
	}
	c.resetLocked()
	c.setState(Idle, "discard")
	return nil
}

// Save persists the current session now. Already-saved content is not
// stored twice.
func (c *Controller) Save(ctx context.Context) error {
	c.op.Lock()
	defer c.op.Unlock()
	c.waitStopped()

	c.mu.Lock()
	state, hasContent := c.state, c.model.HasContent()
	c.mu.Unlock()
	if state == Finalizing {
		return fmt.Errorf("save while %s: %w", state, ErrInvalidTransition)
	}
	if !hasContent {
		return ErrNoContent
	}
	return c.autosave(ctx)
}

// Load replaces the live session with a saved one and enters Reviewing. An
// active capture is stopped and unsaved content is saved first.
func (c *Controller) Load(ctx context.Context, id string) error {
	c.op.Lock()
	defer c.op.Unlock()

	c.settle("load requested")
	if err := c.autosave(ctx); err != nil {
		return err
	}

	saved, err := c.deps.Store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load %s: %w", id, err)
	}
	var audio *transcript.Audio
	if saved.HasAudio {
		audio = &transcript.Audio{Ref: saved.ID, MIMEType: saved.AudioMIME}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.model.Load(saved.Text, audio, saved.Duration())
	c.clearChatLocked()
	c.markSavedLocked(saved.ID)
	c.setState(Reviewing, "session loaded")
	return nil
}

// Close ends the session before shutdown: an active capture is stopped and
// unsaved content is saved.
func (c *Controller) Close(ctx context.Context) error {
	c.op.Lock()
	defer c.op.Unlock()
	c.settle("close")
	return c.autosave(ctx)
}

// artifactInput is the transcript text an artifact is computed from, with
// the cache generation it was read at.
type artifactInput struct {
	text  string
	gen   uint64
	cache *artifact.Cache
}

// Summarize returns the summary of the committed transcript, computing it on
// a cache miss.
func (c *Controller) Summarize(ctx context.Context) (string, error) {
	in, err := c.artifactSource()
	if err != nil {
		return "", err
	}
	return c.summarizeFrom(ctx, in)
}

func (c *Controller) summarizeFrom(ctx context.Context, in artifactInput) (string, error) {
	return in.cache.GetOrComputeAt(ctx, in.gen, artifact.SummaryKey(), func(ctx context.Context) (string, error) {
		return c.deps.Assistant.Summarize(ctx, in.text)
	})
}

// Translate returns the translation of the committed transcript into lang,
// computing it on a cache miss.
func (c *Controller) Translate(ctx context.Context, lang string) (string, error) {
	in, err := c.artifactSource()
	if err != nil {
		return "", err
	}
	return c.translateFrom(ctx, in, lang)
}

func (c *Controller) translateFrom(ctx context.Context, in artifactInput, lang string) (string, error) {
	return in.cache.GetOrComputeAt(ctx, in.gen, artifact.TranslationKey(lang), func(ctx context.Context) (string, error) {
		return c.deps.Assistant.Translate(ctx, in.text, lang)
	})
}

func (c *Controller) artifactSource() (artifactInput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deps.Assistant == nil {
		return artifactInput{}, fmt.Errorf("assistant: %w", ErrNotConfigured)
	}
	text := c.model.Committed()
	if strings.TrimSpace(text) == "" {
		return artifactInput{}, ErrNoContent
	}
	cache := c.model.Cache()
	return artifactInput{text: text, gen: cache.Generation(), cache: cache}, nil
}

// Ask answers a question about the committed transcript. Earlier questions
// and answers of the same session are sent along and the new pair is added
// to them.
func (c *Controller) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("empty question: %w", ErrNoContent)
	}

	c.mu.Lock()
	if c.deps.Assistant == nil {
		c.mu.Unlock()
		return "", fmt.Errorf("assistant: %w", ErrNotConfigured)
	}
	text := c.model.Committed()
	if strings.TrimSpace(text) == "" {
		c.mu.Unlock()
		return "", ErrNoContent
	}
	history := slices.Clone(c.chat)
	gen := c.chatGen
	c.mu.Unlock()

	answer, err := c.deps.Assistant.Chat(ctx, text, history, question)
	if err != nil {
		c.logger.Warn("chat failed", "error", err)
		return "", fmt.Errorf("%w: chat: %w", artifact.ErrComputeFailed, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.chatGen != gen {
		return "", fmt.Errorf("chat answer: %w", ErrSuperseded)
	}
	c.chat = append(c.chat, ChatTurn{Role: ChatUser, Text: question}, ChatTurn{Role: ChatModel, Text: answer})
	return answer, nil
}

// Chat returns the questions and answers of the current session.
func (c *Controller) Chat() []ChatTurn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.chat)
}

func (c *Controller) clearChatLocked() {
	c.chat = nil
	c.chatGen++
}

// History returns the last known list of saved sessions, newest first.
func (c *Controller) History() []db.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.history)
}

// RefreshHistory reloads the saved-session list from the store.
func (c *Controller) RefreshHistory(ctx context.Context) error {
	sessions, err := c.deps.Store.List(ctx)
	if err != nil {
		c.logger.Warn("list saved sessions", "error", err)
		return fmt.Errorf("list sessions: %w", err)
	}
	c.mu.Lock()
	c.history = sessions
	c.mu.Unlock()
	return nil
}

// Delete removes a saved session. The local history drops the entry at once;
// if the store rejects the delete, the history is reloaded from the store.
func (c *Controller) Delete(ctx context.Context, id string) error {
	c.op.Lock()
	defer c.op.Unlock()

	c.mu.Lock()
	c.history = slices.DeleteFunc(slices.Clone(c.history), func(s db.Session) bool { return s.ID == id })
	c.mu.Unlock()

	if err := c.deps.Store.Delete(ctx, id); err != nil {
		c.logger.Warn("delete saved session", "id", id, "error", err)
		_ = c.RefreshHistory(ctx)
		return fmt.Errorf("%w: delete %s: %w", ErrPersistenceFailed, id, err)
	}
	c.mu.Lock()
	if c.savedID == id {
		// the live session's stored copy is gone
		c.saved = false
		c.savedID = ""
	}
	c.mu.Unlock()
	return c.RefreshHistory(ctx)
}

// autosave stores the live session if it has content that is not already
// saved. On success the audio bytes move to the store and the session keeps
// only a reference. The caller holds op.
func (c *Controller) autosave(ctx context.Context) error {
	c.mu.Lock()
	if !c.model.HasContent() || c.isSavedLocked() {
		c.mu.Unlock()
		return nil
	}
	rev := c.model.Revision()
	audio := c.model.Audio()
	in := db.NewSession{
		Text:     c.model.Committed(),
		Duration: c.model.Elapsed(),
	}
	c.mu.Unlock()

	if audio != nil && audio.Data != nil {
		in.Audio = audio.Data
		in.AudioMIME = audio.MIMEType
	} else if audio.Persisted() {
		// edited copy of a saved session; carry its audio into the new record
		if prev, err := c.deps.Store.Get(ctx, audio.Ref); err == nil {
			in.Audio = prev.Audio
			in.AudioMIME = prev.AudioMIME
		}
	}
	saved, err := c.deps.Store.Save(ctx, in)
	if err != nil {
		c.logger.Warn("save session", "error", err)
		_ = c.RefreshHistory(ctx)
		return fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}
	c.logger.Info("session saved", "id", saved.ID, "chars", len(in.Text))

	c.mu.Lock()
	if c.model.Revision() == rev {
		if in.Audio != nil && c.model.Audio() == audio {
			c.model.AttachAudio(&transcript.Audio{Ref: saved.ID, MIMEType: saved.AudioMIME})
		}
		c.markSavedLocked(saved.ID)
	}
	c.mu.Unlock()

	if err := c.RefreshHistory(ctx); err != nil {
		c.mu.Lock()
		c.history = append([]db.Session{saved}, c.history...)
		c.mu.Unlock()
	}
	return nil
}

// resetLocked empties the model and forgets the saved marker and the chat.
func (c *Controller) resetLocked() {
	c.model.Reset()
	c.saved = false
	c.savedRev = 0
	c.savedID = ""
	c.clearChatLocked()
}
