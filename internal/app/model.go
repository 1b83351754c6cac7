// Package app is the bubbletea front end of sadoo. It drives a
// session.Controller from key presses and renders the transcript, the saved
// history and derived artifacts.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwulff/sadoo/internal/artifact"
	"github.com/jwulff/sadoo/internal/export"
	"github.com/jwulff/sadoo/internal/session"
	"github.com/jwulff/sadoo/internal/translit"
)

// PrefScript is the preference key of the display script.
const PrefScript = "script"

// PanelFocus tracks which panel has keyboard focus.
type PanelFocus int

const (
	FocusHistory PanelFocus = iota
	FocusTranscript
)

// Preferences stores user preferences.
type Preferences interface {
	SetPreference(ctx context.Context, key, value string) error
}

// DurationProber reports the length of a media file.
type DurationProber interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
}

// Options configures the TUI.
type Options struct {
	Controller *session.Controller
	Prefs      Preferences
	Prober     DurationProber
	Script     translit.Script
	Languages  []string
	ExportDir  string
	// File is submitted for transcription at startup when set.
	File   string
	Editor string
	Logger *slog.Logger
}

// artifactView is the content of the artifact pane.
type artifactView struct {
	title   string
	text    string
	key     artifact.Key
	loading bool
	err     string
}

// Model is the root bubbletea model for the sadoo TUI.
type Model struct {
	ctrl      *session.Controller
	prefs     Preferences
	prober    DurationProber
	languages []string
	exportDir string
	file      string
	editor    string
	logger    *slog.Logger

	script translit.Script

	// Capture
	epoch  uint64
	events <-chan session.Event

	// Artifacts
	artifact  *artifactView
	langIndex int

	// Chat
	chatOpen    bool
	chatTyping  bool
	chatInput   []rune
	chatPending bool

	// Export
	exportFormat export.Format

	// History
	selected int

	// UI state
	focusedPanel     PanelFocus
	width            int
	height           int
	transcriptScroll int
	transcriptLive   bool
	discardArmed     bool
	quitArmed        bool
	busy             string

	// Messages
	errorMessage   string
	errorTransient bool
	notice         string
}

// New creates a new Model from opts.
func New(opts Options) Model {
	langs := opts.Languages
	if len(langs) == 0 {
		langs = []string{"en", "ru"}
	}
	editor := opts.Editor
	if editor == "" {
		editor = defaultEditor()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return Model{
		ctrl:           opts.Controller,
		prefs:          opts.Prefs,
		prober:         opts.Prober,
		languages:      langs,
		exportDir:      opts.ExportDir,
		file:           opts.File,
		editor:         editor,
		logger:         logger,
		script:         opts.Script,
		exportFormat:   export.TXT,
		focusedPanel:   FocusTranscript,
		transcriptLive: true,
	}
}

func defaultEditor() string {
	for _, env := range []string{"VISUAL", "EDITOR"} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v
		}
	}
	return "vi"
}

// Init loads the history and submits the startup file, if any.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{refreshHistoryCmd(m.ctrl)}
	if m.file != "" {
		cmds = append(cmds, loadFileCmd(m.file, m.prober))
	}
	return tea.Batch(cmds...)
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case CaptureStartedMsg:
		m.epoch = msg.Epoch
		m.events = msg.Events
		m.artifact = nil
		m.transcriptLive = true
		return m, tea.Batch(readEventCmd(m.events, m.epoch), tickCmd(), refreshHistoryCmd(m.ctrl))

	case CaptureEventMsg:
		applied, err := m.ctrl.Apply(msg.Epoch, msg.Event)
		if err != nil {
			return m, m.showError(err)
		}
		if !applied {
			// late event from a capture that is no longer active
			return m, nil
		}
		if m.transcriptLive {
			m.scrollToBottom()
		}
		return m, readEventCmd(m.events, msg.Epoch)

	case SourceClosedMsg:
		if err := m.ctrl.SourceClosed(msg.Epoch); err != nil {
			return m, m.showError(err)
		}
		return m, nil

	case CaptureStoppedMsg:
		m.busy = ""
		if msg.Err != nil {
			return m, m.showError(msg.Err)
		}
		return m, nil

	case TickMsg:
		if m.ctrl.State() == session.Capturing {
			return m, tickCmd()
		}
		return m, nil

	case FileLoadedMsg:
		m.busy = "Transkripsiya qilinmoqda: " + msg.File.Name
		m.artifact = nil
		return m, tea.Batch(submitFileCmd(m.ctrl, msg.File), refreshHistoryCmd(m.ctrl))

	case FileTranscribedMsg:
		m.busy = ""
		if errors.Is(msg.Err, session.ErrSuperseded) {
			return m, nil
		}
		if msg.Err != nil {
			return m, m.showError(msg.Err)
		}
		m.transcriptLive = true
		return m, nil

	case ArtifactMsg:
		if m.artifact == nil || m.artifact.title != msg.Title {
			// the pane moved on to another artifact
			return m, nil
		}
		m.artifact.loading = false
		if msg.Err != nil {
			m.artifact.err = msg.Err.Error()
			return m, nil
		}
		m.artifact.text = msg.Text
		return m, nil

	case ChatMsg:
		m.chatPending = false
		if errors.Is(msg.Err, session.ErrSuperseded) {
			return m, nil
		}
		if msg.Err != nil {
			return m, m.showError(msg.Err)
		}
		return m, nil

	case EditedMsg:
		if msg.Err != nil {
			return m, m.showError(msg.Err)
		}
		if err := m.ctrl.Edit(msg.Text, m.script); err != nil {
			return m, m.showError(err)
		}
		return m, nil

	case HistoryMsg:
		if msg.Err != nil {
			return m, m.showError(msg.Err)
		}
		m.clampSelection(len(msg.Sessions))
		return m, nil

	case ActionDoneMsg:
		m.clampSelection(len(m.ctrl.History()))
		if msg.Err != nil {
			return m, m.showError(msg.Err)
		}
		m.artifact = nil
		m.transcriptLive = true
		return m, m.showNotice(msg.Notice)

	case ExportedMsg:
		if msg.Err != nil {
			return m, m.showError(msg.Err)
		}
		return m, m.showNotice("Saqlandi: " + msg.Path)

	case QuitMsg:
		if msg.Err != nil {
			m.quitArmed = true
			m.errorMessage = msg.Err.Error() + " (chiqish uchun yana q bosing)"
			m.errorTransient = false
			return m, nil
		}
		return m, tea.Quit

	case ErrorMsg:
		return m, m.showError(msg.Err)

	case ClearTransientErrorMsg:
		if m.errorTransient {
			m.errorMessage = ""
			m.errorTransient = false
		}
		m.notice = ""
		return m, nil
	}

	return m, nil
}

func (m *Model) showError(err error) tea.Cmd {
	m.logger.Warn("tui error", "error", err)
	m.errorMessage = err.Error()
	m.errorTransient = true
	m.notice = ""
	return clearTransientErrorCmd()
}

func (m *Model) showNotice(s string) tea.Cmd {
	if s == "" {
		return nil
	}
	m.notice = s
	return clearTransientErrorCmd()
}

func (m *Model) clampSelection(n int) {
	if m.selected >= n {
		m.selected = max(0, n-1)
	}
}

// handleChatInput edits the question being typed into the chat pane.
func (m Model) handleChatInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyRunes:
		m.chatInput = append(m.chatInput, msg.Runes...)
	case tea.KeySpace:
		m.chatInput = append(m.chatInput, ' ')
	case tea.KeyBackspace:
		if len(m.chatInput) > 0 {
			m.chatInput = m.chatInput[:len(m.chatInput)-1]
		}
	case tea.KeyEsc:
		m.chatTyping = false
	case tea.KeyEnter:
		question := strings.TrimSpace(string(m.chatInput))
		if question == "" || m.chatPending {
			return m, nil
		}
		m.chatInput = nil
		m.chatPending = true
		return m, askCmd(m.ctrl, question)
	}
	return m, nil
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if m.chatTyping && key != KeyCtrlC {
		return m.handleChatInput(msg)
	}
	if key != KeyDiscard {
		m.discardArmed = false
	}
	if key != KeyQuit && key != KeyCtrlC {
		m.quitArmed = false
	}
	state := m.ctrl.State()

	switch key {
	case KeyQuit, KeyCtrlC:
		if m.quitArmed {
			return m, tea.Quit
		}
		return m, closeCmd(m.ctrl)

	case KeySpace:
		switch state {
		case session.Capturing:
			m.busy = "To'xtatilmoqda..."
			return m, stopCaptureCmd(m.ctrl)
		case session.Finalizing:
			return m, nil
		}
		return m, startCaptureCmd(m.ctrl)

	case KeyScript:
		m.script = m.script.Toggle()
		return m, savePreferenceCmd(m.prefs, m.script)

	case KeyChat:
		m.artifact = nil
		m.chatOpen = true
		m.chatTyping = true
		return m, nil

	case KeyEsc:
		m.chatOpen = false
		return m, nil

	case KeySummary:
		m.chatOpen = false
		m.artifact = &artifactView{title: "XULOSA", key: artifact.SummaryKey(), loading: true}
		return m, summarizeCmd(m.ctrl)

	case KeyTranslate:
		lang := m.languages[m.langIndex%len(m.languages)]
		m.langIndex = (m.langIndex + 1) % len(m.languages)
		m.chatOpen = false
		m.artifact = &artifactView{
			title:   "TARJIMA (" + strings.ToUpper(lang) + ")",
			key:     artifact.TranslationKey(lang),
			loading: true,
		}
		return m, translateCmd(m.ctrl, lang)

	case KeyEdit:
		if state == session.Capturing || state == session.Finalizing {
			return m, m.showError(fmt.Errorf("tahrirlash %s holatida mumkin emas", state))
		}
		return m, editCmd(m.editor, m.ctrl.View(m.script))

	case KeyNew:
		return m, newConversationCmd(m.ctrl)

	case KeyDiscard:
		err := m.ctrl.Discard(m.discardArmed)
		if errors.Is(err, session.ErrConfirmationRequired) {
			m.discardArmed = true
			return m, m.showNotice("Saqlanmagan matn o'chiriladi. Tasdiqlash uchun yana x bosing")
		}
		m.discardArmed = false
		if err != nil {
			return m, m.showError(err)
		}
		m.artifact = nil
		return m, m.showNotice("Bekor qilindi")

	case KeyHistory, KeyTab:
		if m.focusedPanel == FocusHistory {
			m.focusedPanel = FocusTranscript
		} else {
			m.focusedPanel = FocusHistory
		}
		return m, nil

	case KeyJ, KeyDown:
		if m.focusedPanel == FocusHistory {
			if m.selected < len(m.ctrl.History())-1 {
				m.selected++
			}
			return m, nil
		}
		maxScroll := m.maxTranscriptScroll()
		m.transcriptScroll++
		if m.transcriptScroll >= maxScroll {
			m.transcriptScroll = maxScroll
			m.transcriptLive = true
		}
		return m, nil

	case KeyK, KeyUp:
		if m.focusedPanel == FocusHistory {
			if m.selected > 0 {
				m.selected--
			}
			return m, nil
		}
		if m.transcriptLive {
			m.transcriptScroll = m.maxTranscriptScroll()
		}
		m.transcriptLive = false
		if m.transcriptScroll > 0 {
			m.transcriptScroll--
		}
		return m, nil

	case KeyEnter:
		if id, ok := m.selectedID(); ok && m.focusedPanel == FocusHistory {
			m.focusedPanel = FocusTranscript
			return m, loadSessionCmd(m.ctrl, id)
		}
		return m, nil

	case KeyDelete:
		if id, ok := m.selectedID(); ok && m.focusedPanel == FocusHistory {
			return m, deleteSessionCmd(m.ctrl, id)
		}
		return m, nil

	case KeyExport:
		snap := m.ctrl.Snapshot()
		doc := export.Document{
			Text:     translit.ToScript(snap.Committed, m.script),
			Created:  time.Now(),
			Duration: snap.Elapsed,
		}
		return m, exportCmd(m.exportDir, doc, m.exportFormat)

	case KeyExportFormat:
		m.exportFormat = m.exportFormat.Next()
		return m, m.showNotice("Eksport formati: " + string(m.exportFormat))
	}

	return m, nil
}

func (m Model) selectedID() (string, bool) {
	history := m.ctrl.History()
	if m.selected < 0 || m.selected >= len(history) {
		return "", false
	}
	return history[m.selected].ID, true
}

func (m *Model) scrollToBottom() {
	m.transcriptScroll = m.maxTranscriptScroll()
}

func (m Model) maxTranscriptScroll() int {
	total := len(m.transcriptLines(m.transcriptPanelWidth()))
	visible := m.transcriptVisibleLines() - 1
	if total <= visible {
		return 0
	}
	return total - visible
}
