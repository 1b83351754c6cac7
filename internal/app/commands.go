package app

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwulff/sadoo/internal/export"
	"github.com/jwulff/sadoo/internal/session"
	"github.com/jwulff/sadoo/internal/translit"
)

// requestTimeout bounds calls to remote services made from commands.
const requestTimeout = 2 * time.Minute

// startCaptureCmd opens a capture source through the controller.
func startCaptureCmd(ctrl *session.Controller) tea.Cmd {
	return func() tea.Msg {
		epoch, err := ctrl.StartCapture(context.Background())
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return CaptureStartedMsg{Epoch: epoch, Events: ctrl.Events(epoch)}
	}
}

// readEventCmd reads the next event of the capture identified by epoch.
func readEventCmd(events <-chan session.Event, epoch uint64) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return SourceClosedMsg{Epoch: epoch}
		}
		return CaptureEventMsg{Epoch: epoch, Event: ev}
	}
}

// stopCaptureCmd stops the active capture. Stopping talks to the capture
// backend, so it runs off the update loop.
func stopCaptureCmd(ctrl *session.Controller) tea.Cmd {
	return func() tea.Msg {
		return CaptureStoppedMsg{Err: ctrl.StopCapture()}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

// clearTransientErrorCmd fires after a delay to clear transient errors.
func clearTransientErrorCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return ClearTransientErrorMsg{}
	})
}

// loadFileCmd reads a file from disk and probes its duration.
func loadFileCmd(path string, prober DurationProber) tea.Cmd {
	return func() tea.Msg {
		f, err := session.LoadFile(path)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		if prober != nil {
			if kind, ok := f.Kind(); ok && kind != session.MediaImage {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				if d, err := prober.Duration(ctx, path); err == nil {
					f.Duration = d
				}
			}
		}
		return FileLoadedMsg{File: f}
	}
}

func submitFileCmd(ctrl *session.Controller, f session.File) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return FileTranscribedMsg{Err: ctrl.SubmitFile(ctx, f)}
	}
}

func summarizeCmd(ctrl *session.Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		text, err := ctrl.Summarize(ctx)
		return ArtifactMsg{Title: "XULOSA", Text: text, Err: err}
	}
}

func translateCmd(ctrl *session.Controller, lang string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		text, err := ctrl.Translate(ctx, lang)
		return ArtifactMsg{Title: "TARJIMA (" + strings.ToUpper(lang) + ")", Text: text, Err: err}
	}
}

func askCmd(ctrl *session.Controller, question string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		answer, err := ctrl.Ask(ctx, question)
		return ChatMsg{Question: question, Answer: answer, Err: err}
	}
}

// editCmd opens text in the user's editor and returns what was saved.
func editCmd(editor, text string) tea.Cmd {
	f, err := os.CreateTemp("", "sadoo-*.txt")
	if err != nil {
		return func() tea.Msg { return EditedMsg{Err: fmt.Errorf("create edit file: %w", err)} }
	}
	path := f.Name()
	_, werr := f.WriteString(text + "\n")
	f.Close()
	if werr != nil {
		os.Remove(path)
		return func() tea.Msg { return EditedMsg{Err: fmt.Errorf("write edit file: %w", werr)} }
	}

	c := exec.Command(editor, path)
	return tea.ExecProcess(c, func(err error) tea.Msg {
		defer os.Remove(path)
		if err != nil {
			return EditedMsg{Err: fmt.Errorf("editor: %w", err)}
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return EditedMsg{Err: fmt.Errorf("read edit file: %w", err)}
		}
		return EditedMsg{Text: strings.TrimRight(string(data), "\r\n")}
	})
}

func refreshHistoryCmd(ctrl *session.Controller) tea.Cmd {
	return func() tea.Msg {
		err := ctrl.RefreshHistory(context.Background())
		return HistoryMsg{Sessions: ctrl.History(), Err: err}
	}
}

func newConversationCmd(ctrl *session.Controller) tea.Cmd {
	return func() tea.Msg {
		if err := ctrl.NewConversation(context.Background()); err != nil {
			return ActionDoneMsg{Err: err}
		}
		return ActionDoneMsg{Notice: "Yangi suhbat"}
	}
}

func loadSessionCmd(ctrl *session.Controller, id string) tea.Cmd {
	return func() tea.Msg {
		if err := ctrl.Load(context.Background(), id); err != nil {
			return ActionDoneMsg{Err: err}
		}
		return ActionDoneMsg{Notice: "Suhbat yuklandi"}
	}
}

func deleteSessionCmd(ctrl *session.Controller, id string) tea.Cmd {
	return func() tea.Msg {
		if err := ctrl.Delete(context.Background(), id); err != nil {
			return ActionDoneMsg{Err: err}
		}
		return ActionDoneMsg{Notice: "Suhbat o'chirildi"}
	}
}

func exportCmd(dir string, doc export.Document, format export.Format) tea.Cmd {
	return func() tea.Msg {
		path, err := export.WriteFile(dir, doc, format)
		return ExportedMsg{Path: path, Err: err}
	}
}

func savePreferenceCmd(prefs Preferences, script translit.Script) tea.Cmd {
	if prefs == nil {
		return nil
	}
	return func() tea.Msg {
		if err := prefs.SetPreference(context.Background(), PrefScript, script.String()); err != nil {
			return ErrorMsg{Err: fmt.Errorf("save script preference: %w", err)}
		}
		return nil
	}
}

// closeCmd saves unsaved work before quitting.
func closeCmd(ctrl *session.Controller) tea.Cmd {
	return func() tea.Msg {
		return QuitMsg{Err: ctrl.Close(context.Background())}
	}
}
