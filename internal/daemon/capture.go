package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/jwulff/sadoo/internal/session"
	"github.com/jwulff/sadoo/internal/transcript"
)

// DefaultLocale is the recognition locale requested from the daemon.
const DefaultLocale = "uz-UZ"

// Capturer opens capture sessions on the speech daemon. It uses two
// connections per capture: one for commands and one for the event
// subscription.
type Capturer struct {
	socketPath string
	locale     string
	device     string
	logger     *slog.Logger
}

// Option configures a Capturer.
type Option func(*Capturer)

// WithLocale overrides the recognition locale.
func WithLocale(locale string) Option {
	return func(c *Capturer) { c.locale = locale }
}

// WithDevice selects an input device by name.
func WithDevice(name string) Option {
	return func(c *Capturer) { c.device = name }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Capturer) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCapturer returns a capturer for the daemon at socketPath. An empty path
// means SocketPath().
func NewCapturer(socketPath string, opts ...Option) *Capturer {
	if socketPath == "" {
		socketPath = SocketPath()
	}
	c := &Capturer{
		socketPath: socketPath,
		locale:     DefaultLocale,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Status is the daemon's answer to a status command.
type Status struct {
	State     string
	Recording bool
	Device    string
}

// Status asks the daemon whether it is recording and which input it uses.
func (c *Capturer) Status(ctx context.Context) (Status, error) {
	resp, err := c.command(ctx, Command{Cmd: CmdStatus})
	if err != nil {
		return Status{}, err
	}
	st := Status{State: resp.Status, Device: resp.Device}
	if resp.Recording != nil {
		st.Recording = *resp.Recording
	}
	return st, nil
}

// Devices lists the input devices the daemon can record from.
func (c *Capturer) Devices(ctx context.Context) ([]string, error) {
	resp, err := c.command(ctx, Command{Cmd: CmdDevices})
	if err != nil {
		return nil, err
	}
	return resp.Devices, nil
}

// command sends one command on a short-lived connection.
func (c *Capturer) command(ctx context.Context, cmd Command) (Response, error) {
	client, err := Connect(ctx, c.socketPath)
	if err != nil {
		return Response{}, err
	}
	defer client.Close()
	return client.Do(cmd)
}

// Open subscribes to recognition events and starts recording.
func (c *Capturer) Open(ctx context.Context) (session.Source, error) {
	client, err := Connect(ctx, c.socketPath)
	if err != nil {
		return nil, err
	}
	evClient, err := Connect(ctx, c.socketPath)
	if err != nil {
		client.Close()
		return nil, err
	}

	sub := Command{Cmd: CmdSubscribe, Events: []string{EventPartial, EventSegment, EventError}}
	if _, err := evClient.Do(sub); err != nil {
		client.Close()
		evClient.Close()
		return nil, err
	}
	start := Command{Cmd: CmdStart, Locale: c.locale, Device: c.device, KeepAudio: BoolPtr(true)}
	resp, err := client.Do(start)
	if err != nil {
		client.Close()
		evClient.Close()
		return nil, err
	}
	c.logger.Info("daemon capture started", "session", resp.SessionID, "locale", c.locale)

	src := &source{
		client:   client,
		evClient: evClient,
		events:   make(chan session.Event, 32),
		done:     make(chan struct{}),
		logger:   c.logger,
	}
	src.wg.Add(1)
	go src.read()
	return src, nil
}

type source struct {
	client   *Client
	evClient *Client
	events   chan session.Event
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
	logger   *slog.Logger
}

func (s *source) Events() <-chan session.Event { return s.events }

func (s *source) read() {
	defer s.wg.Done()
	defer close(s.events)
	for {
		ev, err := s.evClient.ReadEvent()
		if err != nil {
			select {
			case <-s.done:
			default:
				if !errors.Is(err, ErrClosed) {
					s.emit(session.Event{Kind: session.EventError, Err: err})
				}
			}
			return
		}
		out, ok := translate(ev)
		if !ok {
			continue
		}
		if !s.emit(out) {
			return
		}
	}
}

func (s *source) emit(ev session.Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

// translate maps a daemon event to a capture event. Transient errors and
// events the controller does not consume are skipped.
func translate(ev Event) (session.Event, bool) {
	switch ev.Event {
	case EventPartial:
		return session.Event{Kind: session.EventPartial, Text: ev.Text}, true
	case EventSegment:
		return session.Event{Kind: session.EventFinal, Text: ev.Text}, true
	case EventError:
		if ev.Transient != nil && *ev.Transient {
			return session.Event{}, false
		}
		return session.Event{Kind: session.EventError, Err: fmt.Errorf("daemon: %s", ev.Message)}, true
	}
	return session.Event{}, false
}

// Stop ends the recording and returns the audio the daemon kept.
func (s *source) Stop() (*transcript.Audio, error) {
	var (
		audio *transcript.Audio
		err   error
	)
	s.stopOnce.Do(func() {
		close(s.done)
		var resp Response
		resp, err = s.client.Do(Command{Cmd: CmdStop})
		s.client.Close()
		s.evClient.Close()
		s.wg.Wait()
		if err != nil {
			return
		}
		if len(resp.Audio) > 0 {
			audio = &transcript.Audio{Data: resp.Audio, MIMEType: resp.AudioMIME}
		}
	})
	return audio, err
}
