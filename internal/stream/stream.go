// Package stream is a capture source backed by a streaming speech
// recognizer reached over a WebSocket. The recognizer sends JSON frames with
// partial and final hypotheses and, after a stop request, the recording.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jwulff/sadoo/internal/session"
	"github.com/jwulff/sadoo/internal/transcript"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultStopTimeout    = 5 * time.Second
)

// Frame types.
const (
	FramePartial = "partial"
	FrameFinal   = "final"
	FrameError   = "error"
	FrameAudio   = "audio"
	FrameStart   = "start"
	FrameStop    = "stop"
)

// Frame is one JSON message on the socket, in either direction.
type Frame struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Message  string `json:"message,omitempty"`
	Language string `json:"language,omitempty"`
	Audio    []byte `json:"audio,omitempty"`
	MIMEType string `json:"mime,omitempty"`
}

// Capturer dials the recognizer for every capture.
type Capturer struct {
	url         string
	apiKey      string
	language    string
	stopTimeout time.Duration
	dialer      *websocket.Dialer
	logger      *slog.Logger
}

// Option configures a Capturer.
type Option func(*Capturer)

// WithAPIKey sends a bearer token on the upgrade request.
func WithAPIKey(key string) Option {
	return func(c *Capturer) { c.apiKey = key }
}

// WithLanguage sets the recognition language (default "uz").
func WithLanguage(lang string) Option {
	return func(c *Capturer) { c.language = lang }
}

// WithStopTimeout bounds how long Stop waits for the recording.
func WithStopTimeout(d time.Duration) Option {
	return func(c *Capturer) { c.stopTimeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Capturer) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a capturer for the recognizer at url (ws:// or wss://).
func New(url string, opts ...Option) *Capturer {
	c := &Capturer{
		url:         url,
		language:    "uz",
		stopTimeout: defaultStopTimeout,
		dialer:      websocket.DefaultDialer,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Open connects and asks the recognizer to start.
func (c *Capturer) Open(ctx context.Context) (session.Source, error) {
	if c.url == "" {
		return nil, errors.New("stream url not configured")
	}
	headers := make(http.Header)
	if c.apiKey != "" {
		headers.Set("Authorization", "Bearer "+c.apiKey)
	}

	dialCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, defaultConnectTimeout)
		defer cancel()
	}
	conn, resp, err := c.dialer.DialContext(dialCtx, c.url, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s (status %d): %w", c.url, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial %s: %w", c.url, err)
	}
	if err := conn.WriteJSON(Frame{Type: FrameStart, Language: c.language}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send start: %w", err)
	}

	s := &source{
		conn:     conn,
		events:   make(chan session.Event, 32),
		stopping: make(chan struct{}),
		done:     make(chan struct{}),
		timeout:  c.stopTimeout,
		logger:   c.logger,
	}
	go s.readLoop()
	return s, nil
}

type source struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	events   chan session.Event
	stopping chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	timeout  time.Duration

	audioMu sync.Mutex
	audio   *transcript.Audio

	logger *slog.Logger
}

func (s *source) Events() <-chan session.Event { return s.events }

func (s *source) readLoop() {
	defer close(s.done)
	defer close(s.events)

	for {
		var f Frame
		if err := s.conn.ReadJSON(&f); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			select {
			case <-s.stopping:
			default:
				s.emit(session.Event{Kind: session.EventError, Err: fmt.Errorf("read frame: %w", err)})
			}
			return
		}

		switch f.Type {
		case FramePartial:
			s.emit(session.Event{Kind: session.EventPartial, Text: f.Text})
		case FrameFinal:
			s.emit(session.Event{Kind: session.EventFinal, Text: f.Text})
		case FrameError:
			s.emit(session.Event{Kind: session.EventError, Err: fmt.Errorf("recognizer: %s", f.Message)})
			return
		case FrameAudio:
			s.audioMu.Lock()
			s.audio = &transcript.Audio{Data: f.Audio, MIMEType: f.MIMEType}
			s.audioMu.Unlock()
			return
		default:
			s.logger.Debug("ignoring stream frame", "type", f.Type)
		}
	}
}

// emit drops events once a stop is under way; nobody reads them then.
func (s *source) emit(ev session.Event) {
	select {
	case s.events <- ev:
	case <-s.stopping:
	}
}

// Stop asks for the recording, waits for it up to the stop timeout and
// closes the socket.
func (s *source) Stop() (*transcript.Audio, error) {
	var err error
	s.stopOnce.Do(func() {
		close(s.stopping)
		s.writeMu.Lock()
		err = s.conn.WriteJSON(Frame{Type: FrameStop})
		s.writeMu.Unlock()

		if err == nil {
			select {
			case <-s.done:
			case <-time.After(s.timeout):
				s.logger.Warn("recognizer did not return audio before timeout")
			}
		}
		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		s.writeMu.Unlock()
		_ = s.conn.Close()
		<-s.done
	})
	if err != nil {
		return nil, fmt.Errorf("send stop: %w", err)
	}
	s.audioMu.Lock()
	defer s.audioMu.Unlock()
	return s.audio, nil
}
