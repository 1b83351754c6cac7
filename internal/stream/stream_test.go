package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwulff/sadoo/internal/session"
)

func newRecognizer(t *testing.T, handler func(conn *websocket.Conn)) string {
	t.Helper()

	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer kalit" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func expectStart(t *testing.T, conn *websocket.Conn) {
	var f Frame
	if err := conn.ReadJSON(&f); err != nil || f.Type != FrameStart || f.Language != "uz" {
		t.Errorf("start frame = %+v, err %v", f, err)
	}
}

func collect(t *testing.T, src session.Source, n int) []session.Event {
	t.Helper()
	var out []session.Event
	for len(out) < n {
		select {
		case ev, ok := <-src.Events():
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d events", len(out))
		}
	}
	return out
}

func TestStreamPartialFinalAndAudio(t *testing.T) {
	url := newRecognizer(t, func(conn *websocket.Conn) {
		expectStart(t, conn)
		_ = conn.WriteJSON(Frame{Type: FramePartial, Text: "salom"})
		_ = conn.WriteJSON(Frame{Type: "keepalive"})
		_ = conn.WriteJSON(Frame{Type: FrameFinal, Text: "Salom dunyo."})

		var stop Frame
		if err := conn.ReadJSON(&stop); err != nil || stop.Type != FrameStop {
			t.Errorf("stop frame = %+v, err %v", stop, err)
			return
		}
		_ = conn.WriteJSON(Frame{Type: FrameAudio, Audio: []byte("OggS"), MIMEType: "audio/ogg"})
		_, _, _ = conn.ReadMessage()
	})

	src, err := New(url, WithAPIKey("kalit")).Open(context.Background())
	require.NoError(t, err)

	events := collect(t, src, 2)
	require.Len(t, events, 2)
	assert.Equal(t, session.Event{Kind: session.EventPartial, Text: "salom"}, events[0])
	assert.Equal(t, session.Event{Kind: session.EventFinal, Text: "Salom dunyo."}, events[1])

	audio, err := src.Stop()
	require.NoError(t, err)
	require.NotNil(t, audio)
	assert.Equal(t, "audio/ogg", audio.MIMEType)
	assert.Equal(t, []byte("OggS"), audio.Data)
}

func TestStreamErrorFrame(t *testing.T) {
	url := newRecognizer(t, func(conn *websocket.Conn) {
		expectStart(t, conn)
		_ = conn.WriteJSON(Frame{Type: FrameError, Message: "quota exceeded"})
		_, _, _ = conn.ReadMessage()
	})

	src, err := New(url, WithAPIKey("kalit")).Open(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { src.Stop() })

	events := collect(t, src, 1)
	require.Len(t, events, 1)
	assert.Equal(t, session.EventError, events[0].Kind)
	assert.ErrorContains(t, events[0].Err, "quota exceeded")

	_, ok := <-src.Events()
	assert.False(t, ok)
}

func TestStreamStopWithoutAudio(t *testing.T) {
	url := newRecognizer(t, func(conn *websocket.Conn) {
		expectStart(t, conn)
		// never answers the stop request
		_, _, _ = conn.ReadMessage()
		_, _, _ = conn.ReadMessage()
	})

	src, err := New(url, WithAPIKey("kalit"), WithStopTimeout(50*time.Millisecond)).Open(context.Background())
	require.NoError(t, err)

	audio, err := src.Stop()
	require.NoError(t, err)
	assert.Nil(t, audio)
}

func TestStreamUnauthorized(t *testing.T) {
	url := newRecognizer(t, func(conn *websocket.Conn) {})

	_, err := New(url).Open(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestStreamNotConfigured(t *testing.T) {
	_, err := New("").Open(context.Background())
	assert.Error(t, err)
}

func TestStreamDrivesController(t *testing.T) {
	url := newRecognizer(t, func(conn *websocket.Conn) {
		expectStart(t, conn)
		_ = conn.WriteJSON(Frame{Type: FramePartial, Text: "salom"})
		_ = conn.WriteJSON(Frame{Type: FramePartial, Text: "salom dunyo"})
		_ = conn.WriteJSON(Frame{Type: FrameFinal, Text: "Salom dunyo."})
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_, _, _ = conn.ReadMessage()
	})

	ctrl := session.New(session.Deps{Capturer: New(url, WithAPIKey("kalit"), WithStopTimeout(50*time.Millisecond))})
	ctx := context.Background()
	epoch, err := ctrl.StartCapture(ctx)
	require.NoError(t, err)
	require.NoError(t, ctrl.Pump(ctx, epoch))

	snap := ctrl.Snapshot()
	assert.Equal(t, session.Reviewing, snap.State)
	assert.Equal(t, "Salom dunyo.", snap.Committed)
	assert.Equal(t, "", snap.Partial)
}
