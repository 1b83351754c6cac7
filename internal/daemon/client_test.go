package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jwulff/sadoo/internal/session"
)

// fakeDaemon accepts any number of connections and answers commands the way
// the speech daemon does. Events pushed with emit go to the subscriber.
type fakeDaemon struct {
	t        *testing.T
	sockPath string
	ln       net.Listener

	mu         sync.Mutex
	commands   []string
	subscriber net.Conn
	subscribed chan struct{}
	rejectCmd  string
}

func startFakeDaemon(t *testing.T) *fakeDaemon {
	t.Helper()

	sockPath := filepath.Join(t.TempDir(), "test.sock")
	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	d := &fakeDaemon{t: t, sockPath: sockPath, ln: ln, subscribed: make(chan struct{})}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go d.serve(conn)
		}
	}()
	return d
}

func (d *fakeDaemon) serve(conn net.Conn) {
	defer conn.Close()
	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		var cmd Command
		if err := json.Unmarshal(sc.Bytes(), &cmd); err != nil {
			return
		}
		d.mu.Lock()
		d.commands = append(d.commands, cmd.Cmd)
		reject := d.rejectCmd == cmd.Cmd
		d.mu.Unlock()

		resp := Response{OK: true}
		switch {
		case reject:
			resp = Response{OK: false, Error: "microphone busy"}
		case cmd.Cmd == CmdStart:
			resp.SessionID = "sess-1"
			resp.Recording = BoolPtr(true)
		case cmd.Cmd == CmdStop:
			resp.Recording = BoolPtr(false)
			resp.Audio = []byte("RIFF....WAVE")
			resp.AudioMIME = "audio/wav"
		case cmd.Cmd == CmdDevices:
			resp.Devices = []string{"Ichki mikrofon", "USB Mikrofon"}
		case cmd.Cmd == CmdStatus:
			resp.Status = "idle"
			resp.Recording = BoolPtr(false)
			resp.Device = "Ichki mikrofon"
		}
		data, _ := json.Marshal(resp)
		conn.Write(append(data, '\n'))

		if cmd.Cmd == CmdSubscribe && !reject {
			d.mu.Lock()
			d.subscriber = conn
			d.mu.Unlock()
			close(d.subscribed)
			// hold the connection open; writes happen through emit
			for sc.Scan() {
			}
			return
		}
	}
}

func (d *fakeDaemon) emit(events ...Event) {
	d.t.Helper()
	select {
	case <-d.subscribed:
	case <-time.After(2 * time.Second):
		d.t.Fatal("no subscriber")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, ev := range events {
		data, _ := json.Marshal(ev)
		d.subscriber.Write(append(data, '\n'))
	}
}

func (d *fakeDaemon) hangUp() {
	<-d.subscribed
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subscriber.Close()
}

func (d *fakeDaemon) reject(cmd string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rejectCmd = cmd
}

func (d *fakeDaemon) seen() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.commands...)
}

func TestClientSendCommand(t *testing.T) {
	d := startFakeDaemon(t)

	client, err := Connect(context.Background(), d.sockPath)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	got, err := client.SendCommand(Command{Cmd: CmdStart})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !got.OK {
		t.Error("ok = false, want true")
	}
	if got.SessionID != "sess-1" {
		t.Errorf("sessionId = %q, want %q", got.SessionID, "sess-1")
	}

	devs, err := client.SendCommand(Command{Cmd: CmdDevices})
	if err != nil {
		t.Fatalf("devices: %v", err)
	}
	if len(devs.Devices) != 2 {
		t.Errorf("devices = %v", devs.Devices)
	}
}

func TestClientDoRejected(t *testing.T) {
	d := startFakeDaemon(t)
	d.reject(CmdStart)

	client, err := Connect(context.Background(), d.sockPath)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	_, err = client.Do(Command{Cmd: CmdStart})
	if !errors.Is(err, ErrRejected) {
		t.Errorf("err = %v, want ErrRejected", err)
	}
}

func TestClientConnectFailure(t *testing.T) {
	_, err := Connect(context.Background(), "/nonexistent/path/speechd.sock")
	if err == nil {
		t.Error("expected error connecting to nonexistent socket")
	}
}

func TestClientReadEvents(t *testing.T) {
	d := startFakeDaemon(t)

	client, err := Connect(context.Background(), d.sockPath)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	if _, err := client.Do(Command{Cmd: CmdSubscribe}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	d.emit(Event{Event: EventPartial, Text: "salom"}, Event{Event: EventError, Message: "overrun", Transient: BoolPtr(true)})

	ev1, err := client.ReadEvent()
	if err != nil {
		t.Fatalf("read event 1: %v", err)
	}
	if ev1.Event != EventPartial || ev1.Text != "salom" {
		t.Errorf("event1 = %+v", ev1)
	}
	ev2, err := client.ReadEvent()
	if err != nil {
		t.Fatalf("read event 2: %v", err)
	}
	if ev2.Event != EventError || ev2.Transient == nil || !*ev2.Transient {
		t.Errorf("event2 = %+v", ev2)
	}

	d.hangUp()
	if _, err := client.ReadEvent(); !errors.Is(err, ErrClosed) {
		t.Errorf("after hang-up err = %v, want ErrClosed", err)
	}
}

func nextEvent(t *testing.T, src session.Source) session.Event {
	t.Helper()
	select {
	case ev, ok := <-src.Events():
		if !ok {
			t.Fatal("event channel closed")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return session.Event{}
}

func TestCapturerStreamsEvents(t *testing.T) {
	d := startFakeDaemon(t)
	c := NewCapturer(d.sockPath, WithDevice("USB Mikrofon"))

	src, err := c.Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	d.emit(
		Event{Event: EventPartial, Text: "salom"},
		Event{Event: EventError, Message: "overrun", Transient: BoolPtr(true)},
		Event{Event: EventSegment, Text: "Salom dunyo."},
	)

	if ev := nextEvent(t, src); ev.Kind != session.EventPartial || ev.Text != "salom" {
		t.Errorf("first = %+v", ev)
	}
	if ev := nextEvent(t, src); ev.Kind != session.EventFinal || ev.Text != "Salom dunyo." {
		t.Errorf("second = %+v", ev)
	}

	audio, err := src.Stop()
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if audio == nil || audio.MIMEType != "audio/wav" || string(audio.Data) != "RIFF....WAVE" {
		t.Errorf("audio = %+v", audio)
	}

	// channel is closed after stop
	for range src.Events() {
	}

	want := []string{CmdSubscribe, CmdStart, CmdStop}
	got := d.seen()
	if len(got) != len(want) {
		t.Fatalf("commands = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("commands = %v, want %v", got, want)
			break
		}
	}
}

func TestCapturerStartRejected(t *testing.T) {
	d := startFakeDaemon(t)
	d.reject(CmdStart)

	_, err := NewCapturer(d.sockPath).Open(context.Background())
	if !errors.Is(err, ErrRejected) {
		t.Errorf("err = %v, want ErrRejected", err)
	}
}

func TestCapturerHangUpClosesEvents(t *testing.T) {
	d := startFakeDaemon(t)

	src, err := NewCapturer(d.sockPath).Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { src.Stop() })
	d.hangUp()

	select {
	case _, ok := <-src.Events():
		if ok {
			t.Error("expected closed channel after daemon hang-up")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event channel not closed")
	}
}

func TestCapturerNoDaemon(t *testing.T) {
	c := NewCapturer(filepath.Join(t.TempDir(), "none.sock"))
	if _, err := c.Open(context.Background()); err == nil {
		t.Error("expected error without daemon")
	}
}

func TestCapturerStatusAndDevices(t *testing.T) {
	d := startFakeDaemon(t)
	c := NewCapturer(d.sockPath)
	ctx := context.Background()

	st, err := c.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.State != "idle" || st.Recording || st.Device != "Ichki mikrofon" {
		t.Errorf("status = %+v", st)
	}

	devices, err := c.Devices(ctx)
	if err != nil {
		t.Fatalf("devices: %v", err)
	}
	if len(devices) != 2 || devices[1] != "USB Mikrofon" {
		t.Errorf("devices = %v", devices)
	}

	d.reject(CmdStatus)
	if _, err := c.Status(ctx); !errors.Is(err, ErrRejected) {
		t.Errorf("rejected status err = %v, want ErrRejected", err)
	}
}
