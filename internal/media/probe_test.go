package media

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"12.480000\n", 12480 * time.Millisecond, false},
		{"N/A\n", 0, false},
		{"", 0, false},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := parseDuration(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseDuration(%q) err = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("parseDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestProberDuration(t *testing.T) {
	var gotArgs []string
	p := &Prober{bin: "ffprobe", run: func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = args
		return []byte("3.5\n"), nil
	}}

	d, err := p.Duration(context.Background(), "/tmp/yozuv.ogg")
	if err != nil {
		t.Fatalf("duration: %v", err)
	}
	if d != 3500*time.Millisecond {
		t.Errorf("duration = %v", d)
	}
	if gotArgs[len(gotArgs)-1] != "/tmp/yozuv.ogg" {
		t.Errorf("args = %v", gotArgs)
	}
}

func TestProberFailure(t *testing.T) {
	boom := errors.New("exit status 1")
	p := &Prober{bin: "ffprobe", run: func(context.Context, string, ...string) ([]byte, error) {
		return nil, boom
	}}
	if _, err := p.Duration(context.Background(), "x.mp4"); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}
