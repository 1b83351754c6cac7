package transcript

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jwulff/sadoo/internal/artifact"
	"github.com/jwulff/sadoo/internal/translit"
)

// populate fills the summary and two translation slots.
func populate(t *testing.T, m *Model) {
	t.Helper()
	ctx := context.Background()
	for _, k := range []artifact.Key{artifact.SummaryKey(), artifact.TranslationKey("en"), artifact.TranslationKey("ru")} {
		if _, err := m.Cache().GetOrCompute(ctx, k, func(context.Context) (string, error) { return "x", nil }); err != nil {
			t.Fatalf("populate %s: %v", k, err)
		}
	}
	if m.Cache().Len() != 3 {
		t.Fatalf("cache len = %d, want 3", m.Cache().Len())
	}
}

func TestCommitFinal(t *testing.T) {
	m := New(nil)
	m.UpdatePartial("salom")

	if !m.CommitFinal("  Salom dunyo.  ") {
		t.Fatal("CommitFinal should report a change")
	}
	if m.Committed() != "Salom dunyo." {
		t.Errorf("committed = %q", m.Committed())
	}
	if m.Partial() != "" {
		t.Errorf("partial = %q, want empty", m.Partial())
	}

	m.CommitFinal("Qalaysiz?")
	if m.Committed() != "Salom dunyo. Qalaysiz?" {
		t.Errorf("committed = %q", m.Committed())
	}
}

func TestCommitFinalEndsWithTrimmedText(t *testing.T) {
	for _, text := range []string{"a", " b ", "\tc\n", "Salom dunyo."} {
		m := New(nil)
		m.ManualEdit("boshlanish")
		m.CommitFinal(text)
		if !strings.HasSuffix(m.Committed(), strings.TrimSpace(text)) {
			t.Errorf("committed %q does not end with %q", m.Committed(), strings.TrimSpace(text))
		}
		if m.Partial() != "" {
			t.Errorf("partial = %q after commit", m.Partial())
		}
	}
}

func TestCommitFinalBlank(t *testing.T) {
	m := New(nil)
	m.CommitFinal("Salom.")
	rev := m.Revision()

	for _, blank := range []string{"", "   ", "\n\t"} {
		m.UpdatePartial("kutilmoqda")
		if m.CommitFinal(blank) {
			t.Errorf("CommitFinal(%q) reported a change", blank)
		}
		if m.Committed() != "Salom." {
			t.Errorf("committed = %q after blank commit", m.Committed())
		}
		if m.Partial() != "" {
			t.Errorf("partial = %q after blank commit", m.Partial())
		}
	}
	if m.Revision() != rev {
		t.Errorf("revision moved from %d to %d on blank commits", rev, m.Revision())
	}
}

func TestMutatorsClearCache(t *testing.T) {
	tests := []struct {
		name string
		op   func(m *Model)
	}{
		{"commit", func(m *Model) { m.CommitFinal("yangi") }},
		{"blank commit", func(m *Model) { m.CommitFinal(" ") }},
		{"manual edit", func(m *Model) { m.ManualEdit("Salom, dunyo.") }},
		{"reset", func(m *Model) { m.Reset() }},
		{"load", func(m *Model) { m.Load("saqlangan", nil, time.Second) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(nil)
			m.CommitFinal("Salom.")
			populate(t, m)
			tt.op(m)
			if n := m.Cache().Len(); n != 0 {
				t.Errorf("cache len = %d after %s, want 0", n, tt.name)
			}
		})
	}
}

func TestUpdatePartialKeepsCacheAndText(t *testing.T) {
	m := New(nil)
	m.CommitFinal("Salom.")
	populate(t, m)

	m.UpdatePartial("dunyo")

	if m.Cache().Len() != 3 {
		t.Errorf("cache len = %d, want 3", m.Cache().Len())
	}
	if m.Committed() != "Salom." {
		t.Errorf("committed = %q", m.Committed())
	}
	if m.Partial() != "dunyo" {
		t.Errorf("partial = %q", m.Partial())
	}
}

func TestFlushPartial(t *testing.T) {
	m := New(nil)
	m.CommitFinal("Salom.")
	m.UpdatePartial(" qalaysiz ")
	if !m.FlushPartial() {
		t.Fatal("FlushPartial should commit pending text")
	}
	if m.Committed() != "Salom. qalaysiz" {
		t.Errorf("committed = %q", m.Committed())
	}

	m.UpdatePartial("  ")
	if m.FlushPartial() {
		t.Error("blank partial should not commit")
	}
	if m.Partial() != "" {
		t.Errorf("partial = %q", m.Partial())
	}
}

func TestManualEditCanShrink(t *testing.T) {
	m := New(nil)
	m.CommitFinal("Salom dunyo. Qalaysiz?")
	m.ManualEdit("Salom.")
	if m.Committed() != "Salom." {
		t.Errorf("committed = %q", m.Committed())
	}
}

func TestEditDisplayedCyrillic(t *testing.T) {
	m := New(nil)
	m.EditDisplayed("Салом, дунё.", translit.Cyrillic)
	if m.Committed() != "Salom, dunyo." {
		t.Errorf("committed = %q, want Latin", m.Committed())
	}
	m.EditDisplayed("Salom.", translit.Latin)
	if m.Committed() != "Salom." {
		t.Errorf("committed = %q", m.Committed())
	}
}

func TestResetReleasesAudio(t *testing.T) {
	m := New(nil)
	m.CommitFinal("Salom.")
	m.AttachAudio(&Audio{Data: []byte{1, 2, 3}, MIMEType: "audio/webm"})
	m.SetElapsed(3 * time.Second)
	m.UpdatePartial("x")

	m.Reset()

	if m.Committed() != "" || m.Partial() != "" || m.Audio() != nil || m.Elapsed() != 0 {
		t.Errorf("reset left state: committed=%q partial=%q audio=%v elapsed=%v",
			m.Committed(), m.Partial(), m.Audio(), m.Elapsed())
	}
	if m.HasContent() {
		t.Error("reset model should have no content")
	}
}

func TestLoad(t *testing.T) {
	m := New(nil)
	m.UpdatePartial("eski")
	audio := &Audio{Ref: "abc", MIMEType: "audio/webm"}
	m.Load("Saqlangan matn", audio, 90*time.Second)

	if m.Committed() != "Saqlangan matn" {
		t.Errorf("committed = %q", m.Committed())
	}
	if m.Partial() != "" {
		t.Errorf("partial = %q", m.Partial())
	}
	if !m.Audio().Persisted() {
		t.Error("loaded audio should be a storage reference")
	}
	if m.Elapsed() != 90*time.Second {
		t.Errorf("elapsed = %v", m.Elapsed())
	}
}

func TestView(t *testing.T) {
	m := New(nil)
	m.CommitFinal("Salom.")
	m.UpdatePartial("dunyo")
	if got := m.View(translit.Latin); got != "Salom. dunyo" {
		t.Errorf("latin view = %q", got)
	}
	if got := m.View(translit.Cyrillic); got != "Салом. дунё" {
		t.Errorf("cyrillic view = %q", got)
	}
	if m.Committed() != "Salom." {
		t.Error("view must not change committed text")
	}
}
