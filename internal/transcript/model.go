// Package transcript holds the text of one session: the committed transcript
// in canonical Latin script, the in-flight partial segment, the captured
// audio, and the cache of artifacts derived from the committed text.
//
// Every operation that can change the committed text invalidates the
// artifact cache as its last step.
package transcript

import (
	"strings"
	"time"

	"github.com/jwulff/sadoo/internal/artifact"
	"github.com/jwulff/sadoo/internal/translit"
)

// Audio is the captured or uploaded media of a session. Data is owned by the
// session until the storage service accepts it; afterwards only Ref is kept.
type Audio struct {
	Data     []byte
	MIMEType string
	Ref      string
}

// Persisted reports whether the audio lives in storage rather than memory.
func (a *Audio) Persisted() bool {
	return a != nil && a.Ref != "" && a.Data == nil
}

// Model is not safe for concurrent use; the session controller serializes
// access to it.
type Model struct {
	committed string
	partial   string
	elapsed   time.Duration
	audio     *Audio
	cache     *artifact.Cache
	revision  uint64
}

// New returns an empty model backed by cache. A nil cache gets a fresh one.
func New(cache *artifact.Cache) *Model {
	if cache == nil {
		cache = artifact.New()
	}
	return &Model{cache: cache}
}

// CommitFinal appends the trimmed text to the committed transcript, with a
// single space when the transcript is not empty. It clears the partial
// segment and the artifact cache. Blank text leaves the transcript unchanged
// and reports false.
func (m *Model) CommitFinal(text string) bool {
	text = strings.TrimSpace(text)
	changed := false
	if text != "" {
		if m.committed != "" {
			m.committed += " "
		}
		m.committed += text
		m.revision++
		changed = true
	}
	m.partial = ""
	m.cache.Invalidate()
	return changed
}

// UpdatePartial replaces the partial segment verbatim.
func (m *Model) UpdatePartial(text string) {
	m.partial = text
}

// FlushPartial commits the pending partial segment as a final one.
func (m *Model) FlushPartial() bool {
	if strings.TrimSpace(m.partial) == "" {
		m.partial = ""
		return false
	}
	return m.CommitFinal(m.partial)
}

// DiscardPartial drops the partial segment without committing it.
func (m *Model) DiscardPartial() {
	m.partial = ""
}

// ManualEdit replaces the committed transcript with text typed by the user.
func (m *Model) ManualEdit(text string) {
	m.committed = text
	m.partial = ""
	m.revision++
	m.cache.Invalidate()
}

// EditDisplayed applies a manual edit made in the display script. Cyrillic
// edits are converted back to Latin first.
func (m *Model) EditDisplayed(text string, script translit.Script) {
	if script == translit.Cyrillic {
		text = translit.ToLatin(text)
	}
	m.ManualEdit(text)
}

// Reset clears the transcript, the partial segment, the cache and the audio.
func (m *Model) Reset() {
	m.committed = ""
	m.partial = ""
	m.elapsed = 0
	m.audio = nil
	m.revision++
	m.cache.Invalidate()
}

// Load replaces the model contents with a persisted session.
func (m *Model) Load(text string, audio *Audio, elapsed time.Duration) {
	m.committed = text
	m.partial = ""
	m.audio = audio
	m.elapsed = elapsed
	m.revision++
	m.cache.Invalidate()
}

// AttachAudio sets the session audio. A nil audio detaches it.
func (m *Model) AttachAudio(a *Audio) { m.audio = a }

// SetElapsed records the length of the capture or uploaded media.
func (m *Model) SetElapsed(d time.Duration) { m.elapsed = d }

func (m *Model) Committed() string      { return m.committed }
func (m *Model) Partial() string        { return m.partial }
func (m *Model) Elapsed() time.Duration { return m.elapsed }
func (m *Model) Audio() *Audio          { return m.audio }
func (m *Model) Cache() *artifact.Cache { return m.cache }

// Revision increases whenever the committed transcript may have changed.
func (m *Model) Revision() uint64 { return m.revision }

// HasContent reports whether there is anything worth saving.
func (m *Model) HasContent() bool {
	return m.committed != "" || m.audio != nil
}

// View renders committed text and partial segment in the given script.
func (m *Model) View(script translit.Script) string {
	return translit.Project(m.committed, m.partial, script)
}
