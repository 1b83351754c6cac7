package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/jwulff/sadoo/internal/session"
)

type fakeModels struct {
	reply string
	err   error

	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.contents = contents
	f.config = config
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(f.reply, genai.RoleModel)}},
	}, nil
}

func TestTranscribeSendsInlineMedia(t *testing.T) {
	fm := &fakeModels{reply: "  Salom dunyo.\n"}
	c := newClient(fm)

	got, err := c.Transcribe(context.Background(), session.File{Name: "a.mp3", MIMEType: "audio/mpeg", Data: []byte("id3")})
	require.NoError(t, err)
	assert.Equal(t, "Salom dunyo.", got)
	assert.Equal(t, DefaultModel, fm.model)

	require.Len(t, fm.contents, 1)
	parts := fm.contents[0].Parts
	require.Len(t, parts, 2)
	require.NotNil(t, parts[0].InlineData)
	assert.Equal(t, "audio/mpeg", parts[0].InlineData.MIMEType)
	assert.Equal(t, []byte("id3"), parts[0].InlineData.Data)
	assert.Contains(t, parts[1].Text, "lotin")
}

func TestSummarizeUsesSystemInstruction(t *testing.T) {
	fm := &fakeModels{reply: "- Salomlashish"}
	c := newClient(fm, WithModel("gemini-2.5-pro"))

	got, err := c.Summarize(context.Background(), "Salom, qalaysiz?")
	require.NoError(t, err)
	assert.Equal(t, "- Salomlashish", got)
	assert.Equal(t, "gemini-2.5-pro", fm.model)
	require.NotNil(t, fm.config)
	require.NotNil(t, fm.config.SystemInstruction)
	assert.Contains(t, fm.config.SystemInstruction.Parts[0].Text, "qisqacha mazmun")
	assert.Equal(t, "Salom, qalaysiz?", fm.contents[0].Parts[0].Text)
}

func TestTranslatePromptNamesLanguage(t *testing.T) {
	fm := &fakeModels{reply: "Hello."}
	c := newClient(fm)

	got, err := c.Translate(context.Background(), "Salom.", "en")
	require.NoError(t, err)
	assert.Equal(t, "Hello.", got)
	assert.Contains(t, fm.config.SystemInstruction.Parts[0].Text, "English")

	assert.Contains(t, translatePrompt("ru"), "Russian")
	assert.Contains(t, translatePrompt("xx"), "xx")
}

func TestGenerateErrors(t *testing.T) {
	boom := errors.New("429 resource exhausted")
	c := newClient(&fakeModels{err: boom})
	_, err := c.Summarize(context.Background(), "matn")
	assert.ErrorIs(t, err, boom)

	c = newClient(&fakeModels{reply: "   "})
	_, err = c.Translate(context.Background(), "matn", "ru")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(context.Background(), "")
	assert.Error(t, err)
}

func TestChatReplaysHistory(t *testing.T) {
	fm := &fakeModels{reply: "Soat beshda."}
	c := newClient(fm)

	history := []session.ChatTurn{
		{Role: session.ChatUser, Text: "Kim gapirdi?"},
		{Role: session.ChatModel, Text: "Aziz."},
	}
	got, err := c.Chat(context.Background(), "Aziz: yig'ilish soat beshda.", history, "Qachon?")
	require.NoError(t, err)
	assert.Equal(t, "Soat beshda.", got)

	require.Len(t, fm.contents, 3)
	assert.Equal(t, string(genai.RoleUser), fm.contents[0].Role)
	assert.Equal(t, string(genai.RoleModel), fm.contents[1].Role)
	assert.Equal(t, "Aziz.", fm.contents[1].Parts[0].Text)
	assert.Equal(t, string(genai.RoleUser), fm.contents[2].Role)
	assert.Equal(t, "Qachon?", fm.contents[2].Parts[0].Text)
	assert.Contains(t, fm.config.SystemInstruction.Parts[0].Text, "yig'ilish soat beshda.")
}
