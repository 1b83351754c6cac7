// Package gemini transcribes uploaded media, derives summaries and
// translations, and answers questions about a transcript through the Gemini
// API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/jwulff/sadoo/internal/session"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = errors.New("gemini returned no text")

const transcribePrompt = `Ushbu fayldagi nutqni o'zbek tilida, lotin yozuvida so'zma-so'z yozib bering.
Agar faylda rasm bo'lsa, undagi matnni lotin yozuvida ko'chiring.
Faqat matnni qaytaring, izoh qo'shmang.`

const summaryPrompt = `Quyidagi suhbatning qisqacha mazmunini o'zbek tilida, lotin yozuvida yozing.
Asosiy fikrlarni ro'yxat ko'rinishida bering.`

const chatPrompt = `Siz quyidagi suhbat matni bo'yicha savollarga javob beruvchi yordamchisiz.
Faqat matndagi ma'lumotga tayaning. Javobni savol berilgan tilda, qisqa va aniq yozing.
Agar javob matnda bo'lmasa, buni ochiq ayting.

Suhbat matni:
`

// languageNames maps translation targets to the names used in prompts.
var languageNames = map[string]string{
	"en": "English",
	"ru": "Russian",
	"tr": "Turkish",
	"de": "German",
	"kk": "Kazakh",
}

// generator is the slice of the genai client this package uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client implements session.FileTranscriber and session.Assistant.
type Client struct {
	models generator
	model  string
	logger *slog.Logger
}

var (
	_ session.FileTranscriber = (*Client)(nil)
	_ session.Assistant       = (*Client)(nil)
)

// Option configures a Client.
type Option func(*Client)

// WithModel overrides DefaultModel.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New connects to the Gemini API with apiKey.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return newClient(gc.Models, opts...), nil
}

func newClient(models generator, opts ...Option) *Client {
	c := &Client{
		models: models,
		model:  DefaultModel,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Transcribe sends the file inline with the transcription prompt.
func (c *Client) Transcribe(ctx context.Context, f session.File) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromBytes(f.Data, f.MIMEType),
		genai.NewPartFromText(transcribePrompt),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	c.logger.Info("transcribing file", "name", f.Name, "mime", f.MIMEType, "bytes", len(f.Data))
	return c.generate(ctx, "transcribe", contents, nil)
}

// Summarize returns an Uzbek summary of text.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(summaryPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.3),
	}
	return c.generate(ctx, "summarize", genai.Text(text), cfg)
}

// Translate returns text translated from Uzbek into lang, an ISO 639-1 code.
func (c *Client) Translate(ctx context.Context, text, lang string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(translatePrompt(lang), genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.2),
	}
	return c.generate(ctx, "translate "+lang, genai.Text(text), cfg)
}

// Chat answers question about transcript. The transcript rides in the system
// instruction and history is replayed as alternating user and model turns.
func (c *Client) Chat(ctx context.Context, transcript string, history []session.ChatTurn, question string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(chatPrompt+transcript, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.4),
	}
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		role := genai.Role(genai.RoleUser)
		if turn.Role == session.ChatModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Text, role))
	}
	contents = append(contents, genai.NewContentFromText(question, genai.RoleUser))
	return c.generate(ctx, "chat", contents, cfg)
}

func translatePrompt(lang string) string {
	name, ok := languageNames[lang]
	if !ok {
		name = lang
	}
	return fmt.Sprintf("Translate the following Uzbek text into %s. Reply with the translation only.", name)
}

func (c *Client) generate(ctx context.Context, op string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	resp, err := c.models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		c.logger.Warn("gemini request failed", "op", op, "error", err)
		return "", fmt.Errorf("%s: %w", op, err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%s: %w", op, ErrEmptyResponse)
	}
	return text, nil
}
