package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jwulff/sadoo/internal/db"
	"github.com/jwulff/sadoo/internal/export"
	"github.com/jwulff/sadoo/internal/translit"
)

// sessionStore is the part of db.Store the tools use.
type sessionStore interface {
	List(ctx context.Context) ([]db.Session, error)
	Get(ctx context.Context, id string) (*db.Session, error)
	Delete(ctx context.Context, id string) error
}

type tools struct {
	store sessionStore
}

type sessionSummary struct {
	ID              string  `json:"id"`
	CreatedAt       string  `json:"created_at"`
	DurationSeconds float64 `json:"duration_seconds"`
	HasAudio        bool    `json:"has_audio"`
	Preview         string  `json:"preview"`
}

type sessionDetail struct {
	ID              string  `json:"id"`
	CreatedAt       string  `json:"created_at"`
	DurationSeconds float64 `json:"duration_seconds"`
	HasAudio        bool    `json:"has_audio"`
	AudioMIME       string  `json:"audio_mime,omitempty"`
	Text            string  `json:"text"`
}

const previewRunes = 120

func preview(text string) string {
	r := []rune(text)
	if len(r) <= previewRunes {
		return text
	}
	return string(r[:previewRunes]) + "…"
}

func register(s *server.MCPServer, t *tools) {
	s.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List saved transcription sessions, newest first"),
		mcp.WithNumber("limit", mcp.Description("Maximum number of sessions (default 20)")),
	), t.listSessions)

	s.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get the full transcript of a saved session"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithString("script", mcp.Description("Script of the returned text"), mcp.Enum("lat", "cyr")),
	), t.getSession)

	s.AddTool(mcp.NewTool("delete_session",
		mcp.WithDescription("Delete a saved session"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Session id")),
	), t.deleteSession)

	s.AddTool(mcp.NewTool("transliterate",
		mcp.WithDescription("Convert Uzbek text between the Latin and Cyrillic scripts"),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text in either script")),
		mcp.WithString("script", mcp.Required(), mcp.Description("Target script"), mcp.Enum("lat", "cyr")),
	), t.transliterate)

	s.AddTool(mcp.NewTool("export_session",
		mcp.WithDescription("Render a saved session as a txt, md or doc document"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithString("format", mcp.Description("Document format (default txt)"), mcp.Enum("txt", "md", "doc", "pdf")),
		mcp.WithString("script", mcp.Description("Script of the document (default lat)"), mcp.Enum("lat", "cyr")),
	), t.exportSession)
}

func (t *tools) listSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)
	sessions, err := t.store.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}
	out := make([]sessionSummary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionSummary{
			ID:              s.ID,
			CreatedAt:       s.CreatedAt.Format(time.RFC3339),
			DurationSeconds: s.DurationSeconds,
			HasAudio:        s.HasAudio,
			Preview:         preview(s.Text),
		})
	}
	return jsonResult(out)
}

func (t *tools) getSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	script, err := translit.ParseScript(req.GetString("script", "lat"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s, err := t.store.Get(ctx, id)
	if err != nil {
		return notFoundOr(err), nil
	}
	return jsonResult(sessionDetail{
		ID:              s.ID,
		CreatedAt:       s.CreatedAt.Format(time.RFC3339),
		DurationSeconds: s.DurationSeconds,
		HasAudio:        s.HasAudio,
		AudioMIME:       s.AudioMIME,
		Text:            translit.ToScript(s.Text, script),
	})
}

func (t *tools) deleteSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := t.store.Delete(ctx, id); err != nil {
		return notFoundOr(err), nil
	}
	return mcp.NewToolResultText("deleted " + id), nil
}

func (t *tools) transliterate(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target, err := req.RequireString("script")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	script, err := translit.ParseScript(target)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(translit.ToScript(text, script)), nil
}

func (t *tools) exportSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format, err := export.ParseFormat(req.GetString("format", "txt"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	script, err := translit.ParseScript(req.GetString("script", "lat"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s, err := t.store.Get(ctx, id)
	if err != nil {
		return notFoundOr(err), nil
	}
	body, err := export.Render(export.Document{
		Text:     translit.ToScript(s.Text, script),
		Created:  s.CreatedAt,
		Duration: s.Duration(),
	}, format)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if format == export.PDF {
		name := export.Filename(format, s.CreatedAt)
		return mcp.NewToolResultResource(name, mcp.BlobResourceContents{
			URI:      "sadoo://sessions/" + s.ID + "/" + name,
			MIMEType: "application/pdf",
			Blob:     base64.StdEncoding.EncodeToString(body),
		}), nil
	}
	return mcp.NewToolResultText(string(body)), nil
}

func notFoundOr(err error) *mcp.CallToolResult {
	if errors.Is(err, db.ErrNotFound) {
		return mcp.NewToolResultError("session not found")
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
