// Package export renders a transcript as a downloadable document.
package export

import (
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrEmpty is returned when there is no text to export.
var ErrEmpty = errors.New("nothing to export")

// Format is an export file format.
type Format string

const (
	TXT Format = "txt"
	MD  Format = "md"
	DOC Format = "doc"
	PDF Format = "pdf"
)

// Formats lists the formats in cycling order.
var Formats = []Format{TXT, MD, DOC, PDF}

// ParseFormat accepts txt, md/markdown, doc/word and pdf.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "txt", "text", "":
		return TXT, nil
	case "md", "markdown":
		return MD, nil
	case "doc", "word":
		return DOC, nil
	case "pdf":
		return PDF, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// Next returns the format after f in Formats.
func (f Format) Next() Format {
	for i, v := range Formats {
		if v == f {
			return Formats[(i+1)%len(Formats)]
		}
	}
	return TXT
}

// Document is the content of one export.
type Document struct {
	Title    string
	Text     string
	Created  time.Time
	Duration time.Duration
}

const defaultTitle = "Sadoo Transkripsiya"

// Filename returns the file name for an export made at t.
func Filename(f Format, t time.Time) string {
	return fmt.Sprintf("sadoo-transcript-%s.%s", t.Format("20060102-150405"), f)
}

// Render produces the document bytes in format f.
func Render(d Document, f Format) ([]byte, error) {
	if strings.TrimSpace(d.Text) == "" {
		return nil, ErrEmpty
	}
	if d.Title == "" {
		d.Title = defaultTitle
	}
	if d.Created.IsZero() {
		d.Created = time.Now()
	}
	switch f {
	case TXT:
		return []byte(renderText(d)), nil
	case MD:
		return []byte(renderMarkdown(d)), nil
	case DOC:
		return renderDoc(d), nil
	case PDF:
		return renderPDF(d)
	}
	return nil, fmt.Errorf("unknown export format %q", f)
}

// WriteFile renders d into dir and returns the written path.
func WriteFile(dir string, d Document, f Format) (string, error) {
	data, err := Render(d, f)
	if err != nil {
		return "", err
	}
	if d.Created.IsZero() {
		d.Created = time.Now()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, Filename(f, d.Created))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

var uzMonths = [...]string{
	"yanvar", "fevral", "mart", "aprel", "may", "iyun",
	"iyul", "avgust", "sentabr", "oktabr", "noyabr", "dekabr",
}

// uzDate formats t like "2 yanvar 2026, 14:05".
func uzDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d, %s", t.Day(), uzMonths[t.Month()-1], t.Year(), t.Format("15:04"))
}

func paragraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func renderText(d Document) string {
	var b strings.Builder
	b.WriteString(d.Title + "\n")
	fmt.Fprintf(&b, "Yaratilgan: %s\n", uzDate(d.Created))
	if d.Duration > 0 {
		fmt.Fprintf(&b, "Davomiyligi: %s\n", d.Duration.Truncate(time.Second))
	}
	b.WriteString("\n")
	b.WriteString(strings.TrimSpace(d.Text))
	b.WriteString("\n")
	return b.String()
}

func renderMarkdown(d Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", d.Title)
	fmt.Fprintf(&b, "- Yaratilgan: %s\n", uzDate(d.Created))
	if d.Duration > 0 {
		fmt.Fprintf(&b, "- Davomiyligi: %s\n", d.Duration.Truncate(time.Second))
	}
	b.WriteString("\n---\n\n")
	for _, p := range paragraphs(d.Text) {
		fmt.Fprintf(&b, "%s\n\n", p)
	}
	return b.String()
}

const docStyle = `@page { margin: 2.5cm; }
body { font-family: 'Calibri', 'Arial', sans-serif; font-size: 11pt; line-height: 1.6; color: #1e1e1e; }
.meta { color: #666; font-size: 10pt; font-style: italic; border-bottom: 1px solid #ddd; }
.content p { margin: 0 0 10px 0; }`

// renderDoc writes HTML that Word opens as a document. The BOM makes Word
// pick UTF-8.
func renderDoc(d Document) []byte {
	var b strings.Builder
	b.WriteString("\ufeff")
	b.WriteString(`<html xmlns:o='urn:schemas-microsoft-com:office:office' xmlns:w='urn:schemas-microsoft-com:office:word' xmlns='http://www.w3.org/TR/REC-html40'>`)
	b.WriteString("\n<head><meta charset='utf-8'>")
	fmt.Fprintf(&b, "<title>%s</title>", html.EscapeString(d.Title))
	fmt.Fprintf(&b, "<style>\n%s\n</style></head>\n<body>\n", docStyle)
	fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(d.Title))
	fmt.Fprintf(&b, "<div class=\"meta\"><strong>Yaratilgan:</strong> %s</div>\n", uzDate(d.Created))
	b.WriteString("<div class=\"content\">\n")
	for _, p := range paragraphs(d.Text) {
		fmt.Fprintf(&b, "<p>%s</p>\n", html.EscapeString(p))
	}
	b.WriteString("</div>\n</body></html>\n")
	return []byte(b.String())
}
