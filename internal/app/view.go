package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jwulff/sadoo/internal/session"
	"github.com/jwulff/sadoo/internal/translit"
	"github.com/jwulff/sadoo/internal/ui"
)

const artifactPaneHeight = 8

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Yuklanmoqda..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderStatusBar())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
	sections = append(sections, m.renderMainContent())
	if m.artifact != nil {
		sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
		sections = append(sections, m.renderArtifact())
	} else if m.chatOpen {
		sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
		sections = append(sections, m.renderChat())
	}
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
	if m.errorMessage != "" {
		sections = append(sections, m.renderErrorBar())
	} else if m.notice != "" {
		sections = append(sections, ui.NoticeStyle.Render(m.notice))
	}
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render("SADOO")
	script := ui.ScriptBadgeStyle.Render(" " + m.script.Label())
	format := ui.DimStyle.Render(" eksport: " + string(m.exportFormat))
	return title + script + format
}

func (m Model) renderStatusBar() string {
	snap := m.ctrl.Snapshot()

	var dot string
	switch snap.State {
	case session.Capturing:
		dot = ui.RecordingDotStyle.Render("● YOZILMOQDA")
	case session.Finalizing:
		dot = ui.BusyStyle.Render("◌ YAKUNLANMOQDA")
	case session.Reviewing:
		dot = ui.ReviewStyle.Render("◆ KO'RIB CHIQISH")
	default:
		dot = ui.IdleDotStyle.Render("○ TAYYOR")
	}

	elapsed := "  " + ui.ElapsedStyle.Render(formatElapsed(snap.Elapsed))

	var saved string
	if snap.Saved {
		saved = "  " + ui.DimStyle.Render("saqlangan")
	}
	var busy string
	if m.busy != "" {
		busy = "  " + ui.BusyStyle.Render(m.busy)
	}
	return dot + elapsed + saved + busy
}

func formatElapsed(d time.Duration) string {
	d = d.Truncate(time.Second)
	h := int(d.Hours())
	mm := int(d.Minutes()) % 60
	ss := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, mm, ss)
	}
	return fmt.Sprintf("%02d:%02d", mm, ss)
}

func (m Model) transcriptVisibleLines() int {
	if m.height == 0 {
		return 20
	}
	// header, status, dividers, message line, footer
	reserved := 7
	if m.artifact != nil || m.chatOpen {
		reserved += artifactPaneHeight + 1
	}
	return max(5, m.height-reserved)
}

func (m Model) historyPanelWidth() int {
	if m.width == 0 {
		return 30
	}
	return max(20, m.width*30/100)
}

func (m Model) transcriptPanelWidth() int {
	if m.width == 0 {
		return 60
	}
	return max(30, m.width-m.historyPanelWidth()-3)
}

func (m Model) renderMainContent() string {
	historyW := m.historyPanelWidth()
	transcriptW := m.transcriptPanelWidth()
	contentH := m.transcriptVisibleLines()

	historyLines := strings.Split(m.renderHistoryPanel(historyW, contentH), "\n")
	transcriptLines := strings.Split(m.renderTranscriptPanel(transcriptW, contentH), "\n")

	divider := ui.DividerStyle.Render("│")
	rows := make([]string, 0, contentH)
	for i := 0; i < contentH; i++ {
		hl := strings.Repeat(" ", historyW)
		if i < len(historyLines) {
			hl = historyLines[i]
		}
		tl := ""
		if i < len(transcriptLines) {
			tl = transcriptLines[i]
		}
		rows = append(rows, hl+divider+tl)
	}
	return strings.Join(rows, "\n")
}

func (m Model) renderHistoryPanel(width, height int) string {
	history := m.ctrl.History()

	title := fmt.Sprintf("TARIX (%d)", len(history))
	var header string
	if m.focusedPanel == FocusHistory {
		header = ui.PanelTitleActiveStyle.Render(title)
	} else {
		header = ui.PanelTitleStyle.Render(title)
	}
	lines := []string{padRight(header, width)}

	if len(history) == 0 {
		lines = append(lines, ui.DimStyle.Render("  Saqlangan suhbatlar yo'q"))
	}

	// keep the selection visible
	start := 0
	if m.selected >= height-1 {
		start = m.selected - (height - 2)
	}
	for i := start; i < len(history) && len(lines) < height; i++ {
		s := history[i]
		ts := s.CreatedAt.Local().Format("02.01 15:04")
		preview := strings.Join(strings.Fields(translit.ToScript(s.Text, m.script)), " ")
		if preview == "" {
			preview = "(audio)"
		}
		var line string
		if i == m.selected && m.focusedPanel == FocusHistory {
			line = ui.SelectedStyle.Render("> " + ts + " " + preview)
		} else {
			line = "  " + ui.TimestampStyle.Render(ts) + " " + preview
		}
		lines = append(lines, truncateToWidth(line, width))
	}

	for len(lines) < height {
		lines = append(lines, "")
	}
	for i, l := range lines {
		lines[i] = padRight(l, width)
	}
	return strings.Join(lines, "\n")
}

// transcriptLines wraps the committed text and the partial segment for a
// panel of the given width. The partial segment is styled separately.
func (m Model) transcriptLines(width int) []string {
	snap := m.ctrl.Snapshot()
	textWidth := max(10, width-2)

	var lines []string
	if snap.Committed != "" {
		lines = append(lines, wrapText(translit.ToScript(snap.Committed, m.script), textWidth)...)
	}
	if snap.Partial != "" {
		partial := translit.ToScript(snap.Partial, m.script) + "▌"
		for _, wl := range wrapText(partial, textWidth) {
			lines = append(lines, ui.PartialTextStyle.Render(wl))
		}
	}
	return lines
}

func (m Model) renderTranscriptPanel(width, height int) string {
	var badge string
	if m.transcriptLive {
		badge = ui.LiveBadgeStyle.Render(" JONLI")
	} else {
		badge = ui.ScrollBadgeStyle.Render(" AYLANTIRISH")
	}
	var header string
	if m.focusedPanel == FocusTranscript {
		header = ui.PanelTitleActiveStyle.Render("MATN") + badge
	} else {
		header = ui.PanelTitleStyle.Render("MATN") + badge
	}
	lines := []string{header}
	contentHeight := height - 1

	display := m.transcriptLines(width)
	if len(display) == 0 {
		lines = append(lines, "")
		switch m.ctrl.State() {
		case session.Capturing:
			lines = append(lines, ui.DimStyle.Render("  Tinglanmoqda..."))
		case session.Finalizing:
			lines = append(lines, ui.DimStyle.Render("  Fayl transkripsiya qilinmoqda..."))
		default:
			lines = append(lines, ui.DimStyle.Render("  Yozishni boshlash uchun Space bosing"))
		}
	} else {
		start := 0
		if m.transcriptLive {
			if len(display) > contentHeight {
				start = len(display) - contentHeight
			}
		} else {
			start = min(m.transcriptScroll, max(0, len(display)-1))
		}
		end := min(start+contentHeight, len(display))
		for i := start; i < end; i++ {
			lines = append(lines, "  "+display[i])
		}
	}

	for len(lines) < height {
		lines = append(lines, "")
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderArtifact() string {
	a := m.artifact
	lines := []string{ui.ArtifactTitleStyle.Render(a.title)}

	switch {
	case a.loading:
		lines = append(lines, ui.BusyStyle.Render("  Hisoblanmoqda..."))
	case a.err != "":
		lines = append(lines, ui.ErrorTextStyle.Render("  "+a.err))
	default:
		if _, ok := m.ctrl.Artifact(a.key); !ok {
			lines = append(lines, ui.DimStyle.Render("  Matn o'zgardi, yangilash uchun qayta bosing"))
			break
		}
		for _, wl := range wrapText(a.text, max(10, m.width-4)) {
			lines = append(lines, "  "+wl)
		}
	}

	if len(lines) > artifactPaneHeight {
		lines = append(lines[:artifactPaneHeight-1], ui.DimStyle.Render("  …"))
	}
	for len(lines) < artifactPaneHeight {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// renderChat shows the latest questions and answers above the input line.
func (m Model) renderChat() string {
	width := max(10, m.width-4)
	var body []string
	for _, turn := range m.ctrl.Chat() {
		text := translit.ToScript(turn.Text, m.script)
		if turn.Role == session.ChatUser {
			for _, wl := range wrapText("Siz: "+text, width) {
				body = append(body, "  "+ui.ChatQuestionStyle.Render(wl))
			}
			continue
		}
		for _, wl := range wrapText(text, width) {
			body = append(body, "  "+wl)
		}
	}

	var input string
	switch {
	case m.chatPending:
		input = ui.BusyStyle.Render("  Javob kutilmoqda...")
	case m.chatTyping:
		input = "  > " + string(m.chatInput) + "▌"
	default:
		input = ui.DimStyle.Render("  Savol berish uchun c bosing")
	}

	room := artifactPaneHeight - 2
	if len(body) > room {
		body = body[len(body)-room:]
	}
	lines := append([]string{ui.ArtifactTitleStyle.Render("SAVOL-JAVOB")}, body...)
	for len(lines) < artifactPaneHeight-1 {
		lines = append(lines, "")
	}
	return strings.Join(append(lines, input), "\n")
}

func (m Model) renderErrorBar() string {
	return ui.ErrorStyle.Render("Xato: ") + ui.ErrorTextStyle.Render(m.errorMessage)
}

func (m Model) renderFooter() string {
	key := func(k, desc string) string {
		return ui.FooterKeyStyle.Render(k) + ui.FooterDescStyle.Render(" "+desc)
	}
	if m.chatTyping {
		return strings.Join([]string{key("Enter", "Yuborish"), key("Esc", "Yopish")}, "  ")
	}

	var parts []string
	if m.ctrl.State() == session.Capturing {
		parts = append(parts, key("Space", "To'xtatish"))
	} else {
		parts = append(parts, key("Space", "Yozish"))
	}
	parts = append(parts,
		key("s", "Yozuv"),
		key("u", "Xulosa"),
		key("t", "Tarjima"),
		key("c", "Savol"),
		key("e", "Tahrir"),
		key("n", "Yangi"),
		key("x", "Bekor"),
		key("h", "Tarix"),
	)
	if m.focusedPanel == FocusHistory {
		parts = append(parts, key("Enter", "Ochish"), key("D", "O'chirish"))
	}
	parts = append(parts, key("w/W", "Eksport"), key("q", "Chiqish"))
	return strings.Join(parts, "  ")
}

// Helpers

func padRight(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func truncateToWidth(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	if len(runes) > width-1 {
		return string(runes[:width-1]) + "…"
	}
	return s
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var current string
		for _, word := range strings.Fields(paragraph) {
			switch {
			case current == "":
				current = word
			case lipgloss.Width(current)+1+lipgloss.Width(word) <= width:
				current += " " + word
			default:
				lines = append(lines, current)
				current = word
			}
		}
		lines = append(lines, current)
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
