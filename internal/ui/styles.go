// Package ui holds the lipgloss styles of the sadoo TUI.
package ui

import "github.com/charmbracelet/lipgloss"

// Colors used throughout the TUI.
var (
	ColorRed     = lipgloss.Color("#E5484D")
	ColorGreen   = lipgloss.Color("#30A46C")
	ColorYellow  = lipgloss.Color("#F5D90A")
	ColorIndigo  = lipgloss.Color("#4F46E5")
	ColorViolet  = lipgloss.Color("#7C3AED")
	ColorGray    = lipgloss.Color("#6F6F6F")
	ColorDimGray = lipgloss.Color("#444444")
	ColorWhite   = lipgloss.Color("#FFFFFF")
)

// Base styles reused by UI components.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite).
			Background(ColorIndigo).
			Padding(0, 1)

	ScriptBadgeStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorViolet)

	RecordingDotStyle = lipgloss.NewStyle().
				Foreground(ColorRed).
				Bold(true)

	IdleDotStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	BusyStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	ReviewStyle = lipgloss.NewStyle().
			Foreground(ColorGreen).
			Bold(true)

	ElapsedStyle = lipgloss.NewStyle().
			Foreground(ColorWhite)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	ErrorTextStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	NoticeStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	// PartialTextStyle marks the unstable tail of the live transcript.
	PartialTextStyle = lipgloss.NewStyle().
				Foreground(ColorYellow).
				Italic(true)

	TimestampStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	PanelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite)

	PanelTitleActiveStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorViolet)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorViolet).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	ArtifactTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorIndigo)

	ChatQuestionStyle = lipgloss.NewStyle().
				Foreground(ColorViolet)

	FooterKeyStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	FooterDescStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	DividerStyle = lipgloss.NewStyle().
			Foreground(ColorDimGray)

	LiveBadgeStyle = lipgloss.NewStyle().
			Foreground(ColorGreen).
			Bold(true)

	ScrollBadgeStyle = lipgloss.NewStyle().
				Foreground(ColorYellow).
				Bold(true)
)
