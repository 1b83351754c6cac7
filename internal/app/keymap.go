package app

// Key binding constants used in handleKey.
const (
	KeyQuit         = "q"
	KeyCtrlC        = "ctrl+c"
	KeySpace        = " "
	KeyScript       = "s"
	KeySummary      = "u"
	KeyTranslate    = "t"
	KeyChat         = "c"
	KeyEsc          = "esc"
	KeyBackspace    = "backspace"
	KeyEdit         = "e"
	KeyNew          = "n"
	KeyDiscard      = "x"
	KeyHistory      = "h"
	KeyTab          = "tab"
	KeyEnter        = "enter"
	KeyDelete       = "D"
	KeyExport       = "w"
	KeyExportFormat = "W"
	KeyUp           = "up"
	KeyDown         = "down"
	KeyJ            = "j"
	KeyK            = "k"
)
