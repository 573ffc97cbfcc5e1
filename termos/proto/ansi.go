package proto

// ANSI SGR sequences used by the shell and the apps.
const (
	Reset = "\x1b[0m"
	Bold  = "\x1b[1m"
	Dim   = "\x1b[2m"

	Red     = "\x1b[31m"
	Green   = "\x1b[32m"
	Yellow  = "\x1b[33m"
	Blue    = "\x1b[34m"
	Magenta = "\x1b[35m"
	Cyan    = "\x1b[36m"
	White   = "\x1b[37m"

	BrightGreen = "\x1b[92m"
	BrightBlue  = "\x1b[94m"
	Accent      = "\x1b[38;5;39m"

	ClearScreen = "\x1b[2J\x1b[H"
	ClearLine   = "\r\x1b[2K"
	HideCursor  = "\x1b[?25l"
	ShowCursor  = "\x1b[?25h"
)

// Color wraps s in the given SGR sequence.
func Color(sgr, s string) string {
	return sgr + s + Reset
}
