package proto

// FrameKind identifies a browser transport frame.
type FrameKind string

const (
	// FrameInput carries raw keystroke bytes from the page.
	FrameInput FrameKind = "input"
	// FrameResize carries the page terminal size.
	FrameResize FrameKind = "resize"

	// FrameOutput carries text for the page terminal.
	FrameOutput FrameKind = "output"
	// FrameClear clears the page terminal.
	FrameClear FrameKind = "clear"
	// FrameWindow asks the page to open a window.
	FrameWindow FrameKind = "window"
	// FrameSession announces the session id the page can resume with.
	FrameSession FrameKind = "session"
)

// Frame is the JSON envelope exchanged with the page.
type Frame struct {
	Kind  FrameKind `json:"kind"`
	Data  string    `json:"data,omitempty"`
	Title string    `json:"title,omitempty"`
	URL   string    `json:"url,omitempty"`
	Cols  int       `json:"cols,omitempty"`
	Rows  int       `json:"rows,omitempty"`
}
