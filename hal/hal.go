// Package hal is the only contact point between a shell session and the
// surface it runs on: a browser tab, the controlling TTY or a desktop window.
package hal

import "errors"

var ErrNotImplemented = errors.New("not implemented")

// Terminal is an output sink. Text may carry ANSI sequences, which are passed
// through uninterpreted. Implementations are safe for concurrent use.
type Terminal interface {
	Write(text string)
	Clear()
}

// Keyboard emits raw input chunks. A chunk may hold several keys, a control
// sequence, or part of one. The channel is closed when the surface goes away.
type Keyboard interface {
	Input() <-chan []byte
}

// WindowManager opens auxiliary windows (a browser tab, a desktop browser).
type WindowManager interface {
	Open(title, url string) error
}

// Surface bundles what a session needs from the outside world.
type Surface interface {
	Terminal() Terminal
	Keyboard() Keyboard
	WindowManager() WindowManager
}

// PixelFormat defines the framebuffer pixel encoding.
type PixelFormat uint8

const (
	// PixelFormatRGB565 is 16bpp: rrrrrggggggbbbbb.
	PixelFormatRGB565 PixelFormat = iota + 1
)

// Framebuffer is a simple pixel buffer plus a "present" hook.
type Framebuffer interface {
	Width() int
	Height() int
	Format() PixelFormat
	StrideBytes() int
	Buffer() []byte
	ClearRGB(r, g, b uint8)
	Present() error
}

// NoWindows is a WindowManager for surfaces that cannot open windows.
type NoWindows struct{}

func (NoWindows) Open(string, string) error { return ErrNotImplemented }
