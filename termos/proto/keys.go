// Package proto defines what travels between surfaces and the shell: decoded
// keys, ANSI styling, and the frames of the browser transport.
package proto

import "unicode/utf8"

// Key identifies a decoded keystroke.
type Key uint8

const (
	KeyRune Key = iota + 1
	KeyEnter
	KeyBackspace
	KeyTab
	KeyUp
	KeyDown
	KeyEscape
	KeyCtrlC
	KeyCtrlD
	KeyCtrlL
)

func (k Key) String() string {
	switch k {
	case KeyRune:
		return "rune"
	case KeyEnter:
		return "enter"
	case KeyBackspace:
		return "backspace"
	case KeyTab:
		return "tab"
	case KeyUp:
		return "up"
	case KeyDown:
		return "down"
	case KeyEscape:
		return "escape"
	case KeyCtrlC:
		return "ctrl_c"
	case KeyCtrlD:
		return "ctrl_d"
	case KeyCtrlL:
		return "ctrl_l"
	default:
		return "unknown"
	}
}

// KeyEvent is one decoded keystroke.
type KeyEvent struct {
	Key  Key
	Rune rune
}

// Decoder turns raw input chunks into KeyEvents.
//
// Chunks may contain several keys, or only part of a UTF-8 rune or CSI
// sequence; incomplete tails are buffered until the next Feed. A CR LF pair
// yields a single KeyEnter, also across chunk boundaries.
type Decoder struct {
	pending []byte
	lastCR  bool
}

// Feed decodes b and returns the complete keys it contained.
func (d *Decoder) Feed(b []byte) []KeyEvent {
	d.pending = append(d.pending, b...)
	b = d.pending

	var out []KeyEvent
	for len(b) > 0 {
		c := b[0]
		if c != '\n' {
			d.lastCR = false
		}
		switch c {
		case 0x1b:
			consumed, key, ok := parseEscape(b)
			if !ok {
				d.keep(b)
				return out
			}
			b = b[consumed:]
			if key != 0 {
				out = append(out, KeyEvent{Key: key})
			}
			continue
		case '\r':
			b = b[1:]
			d.lastCR = true
			out = append(out, KeyEvent{Key: KeyEnter})
			continue
		case '\n':
			b = b[1:]
			if d.lastCR {
				d.lastCR = false
				continue
			}
			out = append(out, KeyEvent{Key: KeyEnter})
			continue
		case 0x7f, 0x08:
			b = b[1:]
			out = append(out, KeyEvent{Key: KeyBackspace})
			continue
		case '\t':
			b = b[1:]
			out = append(out, KeyEvent{Key: KeyTab})
			continue
		case 0x03:
			b = b[1:]
			out = append(out, KeyEvent{Key: KeyCtrlC})
			continue
		case 0x04:
			b = b[1:]
			out = append(out, KeyEvent{Key: KeyCtrlD})
			continue
		case 0x0c:
			b = b[1:]
			out = append(out, KeyEvent{Key: KeyCtrlL})
			continue
		}

		if !utf8.FullRune(b) {
			d.keep(b)
			return out
		}
		r, sz := utf8.DecodeRune(b)
		b = b[sz:]
		if r == utf8.RuneError && sz == 1 {
			continue
		}
		if r < 0x20 {
			continue
		}
		out = append(out, KeyEvent{Key: KeyRune, Rune: r})
	}
	d.pending = d.pending[:0]
	return out
}

// Reset drops any buffered partial input.
func (d *Decoder) Reset() {
	d.pending = d.pending[:0]
	d.lastCR = false
}

// Pending reports whether a partial key is buffered.
func (d *Decoder) Pending() bool { return len(d.pending) > 0 }

func (d *Decoder) keep(b []byte) {
	rest := append([]byte(nil), b...)
	d.pending = append(d.pending[:0], rest...)
}
