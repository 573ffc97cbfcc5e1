package hal

import "sync"

// Window is the desktop Surface: a framebuffer terminal shown in a native
// window. Run must be called from the main goroutine.
type Window struct {
	fb   *hostFramebuffer
	term *FramebufferTerminal
	kbd  *windowKeyboard
}

// NewWindow returns a window surface of width x height pixels.
func NewWindow(width, height int) *Window {
	fb := newHostFramebuffer(width, height)
	return &Window{
		fb:   fb,
		term: NewFramebufferTerminal(fb),
		kbd:  &windowKeyboard{ch: make(chan []byte, 64)},
	}
}

func (w *Window) Terminal() Terminal           { return w.term }
func (w *Window) Keyboard() Keyboard           { return w.kbd }
func (w *Window) WindowManager() WindowManager { return NoWindows{} }

type windowKeyboard struct {
	mu     sync.Mutex
	ch     chan []byte
	closed bool
}

func (k *windowKeyboard) Input() <-chan []byte { return k.ch }

func (k *windowKeyboard) send(b []byte) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return
	}
	select {
	case k.ch <- b:
	default:
	}
}

func (k *windowKeyboard) close() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.closed {
		k.closed = true
		close(k.ch)
	}
}
