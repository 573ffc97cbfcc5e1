package hal

import (
	"sync"

	"tinygo.org/x/tinyfont/proggy"
	"tinygo.org/x/tinyterm"
)

// fontHeight is the cell height in pixels. Framebuffers whose height is a
// multiple of it scroll cleanly.
const fontHeight = 10

// FramebufferTerminal renders terminal output into a Framebuffer.
type FramebufferTerminal struct {
	mu sync.Mutex
	fb Framebuffer
	d  *fbDisplay
	t  *tinyterm.Terminal
}

// NewFramebufferTerminal returns a cleared terminal drawing on fb.
func NewFramebufferTerminal(fb Framebuffer) *FramebufferTerminal {
	f := &FramebufferTerminal{fb: fb, d: newFBDisplay(fb)}
	f.reset()
	return f
}

func (f *FramebufferTerminal) Write(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, _ = f.t.Write(fbText(text))
	_ = f.d.Display()
}

func (f *FramebufferTerminal) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reset()
}

func (f *FramebufferTerminal) reset() {
	f.fb.ClearRGB(0, 0, 0)
	f.d.SetScroll(0)
	f.t = tinyterm.NewTerminal(f.d)
	f.t.Configure(&tinyterm.Config{
		Font:       &proggy.TinySZ8pt7b,
		FontHeight: fontHeight,
		FontOffset: 6,
	})
	_ = f.fb.Present()
}

// fbText rewrites carriage return and backspace into the equivalent CSI
// sequences. The renderer consumes CSI without drawing, so these bytes never
// reach the font as glyphs.
func fbText(text string) []byte {
	b := make([]byte, 0, len(text))
	for i := 0; i < len(text); i++ {
		switch c := text[i]; c {
		case '\r':
			b = append(b, "\x1b[G"...)
		case '\b':
			b = append(b, "\x1b[D"...)
		default:
			b = append(b, c)
		}
	}
	return b
}
