package hal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// Console is the Surface of the controlling TTY. Output is written to out;
// keystrokes are read from in.
type Console struct {
	in  *os.File
	out io.Writer

	mu  sync.Mutex
	raw bool

	once sync.Once
	keys chan []byte
}

// NewConsole returns a console surface over in and out.
func NewConsole(in *os.File, out io.Writer) *Console {
	return &Console{in: in, out: out, keys: make(chan []byte, 16)}
}

// MakeRaw switches in to raw mode when it is a terminal. The returned func
// restores the previous mode.
func (c *Console) MakeRaw() (restore func(), err error) {
	fd := int(c.in.Fd())
	if !term.IsTerminal(fd) {
		return func() {}, nil
	}
	prev, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("console raw mode: %w", err)
	}
	c.mu.Lock()
	c.raw = true
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		c.raw = false
		c.mu.Unlock()
		_ = term.Restore(fd, prev)
	}, nil
}

// Size returns the terminal size in cells, or 80x24 when in is not a terminal.
func (c *Console) Size() (cols, rows int) {
	cols, rows, err := term.GetSize(int(c.in.Fd()))
	if err != nil || cols <= 0 || rows <= 0 {
		return 80, 24
	}
	return cols, rows
}

func (c *Console) Terminal() Terminal           { return consoleTerminal{c} }
func (c *Console) Keyboard() Keyboard           { return c }
func (c *Console) WindowManager() WindowManager { return NoWindows{} }

// Input starts reading in on first use. The channel closes at EOF.
func (c *Console) Input() <-chan []byte {
	c.once.Do(func() { go c.read() })
	return c.keys
}

func (c *Console) read() {
	defer close(c.keys)
	buf := make([]byte, 256)
	for {
		n, err := c.in.Read(buf)
		if n > 0 {
			c.keys <- append([]byte(nil), buf[:n]...)
		}
		if err != nil {
			return
		}
	}
}

type consoleTerminal struct{ c *Console }

func (t consoleTerminal) Write(text string) {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	if t.c.raw {
		text = strings.ReplaceAll(strings.ReplaceAll(text, "\r\n", "\n"), "\n", "\r\n")
	}
	_, _ = io.WriteString(t.c.out, text)
}

func (t consoleTerminal) Clear() {
	t.Write("\x1b[2J\x1b[H")
}
