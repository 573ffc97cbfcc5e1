package hal

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Script is a Surface without a screen: it types the lines of a script and
// copies the session output to a writer. The keyboard closes after the last
// line, which ends the session once the queued input is handled.
type Script struct {
	lines []string
	out   io.Writer
	delay time.Duration

	mu   sync.Mutex
	once sync.Once
	keys chan []byte
}

// NewScript reads the whole script from r. Lines starting with '#' are
// skipped. delay paces the lines.
func NewScript(r io.Reader, out io.Writer, delay time.Duration) (*Script, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	return &Script{lines: lines, out: out, delay: delay, keys: make(chan []byte, len(lines)+1)}, nil
}

// Lines returns the number of lines the script will type.
func (s *Script) Lines() int { return len(s.lines) }

func (s *Script) Terminal() Terminal           { return scriptTerminal{s} }
func (s *Script) Keyboard() Keyboard           { return s }
func (s *Script) WindowManager() WindowManager { return NoWindows{} }

func (s *Script) Input() <-chan []byte {
	s.once.Do(func() { go s.feed() })
	return s.keys
}

func (s *Script) feed() {
	defer close(s.keys)
	for _, line := range s.lines {
		if s.delay > 0 {
			time.Sleep(s.delay)
		}
		s.keys <- []byte(line + "\r")
	}
}

type scriptTerminal struct{ s *Script }

func (t scriptTerminal) Write(text string) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	_, _ = io.WriteString(t.s.out, text)
}

// Clear is a no-op; a transcript keeps everything.
func (scriptTerminal) Clear() {}
