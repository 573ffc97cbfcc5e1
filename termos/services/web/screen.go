package web

import (
	"bytes"
	"errors"
	"sync"
	"unicode/utf8"

	"webterm/termos/proto"
)

// DefaultScrollback bounds the output kept for repainting a resumed page.
const DefaultScrollback = 64 << 10

var errDetached = errors.New("no browser attached")

type sink func(proto.Frame) error

// screen is the session's terminal. Output goes to the attached page, if
// any, and to a bounded scrollback used to repaint the next page that
// attaches. It also serves as the session's window manager.
type screen struct {
	mu     sync.Mutex
	out    sink
	gen    uint64
	scroll []byte
	limit  int
}

func newScreen(limit int) *screen {
	if limit <= 0 {
		limit = DefaultScrollback
	}
	return &screen{limit: limit}
}

func (s *screen) Write(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scroll = append(s.scroll, text...)
	if over := len(s.scroll) - s.limit; over > 0 {
		cut := trimPoint(s.scroll, over)
		s.scroll = append(s.scroll[:0], s.scroll[cut:]...)
	}
	if s.out != nil {
		s.emit(proto.Frame{Kind: proto.FrameOutput, Data: text})
	}
}

// trimPoint returns where to cut b so at least over bytes go. The cut moves
// forward to the start of the next line so replay never begins inside an
// escape sequence, or to the next rune when no line break remains.
func trimPoint(b []byte, over int) int {
	if i := bytes.IndexByte(b[over:], '\n'); i >= 0 {
		return over + i + 1
	}
	for over < len(b) && !utf8.RuneStart(b[over]) {
		over++
	}
	return over
}

func (s *screen) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scroll = s.scroll[:0]
	if s.out != nil {
		s.emit(proto.Frame{Kind: proto.FrameClear})
	}
}

func (s *screen) Open(title, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.out == nil {
		return errDetached
	}
	return s.out(proto.Frame{Kind: proto.FrameWindow, Title: title, URL: url})
}

// attach routes output to out after repainting the scrollback. The returned
// generation identifies this attachment to detach.
func (s *screen) attach(out sink) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.out = out
	if len(s.scroll) > 0 {
		s.emit(proto.Frame{Kind: proto.FrameOutput, Data: string(s.scroll)})
	}
	return s.gen
}

// detach drops the sink of attachment gen. It reports false when a newer
// page has taken over since.
func (s *screen) detach(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		return false
	}
	s.out = nil
	return true
}

func (s *screen) attached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out != nil
}

// emit sends f and detaches a sink that fails. Caller holds mu.
func (s *screen) emit(f proto.Frame) {
	if err := s.out(f); err != nil {
		s.out = nil
	}
}
