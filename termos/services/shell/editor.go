package shell

import (
	"context"

	"webterm/termos/proto"
)

func (s *Shell) handleKey(ctx context.Context, ev proto.KeyEvent) {
	switch ev.Key {
	case proto.KeyRune:
		s.insertRune(ev.Rune)
	case proto.KeyBackspace:
		s.backspace()
	case proto.KeyEnter:
		s.enter(ctx)
	case proto.KeyUp:
		if line, ok := s.sess.hist.Prev(); ok {
			s.replaceLine(line)
		}
	case proto.KeyDown:
		if line, ok := s.sess.hist.Next(); ok {
			s.replaceLine(line)
		}
	case proto.KeyTab:
		s.complete()
	case proto.KeyCtrlC:
		s.cancelLine()
	case proto.KeyCtrlL:
		s.term.Clear()
		s.redrawLine()
	case proto.KeyCtrlD:
		s.endOfInput()
	}
}

// endOfInput ends the session on an empty line outside captures.
func (s *Shell) endOfInput() {
	if len(s.line) > 0 || s.sess.Capture() != CaptureNone {
		return
	}
	s.term.Write("logout\n")
	s.hangup = true
}

func (s *Shell) insertRune(r rune) {
	if len(s.line) >= MaxLineRunes {
		return
	}
	s.line = append(s.line, r)
	s.term.Write(string(r))
}

func (s *Shell) insertString(str string) {
	for _, r := range str {
		s.insertRune(r)
	}
}

func (s *Shell) backspace() {
	if len(s.line) == 0 {
		return
	}
	s.line = s.line[:len(s.line)-1]
	s.term.Write("\b \b")
}

func (s *Shell) enter(ctx context.Context) {
	s.term.Write("\n")
	line := string(s.line)
	s.line = s.line[:0]
	s.sess.hist.Reset()
	s.submit(ctx, line)
}

func (s *Shell) cancelLine() {
	s.term.Write("^C\n")
	s.line = s.line[:0]
	s.sess.hist.Reset()
	s.prompt()
}

// replaceLine swaps the edit buffer for line and redraws it.
func (s *Shell) replaceLine(line string) {
	s.line = append(s.line[:0], []rune(line)...)
	if len(s.line) > MaxLineRunes {
		s.line = s.line[:MaxLineRunes]
	}
	s.term.Write(proto.ClearLine)
	s.redrawLine()
}

func (s *Shell) redrawLine() {
	s.prompt()
	s.term.Write(string(s.line))
}
