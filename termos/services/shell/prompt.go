package shell

import (
	"strings"

	"webterm/termos/proto"
	"webterm/termos/services/boot"
)

// PromptString renders the prompt for the current session state. It is empty
// while a passthrough capture is active.
func (s *Shell) PromptString() string {
	c := s.sess.activeCapture()
	switch c.kind {
	case CapturePassthrough:
		return ""
	case CapturePuzzle:
		if c.prompt != "" {
			return c.prompt
		}
		return "> "
	}

	user := s.sess.User()
	cwd := s.sess.Cwd()
	home := s.sess.Home()
	switch {
	case cwd == home:
		cwd = "~"
	case strings.HasPrefix(cwd, home+"/"):
		cwd = "~" + cwd[len(home):]
	}

	var b strings.Builder
	if s.sess.BootMode() == boot.ModeRecovery {
		b.WriteString(proto.Color(proto.Yellow, "(recovery)") + " ")
	}
	sigil := "$"
	userColor := proto.BrightGreen
	if s.sess.IsRoot() {
		sigil = "#"
		userColor = proto.Red
	}
	b.WriteString(proto.Color(userColor, user+"@"+s.sess.Hostname()))
	b.WriteString(":")
	b.WriteString(proto.Color(proto.BrightBlue, cwd))
	b.WriteString(sigil + " ")
	return b.String()
}

func (s *Shell) prompt() {
	if p := s.PromptString(); p != "" {
		s.term.Write(p)
	}
}
