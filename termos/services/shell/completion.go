package shell

import (
	"sort"
	"strings"
	"unicode"

	"webterm/termos/vfs"
)

type candidate struct {
	name string
	dir  bool
}

// complete applies tab completion to the edit buffer. The first token
// completes command names; later tokens complete paths. A single candidate is
// appended; several are listed below the line, which is then redrawn as is.
func (s *Shell) complete() {
	if len(s.line) == 0 || s.sess.Capture() != CaptureNone {
		return
	}
	buf := string(s.line)
	endsInSpace := unicode.IsSpace(s.line[len(s.line)-1])
	fields := strings.Fields(buf)

	if len(fields) == 1 && !endsInSpace {
		prefix := fields[0]
		var cands []candidate
		for _, name := range s.cfg.Registry.Matches(prefix) {
			cands = append(cands, candidate{name: name})
		}
		s.applyCompletion(prefix, cands, " ")
		return
	}
	if len(fields) == 0 {
		return
	}

	frag := ""
	if !endsInSpace {
		frag = fields[len(fields)-1]
	}
	dirPart, base := "", frag
	if i := strings.LastIndexByte(frag, '/'); i >= 0 {
		dirPart, base = frag[:i+1], frag[i+1:]
	}
	s.applyCompletion(base, s.pathCandidates(dirPart, base), "")
}

func (s *Shell) pathCandidates(dirPart, base string) []candidate {
	dir := s.sess.Resolve(dirPart)
	if dirPart == "" {
		dir = s.sess.Cwd()
	}
	entries, ok := s.cfg.FS.List(dir)
	if !ok {
		return nil
	}
	var out []candidate
	for _, e := range entries {
		if strings.HasPrefix(e.Name, base) {
			out = append(out, candidate{name: e.Name, dir: e.Type == vfs.TypeDir})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

func (s *Shell) applyCompletion(prefix string, cands []candidate, suffix string) {
	switch len(cands) {
	case 0:
		return
	case 1:
		c := cands[0]
		rest := c.name[len(prefix):]
		if c.dir {
			rest += "/"
		} else {
			rest += suffix
		}
		if len(s.line)+len([]rune(rest)) > MaxLineRunes {
			return
		}
		s.insertString(rest)
		return
	}

	names := make([]string, 0, len(cands))
	for _, c := range cands {
		if c.dir {
			names = append(names, c.name+"/")
		} else {
			names = append(names, c.name)
		}
	}
	s.term.Write("\n" + strings.Join(names, "  ") + "\n")
	s.redrawLine()
}
