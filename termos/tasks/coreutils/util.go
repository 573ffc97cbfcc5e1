package coreutils

import (
	"errors"
	"fmt"
	"strings"

	"webterm/termos/services/shell"
	"webterm/termos/vfs"
)

var (
	errPermission = errors.New("permission denied")
	errExists     = errors.New("file exists")
)

func usage(u string) error {
	return fmt.Errorf("%w: %s", shell.ErrUsage, u)
}

// fileErr reports err against the argument the user typed.
func fileErr(arg string, err error) error {
	return fmt.Errorf("%s: %w", arg, err)
}

func within(p, dir string) bool {
	return p == dir || strings.HasPrefix(p, dir+"/")
}

// readable reports whether the session user may look at p.
func readable(s *shell.Session, p string) bool {
	return s.IsRoot() || !within(p, "/root")
}

// writable reports whether the session user may modify p.
func writable(s *shell.Session, p string) bool {
	if s.IsRoot() {
		return true
	}
	return within(p, vfs.DefaultHome) || within(p, "/tmp")
}

// readFile resolves and reads the file named by arg.
func readFile(env shell.Env, arg string) (string, error) {
	p := env.OS.Resolve(arg)
	if !readable(env.OS, p) {
		return "", fileErr(arg, errPermission)
	}
	if env.FS.IsDirectory(p) {
		return "", fileErr(arg, vfs.ErrIsDir)
	}
	content, ok := env.FS.ReadFile(p)
	if !ok {
		return "", fileErr(arg, vfs.ErrNotFound)
	}
	return content, nil
}

// splitFlags separates single-dash flag letters from operands. "--" ends
// flag parsing.
func splitFlags(args []string, allowed string) (flags map[rune]bool, rest []string, err error) {
	flags = map[rune]bool{}
	for i, a := range args {
		if a == "--" {
			return flags, append(rest, args[i+1:]...), nil
		}
		if len(a) < 2 || a[0] != '-' {
			rest = append(rest, a)
			continue
		}
		for _, ch := range a[1:] {
			if !strings.ContainsRune(allowed, ch) {
				return nil, nil, fmt.Errorf("invalid option -- '%c'", ch)
			}
			flags[ch] = true
		}
	}
	return flags, rest, nil
}
