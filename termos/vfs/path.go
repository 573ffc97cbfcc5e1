package vfs

import (
	"path"
	"strings"
)

// DefaultHome is the home directory of the guest account.
const DefaultHome = "/home/user"

// Resolve returns the absolute, cleaned form of input interpreted against cwd.
//
// Leading "~" expands to home. The result never climbs above "/": surplus ".."
// segments are dropped. Resolve is pure and idempotent.
func Resolve(cwd, input, home string) string {
	if home == "" {
		home = DefaultHome
	}
	if cwd == "" {
		cwd = "/"
	}

	switch {
	case input == "":
		return Clean(cwd)
	case input == "~":
		return Clean(home)
	case strings.HasPrefix(input, "~/"):
		return Clean(home + "/" + input[2:])
	case strings.HasPrefix(input, "/"):
		return Clean(input)
	default:
		return Clean(cwd + "/" + input)
	}
}

// Clean normalizes p into an absolute slash-separated path.
func Clean(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	// path.Clean of a rooted path drops ".." at the root.
	return path.Clean(p)
}

// Split returns the parent directory and base name of an absolute path.
func Split(p string) (dir, base string) {
	p = Clean(p)
	if p == "/" {
		return "/", ""
	}
	i := strings.LastIndexByte(p, '/')
	dir = p[:i]
	if dir == "" {
		dir = "/"
	}
	return dir, p[i+1:]
}

func segments(p string) []string {
	p = Clean(p)
	if p == "/" {
		return nil
	}
	return strings.Split(p[1:], "/")
}
