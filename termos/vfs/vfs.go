// Package vfs is the in-memory hierarchical filesystem sessions navigate.
package vfs

import (
	"sort"
	"sync"
	"time"
)

// Type identifies a node kind.
type Type uint8

const (
	TypeFile Type = iota + 1
	TypeDir
)

func (t Type) String() string {
	switch t {
	case TypeFile:
		return "file"
	case TypeDir:
		return "dir"
	default:
		return "unknown"
	}
}

// Entry is a single child of a directory.
type Entry struct {
	Name string
	Type Type
}

// Info describes a node.
type Info struct {
	Name    string
	Type    Type
	Size    int
	ModTime time.Time
}

// IsDir reports whether the node is a directory.
func (i Info) IsDir() bool { return i.Type == TypeDir }

type node struct {
	typ     Type
	content string
	modTime time.Time

	// order preserves insertion order of children.
	order    []string
	children map[string]*node
}

func newDir(now time.Time) *node {
	return &node{typ: TypeDir, modTime: now, children: make(map[string]*node)}
}

// StandardDirs are created by NewStandard.
var StandardDirs = []string{
	"/bin",
	"/etc",
	"/home",
	"/home/user",
	"/home/user/projects",
	"/home/user/experience",
	"/root",
	"/tmp",
	"/var",
	"/var/log",
}

// FS is an in-memory tree rooted at "/". It is safe for concurrent use.
type FS struct {
	mu   sync.RWMutex
	root *node
	now  func() time.Time
}

// New returns an FS containing only the root directory.
func New() *FS {
	fs := &FS{now: time.Now}
	fs.root = newDir(fs.now())
	return fs
}

// NewStandard returns an FS with StandardDirs created.
func NewStandard() *FS {
	fs := New()
	for _, d := range StandardDirs {
		// Cannot conflict on a fresh tree.
		_ = fs.CreateDirectory(d)
	}
	return fs
}

// lookup returns the node at an absolute path. Caller holds mu.
func (fs *FS) lookup(p string) *node {
	n := fs.root
	for _, seg := range segments(p) {
		if n.typ != TypeDir {
			return nil
		}
		n = n.children[seg]
		if n == nil {
			return nil
		}
	}
	return n
}

func (n *node) add(name string, child *node) {
	if _, ok := n.children[name]; !ok {
		n.order = append(n.order, name)
	}
	n.children[name] = child
}

// CreateDirectory creates p and any missing parents. It is a no-op when p is
// already a directory and fails with ErrConflict when a file is in the way.
func (fs *FS) CreateDirectory(p string) error {
	p = Clean(p)

	fs.mu.Lock()
	defer fs.mu.Unlock()

	now := fs.now()
	n := fs.root
	walked := ""
	for _, seg := range segments(p) {
		walked += "/" + seg
		child := n.children[seg]
		if child == nil {
			child = newDir(now)
			n.add(seg, child)
			n.modTime = now
		} else if child.typ != TypeDir {
			return pathErr("mkdir", walked, ErrConflict)
		}
		n = child
	}
	return nil
}

// WriteFile creates or replaces the file at p. The parent directory must exist.
func (fs *FS) WriteFile(p, content string) error {
	p = Clean(p)
	dir, base := Split(p)
	if base == "" {
		return pathErr("write", p, ErrConflict)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	parent := fs.lookup(dir)
	if parent == nil {
		return pathErr("write", p, ErrNotFound)
	}
	if parent.typ != TypeDir {
		return pathErr("write", p, ErrConflict)
	}
	now := fs.now()
	if existing := parent.children[base]; existing != nil {
		if existing.typ == TypeDir {
			return pathErr("write", p, ErrConflict)
		}
		existing.content = content
		existing.modTime = now
		return nil
	}
	parent.add(base, &node{typ: TypeFile, content: content, modTime: now})
	parent.modTime = now
	return nil
}

// ReadFile returns the content of the file at p. ok is false when p is missing
// or is a directory.
func (fs *FS) ReadFile(p string) (content string, ok bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	n := fs.lookup(p)
	if n == nil || n.typ != TypeFile {
		return "", false
	}
	return n.content, true
}

// List returns the immediate children of the directory at p in insertion order.
func (fs *FS) List(p string) ([]Entry, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	n := fs.lookup(p)
	if n == nil || n.typ != TypeDir {
		return nil, false
	}
	out := make([]Entry, 0, len(n.order))
	for _, name := range n.order {
		out = append(out, Entry{Name: name, Type: n.children[name].typ})
	}
	return out, true
}

// Exists reports whether any node is at p.
func (fs *FS) Exists(p string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.lookup(p) != nil
}

// IsDirectory reports whether p is a directory.
func (fs *FS) IsDirectory(p string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	n := fs.lookup(p)
	return n != nil && n.typ == TypeDir
}

// Stat describes the node at p.
func (fs *FS) Stat(p string) (Info, bool) {
	p = Clean(p)

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	n := fs.lookup(p)
	if n == nil {
		return Info{}, false
	}
	_, name := Split(p)
	if name == "" {
		name = "/"
	}
	info := Info{Name: name, Type: n.typ, ModTime: n.modTime}
	if n.typ == TypeFile {
		info.Size = len(n.content)
	} else {
		info.Size = len(n.order)
	}
	return info, true
}

// WalkFunc is called for every node visited by Walk. depth is 0 for the root
// of the walk. Returning SkipDir from a directory skips its children.
type WalkFunc func(p string, info Info, depth int) error

// SkipDir may be returned from a WalkFunc to skip a directory's children.
var SkipDir = skipDir{}

type skipDir struct{}

func (skipDir) Error() string { return "skip this directory" }

type walkItem struct {
	path  string
	info  Info
	depth int
}

// Walk visits p and its descendants depth-first in insertion order.
//
// The tree is snapshotted under the read lock so fn may call back into fs.
func (fs *FS) Walk(p string, fn WalkFunc) error {
	p = Clean(p)

	fs.mu.RLock()
	start := fs.lookup(p)
	if start == nil {
		fs.mu.RUnlock()
		return pathErr("walk", p, ErrNotFound)
	}
	var items []walkItem
	var visit func(p string, n *node, depth int)
	visit = func(p string, n *node, depth int) {
		_, name := Split(p)
		if name == "" {
			name = "/"
		}
		info := Info{Name: name, Type: n.typ, ModTime: n.modTime}
		if n.typ == TypeFile {
			info.Size = len(n.content)
		} else {
			info.Size = len(n.order)
		}
		items = append(items, walkItem{path: p, info: info, depth: depth})
		for _, child := range n.order {
			cp := p + "/" + child
			if p == "/" {
				cp = "/" + child
			}
			visit(cp, n.children[child], depth+1)
		}
	}
	visit(p, start, 0)
	fs.mu.RUnlock()

	skipBelow := -1
	skipPrefix := ""
	for _, it := range items {
		if skipBelow >= 0 {
			if it.depth > skipBelow && hasPathPrefix(it.path, skipPrefix) {
				continue
			}
			skipBelow = -1
		}
		err := fn(it.path, it.info, it.depth)
		if err == SkipDir {
			if it.info.IsDir() {
				skipBelow = it.depth
				skipPrefix = it.path
			}
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func hasPathPrefix(p, prefix string) bool {
	if prefix == "/" {
		return true
	}
	return len(p) > len(prefix) && p[:len(prefix)] == prefix && p[len(prefix)] == '/'
}

// Names returns the sorted child names of the directory at p.
func (fs *FS) Names(p string) []string {
	entries, ok := fs.List(p)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	sort.Strings(out)
	return out
}
