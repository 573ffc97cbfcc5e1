package shell

import (
	"sync"
	"time"

	"webterm/termos/kernel"
	"webterm/termos/services/boot"
	"webterm/termos/services/store"
	"webterm/termos/vfs"
)

const (
	UserGuest = "guest"
	UserRoot  = "root"

	guestHome = vfs.DefaultHome
	rootHome  = "/root"
)

// Session is the per-connection state apps see through Env.OS.
//
// It is safe for concurrent use: apps may call it from background goroutines.
type Session struct {
	mu sync.Mutex

	id       string
	fs       *vfs.FS
	reg      *Registry
	store    store.Store
	clock    kernel.Clock
	started  time.Time
	hostname string
	version  string

	cwd     string
	root    bool
	mode    boot.Mode
	capture capture
	values  map[string]any
	reboot  bool

	hist   *History
	sched  *scheduler
	redraw func()
}

func newSession(id string, fs *vfs.FS, reg *Registry, st store.Store, clock kernel.Clock, hostname, version string) *Session {
	s := &Session{
		id:       id,
		fs:       fs,
		reg:      reg,
		store:    st,
		clock:    clock,
		started:  clock.Now(),
		hostname: hostname,
		version:  version,
		cwd:      "/",
		values:   make(map[string]any),
		hist:     NewHistory(),
		sched:    newScheduler(),
	}
	if fs.IsDirectory(guestHome) {
		s.cwd = guestHome
	}
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) Hostname() string { return s.hostname }

func (s *Session) Version() string { return s.version }

func (s *Session) Started() time.Time { return s.started }

func (s *Session) Uptime() time.Duration { return s.clock.Now().Sub(s.started) }

func (s *Session) Now() time.Time { return s.clock.Now() }

func (s *Session) Registry() *Registry { return s.reg }

func (s *Session) History() *History { return s.hist }

func (s *Session) Cwd() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cwd
}

// SetCwd changes the working directory to the absolute path p, which must be
// an existing directory.
func (s *Session) SetCwd(p string) error {
	p = vfs.Clean(p)
	if !s.fs.Exists(p) {
		return &vfs.PathError{Op: "cd", Path: p, Err: vfs.ErrNotFound}
	}
	if !s.fs.IsDirectory(p) {
		return &vfs.PathError{Op: "cd", Path: p, Err: vfs.ErrNotDir}
	}
	s.mu.Lock()
	s.cwd = p
	s.mu.Unlock()
	return nil
}

// Home returns the home directory of the current user.
func (s *Session) Home() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.root {
		return rootHome
	}
	return guestHome
}

// Resolve interprets p against the working directory and home.
func (s *Session) Resolve(p string) string {
	s.mu.Lock()
	cwd, home := s.cwd, guestHome
	if s.root {
		home = rootHome
	}
	s.mu.Unlock()
	return vfs.Resolve(cwd, p, home)
}

func (s *Session) User() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.root {
		return UserRoot
	}
	return UserGuest
}

func (s *Session) IsRoot() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root
}

// SetRoot grants or drops root privileges.
func (s *Session) SetRoot(root bool) {
	s.mu.Lock()
	s.root = root
	s.mu.Unlock()
}

func (s *Session) BootMode() boot.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *Session) setBootMode(m boot.Mode) {
	s.mu.Lock()
	s.mode = m
	s.mu.Unlock()
}

// Value returns app state stored with SetValue.
func (s *Session) Value(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// SetValue stores app state that survives between invocations. A nil value
// removes key.
func (s *Session) SetValue(key string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v == nil {
		delete(s.values, key)
		return
	}
	s.values[key] = v
}

// Store returns the persistence bucket for ns.
func (s *Session) Store(ns string) store.Bucket {
	return store.In(s.store, ns)
}

// Schedule runs fn on the shell goroutine, after the running command if any.
// It reports false once the session has ended.
func (s *Session) Schedule(fn func()) bool {
	return s.sched.post(fn)
}

// RequestReboot replays the boot sequence once the current command returns.
func (s *Session) RequestReboot() {
	s.mu.Lock()
	s.reboot = true
	s.mu.Unlock()
}

func (s *Session) takeReboot() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.reboot
	s.reboot = false
	return r
}

type scheduler struct {
	mu     sync.Mutex
	fns    []func()
	closed bool
	wake   chan struct{}
}

func newScheduler() *scheduler {
	return &scheduler{wake: make(chan struct{}, 1)}
}

func (q *scheduler) post(fn func()) bool {
	if fn == nil {
		return false
	}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.fns = append(q.fns, fn)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

func (q *scheduler) take() []func() {
	q.mu.Lock()
	defer q.mu.Unlock()
	fns := q.fns
	q.fns = nil
	return fns
}

func (q *scheduler) close() {
	q.mu.Lock()
	q.closed = true
	q.fns = nil
	q.mu.Unlock()
}
