package web

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"webterm/hal"
	"webterm/termos/metrics"
	"webterm/termos/proto"
	"webterm/termos/services/shell"
)

// Builder constructs the shell of a new browser session.
type Builder func(id string, term hal.Terminal, kb hal.Keyboard, wm hal.WindowManager) *shell.Shell

// session is one shell plus the page currently attached to it, if any.
type session struct {
	id     string
	screen *screen
	keys   chan []byte
	sh     *shell.Shell
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	// kick disconnects the attached page. Guarded by Sessions.mu.
	kick func()
	// taken marks a deliberate removal from the detached cache.
	taken atomic.Bool
}

func (s *session) Input() <-chan []byte { return s.keys }

// input forwards keystrokes, reporting false once the shell has ended.
func (s *session) input(b []byte) bool {
	select {
	case s.keys <- b:
		return true
	case <-s.done:
		return false
	}
}

// Sessions tracks live sessions and keeps detached ones resumable until
// they fall out of an LRU cache.
type Sessions struct {
	ctx        context.Context
	build      Builder
	scrollback int

	mu       sync.Mutex
	live     map[string]*session
	detached *lru.Cache
}

func NewSessions(ctx context.Context, build Builder, maxDetached, scrollback int) (*Sessions, error) {
	m := &Sessions{
		ctx:        ctx,
		build:      build,
		scrollback: scrollback,
		live:       make(map[string]*session),
	}
	cache, err := lru.NewWithEvict(maxDetached, m.evicted)
	if err != nil {
		return nil, errors.WithMessage(err, "detached session cache")
	}
	m.detached = cache
	return m, nil
}

func (m *Sessions) evicted(_, v interface{}) {
	sess := v.(*session)
	if sess.taken.Load() {
		return
	}
	log.WithField("session", sess.id).Info("evicting detached session")
	sess.cancel()
}

// attach binds a page to the session named id, resuming it when it is still
// around and starting a new one otherwise. The page learns the session id
// before any output.
func (m *Sessions) attach(id string, out sink, kick func()) (*session, uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var sess *session
	fresh := false
	if live, ok := m.live[id]; ok {
		if live.kick != nil {
			live.kick()
		}
		sess = live
	} else if v, ok := m.detached.Peek(id); ok {
		sess = v.(*session)
		sess.taken.Store(true)
		m.detached.Remove(id)
		sess.taken.Store(false)
		m.live[id] = sess
		metrics.SessionsDetached.Set(float64(m.detached.Len()))
		log.WithField("session", id).Info("resuming session")
	} else {
		sess = m.newSession()
		m.live[sess.id] = sess
		fresh = true
	}

	sess.kick = kick
	_ = out(proto.Frame{Kind: proto.FrameSession, Data: sess.id})
	gen := sess.screen.attach(out)

	if fresh {
		go m.run(sess)
	}
	return sess, gen
}

// detach parks the session unless a newer page has taken it over or its
// shell has already ended.
func (m *Sessions) detach(sess *session, gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !sess.screen.detach(gen) {
		return
	}
	sess.kick = nil
	if m.live[sess.id] != sess {
		return
	}
	delete(m.live, sess.id)
	m.detached.Add(sess.id, sess)
	metrics.SessionsDetached.Set(float64(m.detached.Len()))
}

func (m *Sessions) newSession() *session {
	ctx, cancel := context.WithCancel(m.ctx)
	sess := &session{
		id:     uuid.NewString(),
		screen: newScreen(m.scrollback),
		keys:   make(chan []byte, 64),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	sess.sh = m.build(sess.id, sess.screen, sess, sess.screen)
	return sess
}

func (m *Sessions) run(sess *session) {
	defer m.finish(sess)
	if err := sess.sh.Run(sess.ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).WithField("session", sess.id).Warn("session failed")
	}
}

func (m *Sessions) finish(sess *session) {
	m.mu.Lock()
	if m.live[sess.id] == sess {
		delete(m.live, sess.id)
	}
	sess.taken.Store(true)
	m.detached.Remove(sess.id)
	metrics.SessionsDetached.Set(float64(m.detached.Len()))
	kick := sess.kick
	sess.kick = nil
	m.mu.Unlock()

	sess.cancel()
	close(sess.done)
	if kick != nil {
		kick()
	}
}

// Live returns the number of sessions with a page attached.
func (m *Sessions) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// Detached returns the number of resumable sessions without a page.
func (m *Sessions) Detached() int {
	return m.detached.Len()
}
