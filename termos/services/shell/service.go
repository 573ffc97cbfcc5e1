// Package shell is the session controller: it owns the line editor, history,
// completion, capture modes and command dispatch of one terminal session.
package shell

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"webterm/hal"
	"webterm/termos/kernel"
	"webterm/termos/metrics"
	"webterm/termos/proto"
	"webterm/termos/services/boot"
	"webterm/termos/services/store"
	"webterm/termos/vfs"
)

// MaxLineRunes caps the edit buffer.
const MaxLineRunes = 256

// BootConfig paces the boot sequence.
type BootConfig struct {
	Skip        bool
	CharDelay   time.Duration
	LineDelay   time.Duration
	MenuTimeout time.Duration
}

// Config wires a Shell.
type Config struct {
	ID       string
	Registry *Registry
	FS       *vfs.FS
	Terminal hal.Terminal
	Keyboard hal.Keyboard
	Windows  hal.WindowManager
	Fallback Fallback
	Store    store.Store
	Clock    kernel.Clock
	Boot     BootConfig

	Hostname string
	Version  string
}

// Shell runs one session. All of its state outside Session is owned by the
// goroutine executing Run.
type Shell struct {
	cfg  Config
	sess *Session
	term hal.Terminal
	log  *log.Entry

	input       <-chan []byte
	inputClosed bool
	pending     [][]byte
	hangup      bool

	dec  proto.Decoder
	line []rune

	booting  *boot.Sequencer
	bootDone chan boot.Result
}

func New(cfg Config) *Shell {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.Registry == nil {
		cfg.Registry = NewRegistry()
	}
	if cfg.FS == nil {
		cfg.FS = vfs.NewStandard()
	}
	if cfg.Windows == nil {
		cfg.Windows = hal.NoWindows{}
	}
	if cfg.Store == nil {
		cfg.Store = store.NewMemory()
	}
	if cfg.Clock == nil {
		cfg.Clock = kernel.RealClock{}
	}
	if cfg.Hostname == "" {
		cfg.Hostname = hostnameFrom(cfg.FS)
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	sh := &Shell{
		cfg:      cfg,
		sess:     newSession(cfg.ID, cfg.FS, cfg.Registry, cfg.Store, cfg.Clock, cfg.Hostname, cfg.Version),
		term:     cfg.Terminal,
		log:      log.WithField("session", cfg.ID),
		bootDone: make(chan boot.Result, 1),
	}
	sh.sess.redraw = sh.redrawLine
	return sh
}

func hostnameFrom(fs *vfs.FS) string {
	if b, ok := fs.ReadFile("/etc/hostname"); ok {
		if h := strings.TrimSpace(b); h != "" {
			return h
		}
	}
	return "termos"
}

// Session returns the session state.
func (s *Shell) Session() *Session { return s.sess }

// Run boots the session and processes input until ctx is done or the
// keyboard channel closes.
func (s *Shell) Run(ctx context.Context) error {
	metrics.SessionsActive.Inc()
	defer metrics.SessionsActive.Dec()
	defer s.sess.sched.close()

	s.log.Info("session started")
	defer s.log.Info("session ended")

	s.input = s.cfg.Keyboard.Input()
	if s.cfg.Boot.Skip {
		s.onBoot(boot.Result{Skipped: true, Path: []boot.State{boot.StateDone}})
	} else {
		s.startBoot(ctx)
	}

	for {
		s.drainPending(ctx)
		if s.inputClosed || s.hangup {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case b, ok := <-s.input:
			if !ok {
				return nil
			}
			s.handleInput(ctx, b)
		case r := <-s.bootDone:
			s.onBoot(r)
		case <-s.sess.sched.wake:
			s.runScheduled()
		}
	}
}

func (s *Shell) drainPending(ctx context.Context) {
	for len(s.pending) > 0 && ctx.Err() == nil && !s.hangup {
		b := s.pending[0]
		s.pending = s.pending[1:]
		s.handleInput(ctx, b)
	}
}

func (s *Shell) runScheduled() {
	for _, fn := range s.sess.sched.take() {
		if err := kernel.Guard("scheduled", func() error { fn(); return nil }); err != nil {
			s.log.WithError(err).Error("scheduled function failed")
		}
	}
}

func (s *Shell) startBoot(ctx context.Context) {
	seq := boot.New(boot.Config{
		Out:         s.term,
		Clock:       s.cfg.Clock,
		CharDelay:   s.cfg.Boot.CharDelay,
		LineDelay:   s.cfg.Boot.LineDelay,
		MenuTimeout: s.cfg.Boot.MenuTimeout,
		Hostname:    s.sess.hostname,
		Version:     s.cfg.Version,
	})
	s.booting = seq
	go func() {
		err := seq.Run(ctx, func(r boot.Result) { s.bootDone <- r })
		if err != nil && ctx.Err() == nil {
			s.log.WithError(err).Warn("boot sequence aborted")
		}
	}()
}

func (s *Shell) onBoot(r boot.Result) {
	s.booting = nil
	s.sess.setBootMode(r.Mode)
	metrics.BootsTotal.WithLabelValues(r.Mode.String(), boolLabel(r.Skipped)).Inc()
	s.log.WithFields(log.Fields{"mode": r.Mode, "skipped": r.Skipped}).Info("boot complete")

	s.welcome()
	s.prompt()
}

func (s *Shell) welcome() {
	if motd, ok := s.cfg.FS.ReadFile("/etc/motd"); ok && motd != "" {
		if !strings.HasSuffix(motd, "\n") {
			motd += "\n"
		}
		s.term.Write(motd)
	} else {
		s.term.Write(proto.Color(proto.Accent, "Welcome to termos") + "\nType `help` to list commands.\n")
	}
	switch m := s.sess.BootMode(); m {
	case boot.ModeNormal:
	default:
		s.term.Write(proto.Color(proto.Yellow, "Booted in "+m.String()+" mode.") + "\n")
	}
	s.term.Write("\n")
}

func (s *Shell) handleInput(ctx context.Context, b []byte) {
	for _, ev := range s.dec.Feed(b) {
		if s.booting != nil {
			s.bootKey(ev)
			continue
		}
		s.handleKey(ctx, ev)
	}
}

func (s *Shell) bootKey(ev proto.KeyEvent) {
	switch ev.Key {
	case proto.KeyEscape:
		s.booting.RequestSkip()
	case proto.KeyRune:
		switch {
		case ev.Rune == 'r' || ev.Rune == 'R':
			s.booting.ObserveRecoveryKey()
		case ev.Rune >= '1' && ev.Rune <= '9':
			s.booting.Choose(int(ev.Rune - '0'))
		}
	}
}

func (s *Shell) reboot(ctx context.Context) {
	s.log.Info("reboot requested")
	s.line = s.line[:0]
	s.dec.Reset()
	s.sess.ExitCapture()
	s.sess.hist.Reset()
	s.term.Clear()
	s.startBoot(ctx)
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
