// Package boot runs the simulated firmware and kernel start-up that precedes
// the interactive shell.
package boot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"webterm/hal"
	"webterm/termos/kernel"
	"webterm/termos/proto"
)

// Config parameterizes a Sequencer.
type Config struct {
	Out   hal.Terminal
	Clock kernel.Clock

	// CharDelay paces typewriter text, LineDelay paces whole lines.
	CharDelay   time.Duration
	LineDelay   time.Duration
	MenuTimeout time.Duration

	Hostname string
	Version  string
}

const (
	DefaultCharDelay   = 6 * time.Millisecond
	DefaultLineDelay   = 70 * time.Millisecond
	DefaultMenuTimeout = 5 * time.Second
)

var errSkipped = errors.New("boot skipped")

// Sequencer drives one run of the boot state machine.
//
// RequestSkip, ObserveRecoveryKey and Choose may be called from any goroutine
// while Run is in progress.
type Sequencer struct {
	cfg Config

	skip     atomic.Bool
	recovery atomic.Bool
	state    atomic.Uint32
	choice   chan int

	mu     sync.Mutex
	cancel context.CancelFunc

	path []State
}

// New returns a Sequencer that has not started.
func New(cfg Config) *Sequencer {
	if cfg.Clock == nil {
		cfg.Clock = kernel.RealClock{}
	}
	if cfg.MenuTimeout <= 0 {
		cfg.MenuTimeout = DefaultMenuTimeout
	}
	if cfg.Hostname == "" {
		cfg.Hostname = "termos"
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	return &Sequencer{cfg: cfg, choice: make(chan int, 1)}
}

// RequestSkip short-circuits the sequence to StateDone.
func (s *Sequencer) RequestSkip() {
	s.skip.Store(true)
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// ObserveRecoveryKey latches the recovery key. It only has an effect while
// POST is running.
func (s *Sequencer) ObserveRecoveryKey() {
	s.recovery.Store(true)
}

// Choose selects recovery menu option n (1-4). It reports whether the choice
// was accepted: the menu must be showing and n in range.
func (s *Sequencer) Choose(n int) bool {
	if n < 1 || n > len(menuOptions) || s.State() != StateRecoveryMenu {
		return false
	}
	select {
	case s.choice <- n:
		return true
	default:
		return false
	}
}

// State returns the current state, or 0 before Run.
func (s *Sequencer) State() State {
	return State(s.state.Load())
}

// Run plays the sequence and calls done exactly once when StateDone is
// reached. If ctx ends first, Run returns ctx.Err() and done is not called.
func (s *Sequencer) Run(ctx context.Context, done func(Result)) error {
	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	var once sync.Once
	finish := func(r Result) {
		once.Do(func() {
			s.enter(StateDone)
			r.Path = append([]State(nil), s.path...)
			log.WithFields(log.Fields{
				"mode":    r.Mode,
				"skipped": r.Skipped,
				"path":    r.Path,
			}).Debug("boot complete")
			if done != nil {
				done(r)
			}
		})
	}

	mode, err := s.play(ctx)
	switch {
	case err == nil:
		s.cfg.Out.Clear()
		finish(Result{Mode: mode})
		return nil
	case s.skip.Load():
		s.cfg.Out.Clear()
		finish(Result{Mode: mode, Skipped: true})
		return nil
	case parent.Err() != nil:
		return parent.Err()
	default:
		return err
	}
}

func (s *Sequencer) enter(st State) {
	s.state.Store(uint32(st))
	s.path = append(s.path, st)
}

func (s *Sequencer) play(ctx context.Context) (Mode, error) {
	if s.skip.Load() {
		return ModeNormal, errSkipped
	}

	s.enter(StatePOST)
	toMenu, err := s.post(ctx)
	if err != nil {
		return ModeNormal, err
	}
	if toMenu {
		s.enter(StateRecoveryMenu)
		return s.menu(ctx)
	}

	s.enter(StateBootloader)
	if err := s.bootloader(ctx); err != nil {
		return ModeNormal, err
	}

	s.enter(StateKernelInit)
	if err := s.kernelInit(ctx); err != nil {
		return ModeNormal, err
	}
	return ModeNormal, nil
}

// post runs the power-on self test. It reports true when the recovery key was
// seen between two checks.
func (s *Sequencer) post(ctx context.Context) (bool, error) {
	if err := s.line(ctx, proto.Color(proto.Bold, fmt.Sprintf("termos BIOS %s", s.cfg.Version))); err != nil {
		return false, err
	}
	if err := s.line(ctx, proto.Color(proto.Dim, "Press R for recovery options, ESC to skip.")); err != nil {
		return false, err
	}
	if err := s.line(ctx, ""); err != nil {
		return false, err
	}

	for _, c := range postChecks {
		if s.recovery.Load() {
			return true, nil
		}
		label := c.label + " " + strings.Repeat(".", 12-len(c.label))
		if err := s.typewrite(ctx, label+" "); err != nil {
			return false, err
		}
		if err := s.line(ctx, proto.Color(proto.Green, "OK")+"  "+proto.Color(proto.Dim, c.detail)); err != nil {
			return false, err
		}
	}
	if s.recovery.Load() {
		return true, nil
	}
	return false, s.line(ctx, "")
}

func (s *Sequencer) bootloader(ctx context.Context) error {
	if err := s.line(ctx, "GRUB loading."); err != nil {
		return err
	}
	if err := s.typewrite(ctx, "Loading kernel image "); err != nil {
		return err
	}
	const width = 20
	for i := 0; i < width; i++ {
		if err := s.write(ctx, "#"); err != nil {
			return err
		}
		if err := s.wait(ctx, s.cfg.LineDelay/4); err != nil {
			return err
		}
	}
	if err := s.line(ctx, " done"); err != nil {
		return err
	}
	return s.line(ctx, "Loading initial ramdisk ... done")
}

func (s *Sequencer) kernelInit(ctx context.Context) error {
	for _, l := range kernelLines {
		if err := s.line(ctx, proto.Color(proto.Dim, l)); err != nil {
			return err
		}
	}
	for _, svc := range services {
		if err := s.line(ctx, "["+proto.Color(proto.Green, "  OK  ")+"] "+svc); err != nil {
			return err
		}
	}
	return s.line(ctx, fmt.Sprintf("\n%s login: guest (automatic login)", s.cfg.Hostname))
}

func (s *Sequencer) menu(ctx context.Context) (Mode, error) {
	if err := s.line(ctx, ""); err != nil {
		return ModeNormal, err
	}
	if err := s.line(ctx, proto.Color(proto.Yellow, "*** Recovery Menu ***")); err != nil {
		return ModeNormal, err
	}
	for i, opt := range menuOptions {
		if err := s.line(ctx, fmt.Sprintf("  %d) %s", i+1, opt.label)); err != nil {
			return ModeNormal, err
		}
	}
	secs := int(s.cfg.MenuTimeout / time.Second)
	if err := s.line(ctx, fmt.Sprintf("Select [1-%d] (default 1 in %ds): ", len(menuOptions), secs)); err != nil {
		return ModeNormal, err
	}

	var n int
	select {
	case n = <-s.choice:
	case <-s.cfg.Clock.After(s.cfg.MenuTimeout):
		n = 1
	case <-ctx.Done():
		return ModeNormal, s.interrupted(ctx)
	}
	opt := menuOptions[n-1]
	for _, l := range opt.info {
		if err := s.line(ctx, l); err != nil {
			return ModeNormal, err
		}
	}
	return opt.mode, nil
}

func (s *Sequencer) interrupted(ctx context.Context) error {
	if s.skip.Load() {
		return errSkipped
	}
	return ctx.Err()
}

// write emits text unless the sequence was skipped.
func (s *Sequencer) write(ctx context.Context, text string) error {
	if s.skip.Load() {
		return errSkipped
	}
	if err := ctx.Err(); err != nil {
		return s.interrupted(ctx)
	}
	s.cfg.Out.Write(text)
	return nil
}

func (s *Sequencer) wait(ctx context.Context, d time.Duration) error {
	if s.skip.Load() {
		return errSkipped
	}
	if err := s.cfg.Clock.Sleep(ctx, d); err != nil {
		return s.interrupted(ctx)
	}
	if s.skip.Load() {
		return errSkipped
	}
	return nil
}

func (s *Sequencer) line(ctx context.Context, text string) error {
	if err := s.write(ctx, text+"\n"); err != nil {
		return err
	}
	return s.wait(ctx, s.cfg.LineDelay)
}

func (s *Sequencer) typewrite(ctx context.Context, text string) error {
	for _, r := range text {
		if err := s.write(ctx, string(r)); err != nil {
			return err
		}
		if err := s.wait(ctx, s.cfg.CharDelay); err != nil {
			return err
		}
	}
	return nil
}
