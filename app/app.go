// Package app assembles a termos system: the profile, the command set, the
// fallback kernel and the record store shared by every session, and builds
// shells on top of them for each surface.
package app

import (
	"context"
	"time"

	petname "github.com/dustinkirkland/golang-petname"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"webterm/hal"
	"webterm/internal/buildinfo"
	"webterm/termos/services/extkernel"
	"webterm/termos/services/loader"
	"webterm/termos/services/shell"
	"webterm/termos/services/store"
	"webterm/termos/tasks/breach"
	"webterm/termos/tasks/coreutils"
	"webterm/termos/tasks/jobs"
	"webterm/termos/tasks/profile"
	"webterm/termos/tasks/rsh"
	"webterm/termos/vfs"
)

// Config selects the content every session is built from.
type Config struct {
	Profile  string `long:"profile" env:"PROFILE" description:"Profile document (.cue, .yaml, .yml or .json). Empty uses the built-in profile"`
	Fallback string `long:"fallback" env:"FALLBACK" description:"Starlark script offered lines no command handles. Empty uses the built-in script"`
	Store    string `long:"store" env:"STORE" default:"memory" description:"Record store: memory, or a SQLite database path"`
	Overlay  string `long:"overlay" env:"OVERLAY" description:"Host directory copied over every session's filesystem"`

	Boot struct {
		Skip        bool          `long:"skip" env:"SKIP" description:"Start sessions at the prompt"`
		CharDelay   time.Duration `long:"char-delay" env:"CHAR_DELAY" default:"6ms" description:"Delay between boot log characters"`
		LineDelay   time.Duration `long:"line-delay" env:"LINE_DELAY" default:"120ms" description:"Delay between boot log lines"`
		MenuTimeout time.Duration `long:"menu-timeout" env:"MENU_TIMEOUT" default:"5s" description:"Recovery menu timeout"`
	} `group:"Boot" namespace:"boot" env-namespace:"BOOT"`
}

// System holds what sessions share. Its registry is read-only after New.
type System struct {
	cfg      Config
	afs      afero.Fs
	profile  *loader.Profile
	registry *shell.Registry
	store    store.Store
	script   extkernel.Script
}

// New loads the profile and fallback script from afs and opens the store.
func New(cfg Config, afs afero.Fs) (*System, error) {
	p, err := loader.Load(afs, cfg.Profile)
	if err != nil {
		return nil, err
	}
	if p.Hostname == "" {
		p.Hostname = petname.Generate(2, "-")
	}

	script, err := extkernel.ReadScript(afs, cfg.Fallback)
	if err != nil {
		return nil, err
	}
	// Load once up front so a broken script fails at startup.
	if _, err := script.Bind(vfs.New()); err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.Store)
	if err != nil {
		return nil, errors.WithMessage(err, "opening store")
	}

	var sys = &System{
		cfg:      cfg,
		afs:      afs,
		profile:  p,
		registry: NewRegistry(p),
		store:    st,
		script:   script,
	}
	// Apply the overlay once up front too, for the same reason.
	if _, err := sys.NewFS(); err != nil {
		_ = st.Close()
		return nil, err
	}
	return sys, nil
}

// NewRegistry returns the full command set for profile p. Commands whose
// name is already taken are logged and skipped.
func NewRegistry(p *loader.Profile) *shell.Registry {
	reg := shell.NewRegistry()

	var cmds []shell.Command
	cmds = append(cmds, coreutils.Commands()...)
	cmds = append(cmds, profile.Commands(p)...)
	cmds = append(cmds, breach.Command(), rsh.Command(), jobs.Command())

	for _, cmd := range cmds {
		if err := reg.Register(cmd); err != nil {
			log.WithFields(log.Fields{"command": cmd.Name, "err": err}).Warn("skipping command")
		}
	}
	return reg
}

// Profile returns the loaded profile.
func (s *System) Profile() *loader.Profile { return s.profile }

// Registry returns the shared command registry.
func (s *System) Registry() *shell.Registry { return s.registry }

// Close releases the store.
func (s *System) Close() error { return s.store.Close() }

// NewFS returns a fresh filesystem populated from the profile and the
// overlay directory.
func (s *System) NewFS() (*vfs.FS, error) {
	fs := vfs.NewStandard()
	if err := loader.Populate(fs, s.profile); err != nil {
		return nil, errors.WithMessage(err, "populating filesystem")
	}
	if s.cfg.Overlay != "" {
		if err := loader.Overlay(s.afs, s.cfg.Overlay, fs); err != nil {
			return nil, err
		}
	}
	return fs, nil
}

// Shell builds a session over the given surface parts. Each session gets its
// own filesystem and fallback kernel.
func (s *System) Shell(id string, term hal.Terminal, kb hal.Keyboard, wm hal.WindowManager) (*shell.Shell, error) {
	fs, err := s.NewFS()
	if err != nil {
		return nil, err
	}
	fallback, err := s.script.Bind(fs)
	if err != nil {
		return nil, err
	}

	return shell.New(shell.Config{
		ID:       id,
		Registry: s.registry,
		FS:       fs,
		Terminal: term,
		Keyboard: kb,
		Windows:  wm,
		Fallback: fallback,
		Store:    s.store,
		Boot: shell.BootConfig{
			Skip:        s.cfg.Boot.Skip,
			CharDelay:   s.cfg.Boot.CharDelay,
			LineDelay:   s.cfg.Boot.LineDelay,
			MenuTimeout: s.cfg.Boot.MenuTimeout,
		},
		Hostname: s.profile.Hostname,
		Version:  buildinfo.Short(),
	}), nil
}

// Builder adapts Shell to a constructor that cannot fail. A session that
// cannot be built falls back to a bare filesystem and no fallback kernel.
func (s *System) Builder() func(id string, term hal.Terminal, kb hal.Keyboard, wm hal.WindowManager) *shell.Shell {
	return func(id string, term hal.Terminal, kb hal.Keyboard, wm hal.WindowManager) *shell.Shell {
		sh, err := s.Shell(id, term, kb, wm)
		if err == nil {
			return sh
		}
		log.WithFields(log.Fields{"session": id, "err": err}).Error("building session")
		return shell.New(shell.Config{
			ID:       id,
			Registry: s.registry,
			Terminal: term,
			Keyboard: kb,
			Windows:  wm,
			Store:    s.store,
			Hostname: s.profile.Hostname,
			Version:  buildinfo.Short(),
		})
	}
}

// Run runs one session on surface until it ends or ctx is done.
func (s *System) Run(ctx context.Context, id string, surface hal.Surface) error {
	sh, err := s.Shell(id, surface.Terminal(), surface.Keyboard(), surface.WindowManager())
	if err != nil {
		return err
	}
	err = sh.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
