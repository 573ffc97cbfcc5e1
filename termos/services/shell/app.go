package shell

import (
	"context"
	"errors"

	"webterm/hal"
	"webterm/termos/vfs"
)

var (
	// ErrUnknownCommand is returned by a Fallback that does not handle a line.
	ErrUnknownCommand = errors.New("command not found")
	// ErrCaptureBusy is returned when entering a capture while another is active.
	ErrCaptureBusy = errors.New("another input capture is active")
	// ErrUsage marks an invalid invocation; wrap it with the usage text.
	ErrUsage = errors.New("usage")
)

// App is one invocation of a command. A fresh App is built for every line.
type App interface {
	Run(ctx context.Context, args []string) error
}

// AppFunc adapts a function to App.
type AppFunc func(ctx context.Context, args []string) error

func (f AppFunc) Run(ctx context.Context, args []string) error { return f(ctx, args) }

// Env holds the collaborators injected into every App.
type Env struct {
	Out hal.Terminal
	FS  *vfs.FS
	WM  hal.WindowManager
	OS  *Session
}

// Factory builds an App for one invocation.
type Factory func(Env) App

// Command is a registry entry.
type Command struct {
	Name    string
	Aliases []string
	Usage   string
	Desc    string
	New     Factory
	// Hidden commands run but are left out of help and completion.
	Hidden bool
}

// Fallback is consulted for lines no registered command handles. It returns
// ErrUnknownCommand when it does not handle the line either.
type Fallback interface {
	Execute(ctx context.Context, line string, out hal.Terminal) error
}
