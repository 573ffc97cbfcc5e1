// Package extkernel is the fallback command kernel: a Starlark script whose
// execute(line) function sees every line no registered command handles.
package extkernel

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/google/shlex"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"webterm/hal"
	"webterm/termos/proto"
	"webterm/termos/services/shell"
	"webterm/termos/vfs"
)

//go:embed default.star
var defaultScript []byte

// DefaultMaxSteps bounds the work of a single execute call.
const DefaultMaxSteps = 1 << 20

var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
}

const outKey = "termos.out"

// Kernel holds a loaded script. Its globals are frozen after loading, so
// Execute may be called concurrently.
type Kernel struct {
	name     string
	execute  starlark.Callable
	fs       *vfs.FS
	MaxSteps uint64
}

var _ shell.Fallback = (*Kernel)(nil)

// Default loads the built-in script.
func Default(fs *vfs.FS) (*Kernel, error) {
	return New("default.star", defaultScript, fs)
}

// Script is script source not yet bound to a filesystem.
type Script struct {
	Name string
	Src  []byte
}

// ReadScript reads the script at path, or returns the built-in script when
// path is empty.
func ReadScript(afs afero.Fs, path string) (Script, error) {
	if path == "" {
		return Script{Name: "default.star", Src: defaultScript}, nil
	}
	src, err := afero.ReadFile(afs, path)
	if err != nil {
		return Script{}, errors.WithMessage(err, "reading kernel script")
	}
	return Script{Name: path, Src: src}, nil
}

// Bind loads the script against fs.
func (s Script) Bind(fs *vfs.FS) (*Kernel, error) {
	return New(s.Name, s.Src, fs)
}

// Load reads and loads the script at path, or the built-in script when path
// is empty.
func Load(afs afero.Fs, path string, fs *vfs.FS) (*Kernel, error) {
	s, err := ReadScript(afs, path)
	if err != nil {
		return nil, err
	}
	return s.Bind(fs)
}

// New loads a script. The script must define a callable execute.
func New(name string, src []byte, fs *vfs.FS) (*Kernel, error) {
	k := &Kernel{name: name, fs: fs, MaxSteps: DefaultMaxSteps}

	thread := &starlark.Thread{
		Name: "load " + name,
		Print: func(_ *starlark.Thread, msg string) {
			log.WithField("script", name).Info(msg)
		},
	}
	thread.SetMaxExecutionSteps(k.MaxSteps)

	globals, err := starlark.ExecFileOptions(fileOptions, thread, name, src, k.builtins())
	if err != nil {
		return nil, errors.WithMessagef(err, "loading %s", name)
	}
	fn, ok := globals["execute"].(starlark.Callable)
	if !ok {
		return nil, errors.Errorf("%s: no execute function", name)
	}
	globals.Freeze()
	k.execute = fn
	return k, nil
}

// Execute offers line to the script. It returns shell.ErrUnknownCommand when
// the script declines it.
func (k *Kernel) Execute(ctx context.Context, line string, out hal.Terminal) error {
	thread := &starlark.Thread{
		Name: "execute",
		Print: func(_ *starlark.Thread, msg string) {
			out.Write(msg + "\n")
		},
	}
	thread.SetLocal(outKey, out)
	thread.SetMaxExecutionSteps(k.MaxSteps)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			thread.Cancel("interrupted")
		case <-done:
		}
	}()

	v, err := starlark.Call(thread, k.execute, starlark.Tuple{starlark.String(line)}, nil)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var evalErr *starlark.EvalError
		if errors.As(err, &evalErr) {
			log.WithFields(log.Fields{
				"script":    k.name,
				"backtrace": evalErr.Backtrace(),
			}).Warn("extension kernel failed")
			return errors.New(evalErr.Msg)
		}
		return err
	}

	switch v := v.(type) {
	case starlark.NoneType:
		return shell.ErrUnknownCommand
	case starlark.Bool:
		if !v {
			return shell.ErrUnknownCommand
		}
		return nil
	case starlark.String:
		s := string(v)
		if !strings.HasSuffix(s, "\n") {
			s += "\n"
		}
		out.Write(s)
		return nil
	default:
		out.Write(v.String() + "\n")
		return nil
	}
}

func (k *Kernel) builtins() starlark.StringDict {
	return starlark.StringDict{
		"write":  starlark.NewBuiltin("write", k.write),
		"read":   starlark.NewBuiltin("read", k.read),
		"ls":     starlark.NewBuiltin("ls", k.ls),
		"exists": starlark.NewBuiltin("exists", k.exists),
		"split":  starlark.NewBuiltin("split", split),
		"color":  starlark.NewBuiltin("color", color),
	}
}

func (k *Kernel) write(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var text string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &text); err != nil {
		return nil, err
	}
	out, ok := thread.Local(outKey).(hal.Terminal)
	if !ok {
		return nil, fmt.Errorf("%s: no terminal while loading", b.Name())
	}
	out.Write(text)
	return starlark.None, nil
}

func (k *Kernel) read(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var path string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "path", &path); err != nil {
		return nil, err
	}
	if k.fs == nil {
		return starlark.None, nil
	}
	content, ok := k.fs.ReadFile(vfs.Clean(path))
	if !ok {
		return starlark.None, nil
	}
	return starlark.String(content), nil
}

func (k *Kernel) ls(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var path string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "path", &path); err != nil {
		return nil, err
	}
	if k.fs == nil {
		return starlark.None, nil
	}
	entries, ok := k.fs.List(vfs.Clean(path))
	if !ok {
		return starlark.None, nil
	}
	names := make([]starlark.Value, 0, len(entries))
	for _, e := range entries {
		names = append(names, starlark.String(e.Name))
	}
	return starlark.NewList(names), nil
}

func (k *Kernel) exists(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var path string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "path", &path); err != nil {
		return nil, err
	}
	return starlark.Bool(k.fs != nil && k.fs.Exists(vfs.Clean(path))), nil
}

func split(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var line string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "line", &line); err != nil {
		return nil, err
	}
	words, err := shlex.Split(line)
	if err != nil {
		words = strings.Fields(line)
	}
	elems := make([]starlark.Value, 0, len(words))
	for _, w := range words {
		elems = append(elems, starlark.String(w))
	}
	return starlark.NewList(elems), nil
}

var colors = map[string]string{
	"red":     proto.Red,
	"green":   proto.Green,
	"yellow":  proto.Yellow,
	"blue":    proto.Blue,
	"magenta": proto.Magenta,
	"cyan":    proto.Cyan,
	"bold":    proto.Bold,
	"dim":     proto.Dim,
}

func color(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name, text string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "name", &name, "text", &text); err != nil {
		return nil, err
	}
	sgr, ok := colors[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%s: unknown color %q", b.Name(), name)
	}
	return starlark.String(proto.Color(sgr, text)), nil
}
