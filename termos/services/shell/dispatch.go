package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/shlex"
	log "github.com/sirupsen/logrus"

	"webterm/termos/kernel"
	"webterm/termos/metrics"
	"webterm/termos/proto"
	"webterm/termos/services/boot"
)

// submit handles a completed line.
func (s *Shell) submit(ctx context.Context, raw string) {
	line := strings.TrimSpace(raw)
	if line == "" {
		s.prompt()
		return
	}
	s.sess.hist.Add(line)

	if c := s.sess.activeCapture(); c.kind != CaptureNone {
		s.runCapture(c, raw)
	} else {
		s.dispatch(ctx, line)
	}

	if s.sess.takeReboot() {
		s.reboot(ctx)
		return
	}
	s.prompt()
}

func (s *Shell) runCapture(c capture, raw string) {
	err := kernel.Guard(c.kind.String(), func() error {
		c.fn(raw)
		return nil
	})
	metrics.CommandsTotal.WithLabelValues(c.kind.String(), metrics.Captured).Inc()
	if err != nil {
		// A capture that panics is dropped so the session stays usable.
		s.sess.ExitCapture()
		s.renderError(c.kind.String(), err)
	}
}

// SplitLine splits a command line with shell quoting rules. Unbalanced quotes
// fall back to splitting on whitespace.
func SplitLine(line string) []string {
	args, err := shlex.Split(line)
	if err != nil || len(args) == 0 {
		return strings.Fields(line)
	}
	return args
}

func (s *Shell) dispatch(ctx context.Context, line string) {
	args := SplitLine(line)
	if len(args) == 0 {
		return
	}
	name := strings.ToLower(args[0])

	if cmd, ok := s.cfg.Registry.Resolve(name); ok {
		app := cmd.New(s.env())
		if app == nil {
			s.renderError(cmd.Name, errors.New("failed to start"))
			return
		}
		start := time.Now()
		err := s.runApp(ctx, cmd.Name, app, args[1:])
		metrics.CommandDurationSeconds.WithLabelValues(cmd.Name).Observe(time.Since(start).Seconds())
		metrics.CommandsTotal.WithLabelValues(cmd.Name, outcome(err)).Inc()
		s.renderError(cmd.Name, err)
		return
	}

	if fb := s.cfg.Fallback; fb != nil && s.sess.BootMode() != boot.ModeSafe {
		app := AppFunc(func(ctx context.Context, _ []string) error {
			return fb.Execute(ctx, line, s.term)
		})
		err := s.runApp(ctx, name, app, nil)
		if !errors.Is(err, ErrUnknownCommand) {
			metrics.CommandsTotal.WithLabelValues("", metrics.Fallback).Inc()
			s.renderError(name, err)
			return
		}
	}

	metrics.CommandsTotal.WithLabelValues("", metrics.Unknown).Inc()
	s.term.Write(proto.Color(proto.Red, name+": command not found") + "\n")
}

func (s *Shell) env() Env {
	return Env{Out: s.term, FS: s.cfg.FS, WM: s.cfg.Windows, OS: s.sess}
}

// runApp runs app on a helper goroutine and waits for it. Input that arrives
// meanwhile is queued for after the app returns; Ctrl+C cancels the app.
func (s *Shell) runApp(ctx context.Context, name string, app App, args []string) error {
	appCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- kernel.Guard(name, func() error { return app.Run(appCtx, args) })
	}()

	interrupted := false
	for {
		select {
		case err := <-done:
			if interrupted && errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		case b, ok := <-s.input:
			if !ok {
				s.inputClosed = true
				s.input = nil
				cancel()
				continue
			}
			if bytes.IndexByte(b, 0x03) >= 0 {
				if !interrupted {
					interrupted = true
					s.term.Write("^C\n")
					cancel()
				}
				b = bytes.ReplaceAll(b, []byte{0x03}, nil)
			}
			if len(b) > 0 {
				s.pending = append(s.pending, append([]byte(nil), b...))
			}
		case <-ctx.Done():
			cancel()
			return <-done
		}
	}
}

func outcome(err error) string {
	var pe *kernel.PanicError
	switch {
	case err == nil:
		return metrics.Ok
	case errors.As(err, &pe):
		return metrics.Panic
	default:
		return metrics.Fail
	}
}

func (s *Shell) renderError(name string, err error) {
	if err == nil {
		return
	}
	var pe *kernel.PanicError
	if errors.As(err, &pe) {
		s.log.WithFields(log.Fields{
			"command": name,
			"panic":   fmt.Sprint(pe.Value),
			"stack":   string(pe.Stack),
		}).Error("app panicked")

		if s.sess.BootMode() == boot.ModeDeveloper {
			s.term.Write(proto.Color(proto.Red, fmt.Sprintf("%s: panic: %v", name, pe.Value)) + "\n")
			for _, f := range pe.Frames(6) {
				s.term.Write(proto.Color(proto.Dim, "    "+f) + "\n")
			}
			return
		}
		s.term.Write(proto.Color(proto.Red, "system error: "+name+" terminated unexpectedly") + "\n")
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	s.term.Write(proto.Color(proto.Red, name+": "+err.Error()) + "\n")
}
