package kernel

import (
	"bytes"
	"fmt"
)

// PanicError is a panic recovered at an app boundary.
type PanicError struct {
	Name  string
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s: panic: %v", e.Name, e.Value)
}

// Frames returns up to n non-runtime lines of the captured stack.
func (e *PanicError) Frames(n int) []string {
	var out []string
	for _, line := range bytes.Split(e.Stack, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 || bytes.HasPrefix(line, []byte("goroutine ")) {
			continue
		}
		if bytes.HasPrefix(line, []byte("runtime/")) || bytes.Contains(line, []byte("/runtime/")) ||
			bytes.HasPrefix(line, []byte("panic(")) {
			continue
		}
		out = append(out, string(line))
		if len(out) >= n {
			break
		}
	}
	return out
}

// Guard runs fn and converts a panic into a *PanicError.
func Guard(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Name: name, Value: r, Stack: captureStack()}
		}
	}()
	return fn()
}
