package vfs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports a missing path or a missing parent directory.
	ErrNotFound = errors.New("no such file or directory")

	// ErrConflict reports a file occupying a path where a directory is required, or
	// a directory occupying a path where a file is written.
	ErrConflict = errors.New("path conflict")

	ErrNotDir = errors.New("not a directory")
	ErrIsDir  = errors.New("is a directory")
)

// PathError records the operation and path that failed.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

func pathErr(op, p string, err error) error {
	return &PathError{Op: op, Path: p, Err: err}
}
