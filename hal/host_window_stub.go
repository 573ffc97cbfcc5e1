//go:build !cgo

package hal

import (
	"context"
	"errors"
)

func (w *Window) Run(context.Context, string) error {
	w.kbd.close()
	return errors.New("window mode requires cgo (build/run with CGO_ENABLED=1)")
}
