//go:build !cgo

package hal

// No keyboard support without the window backend.
func (k *windowKeyboard) poll() {}
