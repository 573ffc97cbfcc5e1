//go:build cgo

package hal

import (
	"unicode/utf8"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Keys are translated to the bytes a VT100 keyboard would send, so the
// window feeds the same decoder as the browser and the console.
var windowSpecialKeys = []struct {
	key ebiten.Key
	seq string
}{
	{ebiten.KeyEnter, "\r"},
	{ebiten.KeyNumpadEnter, "\r"},
	{ebiten.KeyBackspace, "\x7f"},
	{ebiten.KeyTab, "\t"},
	{ebiten.KeyEscape, "\x1b"},
	{ebiten.KeyArrowUp, "\x1b[A"},
	{ebiten.KeyArrowDown, "\x1b[B"},
	{ebiten.KeyArrowRight, "\x1b[C"},
	{ebiten.KeyArrowLeft, "\x1b[D"},
}

var windowCtrlKeys = []struct {
	key ebiten.Key
	b   byte
}{
	{ebiten.KeyA, 0x01},
	{ebiten.KeyC, 0x03},
	{ebiten.KeyD, 0x04},
	{ebiten.KeyE, 0x05},
	{ebiten.KeyL, 0x0c},
	{ebiten.KeyU, 0x15},
	{ebiten.KeyW, 0x17},
}

func (k *windowKeyboard) poll() {
	var out []byte

	ctrl := ebiten.IsKeyPressed(ebiten.KeyControlLeft) || ebiten.IsKeyPressed(ebiten.KeyControlRight)
	if ctrl {
		for _, ck := range windowCtrlKeys {
			if inpututil.IsKeyJustPressed(ck.key) {
				out = append(out, ck.b)
			}
		}
	} else {
		for _, r := range ebiten.AppendInputChars(nil) {
			out = utf8.AppendRune(out, r)
		}
	}

	for _, sk := range windowSpecialKeys {
		if inpututil.IsKeyJustPressed(sk.key) {
			out = append(out, sk.seq...)
		}
	}

	if len(out) > 0 {
		k.send(out)
	}
}
