//go:build cgo

package hal

import (
	"context"
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// Run opens the window and blocks until it is closed or ctx is done. The
// keyboard channel is closed on return.
func (w *Window) Run(ctx context.Context, title string) error {
	defer w.kbd.close()

	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(w.fb.width*2, w.fb.height*2)
	ebiten.SetTPS(60)
	err := ebiten.RunGame(&hostGame{ctx: ctx, w: w})
	if err == ebiten.Termination {
		return nil
	}
	return err
}

type hostGame struct {
	ctx     context.Context
	w       *Window
	img     *image.RGBA
	fbImg   *ebiten.Image
	scratch []byte
}

func (g *hostGame) Update() error {
	if g.ctx.Err() != nil {
		return ebiten.Termination
	}
	g.w.kbd.poll()
	return nil
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	fb := g.w.fb
	if g.img == nil {
		g.img = image.NewRGBA(image.Rect(0, 0, fb.width, fb.height))
		g.scratch = make([]byte, len(fb.front))
		g.fbImg = ebiten.NewImage(fb.width, fb.height)
	}

	fb.snapshotRGB565(g.scratch)

	src := g.scratch
	dst := g.img.Pix
	for i := 0; i+1 < len(src) && i/2*4+3 < len(dst); i += 2 {
		r, gg, b := rgb888From565(uint16(src[i]) | uint16(src[i+1])<<8)
		j := (i / 2) * 4
		dst[j+0] = r
		dst[j+1] = gg
		dst[j+2] = b
		dst[j+3] = 0xFF
	}

	g.fbImg.WritePixels(g.img.Pix)
	screen.DrawImage(g.fbImg, nil)
}

func (g *hostGame) Layout(int, int) (int, int) {
	return g.w.fb.width, g.w.fb.height
}
