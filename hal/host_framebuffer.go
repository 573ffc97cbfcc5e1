package hal

import "sync"

// hostFramebuffer is an RGB565 framebuffer in memory. Drawing goes to buf;
// Present copies it to front, which is what the window reads, starting at
// the scroll row and wrapping around.
type hostFramebuffer struct {
	mu     sync.Mutex
	width  int
	height int
	stride int
	scroll int
	buf    []byte
	front  []byte
}

func newHostFramebuffer(width, height int) *hostFramebuffer {
	stride := width * 2
	return &hostFramebuffer{
		width:  width,
		height: height,
		stride: stride,
		buf:    make([]byte, stride*height),
		front:  make([]byte, stride*height),
	}
}

func (f *hostFramebuffer) Width() int          { return f.width }
func (f *hostFramebuffer) Height() int         { return f.height }
func (f *hostFramebuffer) Format() PixelFormat { return PixelFormatRGB565 }
func (f *hostFramebuffer) StrideBytes() int    { return f.stride }
func (f *hostFramebuffer) Buffer() []byte      { return f.buf }

func (f *hostFramebuffer) SetScroll(line int) {
	if f.height <= 0 {
		return
	}
	f.scroll = ((line % f.height) + f.height) % f.height
}

func (f *hostFramebuffer) Present() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	split := f.scroll * f.stride
	n := copy(f.front, f.buf[split:])
	copy(f.front[n:], f.buf[:split])
	return nil
}

func (f *hostFramebuffer) ClearRGB(r, g, b uint8) {
	pixel := rgb565(r, g, b)
	lo := byte(pixel)
	hi := byte(pixel >> 8)
	for i := 0; i+1 < len(f.buf); i += 2 {
		f.buf[i] = lo
		f.buf[i+1] = hi
	}
}

func (f *hostFramebuffer) snapshotRGB565(dst []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copy(dst, f.front)
}

// pixelAt decodes the presented pixel at (x, y).
func (f *hostFramebuffer) pixelAt(x, y int) (r, g, b uint8) {
	f.mu.Lock()
	defer f.mu.Unlock()
	off := y*f.stride + x*2
	return rgb888From565(uint16(f.front[off]) | uint16(f.front[off+1])<<8)
}
