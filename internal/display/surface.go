package display

import (
	"errors"
	"image"
	"image/png"
	"io"
	"sync"

	"airtracker/panel/internal/imaging"
)

// Surface is the panel: a fixed grid of RGB565 pixels written in rectangles.
//
// SetWindow selects the address window. FillRegion writes a w×h rectangle at absolute
// coordinates; pixels outside the window are dropped. pix holds either w*h pixels in
// row-major order or a single pixel that is repeated.
type Surface interface {
	Width() int
	Height() int
	SetWindow(x, y, w, h int) error
	FillRegion(x, y, w, h int, pix []uint16) error
}

// Flusher is implemented by surfaces that present a frame only once it is complete.
type Flusher interface {
	Flush() error
}

var (
	ErrWindow       = errors.New("display: window outside surface")
	ErrPixelCount   = errors.New("display: pixel count does not match region")
	ErrNegativeSize = errors.New("display: negative region size")
)

// Framebuffer is an in-memory Surface. Writes land in a back buffer that Flush copies
// to the front buffer read by Image and EncodePNG, so readers never see a half drawn frame.
type Framebuffer struct {
	w, h int
	win  image.Rectangle
	back []uint16

	mu     sync.RWMutex
	front  []uint16
	frames int64
}

var (
	_ Surface = (*Framebuffer)(nil)
	_ Flusher = (*Framebuffer)(nil)
)

func NewFramebuffer(w, h int) *Framebuffer {
	return &Framebuffer{
		w:     w,
		h:     h,
		win:   image.Rect(0, 0, w, h),
		back:  make([]uint16, w*h),
		front: make([]uint16, w*h),
	}
}

func (f *Framebuffer) Width() int  { return f.w }
func (f *Framebuffer) Height() int { return f.h }

func (f *Framebuffer) SetWindow(x, y, w, h int) error {
	r := image.Rect(x, y, x+w, y+h)
	if w < 0 || h < 0 || !r.In(image.Rect(0, 0, f.w, f.h)) {
		return ErrWindow
	}
	f.win = r
	return nil
}

func (f *Framebuffer) FillRegion(x, y, w, h int, pix []uint16) error {
	if w < 0 || h < 0 {
		return ErrNegativeSize
	}
	solid := len(pix) == 1
	if !solid && len(pix) != w*h {
		return ErrPixelCount
	}

	clip := image.Rect(x, y, x+w, y+h).Intersect(f.win)
	for py := clip.Min.Y; py < clip.Max.Y; py++ {
		row := f.back[py*f.w:]
		for px := clip.Min.X; px < clip.Max.X; px++ {
			if solid {
				row[px] = pix[0]
			} else {
				row[px] = pix[(py-y)*w+(px-x)]
			}
		}
	}
	return nil
}

// Flush publishes the back buffer.
func (f *Framebuffer) Flush() error {
	f.mu.Lock()
	copy(f.front, f.back)
	f.frames++
	f.mu.Unlock()
	return nil
}

// Pixel reads the back buffer. It is meant for the goroutine that draws.
func (f *Framebuffer) Pixel(x, y int) uint16 {
	if x < 0 || y < 0 || x >= f.w || y >= f.h {
		return 0
	}
	return f.back[y*f.w+x]
}

// Frames counts completed flushes.
func (f *Framebuffer) Frames() int64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.frames
}

// Image returns a copy of the last flushed frame.
func (f *Framebuffer) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.w, f.h))
	f.mu.RLock()
	defer f.mu.RUnlock()
	for i, p := range f.front {
		c := imaging.Expand565(p)
		img.SetRGBA(i%f.w, i/f.w, c)
	}
	return img
}

// EncodePNG writes the last flushed frame.
func (f *Framebuffer) EncodePNG(w io.Writer) error {
	return png.Encode(w, f.Image())
}
