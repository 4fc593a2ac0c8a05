package imaging

import (
	"image"
	"image/color"
	"iter"
)

// RGB565 packs 8-bit channels into the panel's 16-bit pixel format.
func RGB565(r, g, b uint8) uint16 {
	return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
}

// Expand565 unpacks a 16-bit pixel, replicating high bits into the low ones so that
// white stays 0xFF.
func Expand565(p uint16) color.RGBA {
	r := uint8(p>>11) & 0x1F
	g := uint8(p>>5) & 0x3F
	b := uint8(p) & 0x1F
	return color.RGBA{
		R: r<<3 | r>>2,
		G: g<<2 | g>>4,
		B: b<<3 | b>>2,
		A: 0xFF,
	}
}

// Buffer is a decoded image in RGB565, row-major, top row first.
// Its backing array is allocated once at the capacity of the target box.
type Buffer struct {
	W, H int
	Pix  []uint16
}

// NewBuffer allocates a w×h buffer whose capacity is capW×capH pixels.
func NewBuffer(w, h, capW, capH int) *Buffer {
	c := capW * capH
	if c < w*h {
		c = w * h
	}
	return &Buffer{W: w, H: h, Pix: make([]uint16, w*h, c)}
}

// Set writes one pixel; out of range writes are ignored.
func (b *Buffer) Set(x, y int, p uint16) {
	if x < 0 || y < 0 || x >= b.W || y >= b.H {
		return
	}
	b.Pix[y*b.W+x] = p
}

// Pixel returns the packed pixel at (x, y), or 0 outside the buffer.
func (b *Buffer) Pixel(x, y int) uint16 {
	if x < 0 || y < 0 || x >= b.W || y >= b.H {
		return 0
	}
	return b.Pix[y*b.W+x]
}

// ColorModel implements image.Image.
func (b *Buffer) ColorModel() color.Model { return color.RGBAModel }

// Bounds implements image.Image.
func (b *Buffer) Bounds() image.Rectangle { return image.Rect(0, 0, b.W, b.H) }

// At implements image.Image.
func (b *Buffer) At(x, y int) color.Color { return Expand565(b.Pixel(x, y)) }

// Chunk is a horizontal strip of a Buffer. Pix aliases the buffer; it is only valid
// while the owning Buffer is not modified.
type Chunk struct {
	Y, W, H int
	Pix     []uint16
}

// Chunks yields the buffer as consecutive strips of at most rows rows, top to bottom.
// The sequence is finite and may be ranged over any number of times.
func (b *Buffer) Chunks(rows int) iter.Seq[Chunk] {
	if rows <= 0 {
		rows = 1
	}
	return func(yield func(Chunk) bool) {
		for y := 0; y < b.H; y += rows {
			h := min(rows, b.H-y)
			c := Chunk{
				Y:   y,
				W:   b.W,
				H:   h,
				Pix: b.Pix[y*b.W : (y+h)*b.W],
			}
			if !yield(c) {
				return
			}
		}
	}
}
