package display

import (
	"bytes"
	"errors"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airtracker/panel/internal/assets"
	"airtracker/panel/internal/flight"
	"airtracker/panel/internal/imaging"
)

func solidBuffer(w, h int, p uint16) *imaging.Buffer {
	b := imaging.NewBuffer(w, h, w, h)
	for i := range b.Pix {
		b.Pix[i] = p
	}
	return b
}

func renderable(kind assets.Kind, buf *imaging.Buffer) assets.Record {
	return assets.Record{Kind: kind, RemoteURL: "http://x/a", CachedURL: "http://x/a", Image: buf}
}

func countNonBlack(fb *Framebuffer, box Box) int {
	n := 0
	for y := box.Y; y < box.Y+box.H; y++ {
		for x := box.X; x < box.X+box.W; x++ {
			if fb.Pixel(x, y) != Black {
				n++
			}
		}
	}
	return n
}

func TestFramebuffer_FillRegionClipsToWindow(t *testing.T) {
	fb := NewFramebuffer(10, 10)
	require.NoError(t, fb.SetWindow(2, 2, 4, 4))
	require.NoError(t, fb.FillRegion(0, 0, 10, 10, []uint16{White}))

	assert.Equal(t, Black, fb.Pixel(1, 1))
	assert.Equal(t, White, fb.Pixel(2, 2))
	assert.Equal(t, White, fb.Pixel(5, 5))
	assert.Equal(t, Black, fb.Pixel(6, 6))
}

func TestFramebuffer_FillRegionCopiesRows(t *testing.T) {
	fb := NewFramebuffer(4, 4)
	require.NoError(t, fb.FillRegion(1, 1, 2, 2, []uint16{1, 2, 3, 4}))
	assert.Equal(t, uint16(1), fb.Pixel(1, 1))
	assert.Equal(t, uint16(2), fb.Pixel(2, 1))
	assert.Equal(t, uint16(3), fb.Pixel(1, 2))
	assert.Equal(t, uint16(4), fb.Pixel(2, 2))
}

func TestFramebuffer_Errors(t *testing.T) {
	fb := NewFramebuffer(4, 4)
	assert.ErrorIs(t, fb.SetWindow(2, 2, 4, 4), ErrWindow)
	assert.ErrorIs(t, fb.FillRegion(0, 0, 2, 2, []uint16{1, 2, 3}), ErrPixelCount)
	assert.ErrorIs(t, fb.FillRegion(0, 0, -1, 2, nil), ErrNegativeSize)
}

func TestFramebuffer_ImageShowsOnlyFlushedFrames(t *testing.T) {
	fb := NewFramebuffer(2, 2)
	require.NoError(t, fb.FillRegion(0, 0, 2, 2, []uint16{White}))
	assert.Equal(t, uint8(0), fb.Image().RGBAAt(0, 0).R)

	require.NoError(t, fb.Flush())
	assert.Equal(t, uint8(0xFF), fb.Image().RGBAAt(0, 0).R)
	assert.EqualValues(t, 1, fb.Frames())
}

func TestRender_PlaceholderWithoutLogo(t *testing.T) {
	fb := NewFramebuffer(320, 240)
	r := NewRenderer(fb)

	require.NoError(t, r.Render(flight.Defaults(), assets.Snapshot{}))

	assert.Positive(t, countNonBlack(fb, LogoBox), "placeholder text expected in logo box")
	assert.Zero(t, countNonBlack(fb, PhotoBox))
	assert.EqualValues(t, 1, fb.Frames())
}

func TestRender_CentresImagesInBoxes(t *testing.T) {
	fb := NewFramebuffer(320, 240)
	r := NewRenderer(fb)
	red := imaging.RGB565(255, 0, 0)
	blue := imaging.RGB565(0, 0, 255)

	snap := assets.Snapshot{
		Logo:  renderable(assets.KindLogo, solidBuffer(64, 64, red)),
		Photo: renderable(assets.KindPhoto, solidBuffer(80, 60, blue)),
	}
	require.NoError(t, r.Render(flight.Defaults(), snap))

	assert.Equal(t, red, fb.Pixel(LogoBox.X, LogoBox.Y))
	assert.Equal(t, red, fb.Pixel(LogoBox.X+63, LogoBox.Y+63))

	// 60 rows in a 64 row box leave two blank rows above and below.
	assert.Equal(t, Black, fb.Pixel(PhotoBox.X, PhotoBox.Y+1))
	assert.Equal(t, blue, fb.Pixel(PhotoBox.X, PhotoBox.Y+2))
	assert.Equal(t, blue, fb.Pixel(PhotoBox.X+79, PhotoBox.Y+61))
	assert.Equal(t, Black, fb.Pixel(PhotoBox.X, PhotoBox.Y+62))
}

func TestRender_SkipsStaleRecords(t *testing.T) {
	fb := NewFramebuffer(320, 240)
	stale := renderable(assets.KindPhoto, solidBuffer(80, 64, White))
	stale.RemoteURL = "http://x/new"

	require.NoError(t, NewRenderer(fb).Render(flight.Defaults(), assets.Snapshot{Photo: stale}))
	assert.Zero(t, countNonBlack(fb, PhotoBox))
}

func TestRender_FullRepaintClearsPreviousFrame(t *testing.T) {
	fb := NewFramebuffer(320, 240)
	r := NewRenderer(fb)
	snap := assets.Snapshot{Photo: renderable(assets.KindPhoto, solidBuffer(80, 64, White))}

	require.NoError(t, r.Render(flight.Defaults(), snap))
	require.Positive(t, countNonBlack(fb, PhotoBox))

	require.NoError(t, r.Render(flight.Defaults(), assets.Snapshot{}))
	assert.Zero(t, countNonBlack(fb, PhotoBox))
}

func TestRender_EncodesPNG(t *testing.T) {
	fb := NewFramebuffer(320, 240)
	require.NoError(t, NewRenderer(fb).Render(flight.Defaults(), assets.Snapshot{}))

	var buf bytes.Buffer
	require.NoError(t, fb.EncodePNG(&buf))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 240, img.Bounds().Dy())
}

type failingSurface struct {
	*Framebuffer
	err error
}

func (f failingSurface) FillRegion(x, y, w, h int, pix []uint16) error { return f.err }

func TestRender_SurfaceErrorIsReturned(t *testing.T) {
	boom := errors.New("spi write failed")
	s := failingSurface{Framebuffer: NewFramebuffer(320, 240), err: boom}
	err := NewRenderer(s).Render(flight.Defaults(), assets.Snapshot{})
	assert.ErrorIs(t, err, boom)
}

func TestFormatThousands(t *testing.T) {
	cases := map[int]string{
		0:       "0",
		999:     "999",
		1000:    "1,000",
		35000:   "35,000",
		1234567: "1,234,567",
		-1200:   "-1,200",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatThousands(in), "input %d", in)
	}
}

func TestEllipsize(t *testing.T) {
	assert.Equal(t, "Boeing", Ellipsize("Boeing", 10))
	assert.Equal(t, "Boeing 7...", Ellipsize("Boeing 787-9 Dreamliner", 11))
	assert.Equal(t, "..", Ellipsize("Boeing", 2))
	assert.Equal(t, "Aé...", Ellipsize("Aérospatiale", 5))
}

func TestAltitudeLine(t *testing.T) {
	st := flight.Defaults()
	st.AltitudeFt = 35000
	st.VerticalRateFpm = -1200
	assert.Equal(t, "35,000 ft  v 1,200 fpm", altitudeLine(st))

	st.VerticalRateFpm = 0
	assert.Equal(t, "35,000 ft    0 fpm", altitudeLine(st))
}
