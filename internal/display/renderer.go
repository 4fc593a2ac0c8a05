package display

import (
	"fmt"
	"image"
	"strconv"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"airtracker/panel/internal/assets"
	"airtracker/panel/internal/flight"
	"airtracker/panel/internal/imaging"
)

// Panel colours, RGB565.
const (
	Black     uint16 = 0x0000
	White     uint16 = 0xFFFF
	LightGrey uint16 = 0xC618
)

const (
	margin    = 4
	chunkRows = 8
)

// Box is a rectangle on the panel reserved for an image.
type Box struct {
	X, Y, W, H int
}

// Overview layout, in landscape panel coordinates.
var (
	LogoBox  = Box{X: 8, Y: 52, W: 64, H: 64}
	PhotoBox = Box{X: 232, Y: 56, W: 80, H: 64}
)

const (
	textX        = 80
	aircraftY    = 56
	callsignY    = 82
	placeholder  = "Unknown"
	unknownSouls = "--"
)

// Renderer paints the overview screen. Every call repaints the whole surface.
type Renderer struct {
	surface Surface
	face    font.Face
}

func NewRenderer(s Surface) *Renderer {
	return &Renderer{surface: s, face: basicfont.Face7x13}
}

// Render draws st and the renderable assets, then flushes when the surface buffers.
func (r *Renderer) Render(st flight.State, a assets.Snapshot) error {
	w, h := r.surface.Width(), r.surface.Height()
	if err := r.surface.SetWindow(0, 0, w, h); err != nil {
		return err
	}
	if err := r.surface.FillRegion(0, 0, w, h, []uint16{Black}); err != nil {
		return err
	}

	lineH := r.lineHeight()
	steps := []func() error{
		// Header: route on the left, remaining distance and ETA on the right.
		func() error { return r.text(margin, margin, routeLine(st), White) },
		func() error { return r.textRight(w-margin, margin, headerRight(st), White) },

		func() error { return r.logo(a.Logo) },
		func() error {
			maxChars := (PhotoBox.X - textX - margin) / r.advance()
			return r.text(textX, aircraftY, Ellipsize(aircraftLine(st), maxChars), White)
		},
		func() error {
			if st.Callsign == "" {
				return nil
			}
			return r.text(textX, callsignY, "Callsign: "+st.Callsign, LightGrey)
		},
		func() error { return r.image(PhotoBox, a.Photo) },

		// Bottom rows, anchored to the corners.
		func() error { return r.text(margin, h-margin-lineH, kinematicsLine(st), White) },
		func() error { return r.text(margin, h-margin-2*lineH-4, soulsLine(st), White) },
		func() error { return r.textRight(w-margin, h-margin-2*lineH-4, altitudeLine(st), White) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	if f, ok := r.surface.(Flusher); ok {
		return f.Flush()
	}
	return nil
}

func (r *Renderer) logo(rec assets.Record) error {
	if rec.Renderable() {
		return r.image(LogoBox, rec)
	}
	tw := font.MeasureString(r.face, placeholder).Ceil()
	return r.text(LogoBox.X+(LogoBox.W-tw)/2, LogoBox.Y+(LogoBox.H-r.lineHeight())/2, placeholder, LightGrey)
}

// image centres the decoded buffer in box and streams it in strips, clipped to the box.
func (r *Renderer) image(box Box, rec assets.Record) error {
	if !rec.Renderable() {
		return nil
	}
	buf := rec.Image
	ox := box.X + (box.W-buf.W)/2
	oy := box.Y + (box.H-buf.H)/2

	if err := r.surface.SetWindow(box.X, box.Y, box.W, box.H); err != nil {
		return err
	}
	for c := range buf.Chunks(chunkRows) {
		if err := r.surface.FillRegion(ox, oy+c.Y, c.W, c.H, c.Pix); err != nil {
			return err
		}
	}
	return r.surface.SetWindow(0, 0, r.surface.Width(), r.surface.Height())
}

func (r *Renderer) textRight(right, y int, s string, fg uint16) error {
	return r.text(right-font.MeasureString(r.face, s).Ceil(), y, s, fg)
}

// text rasterises s on a black background with its top-left corner at (x, y).
func (r *Renderer) text(x, y int, s string, fg uint16) error {
	if s == "" {
		return nil
	}
	tw := font.MeasureString(r.face, s).Ceil()
	th := r.lineHeight()

	img := image.NewRGBA(image.Rect(0, 0, tw, th))
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(imaging.Expand565(fg)),
		Face: r.face,
		Dot:  fixed.P(0, r.face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(s)

	pix := make([]uint16, tw*th)
	for i := range pix {
		p := img.Pix[i*4:]
		pix[i] = imaging.RGB565(p[0], p[1], p[2])
	}
	return r.surface.FillRegion(x, y, tw, th, pix)
}

func (r *Renderer) lineHeight() int {
	return r.face.Metrics().Height.Ceil()
}

func (r *Renderer) advance() int {
	adv, _ := r.face.GlyphAdvance('M')
	return max(adv.Ceil(), 1)
}

func routeLine(st flight.State) string {
	dest := st.Destination
	if dest == "" {
		dest = placeholder
	}
	return st.Origin + " -> " + dest
}

func headerRight(st flight.State) string {
	return fmt.Sprintf("%.0f km | ETA %s", st.RemainingKm, st.ETA)
}

func aircraftLine(st flight.State) string {
	if st.Aircraft == "" {
		return st.Airline
	}
	return st.Aircraft + " - " + st.Airline
}

func kinematicsLine(st flight.State) string {
	return fmt.Sprintf("%.1f km - %s | %d km/h", st.DistanceKm, st.Cardinal, st.GroundSpeedKmh)
}

func soulsLine(st flight.State) string {
	if st.SoulsOnBoard <= 0 {
		return "Souls " + unknownSouls
	}
	return "Souls " + strconv.Itoa(st.SoulsOnBoard)
}

func altitudeLine(st flight.State) string {
	arrow := " "
	switch {
	case st.VerticalRateFpm > 0:
		arrow = "^"
	case st.VerticalRateFpm < 0:
		arrow = "v"
	}
	vs := st.VerticalRateFpm
	if vs < 0 {
		vs = -vs
	}
	return FormatThousands(st.AltitudeFt) + " ft  " + arrow + " " + FormatThousands(vs) + " fpm"
}

// FormatThousands renders v with comma separators: 35000 -> "35,000".
func FormatThousands(v int) string {
	s := strconv.Itoa(v)
	neg := false
	if s[0] == '-' {
		neg = true
		s = s[1:]
	}
	out := make([]byte, 0, len(s)+len(s)/3+1)
	if neg {
		out = append(out, '-')
	}
	for i := 0; i < len(s); i++ {
		out = append(out, s[i])
		if rem := len(s) - i - 1; rem > 0 && rem%3 == 0 {
			out = append(out, ',')
		}
	}
	return string(out)
}

// Ellipsize shortens s to at most n runes, ending in "..." when cut.
func Ellipsize(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	if n <= 3 {
		return "..."[:max(n, 0)]
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}
