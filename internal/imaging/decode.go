package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

// Decoder turns compressed bytes into a Buffer that fits a target box.
type Decoder struct {
	// MaxInput caps the compressed size. Zero means no cap.
	MaxInput int
}

// Result describes a successful decode.
type Result struct {
	Format     Format
	SrcW, SrcH int
	Scale      int
	Buffer     *Buffer
}

// Decode decodes data into at most maxW×maxH pixels, choosing the smallest
// power-of-two downscale that fits. All failures are returned as errors wrapping one
// of the package sentinels.
func (d Decoder) Decode(data []byte, maxW, maxH int) (*Result, error) {
	if d.MaxInput > 0 && len(data) > d.MaxInput {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrInputTooLarge, len(data), d.MaxInput)
	}

	f, w, h, err := Probe(data)
	if err != nil {
		return nil, err
	}
	if w > maxIntrinsicDim || h > maxIntrinsicDim {
		return nil, ErrTooLarge
	}
	s, err := SelectScale(w, h, maxW, maxH)
	if err != nil {
		return nil, fmt.Errorf("%s %dx%d into %dx%d: %w", f, w, h, maxW, maxH, err)
	}

	res := &Result{Format: f, SrcW: w, SrcH: h, Scale: s}

	if f == FormatBMP {
		hdr, err := parseBMPHeader(data)
		if err != nil {
			return nil, err
		}
		res.Buffer = decodeBMP(data, hdr, s, maxW, maxH)
		return res, nil
	}

	var src image.Image
	if f == FormatJPEG {
		src, err = jpeg.Decode(bytes.NewReader(data))
	} else {
		src, err = png.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, f, err)
	}

	res.Buffer = downscale(src, s, maxW, maxH)
	return res, nil
}

// downscale resamples src by 1/s and packs the result as RGB565.
func downscale(src image.Image, s, capW, capH int) *Buffer {
	sb := src.Bounds()
	outW, outH := sb.Dx()/s, sb.Dy()/s

	dst := image.NewRGBA(image.Rect(0, 0, outW, outH))
	if s == 1 {
		draw.Draw(dst, dst.Bounds(), src, sb.Min, draw.Src)
	} else {
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, image.Rect(sb.Min.X, sb.Min.Y, sb.Min.X+outW*s, sb.Min.Y+outH*s), draw.Src, nil)
	}

	out := NewBuffer(outW, outH, capW, capH)
	for y := 0; y < outH; y++ {
		row := dst.Pix[y*dst.Stride:]
		for x := 0; x < outW; x++ {
			p := row[x*4:]
			out.Pix[y*outW+x] = RGB565(p[0], p[1], p[2])
		}
	}
	return out
}
