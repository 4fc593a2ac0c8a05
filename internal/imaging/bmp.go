package imaging

import (
	"encoding/binary"
	"fmt"
)

const (
	bmpFileHeaderLen = 14
	biRGB            = 0
	biBitfields      = 3

	// Intrinsic dimensions beyond this are rejected before any size arithmetic.
	maxIntrinsicDim = 1 << 14
)

type bmpHeader struct {
	width, height int
	topDown       bool
	bpp           int
	dataOffset    int
	stride        int
}

// parseBMPHeader reads the file and info headers of an uncompressed 24 or 32 bit BMP.
func parseBMPHeader(data []byte) (bmpHeader, error) {
	var h bmpHeader
	if len(data) < bmpFileHeaderLen+4 {
		return h, fmt.Errorf("%w: short bmp header", ErrCorrupt)
	}
	le := binary.LittleEndian

	h.dataOffset = int(le.Uint32(data[10:14]))
	infoLen := int(le.Uint32(data[14:18]))
	if infoLen < 40 {
		// OS/2 core headers are not produced by anything we talk to.
		return h, fmt.Errorf("%w: bmp info header of %d bytes", ErrUnsupported, infoLen)
	}
	if len(data) < bmpFileHeaderLen+infoLen {
		return h, fmt.Errorf("%w: short bmp info header", ErrCorrupt)
	}
	info := data[bmpFileHeaderLen : bmpFileHeaderLen+infoLen]

	w := int(int32(le.Uint32(info[4:8])))
	rawH := int(int32(le.Uint32(info[8:12])))
	planes := le.Uint16(info[12:14])
	h.bpp = int(le.Uint16(info[14:16]))
	compression := le.Uint32(info[16:20])

	if planes != 1 || w <= 0 || rawH == 0 {
		return h, fmt.Errorf("%w: bmp geometry %dx%d planes=%d", ErrCorrupt, w, rawH, planes)
	}
	h.width = w
	if rawH < 0 {
		h.topDown = true
		h.height = -rawH
	} else {
		h.height = rawH
	}
	if h.width > maxIntrinsicDim || h.height > maxIntrinsicDim {
		return h, ErrTooLarge
	}

	switch {
	case h.bpp == 24 && compression == biRGB:
	case h.bpp == 32 && compression == biRGB:
	case h.bpp == 32 && compression == biBitfields:
		masks, err := bmpMasks(data)
		if err != nil {
			return h, err
		}
		if masks != [3]uint32{0x00FF0000, 0x0000FF00, 0x000000FF} {
			return h, fmt.Errorf("%w: bmp channel masks %08x", ErrUnsupported, masks)
		}
	default:
		return h, fmt.Errorf("%w: bmp %d bpp compression %d", ErrUnsupported, h.bpp, compression)
	}

	h.stride = ((h.width*h.bpp + 31) / 32) * 4
	if h.dataOffset < bmpFileHeaderLen+infoLen || h.dataOffset+h.stride*h.height > len(data) {
		return h, fmt.Errorf("%w: bmp pixel data truncated", ErrCorrupt)
	}
	return h, nil
}

// bmpMasks returns the R, G, B bitfield masks, which follow a 40 byte header and are
// embedded in V4/V5 headers.
func bmpMasks(data []byte) ([3]uint32, error) {
	var m [3]uint32
	off := bmpFileHeaderLen + 40
	if off+12 > len(data) {
		return m, fmt.Errorf("%w: missing bmp bitfields", ErrCorrupt)
	}
	for i := range m {
		m[i] = binary.LittleEndian.Uint32(data[off+4*i:])
	}
	return m, nil
}

// decodeBMP box-filters every s×s block of source pixels into one output pixel.
// Source rows are addressed directly, so bottom-up files come out top row first and
// nothing larger than the output buffer is allocated.
func decodeBMP(data []byte, hdr bmpHeader, s, capW, capH int) *Buffer {
	outW, outH := hdr.width/s, hdr.height/s
	out := NewBuffer(outW, outH, capW, capH)
	bytesPP := hdr.bpp / 8
	n := uint32(s * s)

	row := func(y int) []byte {
		if !hdr.topDown {
			y = hdr.height - 1 - y
		}
		start := hdr.dataOffset + y*hdr.stride
		return data[start : start+hdr.stride]
	}

	for oy := 0; oy < outH; oy++ {
		for ox := 0; ox < outW; ox++ {
			var r, g, b uint32
			for dy := 0; dy < s; dy++ {
				src := row(oy*s + dy)
				for dx := 0; dx < s; dx++ {
					p := (ox*s + dx) * bytesPP
					b += uint32(src[p])
					g += uint32(src[p+1])
					r += uint32(src[p+2])
				}
			}
			out.Pix[oy*outW+ox] = RGB565(uint8(r/n), uint8(g/n), uint8(b/n))
		}
	}
	return out
}
