package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image/jpeg"
	"image/png"
)

// Format identifies a supported compressed image encoding.
type Format int

const (
	FormatUnknown Format = iota
	FormatJPEG
	FormatPNG
	FormatBMP
)

func (f Format) String() string {
	switch f {
	case FormatJPEG:
		return "jpeg"
	case FormatPNG:
		return "png"
	case FormatBMP:
		return "bmp"
	default:
		return "unknown"
	}
}

var (
	ErrUnknownFormat = errors.New("imaging: unrecognized image signature")
	ErrUnsupported   = errors.New("imaging: unsupported image variant")
	ErrTooLarge      = errors.New("imaging: image too large even at maximum downscale")
	ErrInputTooLarge = errors.New("imaging: compressed input exceeds size cap")
	ErrCorrupt       = errors.New("imaging: corrupt or truncated image data")
)

var (
	sigJPEG = []byte{0xFF, 0xD8, 0xFF}
	sigPNG  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}
	sigBMP  = []byte{'B', 'M'}
)

// Sniff classifies data by its leading signature bytes.
func Sniff(data []byte) (Format, error) {
	switch {
	case bytes.HasPrefix(data, sigJPEG):
		return FormatJPEG, nil
	case bytes.HasPrefix(data, sigPNG):
		return FormatPNG, nil
	case bytes.HasPrefix(data, sigBMP):
		return FormatBMP, nil
	}
	return FormatUnknown, ErrUnknownFormat
}

// Probe returns the format and intrinsic dimensions without decoding pixel data.
func Probe(data []byte) (Format, int, int, error) {
	f, err := Sniff(data)
	if err != nil {
		return f, 0, 0, err
	}

	switch f {
	case FormatBMP:
		hdr, err := parseBMPHeader(data)
		if err != nil {
			return f, 0, 0, err
		}
		return f, hdr.width, hdr.height, nil
	case FormatJPEG:
		cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return f, 0, 0, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return f, cfg.Width, cfg.Height, nil
	default:
		cfg, err := png.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return f, 0, 0, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return f, cfg.Width, cfg.Height, nil
	}
}
