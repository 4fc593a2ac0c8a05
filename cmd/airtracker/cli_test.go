package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBox(t *testing.T) {
	w, h, err := parseBox("80x64")
	require.NoError(t, err)
	assert.Equal(t, 80, w)
	assert.Equal(t, 64, h)

	w, h, err = parseBox("64X64")
	require.NoError(t, err)
	assert.Equal(t, 64, w)
	assert.Equal(t, 64, h)

	for _, bad := range []string{"", "80", "x64", "0x10", "-1x5", "axb"} {
		_, _, err := parseBox(bad)
		assert.Error(t, err, bad)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRenderCommand_WritesFrame(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "nearest.json")
	outPath := filepath.Join(dir, "frame.png")
	require.NoError(t, os.WriteFile(docPath, []byte(`{"origin_iata":"LAX","destination_iata":"JFK","eta_min":-1}`), 0o644))

	out, err := execute(t, "render", "--doc", docPath, "--out", outPath, "--tz", "UTC")
	require.NoError(t, err)
	assert.Contains(t, out, "LAX -> JFK  --:--")

	f, err := os.Open(outPath)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 320, 240), img.Bounds())
}

func TestDecodeCommand_ReportsScale(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "plane.png")
	src := image.NewRGBA(image.Rect(0, 0, 640, 480))
	for i := range src.Pix {
		src.Pix[i] = 0xFF
	}
	src.Set(0, 0, color.RGBA{A: 0xFF})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))
	require.NoError(t, os.WriteFile(in, buf.Bytes(), 0o644))

	outPath := filepath.Join(dir, "out.png")
	out, err := execute(t, "decode", "--in", in, "--max", "80x64", "--out", outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "640x480  scale 1/8  -> 80x60")

	_, err = os.Stat(outPath)
	assert.NoError(t, err)
}
