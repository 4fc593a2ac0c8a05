package main

import (
	"fmt"
	"image/png"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"airtracker/panel/internal/imaging"
)

var decodeFlags struct {
	in  string
	max string
	out string
}

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode an image the way the panel would and report the chosen scale",
	Example: `  airtracker decode --in plane.jpg --max 80x64 --out plane.png`,
	RunE:    runDecode,
}

func init() {
	f := decodeCmd.Flags()
	f.StringVar(&decodeFlags.in, "in", "", "JPEG, PNG or BMP input")
	f.StringVar(&decodeFlags.max, "max", "80x64", "bounding box WxH")
	f.StringVarP(&decodeFlags.out, "out", "o", "", "optional PNG of the decoded buffer")
	_ = decodeCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(decodeCmd)
}

func runDecode(cmd *cobra.Command, _ []string) error {
	maxW, maxH, err := parseBox(decodeFlags.max)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(decodeFlags.in)
	if err != nil {
		return err
	}

	res, err := imaging.Decoder{MaxInput: len(data)}.Decode(data, maxW, maxH)
	if err != nil {
		return fmt.Errorf("%s: %w", decodeFlags.in, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %dx%d  scale 1/%d  -> %dx%d\n",
		res.Format, res.SrcW, res.SrcH, res.Scale, res.Buffer.W, res.Buffer.H)

	if decodeFlags.out == "" {
		return nil
	}
	out, err := os.Create(decodeFlags.out)
	if err != nil {
		return err
	}
	if err := png.Encode(out, res.Buffer); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// parseBox reads "WxH".
func parseBox(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("box %q: want WxH", s)
	}
	w, errW := strconv.Atoi(ws)
	h, errH := strconv.Atoi(hs)
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("box %q: want positive WxH", s)
	}
	return w, h, nil
}
