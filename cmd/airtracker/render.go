package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"airtracker/panel/internal/assets"
	"airtracker/panel/internal/config"
	"airtracker/panel/internal/display"
	"airtracker/panel/internal/document"
	"airtracker/panel/internal/flight"
	"airtracker/panel/internal/scheduler"
)

var renderFlags struct {
	doc    string
	out    string
	tz     string
	fetch  bool
	width  int
	height int
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Merge one telemetry document and write the resulting frame as PNG",
	Example: `  airtracker render --doc nearest.json --out frame.png
  airtracker render --doc nearest.json --out frame.png --fetch`,
	RunE: runRender,
}

func init() {
	f := renderCmd.Flags()
	f.StringVar(&renderFlags.doc, "doc", "", "telemetry JSON document")
	f.StringVarP(&renderFlags.out, "out", "o", "frame.png", "PNG output path")
	f.StringVar(&renderFlags.tz, "tz", config.Default().Timezone, "time zone for the ETA")
	f.BoolVar(&renderFlags.fetch, "fetch", false, "download the logo and photo referenced by the document")
	f.IntVar(&renderFlags.width, "width", 320, "surface width")
	f.IntVar(&renderFlags.height, "height", 240, "surface height")
	_ = renderCmd.MarkFlagRequired("doc")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, _ []string) error {
	raw, err := os.ReadFile(renderFlags.doc)
	if err != nil {
		return err
	}
	doc, err := document.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", renderFlags.doc, err)
	}
	loc, err := time.LoadLocation(renderFlags.tz)
	if err != nil {
		return err
	}

	dirty := scheduler.NewDirty()
	store := flight.NewStore(loc, dirty)
	store.Apply(doc)
	st := store.Snapshot()

	mgr := assets.NewManager(assets.Options{Dirty: dirty})
	if renderFlags.fetch {
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		for _, kind := range assets.Kinds {
			url := st.LogoURL
			if kind == assets.KindPhoto {
				url = st.PhotoURL
			}
			if outcome, err := mgr.Ensure(ctx, kind, url); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s (%v)\n", kind, outcome, err)
			}
		}
	}

	fb := display.NewFramebuffer(renderFlags.width, renderFlags.height)
	if err := display.NewRenderer(fb).Render(st, mgr.Snapshot()); err != nil {
		return err
	}

	out, err := os.Create(renderFlags.out)
	if err != nil {
		return err
	}
	if err := fb.EncodePNG(out); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s  %s  wrote %s\n", st.Origin, st.Destination, st.ETA, renderFlags.out)
	return nil
}
