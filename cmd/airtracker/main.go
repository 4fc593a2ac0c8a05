// Command airtracker drives the nearest-aircraft panel: it ingests telemetry,
// keeps the airline logo and aircraft photo cached, and repaints the display.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "airtracker",
	Short: "Nearest-aircraft telemetry panel",
	Long: `airtracker subscribes to nearest-aircraft telemetry, merges it into one flight
state, fetches the airline logo and aircraft photo, and repaints a 320x240 panel.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
