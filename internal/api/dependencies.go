package api

import (
	"context"
	"io"

	"airtracker/panel/internal/assets"
	"airtracker/panel/internal/flight"
	"airtracker/panel/internal/scheduler"
)

// StateSource is the read side of flight.Store.
type StateSource interface {
	Snapshot() flight.State
	Counts() (applied, changed uint64)
}

// AssetSource is the read side of assets.Manager.
type AssetSource interface {
	Snapshot() assets.Snapshot
	Stats() assets.Stats
}

// FrameSource is the last flushed frame of the display surface.
type FrameSource interface {
	Width() int
	Height() int
	Frames() int64
	EncodePNG(w io.Writer) error
}

type SchedulerSource interface {
	Stats() scheduler.Stats
}

type InboxCounter interface {
	Counts() (received, dropped uint64)
}

// Checker probes one backing service for /healthCheck. It returns a short
// human-readable detail on success.
type Checker func(ctx context.Context) (string, error)

// Dependencies are the components the status handlers read from. Every field
// except State may be nil; the matching endpoint then answers 503.
type Dependencies struct {
	State     StateSource
	Assets    AssetSource
	Frame     FrameSource
	Scheduler SchedulerSource
	Inbox     InboxCounter
	Checks    map[string]Checker
}
