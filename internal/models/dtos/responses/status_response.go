package responses

import (
	"time"

	"airtracker/panel/internal/assets"
	"airtracker/panel/internal/flight"
	"airtracker/panel/internal/scheduler"
)

type ServiceStatus struct {
	Status  string `json:"status"`
	Details string `json:"details"`
}

// HealthCheckResponse is served on /healthCheck. Status is "ok" only when every
// enabled service is.
type HealthCheckResponse struct {
	Status   string                   `json:"status"`
	Services map[string]ServiceStatus `json:"services"`
	UpSince  time.Time                `json:"up_since"`
	Uptime   string                   `json:"uptime"`
}

// StateResponse is the current merged flight state plus ingestion counters.
type StateResponse struct {
	State    flight.State `json:"state"`
	Applied  uint64       `json:"documents_applied"`
	Changed  uint64       `json:"documents_changed"`
	Received uint64       `json:"inbox_received"`
	Dropped  uint64       `json:"inbox_dropped"`
}

// AssetsResponse describes both image slots without their pixels.
type AssetsResponse struct {
	Logo  assets.Record `json:"logo"`
	Photo assets.Record `json:"photo"`
	Stats assets.Stats  `json:"stats"`
}

// DisplayResponse reports the redraw loop and the surface it paints.
type DisplayResponse struct {
	Width     int             `json:"width"`
	Height    int             `json:"height"`
	Frames    int64           `json:"frames"`
	Scheduler scheduler.Stats `json:"scheduler"`
}
