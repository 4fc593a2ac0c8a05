package flight

import "unicode/utf8"

// ETAUnknown is shown whenever the producer did not send minutes-to-arrival.
const ETAUnknown = "--:--"

// Field bounds, in bytes, mirroring the fixed-size buffers of the panel firmware.
const (
	maxCodeLen  = 7
	maxNameLen  = 63
	maxPlaceLen = 31
	maxIdentLen = 15
	maxURLLen   = 512
)

// Airport is enrichment data for one end of the route.
type Airport struct {
	Name   string `json:"name"`
	City   string `json:"city"`
	Region string `json:"region"`
}

// State is the canonical snapshot of the nearest tracked aircraft.
//
// Exactly one State lives for the whole process inside a Store. It is a plain value so
// snapshots can be copied out for rendering without sharing memory with the writer.
type State struct {
	// Route
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	RemainingKm float64 `json:"remaining_km"`
	ETA         string  `json:"eta_local_hhmm"`

	OriginAirport      Airport `json:"origin_airport"`
	DestinationAirport Airport `json:"destination_airport"`

	// Identity
	Airline      string `json:"airline"`
	Aircraft     string `json:"aircraft"`
	ShortType    string `json:"short_type"`
	Callsign     string `json:"callsign"`
	Registration string `json:"registration"`

	// Kinematics
	DistanceKm      float64 `json:"distance_now_km"`
	GroundSpeedKmh  int     `json:"ground_speed_kmh"`
	AltitudeFt      int     `json:"altitude_ft"`
	VerticalRateFpm int     `json:"vertical_rate_fpm"`
	BearingDeg      int     `json:"bearing_deg"`
	Cardinal        string  `json:"direction_cardinal"`

	// Radar
	TrackDeg  int     `json:"track_deg"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// Capacity; zero means unknown.
	SoulsOnBoard int `json:"souls_on_board"`

	// Asset references; empty means none.
	LogoURL  string `json:"airline_logo_url"`
	PhotoURL string `json:"aircraft_photo_url"`
}

// Defaults returns the state shown before any telemetry has arrived.
func Defaults() State {
	return State{
		Origin:      "SEA",
		Destination: "SFO",
		RemainingKm: 412,
		ETA:         ETAUnknown,
		Airline:     "Unknown",
		Aircraft:    "Aircraft",
		Callsign:    "N/A",
		Cardinal:    "N",
	}
}

// Equal reports whether every field matches.
func (s State) Equal(o State) bool {
	return s == o
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
