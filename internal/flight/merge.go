package flight

import (
	"time"

	"airtracker/panel/internal/document"
)

// Apply merges one telemetry document into st and reports whether any field changed.
//
// Each field is handled on its own: a missing or mistyped key leaves the field alone.
// The exceptions are the keys whose absence the producer uses to say "no such data":
// eta_min, bearing_deg (for the cardinal direction) and the two asset URLs, which
// reset to their unknown value.
func Apply(doc document.Value, st *State, now time.Time, loc *time.Location) bool {
	before := *st

	applyRoute(doc, st, now, loc)
	applyIdentity(doc, st)
	applyKinematics(doc, st)
	applySouls(doc, st)
	applyLookups(doc, st)
	applyMedia(doc, st)

	return !before.Equal(*st)
}

func applyRoute(doc document.Value, st *State, now time.Time, loc *time.Location) {
	setString(doc, "origin_iata", &st.Origin, maxCodeLen)
	setString(doc, "destination_iata", &st.Destination, maxCodeLen)

	if nm, ok := doc.Number("remaining_nm"); ok {
		st.RemainingKm = NMToKm(nm)
	}

	// Never keep a stale ETA around.
	if mins, ok := doc.Number("eta_min"); ok && mins >= 0 {
		st.ETA = FormatETA(now, mins, loc)
	} else {
		st.ETA = ETAUnknown
	}
}

func applyIdentity(doc document.Value, st *State) {
	setString(doc, "callsign", &st.Callsign, maxIdentLen)
	setString(doc, "registration", &st.Registration, maxIdentLen)
}

func applyKinematics(doc document.Value, st *State) {
	if nm, ok := doc.Number("distance_nm"); ok {
		st.DistanceKm = NMToKm(nm)
	}
	if kt, ok := doc.Number("ground_speed_kt"); ok {
		st.GroundSpeedKmh = KnotsToKmh(kt)
	}
	setInt(doc, "altitude_ft", &st.AltitudeFt)
	setInt(doc, "vertical_rate_fpm", &st.VerticalRateFpm)
	setInt(doc, "track_deg", &st.TrackDeg)

	if v, ok := doc.Number("latitude"); ok {
		st.Latitude = v
	}
	if v, ok := doc.Number("longitude"); ok {
		st.Longitude = v
	}

	switch b, ok := doc.Number("bearing_deg"); {
	case ok:
		st.BearingDeg = int(NormalizeBearing(b))
		st.Cardinal = Cardinal(b)
	case !doc.Has("bearing_deg"):
		st.Cardinal = ""
	}
}

// applySouls picks the first non-zero of the explicit count, the explicit maximum and
// the type's seat capacity. When none of the sources is present the field is kept.
func applySouls(doc document.Value, st *State) {
	sources := []func() (int, bool){
		func() (int, bool) { return doc.Int("souls_on_board") },
		func() (int, bool) { return doc.Int("souls_on_board_max") },
		func() (int, bool) {
			ac, ok := lookup(doc, "aircraft")
			if !ok {
				return 0, false
			}
			return ac.Int("seats_max")
		},
	}

	seen := false
	for _, src := range sources {
		n, ok := src()
		if !ok {
			continue
		}
		seen = true
		if n > 0 {
			st.SoulsOnBoard = n
			return
		}
	}
	if seen {
		st.SoulsOnBoard = 0
	}
}

func applyLookups(doc document.Value, st *State) {
	if al, ok := lookup(doc, "airline"); ok {
		setString(al, "name", &st.Airline, maxNameLen)
	}
	if ac, ok := lookup(doc, "aircraft"); ok {
		setString(ac, "name", &st.Aircraft, maxNameLen)
		setString(ac, "icao", &st.ShortType, maxIdentLen)
	}
	if ap, ok := lookup(doc, "origin_airport"); ok {
		applyAirport(ap, &st.OriginAirport)
	}
	if ap, ok := lookup(doc, "destination_airport"); ok {
		applyAirport(ap, &st.DestinationAirport)
	}
}

func applyAirport(ap document.Value, dst *Airport) {
	setString(ap, "name", &dst.Name, maxNameLen)
	setString(ap, "city", &dst.City, maxPlaceLen)
	setString(ap, "region", &dst.Region, maxPlaceLen)
}

// applyMedia resolves both asset URLs. An empty result clears the URL, which in turn
// makes the asset manager drop its cached reference.
func applyMedia(doc document.Value, st *State) {
	st.LogoURL = firstURL(
		func() (string, bool) { return doc.String("airline_logo_url") },
		func() (string, bool) {
			al, ok := lookup(doc, "airline")
			if !ok {
				return "", false
			}
			return al.String("logo_url")
		},
	)

	media, _ := doc.Object("media")
	st.PhotoURL = firstURL(
		func() (string, bool) { return media.String("plane_image") },
		func() (string, bool) {
			thumbs, ok := media.Array("thumbnails")
			if !ok {
				return "", false
			}
			first, ok := thumbs.Index(0)
			if !ok {
				return "", false
			}
			return first.AsString()
		},
	)
}

func firstURL(candidates ...func() (string, bool)) string {
	for _, c := range candidates {
		if u, ok := c(); ok && u != "" && len(u) <= maxURLLen {
			return u
		}
	}
	return ""
}

func lookup(doc document.Value, name string) (document.Value, bool) {
	lk, ok := doc.Object("lookups")
	if !ok {
		return document.Value{}, false
	}
	return lk.Object(name)
}

func setString(v document.Value, key string, dst *string, max int) {
	if s, ok := v.String(key); ok {
		*dst = truncate(s, max)
	}
}

func setInt(v document.Value, key string, dst *int) {
	if n, ok := v.Int(key); ok {
		*dst = n
	}
}
