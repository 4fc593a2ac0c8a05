package flight

import (
	"math"
	"time"
)

// KmPerNM is the exact international nautical mile in kilometres.
const KmPerNM = 1.852

var cardinals = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// NMToKm converts nautical miles to kilometres.
func NMToKm(nm float64) float64 { return nm * KmPerNM }

// KmToNM converts kilometres to nautical miles.
func KmToNM(km float64) float64 { return km / KmPerNM }

// KnotsToKmh converts knots to km/h rounded to the nearest integer.
func KnotsToKmh(kt float64) int { return int(math.Round(kt * KmPerNM)) }

// NormalizeBearing maps any bearing into [0, 360).
func NormalizeBearing(deg float64) float64 {
	b := math.Mod(deg, 360)
	if b < 0 {
		b += 360
	}
	// -1e-18 style inputs can round up to exactly 360 after the addition.
	if b >= 360 {
		b = 0
	}
	return b
}

// Cardinal quantizes a bearing into one of eight compass points.
// Sector boundaries belong to the clockwise sector, so 22.5 is NE and 337.5 is N.
func Cardinal(deg float64) string {
	b := NormalizeBearing(deg)
	idx := int(math.Floor((b+22.5)/45)) % 8
	return cardinals[idx]
}

// FormatETA returns the wall-clock arrival time now+minutes in loc as HH:MM.
func FormatETA(now time.Time, minutes float64, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	arrival := now.Add(time.Duration(math.Round(minutes*60)) * time.Second)
	return arrival.In(loc).Format("15:04")
}
