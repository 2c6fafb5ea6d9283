package sink

import (
	"fmt"
	"github.com/rotblauer/potholed/common"
	"github.com/rotblauer/potholed/types/roadevent"
	"github.com/shopspring/decimal"
)

func fixed(v float64, places int32) string {
	if !common.IsFinite(v) {
		return fmt.Sprintf("%v", v)
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}

// StatusLine renders the two-line human status for an event.
// offline marks a pothole that could not be delivered to the remote store.
func StatusLine(e *roadevent.ClassifiedEvent, offline bool) string {
	if e.IsPothole {
		if offline {
			return fmt.Sprintf("Pothole detected (offline)\nΔZ=%s", fixed(e.DeltaZ, 2))
		}
		return fmt.Sprintf("Pothole! ΔZ=%s\nLat=%s, Lon=%s",
			fixed(e.DeltaZ, 2), fixed(e.Lat, 5), fixed(e.Lon, 5))
	}
	gps := "GPS: Waiting..."
	if e.HasPosition() {
		gps = fmt.Sprintf("GPS: %s, %s", fixed(e.Lat, 5), fixed(e.Lon, 5))
	}
	return fmt.Sprintf("ΔZ=%s | Speed=%s km/h\n%s", fixed(e.DeltaZ, 2), fixed(e.SpeedKmh, 1), gps)
}
