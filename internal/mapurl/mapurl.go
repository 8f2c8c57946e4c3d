// Package mapurl builds the external map-viewer URL that replaces
// turn-by-turn directions: the planner hands the user a link instead of
// implementing its own navigation.
package mapurl

import (
	"fmt"
	"math"
	"strings"
)

// Point is one coordinate in a stop sequence.
type Point struct {
	Lat float64
	Lon float64
}

func (p Point) valid() bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lon) && (p.Lat != 0 || p.Lon != 0)
}

// Build assembles a Google Maps directions URL from a start point and an
// ordered list of stops. With returnHome, the destination is the start
// point and every stop becomes a waypoint; without it, the last stop is
// the destination and the rest are waypoints. Invalid coordinates are
// filtered out before assembly. An empty stop list (after filtering)
// returns an empty string.
func Build(start Point, stops []Point, returnHome bool) string {
	valid := make([]Point, 0, len(stops))
	for _, s := range stops {
		if s.valid() {
			valid = append(valid, s)
		}
	}
	if len(valid) == 0 {
		return ""
	}

	var destination Point
	var waypoints []Point

	if returnHome {
		destination = start
		waypoints = valid
	} else {
		destination = valid[len(valid)-1]
		waypoints = valid[:len(valid)-1]
	}

	u := fmt.Sprintf(
		"https://www.google.com/maps/dir/?api=1&origin=%s&destination=%s&travelmode=driving",
		coord(start), coord(destination),
	)
	if len(waypoints) > 0 {
		parts := make([]string, len(waypoints))
		for i, w := range waypoints {
			parts[i] = coord(w)
		}
		u += "&waypoints=" + strings.Join(parts, "|")
	}
	return u
}

func coord(p Point) string {
	return fmt.Sprintf("%g,%g", p.Lat, p.Lon)
}
