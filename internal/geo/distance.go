// Package geo provides great-circle distance and travel-time estimation.
package geo

import (
	"math"
	"time"
)

const earthRadiusKm = 6371.0

// TravelMode identifies a transport mode for duration estimates.
type TravelMode string

const (
	ModeDriving TravelMode = "driving"
	ModeWalking TravelMode = "walking"
	ModeCycling TravelMode = "cycling"
)

// Average speeds used for straight-line fallback estimates. Driving assumes
// urban Malagasy traffic, not open-road speeds.
var modeSpeedsKmh = map[TravelMode]float64{
	ModeDriving: 24,
	ModeWalking: 5,
	ModeCycling: 15,
}

// Minimum plausible duration per mode, applied after the speed estimate.
var modeMinimums = map[TravelMode]time.Duration{
	ModeDriving: 3 * time.Minute,
	ModeWalking: 5 * time.Minute,
	ModeCycling: 4 * time.Minute,
}

// DistanceKm returns the Haversine great-circle distance between two points.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLon := degreesToRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(degreesToRadians(lat1))*math.Cos(degreesToRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// EstimateDuration returns a straight-line travel-time estimate for the given
// distance and mode. Unknown modes are treated as driving.
func EstimateDuration(distanceKm float64, mode TravelMode) time.Duration {
	speed, ok := modeSpeedsKmh[mode]
	if !ok {
		mode = ModeDriving
		speed = modeSpeedsKmh[ModeDriving]
	}

	d := time.Duration(distanceKm / speed * float64(time.Hour))
	if min := modeMinimums[mode]; d < min {
		return min
	}
	return d
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
