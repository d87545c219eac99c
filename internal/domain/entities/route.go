package entities

// RouteSource identifies how a route estimate was produced.
type RouteSource string

const (
	RouteSourceOSRM     RouteSource = "osrm"
	RouteSourceEstimate RouteSource = "estimate"
)

// RouteEstimate is the itinerary returned to the navigation overlay. When the
// routing API is skipped or fails, Source is "estimate" and Geometry is empty.
type RouteEstimate struct {
	DistanceKm      float64     `json:"distance_km"`
	DurationMinutes float64     `json:"duration_minutes"`
	Mode            string      `json:"mode"`
	Source          RouteSource `json:"source"`
	// Geometry is an encoded polyline when OSRM produced the route.
	Geometry string `json:"geometry,omitempty"`
}
