package geofence

import "math"

// EarthRadiusMeters is the mean Earth radius used by [Distance].
const EarthRadiusMeters = 6371000.0

const degreesToRadians = math.Pi / 180.0

// Distance returns the great-circle distance in meters between a and b using the haversine formula.
func Distance(a, b Coordinate) float64 {
	lat1 := a.Latitude * degreesToRadians
	lat2 := b.Latitude * degreesToRadians
	dLat := (b.Latitude - a.Latitude) * degreesToRadians
	dLon := (b.Longitude - a.Longitude) * degreesToRadians

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon

	return 2 * EarthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
