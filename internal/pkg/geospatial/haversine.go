package geospatial

import "math"

const earthRadiusKm = 6371.0

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c * 1000
}

// DistanceFrom returns the distance in meters from (lat, lon) to a stop's
// stored coordinates, or false when the stop has none.
func DistanceFrom(lat, lon float64, stopLat, stopLon *float64) (float64, bool) {
	if stopLat == nil || stopLon == nil {
		return 0, false
	}
	return Haversine(lat, lon, *stopLat, *stopLon), true
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
