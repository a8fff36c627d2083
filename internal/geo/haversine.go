// Package geo computes great-circle distances for task discovery.
package geo

import "math"

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// DistanceKm returns the haversine distance between two points in
// kilometers, rounded to two decimal places.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	d := 2 * earthRadiusKm * math.Asin(math.Sqrt(a))

	return math.Round(d*100) / 100
}

// BoundingBox returns a lat/lng window that contains every point within
// radiusKm of the center. Used as a coarse index prefilter; the exact
// haversine check runs on the candidates it admits.
func BoundingBox(lat, lng, radiusKm float64) (minLat, maxLat, minLng, maxLng float64) {
	latDelta := toDegrees(radiusKm / earthRadiusKm)

	minLat = lat - latDelta
	maxLat = lat + latDelta

	// Longitude degrees shrink with latitude; near the poles the window
	// degenerates to the full circle.
	cosLat := math.Cos(toRadians(lat))
	if cosLat < 1e-6 {
		return minLat, maxLat, -180, 180
	}

	lngDelta := toDegrees(radiusKm / (earthRadiusKm * cosLat))

	return minLat, maxLat, lng - lngDelta, lng + lngDelta
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
