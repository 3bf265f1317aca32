package utils

import "math"

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two points in kilometres.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// BoundingBox returns a lat/lng rectangle that contains the radius around a point.
// It is used as a cheap SQL prefilter before the exact distance check.
// Longitude is clamped, not wrapped across the antimeridian, and the box can
// be too narrow near the poles.
func BoundingBox(lat, lng, radiusKm float64) (minLat, maxLat, minLng, maxLng float64) {
	dLat := radiusKm / 111.0
	minLat = math.Max(lat-dLat, -90)
	maxLat = math.Min(lat+dLat, 90)

	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat < 0.01 {
		return minLat, maxLat, -180, 180
	}
	dLng := radiusKm / (111.0 * cosLat)
	return minLat, maxLat, math.Max(lng-dLng, -180), math.Min(lng+dLng, 180)
}
