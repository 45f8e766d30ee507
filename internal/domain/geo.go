package domain

import "math"

const earthRadiusKm = 6371.0

// CalculateDistance returns the haversine distance in kilometers
func CalculateDistance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// DistanceBetween is nil unless both users shared a location. Rounded to 0.1 km.
func DistanceBetween(a, b *User) *float64 {
	if a == nil || b == nil || !a.HasLocation() || !b.HasLocation() {
		return nil
	}
	d := CalculateDistance(*a.LocationLat, *a.LocationLng, *b.LocationLat, *b.LocationLng)
	d = math.Round(d*10) / 10
	return &d
}
