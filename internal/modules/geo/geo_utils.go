// Package geo contains pure geographic computation helpers.
package geo

import (
	"math"

	"github.com/golang/geo/s1"

	"ridematch/internal/types"
)

const EarthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance in kilometres between two
// points using the haversine formula in its atan2 form.
func DistanceKm(a, b types.Point) float64 {
	dLat := DegreesToRadians(b.Lat - a.Lat)
	dLng := DegreesToRadians(b.Lng - a.Lng)

	rLat1 := DegreesToRadians(a.Lat)
	rLat2 := DegreesToRadians(b.Lat)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(rLat1)*math.Cos(rLat2)*sinLng*sinLng
	// Rounding can push h marginally outside [0,1] near antipodal points.
	h = math.Min(1, math.Max(0, h))
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

// PathLengthKm sums DistanceKm over consecutive points.
func PathLengthKm(path []types.Point) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		total += DistanceKm(path[i-1], path[i])
	}
	return total
}

func DegreesToRadians(deg float64) float64 {
	return (s1.Angle(deg) * s1.Degree).Radians()
}

// SortByDistance performs a stable insertion sort (fine for small N) on any
// slice where each element exposes a distance via the accessor function.
func SortByDistance[T any](items []T, dist func(T) float64) {
	for i := 1; i < len(items); i++ {
		key := items[i]
		j := i - 1
		for j >= 0 && dist(items[j]) > dist(key) {
			items[j+1] = items[j]
			j--
		}
		items[j+1] = key
	}
}
