package recommend

import (
	"math"

	"ridematch/internal/modules/geo"
	"ridematch/internal/modules/profile"
	"ridematch/internal/modules/ride"
)

// ContentBased compares r with the rider's own history averages. With no
// history it returns NeutralScore.
func ContentBased(r ride.Ride, p profile.RiderProfile, history []profile.HistoryEntry) float64 {
	if len(history) == 0 {
		return NeutralScore
	}
	score := contentVehicleWeight*vehicleMatch(r.VehicleClass, history) +
		contentPriceWeight*priceRangeMatch(r.Price, history) +
		contentDistanceWeight*distanceMatch(rideDistanceKm(r), history) +
		contentRatingWeight*ratingAlignment(r.Driver.Rating, p, history)
	return clamp(score*100, 0, 100)
}

func vehicleMatch(class string, history []profile.HistoryEntry) float64 {
	var n int
	for _, e := range history {
		if e.VehicleClass == class {
			n++
		}
	}
	return float64(n) / float64(len(history))
}

// priceRangeMatch is 1 inside the historical price range and decays with
// the gap to the nearest bound, relative to the average price.
func priceRangeMatch(price float64, history []profile.HistoryEntry) float64 {
	lo, hi := history[0].Price, history[0].Price
	for _, e := range history[1:] {
		lo = math.Min(lo, e.Price)
		hi = math.Max(hi, e.Price)
	}
	if price >= lo && price <= hi {
		return 1
	}
	avg := averagePrice(history)
	if avg <= 0 {
		return 0
	}
	gap := math.Min(math.Abs(price-lo), math.Abs(price-hi))
	return math.Max(0, 1-gap/avg)
}

func distanceMatch(km float64, history []profile.HistoryEntry) float64 {
	var sum float64
	for _, e := range history {
		sum += geo.DistanceKm(e.Pickup, e.Dropoff)
	}
	avg := sum / float64(len(history))
	return math.Max(0, 1-math.Abs(km-avg)/math.Max(avg, 1))
}

func ratingAlignment(driverRating float64, p profile.RiderProfile, history []profile.HistoryEntry) float64 {
	var sum float64
	var n int
	if len(p.RatingsGiven) > 0 {
		for _, v := range p.RatingsGiven {
			sum += v
		}
		n = len(p.RatingsGiven)
	} else {
		for _, e := range history {
			sum += e.RiderRating
		}
		n = len(history)
	}
	return math.Max(0, 1-math.Abs(driverRating-sum/float64(n))/5)
}

func rideDistanceKm(r ride.Ride) float64 {
	if r.DistanceKm > 0 {
		return r.DistanceKm
	}
	return geo.DistanceKm(r.Pickup, r.Dropoff)
}
