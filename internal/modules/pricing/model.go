// README: Pricing rate definitions for each vehicle class.
package pricing

const (
	ClassEconomy = "economy"
	ClassComfort = "comfort"
	ClassPremium = "premium"
)

// BaseFare is charged on every ride regardless of distance.
const BaseFare = 2.5

// defaultPerKm applies to any vehicle class missing from perKmRates.
const defaultPerKm = 1.2

var perKmRates = map[string]float64{
	ClassEconomy: 1.0,
	ClassComfort: 1.5,
	ClassPremium: 2.5,
}

type Rate struct {
	VehicleClass string
	BaseFare     float64
	PerKm        float64
}
