// Package lastmile quotes ride options for the first or last stretch of a
// trip, using per-provider tariffs with simulated surge and availability.
package lastmile

// Provider IDs.
const (
	ProviderAuto      = "auto_rickshaw"
	ProviderUberGo    = "uber_go"
	ProviderOlaMini   = "ola_micro"
	ProviderRapido    = "bike_taxi_rapido"
	ProviderUberMoto  = "bike_taxi_uber"
	ProviderOlaBike   = "bike_taxi_ola"
	ProviderYulu      = "yulu"
	defaultMaxOptions = 5
)

// Option is one bookable last-mile ride.
type Option struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Cost        int     `json:"cost"`
	TimeMinutes int     `json:"time"`
	DistanceKm  float64 `json:"distance"`
	Icon        string  `json:"icon"`
	Color       string  `json:"color"`
	DeepLink    string  `json:"deep_link,omitempty"`
	Rating      float64 `json:"rating"`
	ETA         string  `json:"eta"`
	Available   bool    `json:"available"`
}

// Rand is the random source used for availability, surge and timing draws.
// *math/rand/v2.Rand satisfies it.
type Rand interface {
	// Float64 returns a number in [0.0, 1.0).
	Float64() float64

	// IntN returns a number in [0, n).
	IntN(n int) int
}

// pricing selects how a provider's base cost is computed.
type pricing int

const (
	// pricingMetered charges a base fare plus a per-km rate.
	pricingMetered pricing = iota

	// pricingSlab covers the first baseDistanceKm with the base fare.
	pricingSlab

	// pricingTimed charges an unlock fee plus a per-minute rate.
	pricingTimed
)

type provider struct {
	id       string
	name     string
	icon     string
	color    string
	deepLink string
	pricing  pricing

	baseFare         float64
	perKm            float64
	perMinute        float64
	baseDistanceKm   float64
	timeChargePerMin float64
	timeFactor       float64
	availability     float64
	maxDistanceKm    float64

	// surge is the maximum surge multiplier; zero means never surged.
	surge float64

	// discount is the maximum discount fraction.
	discount float64
}

// Mumbai tariffs (MMRTA/STA 2025).
var providers = []provider{
	{
		id: ProviderAuto, name: "Auto Rickshaw", icon: "🛺", color: "#F59E0B",
		pricing: pricingMetered, baseFare: 28, perKm: 20.66,
		timeFactor: 1.5, availability: 0.9,
	},
	{
		id: ProviderUberGo, name: "Uber GO", icon: "🚗", color: "#1F2937",
		deepLink: "https://m.uber.com/",
		pricing:  pricingMetered, baseFare: 52.5, perKm: 20.66, timeChargePerMin: 1.58,
		timeFactor: 1.2, availability: 0.8, surge: 1.5, discount: 0.25,
	},
	{
		id: ProviderOlaMini, name: "Ola Mini", icon: "🚕", color: "#10B981",
		deepLink: "https://book.olacabs.com/",
		pricing:  pricingMetered, baseFare: 50, perKm: 20.66,
		timeFactor: 1.2, availability: 0.8, surge: 1.5, discount: 0.25,
	},
	{
		id: ProviderRapido, name: "Rapido Bike", icon: "🏍️", color: "#EF4444",
		deepLink: "https://rapido.bike/",
		pricing:  pricingSlab, baseFare: 15, baseDistanceKm: 1.5, perKm: 10.27,
		timeFactor: 0.7, availability: 0.85,
	},
	{
		id: ProviderUberMoto, name: "Uber Moto", icon: "🏍️", color: "#1F2937",
		deepLink: "https://m.uber.com/",
		pricing:  pricingSlab, baseFare: 15, baseDistanceKm: 1.5, perKm: 10.27,
		timeFactor: 0.7, availability: 0.8,
	},
	{
		id: ProviderOlaBike, name: "Ola Bike", icon: "🏍️", color: "#10B981",
		deepLink: "https://book.olacabs.com/",
		pricing:  pricingSlab, baseFare: 15, baseDistanceKm: 1.5, perKm: 10.27,
		timeFactor: 0.7, availability: 0.8,
	},
	{
		id: ProviderYulu, name: "Yulu Bike", icon: "🚲", color: "#06B6D4",
		deepLink: "https://www.yulu.bike/",
		pricing:  pricingTimed, baseFare: 5, perMinute: 3,
		timeFactor: 2.5, availability: 0.7, maxDistanceKm: 5,
	},
}

func lookupProvider(id string) (provider, bool) {
	for _, p := range providers {
		if p.id == id {
			return p, true
		}
	}
	return provider{}, false
}

// Fallback returns a fixed set of options for a typical 1.5 km ride.
func Fallback() []Option {
	return []Option{
		{
			ID: ProviderRapido, Name: "Rapido Bike", Cost: 15, TimeMinutes: 6, DistanceKm: 1.5,
			Icon: "🏍️", Color: "#EF4444", DeepLink: "https://rapido.bike/",
			Rating: 4.3, ETA: "5 min", Available: true,
		},
		{
			ID: ProviderAuto, Name: "Auto Rickshaw", Cost: 59, TimeMinutes: 8, DistanceKm: 1.5,
			Icon: "🛺", Color: "#F59E0B",
			Rating: 4.2, ETA: "3 min", Available: true,
		},
		{
			ID: ProviderUberGo, Name: "Uber GO", Cost: 85, TimeMinutes: 7, DistanceKm: 1.5,
			Icon: "🚗", Color: "#1F2937", DeepLink: "https://m.uber.com/",
			Rating: 4.4, ETA: "6 min", Available: true,
		},
		{
			ID: ProviderYulu, Name: "Yulu Bike", Cost: 23, TimeMinutes: 12, DistanceKm: 1.5,
			Icon: "🚲", Color: "#06B6D4", DeepLink: "https://www.yulu.bike/",
			Rating: 4.0, ETA: "4 min", Available: true,
		},
	}
}
