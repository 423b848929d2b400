package plan

import (
	"cmp"
	"slices"
	"strings"

	"github.com/yatri/yatri/internal/itinerary"
	"github.com/yatri/yatri/internal/profile"
	"github.com/yatri/yatri/internal/ranking"
)

// ParseVehicleTypes normalises raw filter values. Unknown values are
// dropped; an empty result means no restriction.
func ParseVehicleTypes(raw []string) []VehicleType {
	out := make([]VehicleType, 0, len(raw))
	for _, r := range raw {
		vt := VehicleType(strings.ToLower(strings.TrimSpace(r)))
		if vt == VehicleAll {
			return nil
		}
		if _, ok := vehicleModes[vt]; ok && !slices.Contains(out, vt) {
			out = append(out, vt)
		}
	}
	return out
}

// allowsAll reports whether types places no restriction on routes.
func allowsAll(types []VehicleType) bool {
	return len(types) == 0 || slices.Contains(types, VehicleAll)
}

// FilterByVehicle keeps routes whose non-walk legs all use an allowed mode.
// Walking is always allowed. The input is not modified.
func FilterByVehicle(routes []ranking.Route, types []VehicleType) []ranking.Route {
	if allowsAll(types) {
		return routes
	}

	allowed := make(map[itinerary.Mode]bool)
	for _, vt := range types {
		for _, m := range vehicleModes[vt] {
			allowed[m] = true
		}
	}

	out := make([]ranking.Route, 0, len(routes))
	for _, r := range routes {
		ok := true
		for _, leg := range r.Legs {
			m := itinerary.ParseMode(leg.Mode)
			if m != itinerary.ModeWalk && !allowed[m] {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, r)
		}
	}
	return out
}

// SortByPreference orders routes for pref. The sort is stable so equal
// routes keep their ranking order. The input is not modified.
func SortByPreference(routes []ranking.Route, pref profile.Preference) []ranking.Route {
	out := slices.Clone(routes)

	switch pref {
	case profile.PreferFastest:
		slices.SortStableFunc(out, func(a, b ranking.Route) int {
			return cmp.Compare(a.Duration, b.Duration)
		})
	case profile.PreferCheapest:
		slices.SortStableFunc(out, func(a, b ranking.Route) int {
			return cmp.Compare(a.Cost, b.Cost)
		})
	case profile.PreferFewest:
		slices.SortStableFunc(out, func(a, b ranking.Route) int {
			return cmp.Or(
				cmp.Compare(a.Transfers, b.Transfers),
				cmp.Compare(a.Duration, b.Duration),
			)
		})
	default:
		slices.SortStableFunc(out, func(a, b ranking.Route) int {
			return cmp.Compare(b.EcoScore, a.EcoScore)
		})
	}
	return out
}
