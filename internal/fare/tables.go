package fare

import (
	"strings"
	"unicode"
)

// ClassFares holds suburban rail fares per travel class, in rupees.
type ClassFares struct {
	Second int `json:"2nd_class"`
	First  int `json:"1st_class"`
	AC     int `json:"ac_local"`
}

// StationPair is an ordered pair of normalized station names.
type StationPair struct {
	From string
	To   string
}

// RailLine is one suburban line with its station-pair fare table.
type RailLine struct {
	Code     string
	Name     string
	Stations []string
	Fares    map[StationPair]ClassFares
}

// DistanceBand is a distance-based default fare used when no station pair
// matches. A band applies to distances up to and including MaxKm.
type DistanceBand struct {
	Name  string
	MaxKm float64
	Fares ClassFares
}

// Tables is the immutable rail fare reference data.
type Tables struct {
	// Lines are tried in order.
	Lines []RailLine

	// Bands are tried in order; the last band catches everything above.
	Bands []DistanceBand

	// Fallback is used when the distance is unknown.
	Fallback ClassFares
}

// DefaultTables returns the Mumbai suburban fare tables.
func DefaultTables() Tables {
	return Tables{
		Lines: []RailLine{
			{
				Code: "WR",
				Name: "Western Railway",
				Stations: []string{
					"Churchgate", "Marine Lines", "Charni Road", "Grant Road",
					"Mumbai Central", "Mahalaxmi", "Lower Parel", "Prabhadevi",
					"Dadar", "Matunga", "Mahim", "Bandra", "Khar Road", "Santacruz",
					"Vile Parle", "Andheri", "Jogeshwari", "Ram Mandir", "Goregaon",
					"Malad", "Kandivali", "Borivali", "Dahisar", "Mira Road", "Bhayandar",
					"Naigaon", "Vasai Road", "Nallasopara", "Virar",
				},
				Fares: map[StationPair]ClassFares{
					{"Churchgate", "Dadar"}:    {10, 40, 50},
					{"Churchgate", "Andheri"}:  {15, 60, 70},
					{"Churchgate", "Borivali"}: {20, 85, 95},
					{"Churchgate", "Virar"}:    {25, 100, 115},
					{"Dadar", "Andheri"}:       {10, 35, 45},
					{"Dadar", "Borivali"}:      {15, 60, 70},
					{"Dadar", "Virar"}:         {20, 85, 95},
					{"Andheri", "Borivali"}:    {10, 30, 40},
					{"Andheri", "Virar"}:       {15, 55, 65},
					{"Borivali", "Virar"}:      {10, 25, 35},
				},
			},
			{
				Code: "CR",
				Name: "Central Railway",
				Stations: []string{
					"CSMT", "Masjid", "Sandhurst Road", "Dockyard Road", "Reay Road",
					"Cotton Green", "Sewri", "Wadala", "King Circle", "Mahim",
					"Dadar", "Matunga", "Sion", "Kurla", "Vidyavihar", "Ghatkopar",
					"Vikhroli", "Kanjurmarg", "Bhandup", "Nahur", "Mulund",
					"Thane", "Kalwa", "Mumbra", "Diva", "Kopar", "Dombivli",
					"Thakurli", "Kalyan", "Vithalwadi", "Ulhasnagar", "Ambernath",
				},
				Fares: map[StationPair]ClassFares{
					{"CSMT", "Dadar"}:   {5, 25, 35},
					{"CSMT", "Kurla"}:   {10, 50, 70},
					{"CSMT", "Thane"}:   {15, 85, 95},
					{"CSMT", "Kalyan"}:  {20, 100, 105},
					{"Dadar", "Kurla"}:  {5, 20, 30},
					{"Dadar", "Thane"}:  {10, 45, 55},
					{"Dadar", "Kalyan"}: {15, 70, 80},
					{"Kurla", "Thane"}:  {10, 35, 45},
					{"Kurla", "Kalyan"}: {15, 60, 70},
					{"Thane", "Kalyan"}: {10, 30, 40},
				},
			},
			{
				Code: "HR",
				Name: "Harbour Line",
				Stations: []string{
					"CSMT", "Dockyard Road", "Reay Road", "Cotton Green", "Sewri",
					"Wadala", "King Circle", "Kurla", "Chunabhatti", "Tilak Nagar",
					"Chembur", "Govandi", "Mankhurd", "Vashi", "Sanpada",
					"Juinagar", "Nerul", "Seawoods", "Belapur", "Kharghar",
					"Mansarovar", "Khandeshwar", "Panvel",
				},
				Fares: map[StationPair]ClassFares{
					{"CSMT", "Panvel"}:  {20, 100, 110},
					{"CSMT", "Vashi"}:   {15, 70, 80},
					{"CSMT", "Nerul"}:   {18, 85, 95},
					{"Kurla", "Panvel"}: {15, 75, 85},
					{"Kurla", "Vashi"}:  {10, 50, 60},
					{"Vashi", "Panvel"}: {10, 35, 45},
				},
			},
		},
		Bands: []DistanceBand{
			{Name: "short", MaxKm: 5, Fares: ClassFares{5, 25, 35}},
			{Name: "medium", MaxKm: 15, Fares: ClassFares{10, 50, 70}},
			{Name: "long", MaxKm: 30, Fares: ClassFares{15, 75, 85}},
			{Name: "very_long", Fares: ClassFares{20, 100, 110}},
		},
		Fallback: ClassFares{10, 50, 70},
	}
}

// RailFareSource names where a rail fare came from.
type RailFareSource string

const (
	SourceStationPair RailFareSource = "station_pair"
	SourceDistance    RailFareSource = "distance"
	SourceFallback    RailFareSource = "fallback"
)

// RailFare looks up the class fares between two stations. Pairs are tried
// in both directions on each line in turn, then the distance bands, then the
// fallback when distanceKm is not positive.
func (t Tables) RailFare(from, to string, distanceKm float64) (ClassFares, RailFareSource) {
	from = NormalizeStationName(from)
	to = NormalizeStationName(to)

	for _, line := range t.Lines {
		if f, ok := line.Fares[StationPair{from, to}]; ok {
			return f, SourceStationPair
		}
		if f, ok := line.Fares[StationPair{to, from}]; ok {
			return f, SourceStationPair
		}
	}

	if distanceKm > 0 && len(t.Bands) > 0 {
		for _, b := range t.Bands[:len(t.Bands)-1] {
			if distanceKm <= b.MaxKm {
				return b.Fares, SourceDistance
			}
		}
		return t.Bands[len(t.Bands)-1].Fares, SourceDistance
	}

	return t.Fallback, SourceFallback
}

var stationAliases = map[string]string{
	"CST":                                  "CSMT",
	"CSMT":                                 "CSMT",
	"CHHATRAPATI SHIVAJI TERMINUS":         "CSMT",
	"CHHATRAPATI SHIVAJI MAHARAJ TERMINUS": "CSMT",
	"VT":                                   "CSMT",
	"VICTORIA TERMINUS":                    "CSMT",
	"MUMBAI CENTRAL":                       "Mumbai Central",
	"BCT":                                  "Mumbai Central",
	"BOMBAY CENTRAL":                       "Mumbai Central",
	"CHURCHGATE":                           "Churchgate",
	"DADAR":                                "Dadar",
	"ANDHERI":                              "Andheri",
	"BORIVALI":                             "Borivali",
	"VIRAR":                                "Virar",
	"KURLA":                                "Kurla",
	"THANE":                                "Thane",
	"KALYAN":                               "Kalyan",
	"PANVEL":                               "Panvel",
	"VASHI":                                "Vashi",
	"NERUL":                                "Nerul",
}

// NormalizeStationName maps known aliases onto the fare-table spelling and
// title-cases anything else.
func NormalizeStationName(name string) string {
	if strings.TrimSpace(name) == "" {
		return ""
	}
	if alias, ok := stationAliases[strings.ToUpper(strings.TrimSpace(name))]; ok {
		return alias
	}
	return titleCase(name)
}

// titleCase upper-cases every letter that follows a non-letter and
// lower-cases the rest.
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}
