package station

import (
	"math"
	"strings"

	"github.com/tidwall/rtree"

	"github.com/yatri/yatri/internal/itinerary"
)

const (
	// searchScanLimit caps how many stations the browse search scans.
	searchScanLimit = 200

	// nearestStartRadius and nearestMaxRadius bound the nearest-station box
	// search, in degrees.
	nearestStartRadius = 0.01
	nearestMaxRadius   = 2.0
)

// Index is the read-only station reference set with a spatial index.
type Index struct {
	stations []Station
	tree     *rtree.RTree
	source   string
}

// NewIndex builds an index over stations. Stations is copied.
func NewIndex(stations []Station, source string) *Index {
	cp := make([]Station, len(stations))
	copy(cp, stations)

	tree := &rtree.RTree{}
	for i := range cp {
		pt := [2]float64{cp[i].Lat, cp[i].Lng}
		tree.Insert(pt, pt, i)
	}

	return &Index{
		stations: cp,
		tree:     tree,
		source:   source,
	}
}

// Source names where the stations were loaded from.
func (x *Index) Source() string {
	return x.source
}

// Len returns the number of stations.
func (x *Index) Len() int {
	return len(x.stations)
}

// All returns a copy of all stations in load order.
func (x *Index) All() []Station {
	out := make([]Station, len(x.stations))
	copy(out, x.stations)
	return out
}

// Nearest returns the station closest to c and its distance in kilometres.
// The second return is false when no station lies within the search radius.
func (x *Index) Nearest(c itinerary.Coordinate) (Station, float64, bool) {
	if len(x.stations) == 0 {
		return Station{}, 0, false
	}

	for radius := nearestStartRadius; radius <= nearestMaxRadius; radius *= 2 {
		if len(x.inBox(c, radius)) == 0 {
			continue
		}
		// A box hit is not necessarily the closest point, so widen to the
		// circumscribed square before picking by great-circle distance.
		best, bestDist := -1, math.Inf(1)
		for _, i := range x.inBox(c, radius*1.5) {
			if d := itinerary.DistanceKm(c, x.stations[i].Coordinate()); d < bestDist {
				best, bestDist = i, d
			}
		}
		return x.stations[best], bestDist, true
	}

	return Station{}, 0, false
}

func (x *Index) inBox(c itinerary.Coordinate, radius float64) []int {
	var hits []int
	x.tree.Search(
		[2]float64{c.Lat - radius, c.Lon - radius},
		[2]float64{c.Lat + radius, c.Lon + radius},
		func(_, _ [2]float64, data interface{}) bool {
			if i, ok := data.(int); ok {
				hits = append(hits, i)
			}
			return true
		},
	)
	return hits
}

// SearchResult is the result of a browse search.
type SearchResult struct {
	Stations []Station
	// Total is the number of matches before the limit was applied, or the
	// total number of loaded stations when no term was given.
	Total int
}

// Search returns stations whose name contains term or is contained in it,
// scanning only the first stations of the list. With an empty term it
// returns the first limit stations.
func (x *Index) Search(term string, limit int) SearchResult {
	if limit <= 0 {
		limit = 20
	}

	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		n := min(limit, len(x.stations))
		out := make([]Station, n)
		copy(out, x.stations[:n])
		return SearchResult{Stations: out, Total: len(x.stations)}
	}

	scan := x.stations
	if len(scan) > searchScanLimit {
		scan = scan[:searchScanLimit]
	}

	var found []Station
	for _, st := range scan {
		name := strings.ToLower(st.Name)
		if name == "" {
			continue
		}
		if strings.Contains(name, term) || strings.Contains(term, name) {
			found = append(found, st)
		}
	}

	total := len(found)
	if len(found) > limit {
		found = found[:limit]
	}
	return SearchResult{Stations: found, Total: total}
}
