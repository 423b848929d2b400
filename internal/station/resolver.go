package station

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/yatri/yatri/internal/itinerary"
)

// minAreaWordLength is the shortest query word that may match inside an
// area name on its own.
const minAreaWordLength = 3

// ResolverConfig holds configuration for the resolver.
type ResolverConfig struct {
	// Stations is the reference list. It is copied and never mutated.
	Stations []Station

	// Areas is the approximate-location table (default: DefaultAreas).
	Areas []Area

	// Logger for resolver operations.
	Logger zerolog.Logger
}

// Resolver maps free-text station names to coordinates.
// It is safe for concurrent use.
type Resolver struct {
	stations []Station
	areas    []Area
	logger   zerolog.Logger
}

// NewResolver creates a new resolver over the given reference data.
func NewResolver(cfg ResolverConfig) *Resolver {
	areas := cfg.Areas
	if areas == nil {
		areas = DefaultAreas()
	}

	stations := make([]Station, len(cfg.Stations))
	copy(stations, cfg.Stations)

	return &Resolver{
		stations: stations,
		areas:    areas,
		logger:   cfg.Logger,
	}
}

// Resolve returns the coordinates for query, or ErrNotFound.
func (r *Resolver) Resolve(query string) (itinerary.Coordinate, error) {
	m, err := r.Lookup(query)
	if err != nil {
		return itinerary.Coordinate{}, err
	}
	return m.Coordinate, nil
}

// Lookup resolves query using, in order: exact name, substring in either
// direction (shortest name wins), token overlap, then the area table.
func (r *Resolver) Lookup(query string) (*Match, error) {
	term := strings.ToLower(strings.TrimSpace(query))
	if term == "" {
		return nil, ErrNotFound
	}

	var (
		partial     *Station
		partialLen  int
		tokenHits   []tokenHit
		searchWords = splitWords(term)
	)

	for i := range r.stations {
		st := &r.stations[i]
		name := strings.ToLower(strings.TrimSpace(st.Name))
		if name == "" {
			continue
		}

		if name == term {
			r.logger.Debug().Str("query", query).Str("station", st.Name).Msg("exact station match")
			return &Match{Name: st.Name, Coordinate: st.Coordinate(), Kind: MatchExact, Score: 1}, nil
		}

		if strings.Contains(name, term) || strings.Contains(term, name) {
			if partial == nil || len(name) < partialLen {
				partial = st
				partialLen = len(name)
			}
		}

		if matched := countTokenMatches(searchWords, splitWords(name)); matched > 0 {
			tokenHits = append(tokenHits, tokenHit{
				station: st,
				score:   float64(matched) / float64(len(searchWords)),
				matched: matched,
			})
		}
	}

	if partial != nil {
		r.logger.Debug().Str("query", query).Str("station", partial.Name).Msg("partial station match")
		return &Match{Name: partial.Name, Coordinate: partial.Coordinate(), Kind: MatchPartial, Score: 1}, nil
	}

	if len(tokenHits) > 0 {
		sort.SliceStable(tokenHits, func(i, j int) bool {
			if tokenHits[i].score != tokenHits[j].score {
				return tokenHits[i].score > tokenHits[j].score
			}
			return tokenHits[i].matched > tokenHits[j].matched
		})
		best := tokenHits[0]
		r.logger.Debug().
			Str("query", query).
			Str("station", best.station.Name).
			Float64("score", best.score).
			Msg("token station match")
		return &Match{Name: best.station.Name, Coordinate: best.station.Coordinate(), Kind: MatchToken, Score: best.score}, nil
	}

	if area, ok := r.matchArea(term); ok {
		r.logger.Debug().Str("query", query).Str("area", area.Name).Msg("approximate area match")
		return &Match{Name: area.Name, Coordinate: area.Coordinate, Kind: MatchArea, Score: 1}, nil
	}

	r.logger.Debug().Str("query", query).Int("stations", len(r.stations)).Msg("station not found")
	return nil, ErrNotFound
}

// StationCount returns the number of reference stations.
func (r *Resolver) StationCount() int {
	return len(r.stations)
}

type tokenHit struct {
	station *Station
	score   float64
	matched int
}

func (r *Resolver) matchArea(term string) (Area, bool) {
	words := strings.Fields(term)
	for _, area := range r.areas {
		if strings.Contains(term, area.Name) {
			return area, true
		}
		for _, w := range words {
			if len(w) >= minAreaWordLength && strings.Contains(area.Name, w) {
				return area, true
			}
		}
	}
	return Area{}, false
}

// splitWords splits on whitespace, commas and periods.
func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '.' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
}

// countTokenMatches counts query words that are a substring of, or contain,
// any candidate word.
func countTokenMatches(queryWords, candidateWords []string) int {
	matched := 0
	for _, qw := range queryWords {
		for _, cw := range candidateWords {
			if strings.Contains(cw, qw) || strings.Contains(qw, cw) {
				matched++
				break
			}
		}
	}
	return matched
}
