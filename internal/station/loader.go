package station

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/OneBusAway/go-gtfs"
	"github.com/rs/zerolog"
)

// Source names reported by Load.
const (
	SourcePlanner = "planner"
	SourceJSON    = "json"
	SourceGTFS    = "gtfs"
	SourceMock    = "mock"
)

// StopSource lists stations from a live backend, typically the trip planner's
// stop index.
type StopSource interface {
	Stops(ctx context.Context) ([]Station, error)
}

// LoadConfig controls where Load looks for reference stations.
type LoadConfig struct {
	// Planner, if set, is asked first.
	Planner StopSource

	// JSONPath is a stations file of the form [{"label": ..., "value": "lat,lng"}].
	JSONPath string

	// GTFSPath is a GTFS static zip whose stops.txt is indexed.
	GTFSPath string

	Logger zerolog.Logger
}

// Load returns the station index from the first source that yields at least
// one station: planner, JSON file, GTFS feed, then the built-in list.
func Load(ctx context.Context, cfg LoadConfig) *Index {
	log := cfg.Logger

	if cfg.Planner != nil {
		stations, err := cfg.Planner.Stops(ctx)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("planner stop index unavailable")
		case len(stations) > 0:
			log.Info().Int("stations", len(stations)).Msg("loaded stations from planner")
			return NewIndex(stations, SourcePlanner)
		}
	}

	if cfg.JSONPath != "" {
		stations, err := LoadJSONFile(cfg.JSONPath)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("path", cfg.JSONPath).Msg("failed to load stations file")
		case len(stations) > 0:
			log.Info().Int("stations", len(stations)).Str("path", cfg.JSONPath).Msg("loaded stations from file")
			return NewIndex(stations, SourceJSON)
		}
	}

	if cfg.GTFSPath != "" {
		stations, err := LoadGTFS(cfg.GTFSPath)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("path", cfg.GTFSPath).Msg("failed to load GTFS stops")
		case len(stations) > 0:
			log.Info().Int("stations", len(stations)).Str("path", cfg.GTFSPath).Msg("loaded stations from GTFS feed")
			return NewIndex(stations, SourceGTFS)
		}
	}

	stations := MockStations()
	log.Info().Int("stations", len(stations)).Msg("using built-in station list")
	return NewIndex(stations, SourceMock)
}

type jsonStation struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ParseJSON parses a stations document. Entries with an unparseable value
// are skipped.
func ParseJSON(data []byte) ([]Station, error) {
	var raw []jsonStation
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding stations: %w", err)
	}

	stations := make([]Station, 0, len(raw))
	for _, r := range raw {
		lat, lng, err := parseLatLng(r.Value)
		if err != nil {
			continue
		}
		stations = append(stations, Station{
			Name: r.Label,
			Lat:  lat,
			Lng:  lng,
			Type: TypeStation,
		})
	}
	return stations, nil
}

// LoadJSONFile reads and parses a stations file.
func LoadJSONFile(path string) ([]Station, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseJSON(data)
}

// LoadGTFS reads stops from a GTFS static zip.
func LoadGTFS(path string) ([]Station, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	static, err := gtfs.ParseStatic(data, gtfs.ParseStaticOptions{})
	if err != nil {
		return nil, fmt.Errorf("parsing GTFS feed: %w", err)
	}
	return FromGTFS(static), nil
}

// FromGTFS converts parsed GTFS stops. Stops without coordinates are skipped.
func FromGTFS(static *gtfs.Static) []Station {
	if static == nil {
		return nil
	}

	stations := make([]Station, 0, len(static.Stops))
	for _, stop := range static.Stops {
		if stop.Latitude == nil || stop.Longitude == nil {
			continue
		}
		stations = append(stations, Station{
			ID:   stop.Id,
			Name: stop.Name,
			Lat:  *stop.Latitude,
			Lng:  *stop.Longitude,
			Type: TypeGTFSStop,
		})
	}
	return stations
}

var errBadLatLng = errors.New("expected \"lat,lng\"")

func parseLatLng(s string) (float64, float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, errBadLatLng
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, err
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, err
	}
	return lat, lng, nil
}
