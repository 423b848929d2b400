package handler

import (
	"net/http"
	"strconv"

	"github.com/yatri/yatri/internal/api/models"
	"github.com/yatri/yatri/internal/api/response"
	"github.com/yatri/yatri/internal/station"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 200
)

// StationIndex is the station data served to clients.
type StationIndex interface {
	All() []station.Station
	Search(term string, limit int) station.SearchResult
	Source() string
}

// StationHandler handles station endpoints.
type StationHandler struct {
	index StationIndex
}

// NewStationHandler creates a new StationHandler.
func NewStationHandler(index StationIndex) *StationHandler {
	return &StationHandler{index: index}
}

// ListStations handles GET /v1/stations - every station, for pickers.
func (h *StationHandler) ListStations(w http.ResponseWriter, r *http.Request) {
	stations := h.index.All()
	if stations == nil {
		stations = []station.Station{}
	}

	w.Header().Set("Cache-Control", "public, max-age=3600")
	response.JSON(w, r, http.StatusOK, models.StationList{
		Success:  true,
		Stations: stations,
		Source:   h.index.Source(),
	})
}

// SearchStations handles GET /v1/stations/search?search=&limit=.
func (h *StationHandler) SearchStations(w http.ResponseWriter, r *http.Request) {
	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxSearchLimit {
			response.BadRequest(w, r, "invalid limit", []models.FieldError{
				{Field: "limit", Message: "must be an integer between 1 and " + strconv.Itoa(maxSearchLimit), Code: "OUT_OF_RANGE"},
			})
			return
		}
		limit = n
	}

	term := r.URL.Query().Get("search")
	result := h.index.Search(term, limit)

	stations := result.Stations
	if stations == nil {
		stations = []station.Station{}
	}
	total := result.Total

	body := models.StationSearch{Success: true, Stations: stations}
	if term == "" {
		body.TotalLoaded = &total
	} else {
		body.TotalFound = &total
		body.SearchTerm = term
	}
	response.JSON(w, r, http.StatusOK, body)
}
