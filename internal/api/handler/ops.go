// Package handler provides HTTP handlers for the Yatri API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/yatri/yatri/internal/api/models"
	"github.com/yatri/yatri/internal/api/response"
	"github.com/yatri/yatri/internal/planner"
	"github.com/yatri/yatri/internal/provider/resilience"
)

const checkTimeout = 2 * time.Second

// Check is a named dependency check used by the readiness and status
// endpoints.
type Check struct {
	Name string
	// Required checks fail readiness; optional ones only degrade status.
	Required bool
	Run      func(ctx context.Context) error
}

// StationStats reports the loaded station data.
type StationStats interface {
	Len() int
	Source() string
}

// PlannerCache reports planner cache statistics.
type PlannerCache interface {
	CacheStats() planner.CacheStats
}

// OpsConfig holds the dependencies of OpsHandler.
type OpsConfig struct {
	ServiceName string
	Version     string
	BuildTime   string

	// Providers reports upstream circuit breaker state (optional).
	Providers *resilience.Registry
	Stations  StationStats
	Cache     PlannerCache
	Checks    []Check
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsConfig
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "Yatri API"
	}
	return &OpsHandler{cfg: cfg}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status:  "healthy",
		Service: h.cfg.ServiceName,
		Version: h.cfg.Version,
		Time:    models.Timestamp(time.Now()),
	})
}

// ReadinessCheck handles GET /v1/ops/ready. The service is ready once
// stations are loaded and every required check passes.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	results := h.runChecks(r.Context())

	status := models.HealthStatusOK
	for i, c := range h.cfg.Checks {
		if c.Required && results[i].Status != models.HealthStatusOK {
			status = models.HealthStatusFail
		}
	}

	stations := models.CheckResult{Name: "stations", Status: models.HealthStatusOK}
	if h.cfg.Stations == nil || h.cfg.Stations.Len() == 0 {
		stations.Status = models.HealthStatusFail
		stations.Detail = "no stations loaded"
		status = models.HealthStatusFail
	}
	results = append(results, stations)

	code := http.StatusOK
	if status != models.HealthStatusOK {
		code = http.StatusServiceUnavailable
	}
	response.JSON(w, r, code, models.Readiness{
		Status: status,
		Time:   models.Timestamp(time.Now()),
		Checks: results,
	})
}

// SystemStatus handles GET /v1/ops/status - provider and subsystem status.
// It always answers 200; the body reports degradation.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(time.Now()),
		Version:    h.cfg.Version,
		BuildTime:  h.cfg.BuildTime,
		Subsystems: []models.SubsystemStatus{},
		Providers:  []models.ProviderStatus{},
	}

	for _, res := range h.runChecks(r.Context()) {
		sub := models.SubsystemStatus{Name: res.Name, Status: res.Status}
		if res.Detail != "" {
			detail := res.Detail
			sub.Detail = &detail
		}
		status.Subsystems = append(status.Subsystems, sub)
		status.Status = worse(status.Status, res.Status)
	}

	if h.cfg.Providers != nil {
		for _, ph := range h.cfg.Providers.All() {
			ps := providerStatus(ph)
			status.Providers = append(status.Providers, ps)
			status.Status = worse(status.Status, ps.Status)
		}
	}

	if h.cfg.Stations != nil {
		status.Stations = models.StationStats{Count: h.cfg.Stations.Len(), Source: h.cfg.Stations.Source()}
	}

	if h.cfg.Cache != nil {
		cs := h.cfg.Cache.CacheStats()
		status.Cache = &models.CacheStats{
			Provider:     cs.Provider,
			TotalEntries: cs.TotalEntries,
			FreshEntries: cs.FreshEntries,
			StaleEntries: cs.StaleEntries,
		}
	}

	// Routes are still served from the fallback catalog when a dependency
	// fails, so the service as a whole is at worst degraded.
	if status.Status == models.HealthStatusFail {
		status.Status = models.HealthStatusDegraded
	}

	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) runChecks(ctx context.Context) []models.CheckResult {
	results := make([]models.CheckResult, 0, len(h.cfg.Checks)+1)
	for _, c := range h.cfg.Checks {
		res := models.CheckResult{Name: c.Name, Status: models.HealthStatusOK}

		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := c.Run(checkCtx)
		cancel()

		if err != nil {
			res.Status = models.HealthStatusFail
			res.Detail = err.Error()
		}
		results = append(results, res)
	}
	return results
}

func providerStatus(ph *resilience.ProviderHealth) models.ProviderStatus {
	ps := models.ProviderStatus{
		Provider:      ph.Name,
		Status:        models.HealthStatusOK,
		CircuitState:  ph.CircuitState.String(),
		Requests:      ph.Counts.Requests,
		Failures:      ph.Counts.ConsecutiveFailures,
		Trips:         ph.Trips,
		OpenedAt:      models.TimestampPtr(ph.OpenedAt),
		LastSuccessAt: models.TimestampPtr(ph.LastSuccessAt),
		LastFailureAt: models.TimestampPtr(ph.LastFailureAt),
	}

	switch ph.CircuitState {
	case gobreaker.StateHalfOpen:
		ps.Status = models.HealthStatusDegraded
	case gobreaker.StateOpen:
		ps.Status = models.HealthStatusFail
	}

	if ph.LastError != "" {
		msg := ph.LastError
		ps.Message = &msg
	}
	return ps
}

var severity = map[models.HealthStatus]int{
	models.HealthStatusOK:       0,
	models.HealthStatusDegraded: 1,
	models.HealthStatusFail:     2,
}

func worse(a, b models.HealthStatus) models.HealthStatus {
	if severity[b] > severity[a] {
		return b
	}
	return a
}
