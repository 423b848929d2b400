package handler

import (
	"context"
	"net/http"

	"github.com/yatri/yatri/internal/api/models"
	"github.com/yatri/yatri/internal/api/response"
	"github.com/yatri/yatri/internal/profile"
)

// ProfileLister lists rider profiles.
type ProfileLister interface {
	List(ctx context.Context) []profile.Profile
}

// ProfileHandler handles profile endpoints.
type ProfileHandler struct {
	profiles ProfileLister
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profiles ProfileLister) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// ListProfiles handles GET /v1/profiles.
func (h *ProfileHandler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=300")
	response.JSON(w, r, http.StatusOK, models.ProfileList{
		Success:  true,
		Profiles: h.profiles.List(r.Context()),
		Default:  profile.DefaultKey,
	})
}
