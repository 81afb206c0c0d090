package handlers

import (
	"context"
	"net/http"

	"github.com/Dosada05/robotics-tournament-core/middleware"
	"github.com/Dosada05/robotics-tournament-core/models"
	"github.com/Dosada05/robotics-tournament-core/repositories"
	"github.com/Dosada05/robotics-tournament-core/services"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
	seedingService    services.SeedingService
}

func NewTournamentHandler(ts services.TournamentService, ss services.SeedingService) *TournamentHandler {
	return &TournamentHandler{
		tournamentService: ts,
		seedingService:    ss,
	}
}

// CreateTournament godoc
// @Summary Create a tournament
// @Tags tournaments
// @Accept json
// @Produce json
// @Param body body services.TournamentInput true "Tournament settings"
// @Success 201 {object} models.Tournament
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /tournaments [post]
func (h *TournamentHandler) CreateTournament(w http.ResponseWriter, r *http.Request) {
	var input services.TournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	t, err := h.tournamentService.CreateTournament(r.Context(), input, middleware.ActorID(r.Context()))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, jsonResponse{"tournament": t})
}

// ListTournaments godoc
// @Summary List tournaments
// @Tags tournaments
// @Produce json
// @Param category_id query int false "Category filter"
// @Param format query string false "Format filter"
// @Param status query string false "Status filter"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} models.Tournament
// @Router /tournaments [get]
func (h *TournamentHandler) ListTournaments(w http.ResponseWriter, r *http.Request) {
	var filter repositories.ListTournamentsFilter
	var err error
	if filter.CategoryID, err = queryInt(r, "category_id"); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if f := models.TournamentFormat(r.URL.Query().Get("format")); f != "" {
		filter.Format = &f
	}
	if s := models.TournamentStatus(r.URL.Query().Get("status")); s != "" {
		filter.Status = &s
	}
	for key, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		v, err := queryInt(r, key)
		if err != nil {
			badRequestResponse(w, r, err)
			return
		}
		if v != nil {
			*dst = *v
		}
	}

	ts, err := h.tournamentService.ListTournaments(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"tournaments": ts})
}

// GetTournament godoc
// @Summary Get a tournament
// @Tags tournaments
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} models.Tournament
// @Failure 404 {object} map[string]string
// @Router /tournaments/{tournamentID} [get]
func (h *TournamentHandler) GetTournament(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	t, err := h.tournamentService.GetTournament(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"tournament": t})
}

// UpdateTournament godoc
// @Summary Update tournament settings before registration closes
// @Tags tournaments
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param body body services.TournamentInput true "Tournament settings"
// @Success 200 {object} models.Tournament
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /tournaments/{tournamentID} [put]
func (h *TournamentHandler) UpdateTournament(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.TournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	t, err := h.tournamentService.UpdateTournament(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"tournament": t})
}

// DeleteTournament godoc
// @Summary Soft-delete a tournament
// @Tags tournaments
// @Param tournamentID path int true "Tournament ID"
// @Success 204
// @Security BearerAuth
// @Router /tournaments/{tournamentID} [delete]
func (h *TournamentHandler) DeleteTournament(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.tournamentService.DeleteTournament(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OpenRegistration godoc
// @Summary Open registration
// @Tags tournaments
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} models.Tournament
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/registration/open [post]
func (h *TournamentHandler) OpenRegistration(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.tournamentService.OpenRegistration)
}

// CloseRegistration godoc
// @Summary Close registration and move to seeding
// @Tags tournaments
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} models.Tournament
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/registration/close [post]
func (h *TournamentHandler) CloseRegistration(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.tournamentService.CloseRegistration)
}

func (h *TournamentHandler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id int) (*models.Tournament, error)) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	t, err := fn(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"tournament": t})
}

type registerTeamRequest struct {
	TeamID int `json:"team_id"`
}

// RegisterTeam godoc
// @Summary Register an eligible team
// @Tags entrants
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param body body registerTeamRequest true "Team"
// @Success 201 {object} models.Entrant
// @Failure 409 {object} map[string]string "Tournament full or team already registered"
// @Failure 422 {object} map[string]string "Team not eligible"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/entrants [post]
func (h *TournamentHandler) RegisterTeam(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var req registerTeamRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if req.TeamID <= 0 {
		failedValidationResponse(w, r, "team_id is required")
		return
	}
	e, err := h.tournamentService.RegisterTeam(r.Context(), tournamentID, req.TeamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, jsonResponse{"entrant": e})
}

// WithdrawTeam godoc
// @Summary Withdraw a team while registration is open
// @Tags entrants
// @Param tournamentID path int true "Tournament ID"
// @Param teamID path int true "Team ID"
// @Success 204
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/entrants/{teamID} [delete]
func (h *TournamentHandler) WithdrawTeam(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.tournamentService.WithdrawTeam(r.Context(), tournamentID, teamID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListEntrants godoc
// @Summary List registered teams
// @Tags entrants
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {array} models.Entrant
// @Router /tournaments/{tournamentID}/entrants [get]
func (h *TournamentHandler) ListEntrants(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	es, err := h.tournamentService.ListEntrants(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"entrants": es})
}

type manualSeedRequest struct {
	Seed *int `json:"seed"`
}

// SetManualSeed godoc
// @Summary Set or clear a team's manual seed
// @Tags seeding
// @Accept json
// @Param tournamentID path int true "Tournament ID"
// @Param teamID path int true "Team ID"
// @Param body body manualSeedRequest true "Seed, null clears it"
// @Success 204
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/entrants/{teamID}/seed [put]
func (h *TournamentHandler) SetManualSeed(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var req manualSeedRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.tournamentService.SetManualSeed(r.Context(), tournamentID, teamID, req.Seed); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SeedTournament godoc
// @Summary Seed the registered teams
// @Tags seeding
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param body body services.SeedOptions false "Method override"
// @Success 201 {array} models.Seeding
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/seedings [post]
func (h *TournamentHandler) SeedTournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var opts services.SeedOptions
	if err := readOptionalJSON(w, r, &opts); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	seeds, err := h.seedingService.SeedTournament(r.Context(), tournamentID, opts)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, jsonResponse{"seedings": seeds})
}

// ListSeedings godoc
// @Summary List seeds in seed order
// @Tags seeding
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {array} models.Seeding
// @Router /tournaments/{tournamentID}/seedings [get]
func (h *TournamentHandler) ListSeedings(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	seeds, err := h.seedingService.ListSeedings(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"seedings": seeds})
}
