package handlers

import (
	"net/http"

	"github.com/Dosada05/robotics-tournament-core/services"
)

type BracketHandler struct {
	bracketService  services.BracketService
	standingService services.StandingService
}

func NewBracketHandler(bs services.BracketService, ss services.StandingService) *BracketHandler {
	return &BracketHandler{bracketService: bs, standingService: ss}
}

// GenerateBracket godoc
// @Summary Generate the bracket from the stored seeds and start the tournament
// @Tags brackets
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 201 {object} services.BracketView
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/bracket [post]
func (h *BracketHandler) GenerateBracket(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	view, err := h.bracketService.GenerateBracket(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, view)
}

// GetBracket godoc
// @Summary Get rounds, matches and, for league formats, the table
// @Tags brackets
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} services.BracketView
// @Router /tournaments/{tournamentID}/bracket [get]
func (h *BracketHandler) GetBracket(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	view, err := h.bracketService.GetBracketView(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, view)
}

// NextSwissRound godoc
// @Summary Pair the next swiss round
// @Tags brackets
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 201 {object} services.BracketView
// @Failure 409 {object} map[string]string "Current round unfinished or all rounds played"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/rounds [post]
func (h *BracketHandler) NextSwissRound(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	view, err := h.bracketService.GenerateNextSwissRound(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, view)
}

// ListStandings godoc
// @Summary League table in ranking order
// @Tags standings
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {array} models.Standing
// @Failure 409 {object} map[string]string "Knockout formats keep no table"
// @Router /tournaments/{tournamentID}/standings [get]
func (h *BracketHandler) ListStandings(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	rows, err := h.standingService.ListStandings(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"standings": rows})
}

// ListSchedule godoc
// @Summary League fixtures
// @Tags standings
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {array} models.ScheduleEntry
// @Router /tournaments/{tournamentID}/schedule [get]
func (h *BracketHandler) ListSchedule(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	entries, err := h.standingService.ListSchedule(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"schedule": entries})
}
