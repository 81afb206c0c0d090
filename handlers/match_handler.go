package handlers

import (
	"net/http"

	"github.com/Dosada05/robotics-tournament-core/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: ms}
}

// ListTournamentMatches godoc
// @Summary List a tournament's matches
// @Tags matches
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {array} models.Match
// @Router /tournaments/{tournamentID}/matches [get]
func (h *MatchHandler) ListTournamentMatches(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	matches, err := h.matchService.ListMatches(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"matches": matches})
}

// GetMatch godoc
// @Summary Get a match
// @Tags matches
// @Produce json
// @Param matchID path int true "Match ID"
// @Success 200 {object} models.Match
// @Failure 404 {object} map[string]string
// @Router /matches/{matchID} [get]
func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	m, err := h.matchService.GetMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"match": m})
}

// ScheduleMatch godoc
// @Summary Assign venue, table and time
// @Tags matches
// @Accept json
// @Produce json
// @Param matchID path int true "Match ID"
// @Param body body services.MatchSchedule true "Schedule"
// @Success 200 {object} models.Match
// @Security BearerAuth
// @Router /matches/{matchID}/schedule [put]
func (h *MatchHandler) ScheduleMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.MatchSchedule
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	m, err := h.matchService.ScheduleMatch(r.Context(), matchID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"match": m})
}

// StartMatch godoc
// @Summary Start a ready match
// @Tags matches
// @Produce json
// @Param matchID path int true "Match ID"
// @Success 200 {object} models.Match
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /matches/{matchID}/start [post]
func (h *MatchHandler) StartMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	m, err := h.matchService.StartMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"match": m})
}

// CompleteMatch godoc
// @Summary Record the final score
// @Tags matches
// @Accept json
// @Produce json
// @Param matchID path int true "Match ID"
// @Param body body services.MatchScores true "Scores"
// @Success 200 {object} models.Match
// @Failure 409 {object} map[string]string "Match already completed"
// @Failure 422 {object} map[string]string "Missing scores or a knockout draw"
// @Security BearerAuth
// @Router /matches/{matchID}/complete [post]
func (h *MatchHandler) CompleteMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.MatchScores
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	m, err := h.matchService.CompleteMatch(r.Context(), matchID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"match": m})
}

type forfeitRequest struct {
	TeamID int    `json:"team_id"`
	Reason string `json:"reason"`
}

// ForfeitMatch godoc
// @Summary Forfeit a match on behalf of one team
// @Tags matches
// @Accept json
// @Produce json
// @Param matchID path int true "Match ID"
// @Param body body forfeitRequest true "Forfeiting team and reason"
// @Success 200 {object} models.Match
// @Security BearerAuth
// @Router /matches/{matchID}/forfeit [post]
func (h *MatchHandler) ForfeitMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var req forfeitRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	m, err := h.matchService.ForfeitMatch(r.Context(), matchID, req.TeamID, req.Reason)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"match": m})
}
