package handlers

import (
	"net/http"

	"github.com/Dosada05/robotics-tournament-core/middleware"
	"github.com/Dosada05/robotics-tournament-core/services"
)

type ResultHandler struct {
	resultService services.ResultService
}

func NewResultHandler(rs services.ResultService) *ResultHandler {
	return &ResultHandler{resultService: rs}
}

type generateResultsRequest struct {
	TieOrder []int `json:"tie_order,omitempty"`
}

// GenerateResults godoc
// @Summary Write placements of a completed tournament
// @Description tie_order is only needed when the final table has tied teams.
// @Tags results
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param body body generateResultsRequest false "Tie order"
// @Success 201 {array} models.TournamentResult
// @Failure 422 {object} map[string]string "Unresolved tie"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/results [post]
func (h *ResultHandler) GenerateResults(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var req generateResultsRequest
	if err := readOptionalJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	results, err := h.resultService.GenerateResults(r.Context(), tournamentID, req.TieOrder)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, jsonResponse{"results": results})
}

// ListResults godoc
// @Summary Placements in order
// @Tags results
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {array} models.TournamentResult
// @Router /tournaments/{tournamentID}/results [get]
func (h *ResultHandler) ListResults(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	results, err := h.resultService.ListResults(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"results": results})
}

// GenerateCertificate godoc
// @Summary Issue the certificate number of a result
// @Tags results
// @Produce json
// @Param resultID path int true "Result ID"
// @Success 200 {object} models.TournamentResult
// @Security BearerAuth
// @Router /results/{resultID}/certificate [post]
func (h *ResultHandler) GenerateCertificate(w http.ResponseWriter, r *http.Request) {
	h.resultAction(w, r, func(id int) (interface{}, error) {
		return h.resultService.GenerateCertificate(r.Context(), id)
	})
}

// PublishResult godoc
// @Summary Publish a verified result
// @Tags results
// @Produce json
// @Param resultID path int true "Result ID"
// @Success 200 {object} models.TournamentResult
// @Security BearerAuth
// @Router /results/{resultID}/publish [post]
func (h *ResultHandler) PublishResult(w http.ResponseWriter, r *http.Request) {
	h.resultAction(w, r, func(id int) (interface{}, error) {
		return h.resultService.PublishResult(r.Context(), id, middleware.ActorID(r.Context()))
	})
}

// UnpublishResult godoc
// @Summary Withdraw a published result
// @Tags results
// @Produce json
// @Param resultID path int true "Result ID"
// @Success 200 {object} models.TournamentResult
// @Security BearerAuth
// @Router /results/{resultID}/unpublish [post]
func (h *ResultHandler) UnpublishResult(w http.ResponseWriter, r *http.Request) {
	h.resultAction(w, r, func(id int) (interface{}, error) {
		return h.resultService.UnpublishResult(r.Context(), id)
	})
}

func (h *ResultHandler) resultAction(w http.ResponseWriter, r *http.Request, fn func(id int) (interface{}, error)) {
	resultID, err := getIDFromURL(r, "resultID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	res, err := fn(resultID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"result": res})
}
