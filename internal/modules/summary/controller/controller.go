package controller

import (
	"net/http"

	"stationdesk-server/internal/auth"
	"stationdesk-server/internal/modules/summary/service"
	"stationdesk-server/internal/modules/summary/types"
	"stationdesk-server/internal/utils"
)

type SummaryController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type summaryControllerImpl struct {
	service *service.Service
}

func NewSummaryController(service *service.Service) SummaryController {
	return &summaryControllerImpl{service: service}
}

func (c *summaryControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/daily-summaries", auth.Require(c.handleCompute))
	mux.HandleFunc("GET /api/v1/daily-summaries", auth.Require(c.handleGet))
	mux.HandleFunc("GET /api/v1/daily-summaries/latest", auth.Require(c.handleLatest))
}

func (c *summaryControllerImpl) handleCompute(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())
	var req types.ComputeRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteAppError(w, r, err)
		return
	}
	summary, err := c.service.Compute(r.Context(), session, req)
	if err != nil {
		utils.WriteAppError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, summary)
}

func (c *summaryControllerImpl) handleGet(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())
	q := r.URL.Query()
	summary, err := c.service.Get(r.Context(), session, q.Get("stationId"), q.Get("date"))
	if err != nil {
		utils.WriteAppError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, summary)
}

func (c *summaryControllerImpl) handleLatest(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())
	q := r.URL.Query()
	summaries, err := c.service.Latest(r.Context(), session, q.Get("stationId"), q.Get("date"))
	if err != nil {
		utils.WriteAppError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, summaries)
}
