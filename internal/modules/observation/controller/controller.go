package controller

import (
	"net/http"

	"stationdesk-server/internal/auth"
	"stationdesk-server/internal/modules/observation/service"
	"stationdesk-server/internal/modules/observation/types"
	"stationdesk-server/internal/utils"
)

type ObservationController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type observationControllerImpl struct {
	service *service.Service
}

func NewObservationController(service *service.Service) ObservationController {
	return &observationControllerImpl{service: service}
}

func (c *observationControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/time-check", auth.Require(c.handleTimeCheck))
	mux.HandleFunc("POST /api/v1/observations/first-stage", auth.Require(c.handleFirstStage))
	mux.HandleFunc("POST /api/v1/observations/second-stage", auth.Require(c.handleSecondStage))
	mux.HandleFunc("GET /api/v1/observations", auth.Require(c.handleList))
}

func (c *observationControllerImpl) handleTimeCheck(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())
	var req types.TimeCheckRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteAppError(w, r, err)
		return
	}
	stationID, err := auth.RequireStation(session, req.StationID)
	if err != nil {
		utils.WriteAppError(w, r, err)
		return
	}
	decision, err := c.service.CheckSlot(r.Context(), req.Hour, stationID)
	if err != nil {
		utils.WriteAppError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, decision)
}

func (c *observationControllerImpl) handleFirstStage(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())
	var req types.FirstStageRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteAppError(w, r, err)
		return
	}
	record, err := c.service.SubmitFirstStage(r.Context(), session, req)
	if err != nil {
		utils.WriteAppError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, record)
}

func (c *observationControllerImpl) handleSecondStage(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())
	var req types.SecondStageRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteAppError(w, r, err)
		return
	}
	entry, err := c.service.SubmitSecondStage(r.Context(), session, req)
	if err != nil {
		utils.WriteAppError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, entry)
}

func (c *observationControllerImpl) handleList(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())
	q := r.URL.Query()
	records, err := c.service.ListObservations(r.Context(), session, q.Get("stationId"), q.Get("date"))
	if err != nil {
		utils.WriteAppError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, records)
}
