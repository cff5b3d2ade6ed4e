package controller

import (
	"net/http"

	"stationdesk-server/internal/auth"
	"stationdesk-server/internal/modules/station/service"
	"stationdesk-server/internal/modules/station/types"
	"stationdesk-server/internal/utils"
)

type StationController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type stationControllerImpl struct {
	service *service.Service
}

func NewStationController(service *service.Service) StationController {
	return &stationControllerImpl{service: service}
}

func (c *stationControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/stations", auth.Require(c.handleList))
	mux.HandleFunc("GET /api/v1/stations/{id}", auth.Require(c.handleGet))
	mux.HandleFunc("POST /api/v1/stations", auth.Require(c.handleCreate))
	mux.HandleFunc("PUT /api/v1/stations/{id}", auth.Require(c.handleUpdate))
	mux.HandleFunc("DELETE /api/v1/stations/{id}", auth.Require(c.handleDelete))
}

func (c *stationControllerImpl) handleList(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())
	stations, err := c.service.List(r.Context(), session, r.URL.Query().Get("stationId"))
	if err != nil {
		utils.WriteAppError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stations)
}

func (c *stationControllerImpl) handleGet(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())
	st, err := c.service.Get(r.Context(), session, r.PathValue("id"))
	if err != nil {
		utils.WriteAppError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, st)
}

func (c *stationControllerImpl) handleCreate(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())
	var in types.StationInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteAppError(w, r, err)
		return
	}
	st, err := c.service.Create(r.Context(), session, in)
	if err != nil {
		utils.WriteAppError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, st)
}

func (c *stationControllerImpl) handleUpdate(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())
	var in types.StationInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteAppError(w, r, err)
		return
	}
	st, err := c.service.Update(r.Context(), session, r.PathValue("id"), in)
	if err != nil {
		utils.WriteAppError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, st)
}

func (c *stationControllerImpl) handleDelete(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())
	if err := c.service.Delete(r.Context(), session, r.PathValue("id")); err != nil {
		utils.WriteAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
