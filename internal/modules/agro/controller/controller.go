package controller

import (
	"net/http"

	"stationdesk-server/internal/auth"
	"stationdesk-server/internal/modules/agro/service"
	"stationdesk-server/internal/modules/agro/types"
	"stationdesk-server/internal/utils"
)

type AgroController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type agroControllerImpl struct {
	service *service.Service
}

func NewAgroController(service *service.Service) AgroController {
	return &agroControllerImpl{service: service}
}

func (c *agroControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/sunshine", auth.Require(c.handleListSunshine))
	mux.HandleFunc("POST /api/v1/sunshine", auth.Require(c.handleRecordSunshine))
	mux.HandleFunc("GET /api/v1/soil-moisture", auth.Require(c.handleListSoilMoisture))
	mux.HandleFunc("POST /api/v1/soil-moisture", auth.Require(c.handleRecordSoilMoisture))
}

func (c *agroControllerImpl) handleListSunshine(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())
	q := r.URL.Query()
	records, err := c.service.ListSunshine(r.Context(), session, q.Get("stationId"), q.Get("from"), q.Get("to"))
	if err != nil {
		utils.WriteAppError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, records)
}

func (c *agroControllerImpl) handleRecordSunshine(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())
	var in types.SunshineInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteAppError(w, r, err)
		return
	}
	rec, err := c.service.RecordSunshine(r.Context(), session, in)
	if err != nil {
		utils.WriteAppError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, rec)
}

func (c *agroControllerImpl) handleListSoilMoisture(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())
	q := r.URL.Query()
	records, err := c.service.ListSoilMoisture(r.Context(), session, q.Get("stationId"), q.Get("from"), q.Get("to"))
	if err != nil {
		utils.WriteAppError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, records)
}

func (c *agroControllerImpl) handleRecordSoilMoisture(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())
	var in types.SoilMoistureInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteAppError(w, r, err)
		return
	}
	rec, err := c.service.RecordSoilMoisture(r.Context(), session, in)
	if err != nil {
		utils.WriteAppError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, rec)
}
