package formstore

import (
	"net/http"

	"stationdesk-server/internal/apperr"
	"stationdesk-server/internal/auth"
	"stationdesk-server/internal/utils"
)

type DraftRequest struct {
	Fields map[string]string `json:"fields" validate:"required,max=64,dive,keys,min=1,max=64,endkeys,max=256"`
}

type Controller interface {
	RegisterRoutes(mux *http.ServeMux)
}

type controllerImpl struct {
	store Store
}

func NewController(store Store) Controller {
	return &controllerImpl{store: store}
}

func (c *controllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/drafts/{form}", auth.Require(c.handleGet))
	mux.HandleFunc("PUT /api/v1/drafts/{form}", auth.Require(c.handleReplace))
	mux.HandleFunc("PATCH /api/v1/drafts/{form}", auth.Require(c.handleMerge))
	mux.HandleFunc("DELETE /api/v1/drafts/{form}", auth.Require(c.handleReset))
}

func (c *controllerImpl) key(r *http.Request) (string, error) {
	form := r.PathValue("form")
	if !ValidForm(form) {
		return "", apperr.NotFound("unknown form " + form)
	}
	session, _ := auth.FromContext(r.Context())
	return Key(session.UserID, form), nil
}

func (c *controllerImpl) handleGet(w http.ResponseWriter, r *http.Request) {
	key, err := c.key(r)
	if err != nil {
		utils.WriteAppError(w, r, err)
		return
	}
	d, ok := c.store.Get(key)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	utils.WriteJSON(w, http.StatusOK, d)
}

func (c *controllerImpl) handleReplace(w http.ResponseWriter, r *http.Request) {
	c.write(w, r, c.store.Replace)
}

func (c *controllerImpl) handleMerge(w http.ResponseWriter, r *http.Request) {
	c.write(w, r, c.store.Merge)
}

func (c *controllerImpl) write(w http.ResponseWriter, r *http.Request, apply func(string, map[string]string) Draft) {
	key, err := c.key(r)
	if err != nil {
		utils.WriteAppError(w, r, err)
		return
	}
	var req DraftRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteAppError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, apply(key, req.Fields))
}

func (c *controllerImpl) handleReset(w http.ResponseWriter, r *http.Request) {
	key, err := c.key(r)
	if err != nil {
		utils.WriteAppError(w, r, err)
		return
	}
	c.store.Reset(key)
	w.WriteHeader(http.StatusNoContent)
}
