package auth

import (
	"net/http"

	"stationdesk-server/internal/utils"
)

type Controller interface {
	RegisterRoutes(mux *http.ServeMux)
}

type controllerImpl struct {
	service *Service
}

func NewController(service *Service) Controller {
	return &controllerImpl{service: service}
}

func (c *controllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/auth/login", c.handleLogin)
	mux.HandleFunc("POST /api/v1/auth/logout", c.handleLogout)
	mux.HandleFunc("GET /api/v1/auth/session", Require(c.handleSession))
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (c *controllerImpl) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteAppError(w, r, err)
		return
	}
	session, err := c.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		utils.WriteAppError(w, r, err)
		return
	}
	http.SetCookie(w, sessionCookie(session))
	utils.WriteJSON(w, http.StatusOK, session)
}

func (c *controllerImpl) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		if err := c.service.Logout(r.Context(), cookie.Value); err != nil {
			utils.WriteAppError(w, r, err)
			return
		}
	}
	http.SetCookie(w, clearedCookie())
	w.WriteHeader(http.StatusNoContent)
}

func (c *controllerImpl) handleSession(w http.ResponseWriter, r *http.Request) {
	session, _ := FromContext(r.Context())
	utils.WriteJSON(w, http.StatusOK, session)
}
