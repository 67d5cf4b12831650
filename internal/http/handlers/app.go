package handlers

import (
	"encoding/json"
	"net/http"

	"clipstudio/internal/domain"
	"clipstudio/internal/engine"
	"clipstudio/internal/infra"
	"clipstudio/internal/middleware"
	"clipstudio/internal/providers/social"
	"clipstudio/internal/storage"
	"clipstudio/internal/wizard"
)

// App is the handler container: every route is a method on it.
type App struct {
	Cfg       *infra.Config
	Logger    infra.Logger
	Keys      domain.APIKeyRepository
	Videos    domain.VideoRepository
	Wizard    *wizard.Flow
	Engine    *engine.Engine
	Recovery  *engine.Recoverer
	Uploads   *storage.UploadStore
	Publisher social.Publisher
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// error writes a machine-readable code plus a plain-language message in the
// request locale.
func (a *App) error(w http.ResponseWriter, r *http.Request, status int, code string) {
	locale := middleware.LocaleFromContext(r.Context())
	a.json(w, status, errorResponse{Error: code, Message: userMessage(locale, code)})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

func (a *App) decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
