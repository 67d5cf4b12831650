package handlers

import (
	"net/http"
	"strings"
	"time"

	"clipstudio/internal/middleware"
)

type tokenRequest struct {
	UserID string `json:"user_id"`
	Locale string `json:"locale"`
}

// IssueToken mints a short-lived HS256 token. Development convenience only;
// production clients arrive with tokens from the identity provider and this
// route is not mounted.
func (a *App) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := a.decode(r, &req); err != nil || strings.TrimSpace(req.UserID) == "" {
		a.error(w, r, http.StatusBadRequest, "bad_request")
		return
	}
	token, err := middleware.SignJWT(a.Cfg.JWTSecret, middleware.TokenClaims{
		Sub:    req.UserID,
		Locale: req.Locale,
		Exp:    time.Now().Add(24 * time.Hour).Unix(),
	})
	if err != nil {
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"token": token})
}
