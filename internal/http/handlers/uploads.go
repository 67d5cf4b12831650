package handlers

import (
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"clipstudio/internal/ephemeral"
	"clipstudio/internal/format"
)

type uploadRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Name      string `json:"name"`
	MIME      string `json:"mime"`
	Data      string `json:"data"` // base64
}

// UploadsCreate stores one manual-upload blob. When no session id is given a
// fresh tab-scoped session is created and returned; the client threads it
// into the manual style selection.
func (a *App) UploadsCreate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req uploadRequest
	if err := a.decode(r, &req); err != nil || strings.TrimSpace(req.Name) == "" {
		a.error(w, r, http.StatusBadRequest, "bad_request")
		return
	}
	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request")
		return
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = ephemeral.SessionID(userID, time.Now())
	}
	key, err := a.Uploads.Save(r.Context(), sessionID, format.File{
		Name: req.Name,
		MIME: req.MIME,
		Data: data,
	})
	if err != nil {
		a.Logger.Error().Err(err).Msg("uploads: save failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	a.json(w, http.StatusCreated, map[string]string{
		"session_id": sessionID,
		"key":        key,
	})
}

func (a *App) UploadsList(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		a.error(w, r, http.StatusBadRequest, "bad_request")
		return
	}
	keys, err := a.Uploads.List(r.Context(), sessionID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("uploads: list failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	if keys == nil {
		keys = []string{}
	}
	a.json(w, http.StatusOK, map[string]any{"session_id": sessionID, "items": keys})
}
