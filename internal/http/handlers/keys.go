package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"clipstudio/internal/domain"
)

type createKeyRequest struct {
	Provider string `json:"provider"`
	Label    string `json:"label"`
	Token    string `json:"token"`
}

type keyResponse struct {
	ID        string    `json:"id"`
	Provider  string    `json:"provider"`
	Label     string    `json:"label,omitempty"`
	Masked    string    `json:"masked_token"`
	CreatedAt time.Time `json:"created_at"`
}

func keyToResponse(key domain.APIKey) keyResponse {
	return keyResponse{
		ID:        key.ID,
		Provider:  string(key.Provider),
		Label:     key.Label,
		Masked:    key.Masked(),
		CreatedAt: key.CreatedAt,
	}
}

func (a *App) KeysList(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	keys, err := a.Keys.ListByUser(r.Context(), userID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("keys: list failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	items := make([]keyResponse, 0, len(keys))
	for _, key := range keys {
		items = append(items, keyToResponse(key))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) KeysCreate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createKeyRequest
	if err := a.decode(r, &req); err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request")
		return
	}
	provider := domain.KeyProvider(strings.ToLower(strings.TrimSpace(req.Provider)))
	if !domain.ValidProvider(provider) || strings.TrimSpace(req.Token) == "" {
		a.error(w, r, http.StatusBadRequest, "bad_request")
		return
	}
	key := &domain.APIKey{
		ID:       uuid.NewString(),
		UserID:   userID,
		Provider: provider,
		Label:    strings.TrimSpace(req.Label),
		Token:    strings.TrimSpace(req.Token),
	}
	if err := a.Keys.Create(r.Context(), key); err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			a.error(w, r, http.StatusConflict, "duplicate_key")
			return
		}
		a.Logger.Error().Err(err).Msg("keys: create failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	key.CreatedAt = time.Now()
	a.json(w, http.StatusCreated, keyToResponse(*key))
}

func (a *App) KeysDelete(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	keyID := chi.URLParam(r, "id")
	if err := a.Keys.Delete(r.Context(), userID, keyID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, r, http.StatusNotFound, "not_found")
			return
		}
		a.Logger.Error().Err(err).Msg("keys: delete failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "deleted"})
}
