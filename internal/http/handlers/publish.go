package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"clipstudio/internal/domain"
	"clipstudio/internal/providers/social"
)

type publishRequest struct {
	Platform string `json:"platform"`
	Caption  string `json:"caption"`
}

// VideoPublish forwards a finished video to the user's connected Blotato
// account. The credential never leaves the server; the client only names
// the video and target platform.
func (a *App) VideoPublish(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	requestID := chi.URLParam(r, "request_id")
	var req publishRequest
	if err := a.decode(r, &req); err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request")
		return
	}
	if strings.TrimSpace(req.Platform) == "" {
		a.error(w, r, http.StatusBadRequest, "bad_request")
		return
	}

	video, err := a.Videos.GetByRequestID(r.Context(), userID, requestID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, r, http.StatusNotFound, "not_found")
			return
		}
		a.Logger.Error().Err(err).Msg("publish: video lookup failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}

	key, err := a.blotatoKey(r, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, r, http.StatusConflict, "invalid_state")
			return
		}
		a.Logger.Error().Err(err).Msg("publish: key lookup failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}

	caption := req.Caption
	if strings.TrimSpace(caption) == "" {
		caption = video.Title
	}
	postID, err := a.Publisher.Publish(r.Context(), key.Token, social.Post{
		Platform: req.Platform,
		Caption:  caption,
		VideoURL: video.VideoURL,
	})
	if err != nil {
		if errors.Is(err, domain.ErrTransport) {
			a.Logger.Error().Err(err).Str("request_id", requestID).Msg("publish: transport failure")
			a.error(w, r, http.StatusBadGateway, "transport")
			return
		}
		a.Logger.Error().Err(err).Msg("publish: failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	a.Logger.Info().
		Str("user_id", userID).
		Str("request_id", requestID).
		Str("platform", req.Platform).
		Msg("publish: posted")
	a.json(w, http.StatusOK, map[string]string{"status": "published", "post_id": postID})
}

func (a *App) blotatoKey(r *http.Request, userID string) (*domain.APIKey, error) {
	keys, err := a.Keys.ListByUser(r.Context(), userID)
	if err != nil {
		return nil, err
	}
	for i := range keys {
		if keys[i].Provider == domain.ProviderBlotato {
			return &keys[i], nil
		}
	}
	return nil, domain.ErrNotFound
}
