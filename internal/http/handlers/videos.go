package handlers

import (
	"errors"
	"net/http"
	"time"

	"clipstudio/internal/domain"
	"clipstudio/internal/engine"
)

type generateRequest struct {
	Script string `json:"script"`
}

type supervisionResponse struct {
	Generating bool   `json:"generating"`
	RequestID  string `json:"request_id,omitempty"`
	Countdown  string `json:"countdown,omitempty"`
	RemainingS int    `json:"remaining_seconds,omitempty"`
}

func snapshotResponse(snap engine.Snapshot) supervisionResponse {
	return supervisionResponse{
		Generating: true,
		RequestID:  snap.RequestID,
		Countdown:  snap.Countdown,
		RemainingS: int(snap.Remaining / time.Second),
	}
}

func (a *App) VideosGenerate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req generateRequest
	if err := a.decode(r, &req); err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request")
		return
	}
	sup, err := a.Engine.GenerateVideo(r.Context(), userID, req.Script)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAuthRequired):
			a.error(w, r, http.StatusUnauthorized, "unauthorized")
		case errors.Is(err, domain.ErrInvalidState):
			a.error(w, r, http.StatusBadRequest, "bad_request")
		case errors.Is(err, domain.ErrTimeout):
			a.Logger.Error().Err(err).Msg("videos: submission timed out")
			a.error(w, r, http.StatusGatewayTimeout, "transport")
		case errors.Is(err, domain.ErrTransport):
			a.Logger.Error().Err(err).Msg("videos: submission transport failure")
			a.error(w, r, http.StatusBadGateway, "transport")
		default:
			a.Logger.Error().Err(err).Msg("videos: generate failed")
			a.error(w, r, http.StatusInternalServerError, "internal")
		}
		return
	}
	a.json(w, http.StatusAccepted, snapshotResponse(sup.Snapshot(time.Now())))
}

func (a *App) VideosCurrent(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	sup, ok := a.Engine.Active(userID)
	if !ok {
		a.json(w, http.StatusOK, supervisionResponse{Generating: false})
		return
	}
	a.json(w, http.StatusOK, snapshotResponse(sup.Snapshot(time.Now())))
}

func (a *App) VideosCancel(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := a.Engine.StopGeneration(r.Context(), userID); err != nil {
		a.Logger.Error().Err(err).Msg("videos: cancel failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

type videoResponse struct {
	ID        string    `json:"id"`
	RequestID string    `json:"request_id"`
	Title     string    `json:"title"`
	VideoURL  string    `json:"video_url"`
	CreatedAt time.Time `json:"created_at"`
}

func videoToResponse(v *domain.GeneratedVideo) *videoResponse {
	if v == nil {
		return nil
	}
	return &videoResponse{
		ID:        v.ID,
		RequestID: v.RequestID,
		Title:     v.Title,
		VideoURL:  v.VideoURL,
		CreatedAt: v.CreatedAt,
	}
}

type recoveryResponse struct {
	Decision string         `json:"decision"`
	Video    *videoResponse `json:"video,omitempty"`
}

// VideosRecover reconciles an apparently in-flight job after a reload. A
// "prompt" decision changes nothing server-side: the client shows the
// check-status / cancel choice and calls confirm or cancel explicitly.
func (a *App) VideosRecover(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	result, err := a.Recovery.Inspect(r.Context(), userID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("videos: recovery inspection failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	a.json(w, http.StatusOK, recoveryResponse{
		Decision: string(result.Decision),
		Video:    videoToResponse(result.Video),
	})
}

func (a *App) VideosRecoverConfirm(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	sup, err := a.Recovery.Confirm(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, r, http.StatusNotFound, "not_found")
			return
		}
		a.Logger.Error().Err(err).Msg("videos: recovery confirm failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	a.json(w, http.StatusOK, snapshotResponse(sup.Snapshot(time.Now())))
}

func (a *App) VideosList(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	videos, err := a.Videos.ListByUser(r.Context(), userID, 50)
	if err != nil {
		a.Logger.Error().Err(err).Msg("videos: list failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	items := make([]videoResponse, 0, len(videos))
	for i := range videos {
		items = append(items, *videoToResponse(&videos[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}
