package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clipstudio/internal/domain"
)

func (a *App) WizardResume(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	state, err := a.Wizard.Resume(r.Context(), userID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("wizard: resume failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	a.json(w, http.StatusOK, state)
}

type selectRequest struct {
	KeyID  string                  `json:"key_id,omitempty"`
	Avatar *domain.AvatarSelection `json:"avatar,omitempty"`
	Voice  *domain.VoiceSelection  `json:"voice,omitempty"`
	Style  *domain.StyleSelection  `json:"style,omitempty"`
	Script string                  `json:"script,omitempty"`
}

// WizardSelect records one stage selection and advances the flow. The stage
// name in the path decides which field of the body is read.
func (a *App) WizardSelect(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req selectRequest
	if err := a.decode(r, &req); err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request")
		return
	}

	ctx := r.Context()
	var (
		state *domain.WizardFlowState
		err   error
	)
	switch stage := chi.URLParam(r, "stage"); domain.WizardStep(stage) {
	case domain.StepAPIKey:
		state, err = a.Wizard.SelectAPIKey(ctx, userID, req.KeyID)
	case domain.StepAvatar:
		if req.Avatar == nil {
			a.error(w, r, http.StatusBadRequest, "bad_request")
			return
		}
		state, err = a.Wizard.SelectAvatar(ctx, userID, *req.Avatar)
	case domain.StepVoice:
		if req.Voice == nil {
			a.error(w, r, http.StatusBadRequest, "bad_request")
			return
		}
		state, err = a.Wizard.SelectVoice(ctx, userID, *req.Voice)
	case domain.StepStyle:
		if req.Style == nil {
			a.error(w, r, http.StatusBadRequest, "bad_request")
			return
		}
		state, err = a.Wizard.SelectStyle(ctx, userID, *req.Style)
	case domain.StepManualUpload:
		state, err = a.Wizard.ConfirmUploads(ctx, userID)
		if errors.Is(err, domain.ErrInvalidState) {
			a.error(w, r, http.StatusConflict, "upload_missing")
			return
		}
	case domain.StepScript:
		state, err = a.Wizard.SetScript(ctx, userID, req.Script)
	default:
		a.error(w, r, http.StatusBadRequest, "bad_request")
		return
	}

	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			a.error(w, r, http.StatusNotFound, "not_found")
		case errors.Is(err, domain.ErrInvalidState):
			a.error(w, r, http.StatusConflict, "invalid_state")
		default:
			a.Logger.Error().Err(err).Msg("wizard: select failed")
			a.error(w, r, http.StatusInternalServerError, "internal")
		}
		return
	}
	a.json(w, http.StatusOK, state)
}

func (a *App) WizardReset(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	state, err := a.Wizard.Reset(r.Context(), userID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("wizard: reset failed")
		a.error(w, r, http.StatusInternalServerError, "internal")
		return
	}
	a.json(w, http.StatusOK, state)
}
