package wizard

import (
	"context"
	"errors"
	"fmt"

	"clipstudio/internal/domain"
	"clipstudio/internal/format"
	"clipstudio/internal/infra"
)

// FileProbe checks whether an upload session still holds retrievable bytes.
type FileProbe interface {
	HasFiles(ctx context.Context, sessionID string) bool
}

// DetermineInitialStep computes the single correct step to resume the wizard
// at, given the saved partial state and the keys the user currently has
// connected. It is pure and total: any input yields a fully specified state,
// with absent or stale data degrading to an earlier step rather than erroring.
//
// hasFiles reports whether the upload session referenced by a manual style
// selection still holds bytes; a nil probe treats every session as empty.
func DetermineInitialStep(saved *domain.WizardFlowState, keys []domain.APIKey, hasFiles func(sessionID string) bool) domain.WizardFlowState {
	fresh := domain.WizardFlowState{Step: domain.StepAPIKey}

	// A deleted or revoked key invalidates everything downstream.
	if len(keys) == 0 || saved == nil || saved.APIKey == nil {
		return fresh
	}
	if !keyConnected(saved.APIKey.ID, keys) {
		return fresh
	}

	state := *saved

	// Walk the selection chain and resume right after the last contiguous
	// non-nil selection, discarding everything past the first gap.
	switch {
	case state.Avatar == nil:
		state.Step = domain.StepAvatar
		state.Avatar, state.Voice, state.Style, state.Script = nil, nil, nil, ""
	case state.Voice == nil:
		state.Step = domain.StepVoice
		state.Voice, state.Style, state.Script = nil, nil, ""
	case state.Style == nil:
		state.Step = domain.StepStyle
		state.Style, state.Script = nil, ""
	case state.Script == "":
		state.Step = domain.StepScript
	default:
		state.Step = domain.StepGenerator
	}

	// The manual branch additionally requires the referenced upload session
	// to still be retrievable; when it is not, files must be re-supplied, so
	// the resume step regresses to manual-upload regardless of how far the
	// user had reached.
	if state.Style.IsManual() {
		ok := hasFiles != nil && hasFiles(state.Style.FileSession)
		if !ok {
			state.Step = domain.StepManualUpload
			state.Script = ""
		}
	}

	return state
}

func keyConnected(id string, keys []domain.APIKey) bool {
	for _, key := range keys {
		if key.ID == id {
			return true
		}
	}
	return false
}

// Flow advances a user through the wizard, persisting after every change.
type Flow struct {
	states  domain.WizardStateRepository
	keys    domain.APIKeyRepository
	uploads FileProbe
	logger  infra.Logger
}

// NewFlow builds a Flow over the given stores.
func NewFlow(states domain.WizardStateRepository, keys domain.APIKeyRepository, uploads FileProbe, logger infra.Logger) *Flow {
	return &Flow{states: states, keys: keys, uploads: uploads, logger: logger}
}

// Resume loads the saved progress and computes the resume state. The result
// is not written back: persisting happens only on actual selections, which
// keeps transient load-time states out of the store.
func (f *Flow) Resume(ctx context.Context, userID string) (*domain.WizardFlowState, error) {
	saved, err := f.states.Get(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("wizard: load state: %w", err)
	}
	keys, err := f.keys.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("wizard: list keys: %w", err)
	}
	state := DetermineInitialStep(saved, keys, func(sessionID string) bool {
		return f.uploads != nil && f.uploads.HasFiles(ctx, sessionID)
	})
	return &state, nil
}

// SelectAPIKey records the chosen provider key and advances to the avatar
// stage. Every downstream selection is discarded.
func (f *Flow) SelectAPIKey(ctx context.Context, userID, keyID string) (*domain.WizardFlowState, error) {
	key, err := f.keys.GetByID(ctx, userID, keyID)
	if err != nil {
		return nil, fmt.Errorf("wizard: verify key: %w", err)
	}
	return f.mutate(ctx, userID, func(state *domain.WizardFlowState) {
		state.APIKey = &domain.APIKeyRef{ID: key.ID, Provider: key.Provider, Label: key.Label}
		state.Avatar, state.Voice, state.Style, state.Script = nil, nil, nil, ""
		state.Step = domain.StepAvatar
	})
}

// SelectAvatar records the chosen avatar and advances to the voice stage.
func (f *Flow) SelectAvatar(ctx context.Context, userID string, sel domain.AvatarSelection) (*domain.WizardFlowState, error) {
	return f.mutate(ctx, userID, func(state *domain.WizardFlowState) {
		state.Avatar = &sel
		state.Voice, state.Style, state.Script = nil, nil, ""
		state.Step = domain.StepVoice
	})
}

// SelectVoice records the chosen voice and advances to the style stage.
func (f *Flow) SelectVoice(ctx context.Context, userID string, sel domain.VoiceSelection) (*domain.WizardFlowState, error) {
	return f.mutate(ctx, userID, func(state *domain.WizardFlowState) {
		state.Voice = &sel
		state.Style, state.Script = nil, ""
		state.Step = domain.StepStyle
	})
}

// SelectStyle records the chosen style. The manual style branches into the
// upload stage; every other style advances straight to the script stage.
func (f *Flow) SelectStyle(ctx context.Context, userID string, sel domain.StyleSelection) (*domain.WizardFlowState, error) {
	return f.mutate(ctx, userID, func(state *domain.WizardFlowState) {
		state.Style = &sel
		state.Script = ""
		if sel.IsManual() {
			state.Step = domain.StepManualUpload
		} else {
			state.Step = domain.StepScript
		}
	})
}

// ConfirmUploads moves from the manual-upload stage to the script stage once
// the referenced session holds files.
func (f *Flow) ConfirmUploads(ctx context.Context, userID string) (*domain.WizardFlowState, error) {
	saved, err := f.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !saved.Style.IsManual() {
		return nil, fmt.Errorf("wizard: %w: style is not manual", domain.ErrInvalidState)
	}
	if f.uploads == nil || !f.uploads.HasFiles(ctx, saved.Style.FileSession) {
		return nil, fmt.Errorf("wizard: %w: upload session is empty", domain.ErrInvalidState)
	}
	return f.mutate(ctx, userID, func(state *domain.WizardFlowState) {
		state.Step = domain.StepScript
	})
}

// SetScript records the generated or hand-written script and advances to the
// terminal generator stage.
func (f *Flow) SetScript(ctx context.Context, userID, script string) (*domain.WizardFlowState, error) {
	script = format.SanitizeScript(script)
	if script == "" {
		return nil, fmt.Errorf("wizard: %w: script is empty", domain.ErrInvalidState)
	}
	return f.mutate(ctx, userID, func(state *domain.WizardFlowState) {
		state.Script = script
		state.Step = domain.StepGenerator
	})
}

// Reset drops all progress and returns to the first step.
func (f *Flow) Reset(ctx context.Context, userID string) (*domain.WizardFlowState, error) {
	return f.mutate(ctx, userID, func(state *domain.WizardFlowState) {
		state.Reset()
	})
}

func (f *Flow) load(ctx context.Context, userID string) (*domain.WizardFlowState, error) {
	saved, err := f.states.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.WizardFlowState{Step: domain.StepAPIKey}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("wizard: load state: %w", err)
	}
	return saved, nil
}

func (f *Flow) mutate(ctx context.Context, userID string, apply func(*domain.WizardFlowState)) (*domain.WizardFlowState, error) {
	state, err := f.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	apply(state)
	if err := f.states.Save(ctx, userID, state); err != nil {
		return nil, fmt.Errorf("wizard: save state: %w", err)
	}
	f.logger.Debug().Str("user_id", userID).Str("step", string(state.Step)).Msg("wizard: state advanced")
	return state, nil
}
