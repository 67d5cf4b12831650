package wizard

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"clipstudio/internal/domain"
)

func sampleKeys() []domain.APIKey {
	return []domain.APIKey{
		{ID: "key-1", UserID: "user-1", Provider: domain.ProviderHeyGen},
		{ID: "key-2", UserID: "user-1", Provider: domain.ProviderOpenAI},
	}
}

func fullState() *domain.WizardFlowState {
	return &domain.WizardFlowState{
		Step:   domain.StepGenerator,
		APIKey: &domain.APIKeyRef{ID: "key-1", Provider: domain.ProviderHeyGen},
		Avatar: &domain.AvatarSelection{ID: "avatar-7"},
		Voice:  &domain.VoiceSelection{ID: "voice-3"},
		Style:  &domain.StyleSelection{ID: "cinematic"},
		Script: "Welcome to the tour",
	}
}

func TestDetermineInitialStepNoKeys(t *testing.T) {
	for _, saved := range []*domain.WizardFlowState{nil, fullState()} {
		got := DetermineInitialStep(saved, nil, nil)
		if got.Step != domain.StepAPIKey {
			t.Fatalf("step = %q, want api-key", got.Step)
		}
		if got.APIKey != nil || got.Avatar != nil || got.Voice != nil || got.Style != nil || got.Script != "" {
			t.Fatalf("selections not cleared: %+v", got)
		}
	}
}

func TestDetermineInitialStepFullChainResumesGenerator(t *testing.T) {
	got := DetermineInitialStep(fullState(), sampleKeys(), nil)
	if got.Step != domain.StepGenerator {
		t.Fatalf("step = %q, want generator", got.Step)
	}
	if got.APIKey == nil || got.Avatar == nil || got.Voice == nil || got.Style == nil || got.Script == "" {
		t.Fatalf("selections not preserved: %+v", got)
	}
}

func TestDetermineInitialStepRevokedKeyClearsAll(t *testing.T) {
	saved := fullState()
	saved.APIKey.ID = "key-gone"
	got := DetermineInitialStep(saved, sampleKeys(), nil)
	if got.Step != domain.StepAPIKey {
		t.Fatalf("step = %q, want api-key", got.Step)
	}
	if got.APIKey != nil || got.Avatar != nil || got.Voice != nil || got.Style != nil || got.Script != "" {
		t.Fatalf("selections not cleared: %+v", got)
	}
}

func TestDetermineInitialStepResumesAfterLastContiguousSelection(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.WizardFlowState)
		want   domain.WizardStep
	}{
		{name: "missing avatar", mutate: func(s *domain.WizardFlowState) { s.Avatar = nil }, want: domain.StepAvatar},
		{name: "missing voice", mutate: func(s *domain.WizardFlowState) { s.Voice = nil }, want: domain.StepVoice},
		{name: "missing style", mutate: func(s *domain.WizardFlowState) { s.Style = nil }, want: domain.StepStyle},
		{name: "missing script", mutate: func(s *domain.WizardFlowState) { s.Script = "" }, want: domain.StepScript},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saved := fullState()
			tt.mutate(saved)
			got := DetermineInitialStep(saved, sampleKeys(), nil)
			if got.Step != tt.want {
				t.Fatalf("step = %q, want %q", got.Step, tt.want)
			}
		})
	}
}

func TestDetermineInitialStepGapClearsDownstream(t *testing.T) {
	saved := fullState()
	saved.Voice = nil // gap: style and script are now unverified
	got := DetermineInitialStep(saved, sampleKeys(), nil)
	if got.Step != domain.StepVoice {
		t.Fatalf("step = %q, want voice", got.Step)
	}
	if got.Style != nil || got.Script != "" {
		t.Fatalf("downstream selections survived a gap: %+v", got)
	}
	if got.APIKey == nil || got.Avatar == nil {
		t.Fatalf("upstream selections dropped: %+v", got)
	}
}

func TestDetermineInitialStepManualStyleRegressesWhenFilesGone(t *testing.T) {
	saved := fullState()
	saved.Style = &domain.StyleSelection{ID: domain.StyleManual, FileSession: "sess-1"}

	got := DetermineInitialStep(saved, sampleKeys(), func(string) bool { return false })
	if got.Step != domain.StepManualUpload {
		t.Fatalf("step = %q, want manual-upload", got.Step)
	}
	if got.Script != "" {
		t.Fatalf("script should be cleared when files must be re-supplied")
	}

	got = DetermineInitialStep(saved, sampleKeys(), func(sessionID string) bool { return sessionID == "sess-1" })
	if got.Step != domain.StepGenerator {
		t.Fatalf("step = %q, want generator when files are retrievable", got.Step)
	}
}

// --- Flow tests with in-memory stubs ---

type stubStateRepo struct {
	states map[string]*domain.WizardFlowState
	saves  int
}

func newStubStateRepo() *stubStateRepo {
	return &stubStateRepo{states: make(map[string]*domain.WizardFlowState)}
}

func (s *stubStateRepo) Get(_ context.Context, userID string) (*domain.WizardFlowState, error) {
	state, ok := s.states[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *state
	return &clone, nil
}

func (s *stubStateRepo) Save(_ context.Context, userID string, state *domain.WizardFlowState) error {
	clone := *state
	s.states[userID] = &clone
	s.saves++
	return nil
}

type stubKeyRepo struct {
	keys []domain.APIKey
}

func (s *stubKeyRepo) Create(context.Context, *domain.APIKey) error { return nil }

func (s *stubKeyRepo) ListByUser(_ context.Context, userID string) ([]domain.APIKey, error) {
	return s.keys, nil
}

func (s *stubKeyRepo) GetByID(_ context.Context, userID, keyID string) (*domain.APIKey, error) {
	for _, key := range s.keys {
		if key.ID == keyID {
			k := key
			return &k, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubKeyRepo) Delete(context.Context, string, string) error { return nil }

type stubProbe struct {
	sessions map[string]bool
}

func (p *stubProbe) HasFiles(_ context.Context, sessionID string) bool {
	return p.sessions[sessionID]
}

func newTestFlow(states *stubStateRepo, keys *stubKeyRepo, probe *stubProbe) *Flow {
	return NewFlow(states, keys, probe, zerolog.Nop())
}

func TestFlowSelectionAdvancesAndClearsDownstream(t *testing.T) {
	ctx := context.Background()
	states := newStubStateRepo()
	keys := &stubKeyRepo{keys: sampleKeys()}
	flow := newTestFlow(states, keys, &stubProbe{})

	state, err := flow.SelectAPIKey(ctx, "user-1", "key-1")
	if err != nil {
		t.Fatalf("SelectAPIKey: %v", err)
	}
	if state.Step != domain.StepAvatar {
		t.Fatalf("step = %q, want avatar", state.Step)
	}

	if _, err := flow.SelectAvatar(ctx, "user-1", domain.AvatarSelection{ID: "avatar-7"}); err != nil {
		t.Fatalf("SelectAvatar: %v", err)
	}
	if _, err := flow.SelectVoice(ctx, "user-1", domain.VoiceSelection{ID: "voice-3"}); err != nil {
		t.Fatalf("SelectVoice: %v", err)
	}
	if _, err := flow.SelectStyle(ctx, "user-1", domain.StyleSelection{ID: "cinematic"}); err != nil {
		t.Fatalf("SelectStyle: %v", err)
	}
	state, err = flow.SetScript(ctx, "user-1", "  Hello   world  ")
	if err != nil {
		t.Fatalf("SetScript: %v", err)
	}
	if state.Step != domain.StepGenerator {
		t.Fatalf("step = %q, want generator", state.Step)
	}
	if state.Script != "Hello world" {
		t.Fatalf("script not sanitized: %q", state.Script)
	}

	// Re-selecting an earlier stage must discard everything after it.
	state, err = flow.SelectAvatar(ctx, "user-1", domain.AvatarSelection{ID: "avatar-9"})
	if err != nil {
		t.Fatalf("SelectAvatar again: %v", err)
	}
	if state.Voice != nil || state.Style != nil || state.Script != "" {
		t.Fatalf("downstream selections survived re-selection: %+v", state)
	}
	if state.Step != domain.StepVoice {
		t.Fatalf("step = %q, want voice", state.Step)
	}

	if states.saves == 0 {
		t.Fatal("selections were not persisted")
	}
}

func TestFlowManualBranch(t *testing.T) {
	ctx := context.Background()
	states := newStubStateRepo()
	keys := &stubKeyRepo{keys: sampleKeys()}
	probe := &stubProbe{sessions: map[string]bool{}}
	flow := newTestFlow(states, keys, probe)

	if _, err := flow.SelectAPIKey(ctx, "user-1", "key-1"); err != nil {
		t.Fatalf("SelectAPIKey: %v", err)
	}
	if _, err := flow.SelectAvatar(ctx, "user-1", domain.AvatarSelection{ID: "a"}); err != nil {
		t.Fatalf("SelectAvatar: %v", err)
	}
	if _, err := flow.SelectVoice(ctx, "user-1", domain.VoiceSelection{ID: "v"}); err != nil {
		t.Fatalf("SelectVoice: %v", err)
	}
	state, err := flow.SelectStyle(ctx, "user-1", domain.StyleSelection{ID: domain.StyleManual, FileSession: "sess-9"})
	if err != nil {
		t.Fatalf("SelectStyle: %v", err)
	}
	if state.Step != domain.StepManualUpload {
		t.Fatalf("step = %q, want manual-upload", state.Step)
	}

	if _, err := flow.ConfirmUploads(ctx, "user-1"); err == nil {
		t.Fatal("ConfirmUploads with empty session should fail")
	}

	probe.sessions["sess-9"] = true
	state, err = flow.ConfirmUploads(ctx, "user-1")
	if err != nil {
		t.Fatalf("ConfirmUploads: %v", err)
	}
	if state.Step != domain.StepScript {
		t.Fatalf("step = %q, want script", state.Step)
	}
}

func TestFlowResumeDoesNotPersist(t *testing.T) {
	ctx := context.Background()
	states := newStubStateRepo()
	keys := &stubKeyRepo{keys: sampleKeys()}
	flow := newTestFlow(states, keys, &stubProbe{})

	state, err := flow.Resume(ctx, "user-1")
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if state.Step != domain.StepAPIKey {
		t.Fatalf("step = %q, want api-key", state.Step)
	}
	if states.saves != 0 {
		t.Fatalf("Resume wrote %d states, want 0", states.saves)
	}
}

func TestFlowSelectUnknownKey(t *testing.T) {
	flow := newTestFlow(newStubStateRepo(), &stubKeyRepo{keys: sampleKeys()}, &stubProbe{})
	if _, err := flow.SelectAPIKey(context.Background(), "user-1", "key-404"); err == nil {
		t.Fatal("selecting an unknown key should fail")
	}
}
