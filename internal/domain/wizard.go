package domain

// WizardStep enumerates the ordered stages of the creation wizard.
type WizardStep string

const (
	StepAPIKey       WizardStep = "api-key"
	StepAvatar       WizardStep = "avatar"
	StepVoice        WizardStep = "voice"
	StepStyle        WizardStep = "style"
	StepManualUpload WizardStep = "manual-upload"
	StepScript       WizardStep = "script"
	StepGenerator    WizardStep = "generator"
)

// StyleManual is the style id that branches the wizard into the
// manual-upload flow after the style stage.
const StyleManual = "manual"

// APIKeyRef is the wizard's pointer to a connected provider key.
type APIKeyRef struct {
	ID       string      `json:"id"`
	Provider KeyProvider `json:"provider"`
	Label    string      `json:"label,omitempty"`
}

// AvatarSelection identifies a chosen presenter avatar.
type AvatarSelection struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Preview string `json:"preview,omitempty"`
}

// VoiceSelection identifies a chosen voice.
type VoiceSelection struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Language string `json:"language,omitempty"`
}

// StyleSelection identifies a chosen visual style. When ID equals
// StyleManual the user supplies their own footage and FileSession points at
// the temporary upload session holding it.
type StyleSelection struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	FileSession string `json:"file_session,omitempty"`
}

// IsManual reports whether this style requires user-supplied files.
func (s *StyleSelection) IsManual() bool {
	return s != nil && s.ID == StyleManual
}

// WizardFlowState holds the user's progress through the wizard. Every
// selection is nil until chosen; a later-stage selection is meaningful only
// when every earlier stage is filled, which the resume computation enforces
// by clearing downstream fields.
type WizardFlowState struct {
	Step     WizardStep       `json:"step"`
	APIKey   *APIKeyRef       `json:"api_key,omitempty"`
	Avatar   *AvatarSelection `json:"avatar,omitempty"`
	Voice    *VoiceSelection  `json:"voice,omitempty"`
	Style    *StyleSelection  `json:"style,omitempty"`
	Script   string           `json:"script,omitempty"`
}

// Reset clears every selection and returns the state to the first step.
func (s *WizardFlowState) Reset() {
	s.Step = StepAPIKey
	s.APIKey = nil
	s.Avatar = nil
	s.Voice = nil
	s.Style = nil
	s.Script = ""
}
