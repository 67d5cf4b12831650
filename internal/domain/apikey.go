package domain

import (
	"strings"
	"time"
)

// KeyProvider enumerates the third-party services a user can connect.
type KeyProvider string

const (
	ProviderHeyGen  KeyProvider = "heygen"
	ProviderOpenAI  KeyProvider = "openai"
	ProviderGemini  KeyProvider = "gemini"
	ProviderBlotato KeyProvider = "blotato"
)

// ValidProvider reports whether p names a supported provider.
func ValidProvider(p KeyProvider) bool {
	switch p {
	case ProviderHeyGen, ProviderOpenAI, ProviderGemini, ProviderBlotato:
		return true
	}
	return false
}

// APIKey is a user-owned credential for one external provider. The raw token
// is stored server-side and only ever returned masked.
type APIKey struct {
	ID        string
	UserID    string
	Provider  KeyProvider
	Label     string
	Token     string
	CreatedAt time.Time
}

// Masked returns the token with all but the last four characters hidden.
func (k *APIKey) Masked() string {
	token := strings.TrimSpace(k.Token)
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", len(token)-4) + token[len(token)-4:]
}
