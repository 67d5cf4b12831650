package domain

import "time"

// GeneratedVideo is the durable record of a finished video artifact. It is
// written by the external generation pipeline out of band and is read-only
// for this service. RequestID correlates it with the GenerationJob that
// requested it; the two rows are written independently and may disagree for
// a while (see the reconciliation rules in internal/engine).
type GeneratedVideo struct {
	ID        string
	UserID    string
	RequestID string
	Title     string
	VideoURL  string
	CreatedAt time.Time
}
