package domain

import (
	"context"
	"time"
)

// JobRepository persists GenerationJob lifecycle records.
type JobRepository interface {
	Create(ctx context.Context, job *GenerationJob) error
	GetByRequestID(ctx context.Context, userID, requestID string) (*GenerationJob, error)
	// UpdateStatus flips the status of the job identified by requestID. It
	// must be a no-op (not an error) when the row already carries status.
	UpdateStatus(ctx context.Context, userID, requestID string, status JobStatus) error
	// ListByStatusSince returns the user's jobs with the given status
	// created after the cutoff, newest first.
	ListByStatusSince(ctx context.Context, userID string, status JobStatus, since time.Time) ([]GenerationJob, error)
	// ListStale returns processing jobs across all users created before the
	// cutoff. Used by the reconciler sweep.
	ListStale(ctx context.Context, before time.Time, limit int) ([]GenerationJob, error)
}

// VideoRepository reads GeneratedVideo artifacts written by the external
// generation pipeline.
type VideoRepository interface {
	GetByRequestID(ctx context.Context, userID, requestID string) (*GeneratedVideo, error)
	// ListSince returns the user's videos created after the cutoff, newest
	// first.
	ListSince(ctx context.Context, userID string, since time.Time) ([]GeneratedVideo, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]GeneratedVideo, error)
}

// WizardStateRepository persists each user's wizard progress.
type WizardStateRepository interface {
	Get(ctx context.Context, userID string) (*WizardFlowState, error)
	Save(ctx context.Context, userID string, state *WizardFlowState) error
}

// APIKeyRepository persists user provider credentials.
type APIKeyRepository interface {
	Create(ctx context.Context, key *APIKey) error
	ListByUser(ctx context.Context, userID string) ([]APIKey, error)
	GetByID(ctx context.Context, userID, keyID string) (*APIKey, error)
	Delete(ctx context.Context, userID, keyID string) error
}
