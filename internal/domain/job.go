package domain

import "time"

// JobStatus enumerates the generation job lifecycle states.
type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusExpired    JobStatus = "expired"
)

// Terminal reports whether a status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusExpired
}

// CanTransition reports whether the forward transition s -> next is allowed.
// Transitions are monotonic: processing may move to completed or expired,
// terminal states never move again.
func (s JobStatus) CanTransition(next JobStatus) bool {
	return s == JobStatusProcessing && next.Terminal()
}

// GenerationJob is the durable record of one video-generation request. The
// external pipeline performs the actual generation; this record only tracks
// its lifecycle. Script and CreatedAt are immutable after creation and the
// row is never deleted by this service.
type GenerationJob struct {
	ID        string
	UserID    string
	RequestID string
	Script    string
	Status    JobStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Age returns the elapsed time since the job was created.
func (j *GenerationJob) Age(now time.Time) time.Duration {
	return now.Sub(j.CreatedAt)
}
