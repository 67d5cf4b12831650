package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clipstudio/internal/domain"
	"clipstudio/internal/ephemeral"
	"clipstudio/internal/infra"
)

// Decision classifies what the recovery inspection concluded.
type Decision string

const (
	// DecisionIdle means no in-flight job claim exists.
	DecisionIdle Decision = "idle"
	// DecisionRecovered means a finished video was found and the session
	// was finalized.
	DecisionRecovered Decision = "recovered"
	// DecisionExpired means the claim outlived the total budget and was
	// discarded.
	DecisionExpired Decision = "expired"
	// DecisionPrompt means the job may genuinely still be running; the user
	// must choose between resuming supervision and cancelling.
	DecisionPrompt Decision = "prompt"
)

// RecoveryResult is the outcome of inspecting a session after a reload.
type RecoveryResult struct {
	Decision Decision
	Video    *domain.GeneratedVideo
	State    *ephemeral.JobState
}

// Recoverer reconciles an apparently in-flight session claim against the
// durable store. The claim is never trusted blindly; the store is
// authoritative.
type Recoverer struct {
	jobs    domain.JobRepository
	videos  domain.VideoRepository
	state   EphemeralStore
	engine  *Engine
	budgets infra.Budgets
	logger  infra.Logger
}

// NewRecoverer builds a Recoverer sharing the engine's stores.
func NewRecoverer(jobs domain.JobRepository, videos domain.VideoRepository, state EphemeralStore, eng *Engine, budgets infra.Budgets, logger infra.Logger) *Recoverer {
	return &Recoverer{jobs: jobs, videos: videos, state: state, engine: eng, budgets: budgets, logger: logger}
}

// Inspect decides whether the user's apparently in-flight job is actually
// finished, stale, or possibly still running. Finding a video finalizes the
// session; finding nothing is surfaced as a prompt and changes no state,
// since resuming supervision requires explicit confirmation via Confirm.
func (r *Recoverer) Inspect(ctx context.Context, userID string) (*RecoveryResult, error) {
	if userID == "" {
		return nil, domain.ErrAuthRequired
	}
	claim, err := r.state.JobState(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("recovery: read session: %w", err)
	}
	if claim == nil || !claim.Generating {
		return &RecoveryResult{Decision: DecisionIdle}, nil
	}

	now := time.Now()
	if claim.Age(now) > r.budgets.Total {
		if err := r.state.ClearJobState(ctx, userID); err != nil {
			return nil, fmt.Errorf("recovery: clear stale session: %w", err)
		}
		r.logger.Info().Str("request_id", claim.RequestID).Msg("recovery: claim outlived budget, discarded")
		return &RecoveryResult{Decision: DecisionExpired, State: claim}, nil
	}

	video, err := r.reconcile(ctx, userID, claim, now)
	if err != nil {
		return nil, err
	}
	if video == nil {
		return &RecoveryResult{Decision: DecisionPrompt, State: claim}, nil
	}

	// Terminal: flip the tracking record if it lagged behind, then drop the
	// session claim.
	if err := r.jobs.UpdateStatus(ctx, userID, video.RequestID, domain.JobStatusCompleted); err != nil {
		return nil, fmt.Errorf("recovery: finalize job: %w", err)
	}
	if err := r.state.ClearJobState(ctx, userID); err != nil {
		return nil, fmt.Errorf("recovery: clear session: %w", err)
	}
	r.logger.Info().Str("request_id", video.RequestID).Msg("recovery: found finished video")
	return &RecoveryResult{Decision: DecisionRecovered, Video: video, State: claim}, nil
}

// reconcile runs the lookup strategies in order, stopping at the first hit.
func (r *Recoverer) reconcile(ctx context.Context, userID string, claim *ephemeral.JobState, now time.Time) (*domain.GeneratedVideo, error) {
	since := now.Add(-r.budgets.Lookback)

	// Any recent video of the user's covers a completion whose webhook
	// callback never updated the tracking record.
	videos, err := r.videos.ListSince(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("recovery: list videos: %w", err)
	}
	if len(videos) > 0 {
		v := videos[0]
		return &v, nil
	}

	// A recently completed job record, confirmed by its artifact.
	completed, err := r.jobs.ListByStatusSince(ctx, userID, domain.JobStatusCompleted, since)
	if err != nil {
		return nil, fmt.Errorf("recovery: list completed jobs: %w", err)
	}
	for _, job := range completed {
		video, err := r.videos.GetByRequestID(ctx, userID, job.RequestID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("recovery: confirm artifact: %w", err)
		}
		return video, nil
	}

	// A job record still marked processing whose artifact nonetheless
	// exists: the two rows are written by the pipeline in uncoordinated
	// steps, so repair the record rather than trusting it. Logged loudly
	// because frequent hits here point at an upstream delivery problem.
	processing, err := r.jobs.ListByStatusSince(ctx, userID, domain.JobStatusProcessing, since)
	if err != nil {
		return nil, fmt.Errorf("recovery: list processing jobs: %w", err)
	}
	for _, job := range processing {
		video, err := r.videos.GetByRequestID(ctx, userID, job.RequestID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("recovery: confirm artifact: %w", err)
		}
		r.logger.Warn().
			Str("request_id", job.RequestID).
			Msg("recovery: job record lagging behind artifact, self-healing")
		if err := r.jobs.UpdateStatus(ctx, userID, job.RequestID, domain.JobStatusCompleted); err != nil {
			return nil, fmt.Errorf("recovery: self-heal job status: %w", err)
		}
		return video, nil
	}

	return nil, nil
}

// Confirm resumes supervision of the claimed job from its original start
// time. Only called after the user explicitly chose to keep waiting.
func (r *Recoverer) Confirm(ctx context.Context, userID string) (*Supervisor, error) {
	if userID == "" {
		return nil, domain.ErrAuthRequired
	}
	claim, err := r.state.JobState(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("recovery: read session: %w", err)
	}
	if claim == nil || !claim.Generating {
		return nil, fmt.Errorf("recovery: %w: no in-flight job", domain.ErrNotFound)
	}
	return r.engine.Resume(userID, claim.RequestID, claim.Script, claim.StartTime()), nil
}

// Cancel discards the session claim and stops any supervision. Idempotent.
func (r *Recoverer) Cancel(ctx context.Context, userID string) error {
	if userID == "" {
		return domain.ErrAuthRequired
	}
	return r.engine.StopGeneration(ctx, userID)
}
