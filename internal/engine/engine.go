package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"clipstudio/internal/domain"
	"clipstudio/internal/ephemeral"
	"clipstudio/internal/format"
	"clipstudio/internal/infra"
)

// EphemeralStore is the slice of the session store the engine needs.
type EphemeralStore interface {
	JobState(ctx context.Context, userID string) (*ephemeral.JobState, error)
	SaveJobState(ctx context.Context, userID string, state *ephemeral.JobState) error
	ClearJobState(ctx context.Context, userID string) error
}

// Submitter sends one generation request to the external pipeline.
type Submitter interface {
	Submit(ctx context.Context, userID, requestID, script string) error
}

// Outcome is the terminal result of one supervised job.
type Outcome struct {
	Status domain.JobStatus
	Video  *domain.GeneratedVideo
}

// Snapshot is a point-in-time view of an active supervision.
type Snapshot struct {
	RequestID string
	Script    string
	StartTime time.Time
	Remaining time.Duration
	Countdown string
}

const requestIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewRequestID generates a client-side idempotency token in the
// req_<millis>_<alnum> shape the generation pipeline correlates on.
func NewRequestID(now time.Time) string {
	suffix := gonanoid.MustGenerate(requestIDAlphabet, 9)
	return fmt.Sprintf("req_%d_%s", now.UnixMilli(), suffix)
}

// Engine submits generation requests and supervises each to a terminal
// outcome without blocking the caller. At most one supervisor is live per
// user; starting a new job tears down the previous one first.
type Engine struct {
	jobs    domain.JobRepository
	videos  domain.VideoRepository
	state   EphemeralStore
	submit  Submitter
	budgets infra.Budgets
	logger  infra.Logger

	mu     sync.Mutex
	active map[string]*Supervisor
}

// New builds an Engine.
func New(jobs domain.JobRepository, videos domain.VideoRepository, state EphemeralStore, submit Submitter, budgets infra.Budgets, logger infra.Logger) *Engine {
	return &Engine{
		jobs:    jobs,
		videos:  videos,
		state:   state,
		submit:  submit,
		budgets: budgets,
		logger:  logger,
		active:  make(map[string]*Supervisor),
	}
}

// GenerateVideo submits a generation request for the user's script and
// starts supervising it. It requires an authenticated user and returns
// domain.ErrTransport (wrapped) when the webhook cannot be reached, after
// rolling the session back to idle.
func (e *Engine) GenerateVideo(ctx context.Context, userID, script string) (*Supervisor, error) {
	if userID == "" {
		return nil, domain.ErrAuthRequired
	}
	script = format.SanitizeScript(script)
	if script == "" {
		return nil, fmt.Errorf("engine: %w: script is empty", domain.ErrInvalidState)
	}

	// Old timers must be gone before new ones start, or stale callbacks
	// would double-fire against the new job.
	e.teardown(userID)

	now := time.Now()
	requestID := NewRequestID(now)

	if err := e.state.SaveJobState(ctx, userID, &ephemeral.JobState{
		Generating:  true,
		RequestID:   requestID,
		Script:      script,
		StartMillis: now.UnixMilli(),
	}); err != nil {
		return nil, fmt.Errorf("engine: save session state: %w", err)
	}

	job := &domain.GenerationJob{
		ID:        uuid.NewString(),
		UserID:    userID,
		RequestID: requestID,
		Script:    script,
		Status:    domain.JobStatusProcessing,
	}
	if err := e.jobs.Create(ctx, job); err != nil {
		_ = e.state.ClearJobState(ctx, userID)
		return nil, fmt.Errorf("engine: create job record: %w", err)
	}

	if err := e.submit.Submit(ctx, userID, requestID, script); err != nil {
		// Roll back to a clean non-generating state; the durable record is
		// closed out so the reconciler does not chase a request that never
		// reached the pipeline.
		_ = e.state.ClearJobState(ctx, userID)
		_ = e.jobs.UpdateStatus(ctx, userID, requestID, domain.JobStatusExpired)
		return nil, fmt.Errorf("engine: submit generation: %w", err)
	}

	sup := e.startSupervisor(userID, requestID, script, now)
	e.logger.Info().Str("user_id", userID).Str("request_id", requestID).Msg("engine: generation submitted")
	return sup, nil
}

// Resume restarts supervision of a previously submitted job from its
// original start time. When the remaining budget is already exhausted the
// supervisor performs the final verification immediately.
func (e *Engine) Resume(userID, requestID, script string, start time.Time) *Supervisor {
	e.teardown(userID)
	sup := e.startSupervisor(userID, requestID, script, start)
	e.logger.Info().Str("user_id", userID).Str("request_id", requestID).Msg("engine: supervision resumed")
	return sup
}

// StopGeneration cancels any active supervision and clears the session
// state unconditionally. It is idempotent.
func (e *Engine) StopGeneration(ctx context.Context, userID string) error {
	e.teardown(userID)
	if err := e.state.ClearJobState(ctx, userID); err != nil {
		return fmt.Errorf("engine: clear session state: %w", err)
	}
	return nil
}

// Active returns the user's live supervisor, if any.
func (e *Engine) Active(userID string) (*Supervisor, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	sup, ok := e.active[userID]
	return sup, ok
}

func (e *Engine) startSupervisor(userID, requestID, script string, start time.Time) *Supervisor {
	ctx, cancel := context.WithCancel(context.Background())
	sup := &Supervisor{
		engine:    e,
		userID:    userID,
		requestID: requestID,
		script:    script,
		start:     start,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan Outcome, 1),
	}
	e.mu.Lock()
	e.active[userID] = sup
	e.mu.Unlock()
	go sup.run()
	return sup
}

func (e *Engine) teardown(userID string) {
	e.mu.Lock()
	sup := e.active[userID]
	delete(e.active, userID)
	e.mu.Unlock()
	if sup != nil {
		sup.cancel()
	}
}

func (e *Engine) release(userID string, sup *Supervisor) {
	e.mu.Lock()
	if e.active[userID] == sup {
		delete(e.active, userID)
	}
	e.mu.Unlock()
}

// Supervisor tracks one job from submission to a terminal outcome. The
// countdown and the poll cadence are multiplexed onto a single goroutine so
// only one of them can ever observe completion and finalize; responses that
// arrive after cancellation are discarded with the run loop.
type Supervisor struct {
	engine    *Engine
	userID    string
	requestID string
	script    string
	start     time.Time

	ctx    context.Context
	cancel context.CancelFunc

	finalized sync.Once
	done      chan Outcome
}

// RequestID returns the supervised job's idempotency token.
func (s *Supervisor) RequestID() string { return s.requestID }

// Done delivers the terminal outcome. The channel receives at most one
// value; it stays open on cancellation.
func (s *Supervisor) Done() <-chan Outcome { return s.done }

// Remaining returns how much of the total budget is left at now.
func (s *Supervisor) Remaining(now time.Time) time.Duration {
	remaining := s.engine.budgets.Total - now.Sub(s.start)
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// Snapshot returns the current supervision view.
func (s *Supervisor) Snapshot(now time.Time) Snapshot {
	remaining := s.Remaining(now)
	return Snapshot{
		RequestID: s.requestID,
		Script:    s.script,
		StartTime: s.start,
		Remaining: remaining,
		Countdown: format.Countdown(remaining),
	}
}

// Stop cancels the supervision without finalizing. Idempotent.
func (s *Supervisor) Stop() {
	s.cancel()
	s.engine.release(s.userID, s)
}

func (s *Supervisor) run() {
	budgets := s.engine.budgets
	deadline := s.start.Add(budgets.Total)

	countdown := time.NewTicker(budgets.CountdownTick)
	defer countdown.Stop()

	// No polling until the expected generation latency has passed; then one
	// immediate check followed by the regular cadence.
	pollDelay := time.Until(s.start.Add(budgets.PollDelay))
	if pollDelay < 0 {
		pollDelay = 0
	}
	pollStart := time.NewTimer(pollDelay)
	defer pollStart.Stop()

	var pollC <-chan time.Time

	for {
		select {
		case <-s.ctx.Done():
			return

		case <-pollStart.C:
			if s.checkForResult() {
				return
			}
			ticker := time.NewTicker(budgets.PollInterval)
			defer ticker.Stop()
			pollC = ticker.C

		case <-pollC:
			if s.checkForResult() {
				return
			}

		case now := <-countdown.C:
			if !now.Before(deadline) {
				// Budget exhausted: one final forced verification,
				// independent of the poll cadence.
				if !s.checkForResult() {
					s.expire()
				}
				return
			}
		}
	}
}

// checkForResult queries the durable store once and finalizes when a
// terminal state is observed. It returns true when supervision is over.
func (s *Supervisor) checkForResult() bool {
	ctx, cancelQuery := context.WithTimeout(s.ctx, 15*time.Second)
	defer cancelQuery()

	video, err := s.engine.videos.GetByRequestID(ctx, s.userID, s.requestID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.engine.logger.Error().Err(err).Str("request_id", s.requestID).Msg("engine: poll query failed")
		return false
	}
	if video != nil {
		s.complete(video)
		return true
	}

	job, err := s.engine.jobs.GetByRequestID(ctx, s.userID, s.requestID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.engine.logger.Error().Err(err).Str("request_id", s.requestID).Msg("engine: poll query failed")
		}
		return false
	}
	if job.Status == domain.JobStatusExpired {
		s.finalize(Outcome{Status: domain.JobStatusExpired})
		return true
	}
	return false
}

func (s *Supervisor) complete(video *domain.GeneratedVideo) {
	ctx, cancelWrite := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelWrite()
	// Some pipeline versions deliver the artifact without a title.
	if video.Title == "" {
		video.Title = format.VideoTitle(s.script, 6)
	}
	// The status flip and the artifact write are two uncoordinated steps in
	// the pipeline; setting completed here repairs a lagging record and is
	// a no-op otherwise.
	if err := s.engine.jobs.UpdateStatus(ctx, s.userID, s.requestID, domain.JobStatusCompleted); err != nil {
		s.engine.logger.Error().Err(err).Str("request_id", s.requestID).Msg("engine: status flip failed")
	}
	s.finalize(Outcome{Status: domain.JobStatusCompleted, Video: video})
}

func (s *Supervisor) expire() {
	ctx, cancelWrite := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelWrite()
	if err := s.engine.jobs.UpdateStatus(ctx, s.userID, s.requestID, domain.JobStatusExpired); err != nil {
		s.engine.logger.Error().Err(err).Str("request_id", s.requestID).Msg("engine: expire failed")
	}
	s.engine.logger.Warn().Str("request_id", s.requestID).Msg("engine: budget exhausted with no result")
	s.finalize(Outcome{Status: domain.JobStatusExpired})
}

func (s *Supervisor) finalize(outcome Outcome) {
	s.finalized.Do(func() {
		ctx, cancelClear := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelClear()
		if err := s.engine.state.ClearJobState(ctx, s.userID); err != nil {
			s.engine.logger.Error().Err(err).Str("request_id", s.requestID).Msg("engine: clear session state failed")
		}
		s.engine.release(s.userID, s)
		s.cancel()
		s.done <- outcome
		s.engine.logger.Info().
			Str("request_id", s.requestID).
			Str("status", string(outcome.Status)).
			Msg("engine: supervision finalized")
	})
}
