package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"clipstudio/internal/adapter/repo"
	"clipstudio/internal/domain"
	"clipstudio/internal/infra"
	"clipstudio/internal/storage"
)

const staleBatchSize = 100

// sweeper closes out generation jobs whose supervisor died with them: a
// crashed or redeployed api instance leaves processing rows behind that no
// live countdown will ever finish.
type sweeper struct {
	jobs    domain.JobRepository
	videos  domain.VideoRepository
	uploads *storage.UploadStore
	budgets infra.Budgets
	logger  infra.Logger
}

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "reconciler")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("reconciler: db connection failed")
	}
	defer pool.Close()

	uploads, err := storage.NewUploadStore(cfg.UploadPath, cfg.SessionTTL)
	if err != nil {
		logger.Fatal().Err(err).Msg("reconciler: failed to open upload store")
	}

	s := &sweeper{
		jobs:    repo.NewJobRepository(pool),
		videos:  repo.NewVideoRepository(pool),
		uploads: uploads,
		budgets: cfg.Budgets,
		logger:  logger,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.run(gctx, cfg.SweepInterval) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("reconciler: stopped with error")
	}
	logger.Info().Msg("reconciler: stopped")
}

func (s *sweeper) run(ctx context.Context, interval time.Duration) error {
	s.logger.Info().Dur("interval", interval).Msg("reconciler: started")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.sweep(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *sweeper) sweep(ctx context.Context) {
	now := time.Now()

	stale, err := s.jobs.ListStale(ctx, now.Add(-s.budgets.Total), staleBatchSize)
	if err != nil {
		s.logger.Error().Err(err).Msg("reconciler: stale listing failed")
	} else {
		for i := range stale {
			s.settle(ctx, &stale[i], now)
		}
	}

	removed, err := s.uploads.Sweep(ctx, now)
	if err != nil {
		s.logger.Error().Err(err).Msg("reconciler: upload sweep failed")
	} else if removed > 0 {
		s.logger.Info().Int("sessions", removed).Msg("reconciler: expired upload sessions removed")
	}
}

// settle closes one stale processing job. When an artifact exists the record
// lagged behind a successful generation, so it heals to completed rather than
// expiring work that actually finished.
func (s *sweeper) settle(ctx context.Context, job *domain.GenerationJob, now time.Time) {
	status := domain.JobStatusExpired
	if _, err := s.videos.GetByRequestID(ctx, job.UserID, job.RequestID); err == nil {
		status = domain.JobStatusCompleted
		s.logger.Warn().
			Str("user_id", job.UserID).
			Str("request_id", job.RequestID).
			Dur("age", job.Age(now)).
			Msg("reconciler: healing job record that lagged behind its artifact")
	} else if !errors.Is(err, domain.ErrNotFound) {
		s.logger.Error().Err(err).Str("request_id", job.RequestID).Msg("reconciler: artifact lookup failed")
		return
	}

	// A row listed as stale may have been finalized by a live supervisor
	// between the listing and this write; a terminal row stays terminal.
	if !job.Status.CanTransition(status) {
		return
	}

	if err := s.jobs.UpdateStatus(ctx, job.UserID, job.RequestID, status); err != nil {
		s.logger.Error().Err(err).Str("request_id", job.RequestID).Msg("reconciler: status update failed")
		return
	}
	s.logger.Info().
		Str("request_id", job.RequestID).
		Str("status", string(status)).
		Msg("reconciler: settled stale job")
}
