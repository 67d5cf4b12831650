package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"clipstudio/internal/adapter/repo"
	"clipstudio/internal/engine"
	"clipstudio/internal/ephemeral"
	"clipstudio/internal/http/handlers"
	"clipstudio/internal/http/httpapi"
	"clipstudio/internal/infra"
	"clipstudio/internal/infra/geoip"
	"clipstudio/internal/middleware"
	"clipstudio/internal/providers/generation"
	"clipstudio/internal/providers/social"
	"clipstudio/internal/storage"
	"clipstudio/internal/wizard"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer pool.Close()

	rdb, err := infra.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}
	defer rdb.Close()

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip database unavailable, country resolution disabled")
	}
	var lookup middleware.CountryLookup
	if resolver != nil {
		lookup = resolver.Lookup()
		defer resolver.Close()
	}

	jobs := repo.NewJobRepository(pool)
	videos := repo.NewVideoRepository(pool)
	keys := repo.NewAPIKeyRepository(pool)
	states := repo.NewWizardStateRepository(pool)

	sessions := ephemeral.NewStore(rdb, cfg.SessionTTL)
	uploads, err := storage.NewUploadStore(cfg.UploadPath, cfg.SessionTTL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare upload store")
	}

	submitter, err := generation.NewClient(generation.Options{WebhookURL: cfg.GenerationURL})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build generation client")
	}

	eng := engine.New(jobs, videos, sessions, submitter, cfg.Budgets, infra.NewLogger(cfg.AppEnv, "engine"))
	recovery := engine.NewRecoverer(jobs, videos, sessions, eng, cfg.Budgets, infra.NewLogger(cfg.AppEnv, "recovery"))
	flow := wizard.NewFlow(states, keys, uploads, infra.NewLogger(cfg.AppEnv, "wizard"))

	app := &handlers.App{
		Cfg:       cfg,
		Logger:    logger,
		Keys:      keys,
		Videos:    videos,
		Wizard:    flow,
		Engine:    eng,
		Recovery:  recovery,
		Uploads:   uploads,
		Publisher: social.NewBlotatoClient(social.BlotatoOptions{BaseURL: cfg.BlotatoBaseURL}),
	}

	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(app, lookup))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("port", cfg.Port).Msg("api listening")
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		return
	}
	logger.Info().Msg("server stopped")
}
