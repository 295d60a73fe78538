package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"linguaformula/internal/auth"
	"linguaformula/internal/backend"
	"linguaformula/internal/cache"
	"linguaformula/internal/database"
	"linguaformula/internal/handler"
	"linguaformula/internal/proxy"
	"linguaformula/internal/repository"
	"linguaformula/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.API.BaseURL == "" {
		log.Warn("API URL is not set; backend pages will show an error")
	}

	hashKey, blockKey, generated, err := cfg.SessionKeys()
	if err != nil {
		return err
	}
	if generated {
		log.Warn("session secret not set; using random keys, sessions will not survive a restart")
	}

	var c backend.Cache = cache.NewMemory()
	if cfg.Cache.RedisAddr != "" {
		rc, err := cache.NewRedis(ctx, cache.RedisOptions{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			return err
		}
		defer rc.Close()
		c = rc
		log.Info("using redis cache", zap.String("addr", cfg.Cache.RedisAddr))
	}

	api := backend.New(cfg.API.BaseURL,
		backend.WithLogger(log.Named("backend")),
		backend.WithCache(c, cfg.GetDisciplinesTTL()),
	)

	store := session.NewStore(hashKey, blockKey, session.Options{
		Secure:          cfg.Session.Secure,
		TokenMaxAge:     cfg.GetTokenMaxAge(),
		JustLoggedInTTL: cfg.GetJustLoggedInTTL(),
	})
	provider := auth.NewProvider(api, store, log.Named("auth"))

	fwd := proxy.NewForwarder(cfg.API.BaseURL, cfg.GetProxyTimeout(), log.Named("proxy"))
	defer fwd.Close()

	deps := handler.Deps{
		API:           api,
		Auth:          provider,
		Proxy:         fwd,
		Logger:        log,
		SecureCookies: cfg.Session.Secure,
	}
	if cfg.Database.URL != "" {
		db, err := database.Open(ctx, cfg.Database, log.Named("db"))
		if err != nil {
			return err
		}
		defer db.Close()
		if err := database.MigrateUp(db, log); err != nil {
			return err
		}
		deps.Attempts = repository.NewAttemptRepository(db)
		deps.Progress = repository.NewProgressRepository(db)
	} else {
		log.Info("database not configured; attempt history disabled")
	}

	router, err := handler.NewRouter(deps)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server started", zap.String("addr", cfg.Server.Addr), zap.String("api", cfg.API.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", zap.Error(err))
	}
	router.Wait()
	return nil
}

