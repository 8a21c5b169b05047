package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/league-backend/internal/auth"
	"github.com/DoyleJ11/league-backend/internal/config"
	"github.com/DoyleJ11/league-backend/internal/db"
	"github.com/DoyleJ11/league-backend/internal/httpapi"
	"github.com/DoyleJ11/league-backend/internal/hub"
	"github.com/DoyleJ11/league-backend/internal/league"
	"github.com/DoyleJ11/league-backend/internal/metrics"
	"github.com/DoyleJ11/league-backend/internal/repo"
	"github.com/DoyleJ11/league-backend/internal/scheduler"
	"github.com/DoyleJ11/league-backend/internal/ws"
)

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) (err error) {
	gdb, err := db.Open(ctx, db.Options{
		Driver:      cfg.DB.Driver,
		DSN:         cfg.DB.DSN,
		AutoMigrate: cfg.DB.Migrate,
		Log:         log.Named("db"),
	})
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, db.Close(gdb)) }()

	rec := metrics.New()
	// The hub outlives ctx so sockets can be closed during shutdown.
	h := hub.NewHub(context.WithoutCancel(ctx), log.Named("hub"), rec)
	svc := league.New(repo.New(gdb), h, log.Named("league"), league.WithClaimTTL(cfg.Claims.TTL))

	jobs, err := scheduler.New(ctx, log.Named("scheduler"))
	if err != nil {
		return err
	}
	if err := jobs.RegisterLeagueJobs(svc, cfg.Scheduler.ExpireEvery, cfg.Scheduler.LiveEvery); err != nil {
		return multierr.Append(err, jobs.Stop())
	}
	jobs.Start()
	defer func() { err = multierr.Append(err, jobs.Stop()) }()

	closing := make(chan struct{})
	handler := httpapi.SetupRoutes(httpapi.Deps{
		Hub:      h,
		League:   svc,
		Sessions: auth.NewSessions(cfg.Session.Secret, cfg.Session.Secure, cfg.Session.MaxAge),
		Metrics:  rec,
		Log:      log.Named("http"),
		WS: ws.Options{
			Origins:      cfg.WS.Origins,
			ActionRate:   cfg.WS.ActionRate,
			ActionBurst:  cfg.WS.ActionBurst,
			Outbox:       cfg.WS.Outbox,
			ReadTimeout:  cfg.WS.ReadTimeout,
			WriteTimeout: cfg.WS.WriteTimeout,
		},
		Shutdown: closing,
	})
	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.HTTP.Addr), zap.String("db", cfg.DB.Driver))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()

		log.Info("shutting down")
		// Hijacked sockets are not tracked by Shutdown.
		close(closing)
		err := server.Shutdown(shutdownCtx)
		_ = h.Send(shutdownCtx, hub.ShutdownHub{})
		if err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})
	return g.Wait()
}
