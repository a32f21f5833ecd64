package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"action-dispatch-service/internal/archive"
	"action-dispatch-service/internal/config"
	"action-dispatch-service/internal/credentials"
	"action-dispatch-service/internal/dispatch"
	"action-dispatch-service/internal/executor"
	"action-dispatch-service/internal/feed"
	"action-dispatch-service/internal/googleapi"
	"action-dispatch-service/internal/store"
	"action-dispatch-service/internal/sweeper"
	"action-dispatch-service/internal/telemetry"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		cancel()
	}()

	st, err := store.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer st.Close()

	if err := st.RunMigrations(ctx); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	changeFeed := feed.NewRedisFeed(cfg)

	var provider credentials.Provider
	if cfg.CredentialsFile != "" {
		provider = credentials.FileProvider{Path: cfg.CredentialsFile}
	} else {
		provider = credentials.EnvProvider{Key: cfg.CredentialsEnv}
	}
	tokens := credentials.NewTokenSource(provider, cfg.ProviderTimeout)
	client := googleapi.New(cfg, tokens)

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		log.Printf("load timezone %q: %v, falling back to UTC", cfg.TimeZone, err)
		loc = time.UTC
	}

	exec := executor.New(executor.Clients{
		Calendar: client,
		Mail:     client,
		Sheets:   client,
		Docs:     client,
		Drive:    client,
	}, loc)

	trigger := dispatch.NewTrigger(st, exec)
	runner := dispatch.NewRunner(cfg, changeFeed, trigger)

	archiver, err := archive.New(ctx, cfg)
	if err != nil {
		log.Fatalf("init archive: %v", err)
	}
	retention := time.Duration(cfg.RetentionDays) * 24 * time.Hour
	sw := sweeper.New(st, archiverOrNil(archiver), retention)
	go func() {
		if err := sw.Run(ctx, cfg.SweepInterval); err != nil && ctx.Err() == nil {
			log.Printf("sweeper stopped: %v", err)
		}
	}()

	go func() {
		if err := http.ListenAndServe(cfg.MetricsAddr, telemetry.Handler()); err != nil {
			log.Printf("metrics server stopped: %v", err)
		}
	}()

	log.Printf("dispatcher started retention_days=%d sweep_interval=%s", cfg.RetentionDays, cfg.SweepInterval)
	if err := runner.Run(ctx); err != nil {
		log.Printf("dispatcher stopped: %v", err)
	}
}

// archiverOrNil keeps the sweeper's optional dependency genuinely nil when
// archival is unconfigured (a typed nil would defeat the nil check).
func archiverOrNil(a *archive.S3Archiver) sweeper.Archiver {
	if a == nil {
		return nil
	}
	return a
}
