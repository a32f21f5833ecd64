package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/redis/go-redis/v9"

	"action-dispatch-service/internal/api"
	"action-dispatch-service/internal/auth"
	"action-dispatch-service/internal/config"
	"action-dispatch-service/internal/credentials"
	"action-dispatch-service/internal/executor"
	"action-dispatch-service/internal/feed"
	"action-dispatch-service/internal/googleapi"
	"action-dispatch-service/internal/ratelimit"
	"action-dispatch-service/internal/store"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt)
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

	redisLimiter := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	limiter := ratelimit.NewTokenBucket(redisLimiter, cfg.RateLimitCapacity, cfg.RateLimitRefill, time.Hour)

	exec := newExecutor(cfg)
	verifier := auth.NewHMACVerifier(cfg.AuthSecret)

	server := api.New(cfg, st, changeFeed, exec, verifier, limiter)
	httpServer := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: server.Router(),
	}

	log.Printf("api listening on :%s", cfg.HTTPPort)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = httpServer.Shutdown(shutdownCtx)
}

// newExecutor builds the provider stack: credential provider, token source,
// REST client, dispatch table.
func newExecutor(cfg config.Config) *executor.Executor {
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

	return executor.New(executor.Clients{
		Calendar: client,
		Mail:     client,
		Sheets:   client,
		Docs:     client,
		Drive:    client,
	}, loc)
}
