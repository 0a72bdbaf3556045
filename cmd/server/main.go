package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lumen-labs/iris/internal/assignment"
	"github.com/lumen-labs/iris/internal/db"
	"github.com/lumen-labs/iris/internal/events"
	"github.com/lumen-labs/iris/internal/redis"
)

func main() {
	// .env is optional; deployments set the environment directly
	_ = godotenv.Load()

	env := LoadEnvironment()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if env.Environment == "development" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if err := db.Init(env.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	if err := db.RunMigrations(env.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	store := db.NewStore(db.DB)

	if env.RedisAddress != "" {
		redis.InitRedis(env.RedisAddress, env.RedisUsername, env.RedisPassword)
	} else {
		log.Warn().Msg("REDIS_ADDRESS not set; pairing and the online cache are disabled")
	}

	storageSystem := InitStorage(env)

	registry := events.NewRegistry()

	var sinks []events.Sink
	var bridge *events.MQTTBridge
	if env.MQTTBrokerURL != "" {
		var err error
		bridge, err = events.NewMQTTBridge(env.MQTTBrokerURL, "iris-server")
		if err != nil {
			log.Error().Err(err).Msg("mqtt bridge unavailable, continuing without it")
		} else {
			sinks = append(sinks, bridge)
		}
	}
	broadcaster := events.NewBroadcaster(registry, sinks...)

	var audit assignment.AuditSink
	if env.AMQPUrl != "" {
		audit = events.NewAuditFeed(env.AMQPUrl)
	}

	manager := assignment.NewManager(store, broadcaster, audit)

	r := gin.Default()
	RegisterRoutes(r, env, store, storageSystem, registry, broadcaster, manager)

	srv := &http.Server{
		Addr:    env.ServerAddress,
		Handler: r,
	}

	go func() {
		log.Info().Str("address", env.ServerAddress).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info().Msg("shutting down")

	// close event streams first so their handlers return before Shutdown waits
	registry.Drain()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	if bridge != nil {
		bridge.Close()
	}
}
