// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"crew/internal/audit"
	auditmemory "crew/internal/audit/store/memory"
	auditpostgres "crew/internal/audit/store/postgres"
	"crew/internal/audit/stream"
	"crew/internal/authz"
	"crew/internal/catalog"
	httpapi "crew/internal/http"
	"crew/internal/jwttoken"
	"crew/internal/platform/config"
	"crew/internal/platform/httpserver"
	"crew/internal/platform/logger"
	platformmetrics "crew/internal/platform/metrics"
	platformredis "crew/internal/platform/redis"
	teamhandler "crew/internal/team/handler"
	teammetrics "crew/internal/team/metrics"
	"crew/internal/team/service"
	"crew/internal/team/store/profile"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	cat := catalog.Default()
	health := make(map[string]httpapi.HealthChecker)

	var profiles profile.Store
	var auditStore audit.Store
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("ping postgres", "error", err)
			os.Exit(1)
		}

		pgProfiles := profile.NewPostgres(db)
		pgAudit := auditpostgres.New(db)
		if err := pgProfiles.EnsureSchema(ctx); err != nil {
			log.Error("ensure profile schema", "error", err)
			os.Exit(1)
		}
		if err := pgAudit.EnsureSchema(ctx); err != nil {
			log.Error("ensure audit schema", "error", err)
			os.Exit(1)
		}
		profiles = pgProfiles
		auditStore = pgAudit
		health["postgres"] = pingChecker{db}
	} else {
		log.Warn("no postgres DSN configured, using in-memory stores")
		profiles = profile.NewInMemory()
		auditStore = auditmemory.NewInMemoryStore()
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		profiles = profile.NewCached(profiles, redisClient.Client, cfg.Redis.ProfileTTL, log)
		health["redis"] = redisClient
	}

	var publisher audit.StreamPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := stream.NewKafkaPublisher(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			log.Error("connect kafka", "error", err)
			os.Exit(1)
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := kafka.Close(closeCtx); err != nil {
				log.Warn("close kafka publisher", "error", err)
			}
		}()
		publisher = kafka
	}

	domainMetrics := teammetrics.New()
	auditSvc := audit.NewService(auditStore, publisher)
	teams := service.NewService(profiles, cat, auditSvc,
		service.WithMetrics(domainMetrics),
		service.WithLogger(log),
	)

	guard := authz.NewGuard(teams, cat, domainMetrics, log)
	jwtSvc := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	handler := teamhandler.New(teams, auditSvc, cat, guard, log)

	router := httpapi.NewRouter(httpapi.Deps{
		Teams:       handler,
		Auth:        jwtSvc,
		HTTPMetrics: platformmetrics.NewHTTP(),
		Logger:      log,
		Health:      health,
	})

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting crew server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

type pingChecker struct {
	db *sql.DB
}

func (c pingChecker) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}
