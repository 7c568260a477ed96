package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"praxis/internal/platform/config"
	"praxis/internal/platform/database"
	"praxis/internal/platform/health"
	"praxis/internal/platform/httpserver"
	"praxis/internal/platform/kafka/producer"
	"praxis/internal/platform/logger"
	platformredis "praxis/internal/platform/redis"
	"praxis/internal/platform/tracer"
	"praxis/internal/tenant/cache"
	"praxis/internal/tenant/events"
	"praxis/internal/tenant/gateway"
	"praxis/internal/tenant/handler"
	"praxis/internal/tenant/metrics"
	"praxis/internal/tenant/provisioner"
	"praxis/internal/tenant/registry"
	"praxis/internal/tenant/service"
	httptransport "praxis/internal/transport/http"
)

// main wires the catalog, the schema provisioner, the tenant gateway and the
// HTTP surface. Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing praxis",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
	)

	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.DatabaseURL
	pool, err := database.New(dbCfg)
	if err != nil {
		log.Error("database init failed", "error", err)
		os.Exit(1)
	}
	if pool == nil {
		log.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	defer pool.Close()

	m := metrics.New(prometheus.DefaultRegisterer)
	trc := tracer.NewOTel()

	// Provisioned-state cache: Redis when configured, in-process otherwise.
	var provisionCache cache.ProvisionCache
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis init failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		provisionCache = cache.NewRedis(redisClient.Client, cfg.ProvisionCacheTTL, log)
		log.Info("provision cache backed by redis")
	} else {
		provisionCache = cache.NewMemory(cfg.ProvisionCacheTTL)
		log.Info("provision cache in memory")
	}

	// Lifecycle eventing: noop unless brokers are configured.
	var publisher *events.Publisher
	if cfg.Kafka.Brokers != "" {
		kafkaProducer, err := producer.New(producer.Config{
			Brokers:         cfg.Kafka.Brokers,
			Acks:            cfg.Kafka.Acks,
			Retries:         cfg.Kafka.Retries,
			DeliveryTimeout: cfg.Kafka.DeliveryTimeout,
		}, log)
		if err != nil {
			log.Error("kafka producer init failed", "error", err)
			os.Exit(1)
		}
		defer kafkaProducer.Close()
		publisher = events.New(kafkaProducer, cfg.Kafka.Topic, log)
		log.Info("tenant events enabled", "topic", cfg.Kafka.Topic)
	}

	store := registry.NewPostgres(pool.DB())
	prov := provisioner.New(pool.DB(),
		provisioner.WithLogger(log),
		provisioner.WithTracer(trc),
		provisioner.WithMetrics(m),
	)
	factory := gateway.NewFactory(pool.DB(), prov,
		gateway.WithCache(provisionCache),
		gateway.WithQueryTimeout(cfg.QueryTimeout),
		gateway.WithLogger(log),
		gateway.WithTracer(trc),
		gateway.WithMetrics(m),
	)
	svc := service.New(store, prov,
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithPublisher(publisher),
		service.WithCache(provisionCache),
	)

	healthHandler := health.New(cfg.Environment)
	healthHandler.RegisterCheck("database", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return pool.Health(ctx)
	})
	if redisClient != nil {
		healthHandler.RegisterCheck("redis", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.Health(ctx)
		})
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:        log,
		AdminToken:    cfg.AdminToken,
		JWTSigningKey: []byte(cfg.JWTSigningKey),
		Resolver:      store,
		Factory:       factory,
		TenantHandler: handler.New(svc, log),
		Health:        healthHandler,
		Metrics:       m,
	})

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting http server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
