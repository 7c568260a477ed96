package config

import (
	"os"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr          string
	Environment   string
	DatabaseURL   string
	AdminToken    string
	JWTSigningKey string
	QueryTimeout  time.Duration
	Redis         RedisConfig
	Kafka         KafkaConfig

	// ProvisionCacheTTL bounds how long a tenant is remembered as provisioned
	// before the next access re-checks the catalog.
	ProvisionCacheTTL time.Duration
}

// RedisConfig holds connection settings for the provisioned-state cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds producer settings for tenant lifecycle events.
type KafkaConfig struct {
	Brokers         string
	Topic           string
	Acks            string
	Retries         int
	DeliveryTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("PRAXIS_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	env := os.Getenv("PRAXIS_ENV")
	if env == "" {
		env = "development"
	}

	queryTimeout := 5 * time.Second
	if s := os.Getenv("PRAXIS_QUERY_TIMEOUT"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			queryTimeout = d
		}
	}

	cacheTTL := 30 * time.Second
	if s := os.Getenv("PRAXIS_PROVISION_CACHE_TTL"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			cacheTTL = d
		}
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	kafkaTopic := os.Getenv("KAFKA_TENANT_EVENTS_TOPIC")
	if kafkaTopic == "" {
		kafkaTopic = "praxis.tenant.events"
	}

	return Server{
		Addr:          addr,
		Environment:   env,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		AdminToken:    os.Getenv("ADMIN_TOKEN"),
		JWTSigningKey: jwtSigningKey,
		QueryTimeout:  queryTimeout,
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:         os.Getenv("KAFKA_BROKERS"),
			Topic:           kafkaTopic,
			Acks:            "all",
			Retries:         3,
			DeliveryTimeout: 10 * time.Second,
		},
		ProvisionCacheTTL: cacheTTL,
	}
}
