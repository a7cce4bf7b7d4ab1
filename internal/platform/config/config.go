// Package config centralizes environment-driven configuration so main stays
// lean. Every setting has a development default; production deployments
// override through the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// RedisConfig holds connection settings for the profile cache. An empty URL
// disables caching entirely.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	ProfileTTL   time.Duration
}

// KafkaConfig holds settings for the audit event stream. No brokers means
// entries are only written to the audit store.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Config captures everything the server needs at startup.
type Config struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string

	// PostgresDSN empty selects the in-memory stores, used in development
	// and tests.
	PostgresDSN string

	Redis RedisConfig
	Kafka KafkaConfig

	ShutdownTimeout time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:          envOr("CREW_ADDR", ":8080"),
		JWTSigningKey: envOr("CREW_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:     envOr("CREW_JWT_ISSUER", "crew"),
		JWTAudience:   envOr("CREW_JWT_AUDIENCE", "crew-staff"),
		PostgresDSN:   os.Getenv("CREW_POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("CREW_REDIS_URL"),
			PoolSize:     envIntOr("CREW_REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("CREW_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDurationOr("CREW_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDurationOr("CREW_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDurationOr("CREW_REDIS_WRITE_TIMEOUT", 3*time.Second),
			ProfileTTL:   envDurationOr("CREW_PROFILE_CACHE_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Topic: envOr("CREW_KAFKA_AUDIT_TOPIC", "crew.audit.entries"),
		},
		ShutdownTimeout: envDurationOr("CREW_SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if brokers := os.Getenv("CREW_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.Kafka.Brokers = append(cfg.Kafka.Brokers, b)
			}
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
