package config

import (
	"os"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr              string
	JWTSigningKey     string
	OwnerAddress      string
	ControllerAddress string
	EngineMode        string
	EngineURL         string
	CompositionTarget string
	SamplingTarget    string
	StaticProof       string
}

// Database captures the connection settings for the credential store.
type Database struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Redis captures the receipt cache settings.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka captures event publishing settings.
type Kafka struct {
	Brokers         string
	Topic           string
	Acks            string
	Retries         int
	DeliveryTimeout time.Duration
}

// ReceiptCacheTTL bounds how long verification receipts stay queryable.
var ReceiptCacheTTL = 24 * time.Hour

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("PROOFGATE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	engineMode := os.Getenv("PROOFGATE_ENGINE")
	if engineMode == "" {
		engineMode = "static"
	}

	if ttlStr := os.Getenv("RECEIPT_CACHE_TTL"); ttlStr != "" {
		if duration, err := time.ParseDuration(ttlStr); err == nil {
			ReceiptCacheTTL = duration
		}
	}

	controller := os.Getenv("PROOFGATE_CONTROLLER_ADDRESS")
	if controller == "" {
		controller = "0xc0de"
	}

	staticProof := os.Getenv("PROOFGATE_STATIC_PROOF")
	if staticProof == "" {
		staticProof = "valid-proof"
	}

	return Server{
		Addr:              addr,
		JWTSigningKey:     jwtSigningKey,
		OwnerAddress:      os.Getenv("PROOFGATE_OWNER_ADDRESS"),
		ControllerAddress: controller,
		EngineMode:        engineMode,
		EngineURL:         os.Getenv("PROOFGATE_ENGINE_URL"),
		CompositionTarget: os.Getenv("PROOFGATE_COMPOSITION_TARGET"),
		SamplingTarget:    os.Getenv("PROOFGATE_SAMPLING_TARGET"),
		StaticProof:       staticProof,
	}
}

// DatabaseFromEnv builds a Database config with pool defaults.
func DatabaseFromEnv() Database {
	return Database{
		URL:             os.Getenv("DATABASE_URL"),
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// RedisFromEnv builds a Redis config with client defaults.
func RedisFromEnv() Redis {
	return Redis{
		URL:          os.Getenv("REDIS_URL"),
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// KafkaFromEnv builds a Kafka config for the outbox publisher.
func KafkaFromEnv() Kafka {
	topic := os.Getenv("KAFKA_EVENTS_TOPIC")
	if topic == "" {
		topic = "proofgate.credential.events"
	}
	return Kafka{
		Brokers:         os.Getenv("KAFKA_BROKERS"),
		Topic:           topic,
		Acks:            "all",
		Retries:         5,
		DeliveryTimeout: 10 * time.Second,
	}
}
