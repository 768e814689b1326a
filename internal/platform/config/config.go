package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration. FromEnv keeps main lean;
// every field has a development default so the service boots with no env set.
type Server struct {
	Addr          string
	JWTSigningKey string

	// PostgresDSN enables the postgres stores; empty means in-memory.
	PostgresDSN string

	// UploadsDir is the root for rendered artifacts (qrcodes/, certificates/).
	UploadsDir string

	// PublicBaseURL prefixes artifact paths in API responses and mails.
	PublicBaseURL string

	EventName string

	Redis RedisConfig
	SMTP  SMTPConfig
	Kafka KafkaConfig

	// PaymentSecret signs gateway order/payment pairs (HMAC-SHA256).
	PaymentSecret string
}

// RedisConfig configures the optional redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// SMTPConfig configures the outbound mailer; empty Host disables delivery.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// KafkaConfig configures the optional scan-event publisher.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	return Server{
		Addr:          envOr("GATEPASS_ADDR", ":8080"),
		JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		UploadsDir:    envOr("UPLOADS_DIR", "uploads"),
		PublicBaseURL: envOr("PUBLIC_BASE_URL", ""),
		EventName:     envOr("EVENT_NAME", "Gatepass Event"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envIntOr("REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     envIntOr("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     envOr("SMTP_FROM", "no-reply@localhost"),
		},
		Kafka: KafkaConfig{
			Brokers: splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
			Topic:   envOr("KAFKA_SCAN_TOPIC", "gatepass.scans"),
		},
		PaymentSecret: os.Getenv("PAYMENT_GATEWAY_SECRET"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
