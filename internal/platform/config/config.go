// Package config reads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"greenlight/internal/hcert/identity"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string
	Environment    string
	JWTSigningKey  string
	DefaultCountry string
	RateLimitRPS   float64
	RateLimitBurst int
	// AdminToken guards /admin routes; empty disables them.
	AdminToken string
	// TrustedProxies is a comma separated CIDR list allowed to set
	// X-Forwarded-For.
	TrustedProxies string
	// TokenTTL is the lifetime of identity tokens issued by cmd/tokengen.
	TokenTTL time.Duration

	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Trust    TrustConfig
	Decoder  DecoderConfig

	// IdentityPolicyFile is an optional YAML file overriding the default
	// identity matching thresholds.
	IdentityPolicyFile string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig is empty URL when Redis is not used.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type KafkaConfig struct {
	Brokers    string
	AuditTopic string
}

type TrustConfig struct {
	ListURL         string
	AnchorFile      string
	RefreshInterval time.Duration
	FetchTimeout    time.Duration
	CacheTTL        time.Duration
}

type DecoderConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:           env("ADDR", ":8080"),
		Environment:    env("ENVIRONMENT", "development"),
		JWTSigningKey:  env("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		DefaultCountry: strings.ToUpper(env("DEFAULT_COUNTRY", "AT")),
		RateLimitRPS:   envFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: envInt("RATE_LIMIT_BURST", 20),
		AdminToken:     os.Getenv("ADMIN_API_TOKEN"),
		TrustedProxies: os.Getenv("TRUSTED_PROXIES"),
		TokenTTL:       envDuration("TOKEN_TTL", time.Hour),
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:    os.Getenv("KAFKA_BROKERS"),
			AuditTopic: env("KAFKA_AUDIT_TOPIC", "greenlight.audit"),
		},
		Trust: TrustConfig{
			ListURL:         os.Getenv("TRUST_LIST_URL"),
			AnchorFile:      os.Getenv("TRUST_ANCHOR_FILE"),
			RefreshInterval: envDuration("TRUST_REFRESH_INTERVAL", 15*time.Minute),
			FetchTimeout:    envDuration("TRUST_FETCH_TIMEOUT", 10*time.Second),
			CacheTTL:        envDuration("TRUST_CACHE_TTL", 7*24*time.Hour),
		},
		Decoder: DecoderConfig{
			URL:     os.Getenv("DECODER_URL"),
			APIKey:  os.Getenv("DECODER_API_KEY"),
			Timeout: envDuration("DECODER_TIMEOUT", 5*time.Second),
		},
		IdentityPolicyFile: os.Getenv("IDENTITY_POLICY_FILE"),
	}
}

// Validate reports settings the server cannot start without.
func (s Server) Validate() error {
	var missing []string
	if s.Trust.ListURL == "" {
		missing = append(missing, "TRUST_LIST_URL")
	}
	if s.Trust.AnchorFile == "" {
		missing = append(missing, "TRUST_ANCHOR_FILE")
	}
	if s.Decoder.URL == "" {
		missing = append(missing, "DECODER_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if len(s.DefaultCountry) != 2 {
		return fmt.Errorf("DEFAULT_COUNTRY must be a two-letter code, got %q", s.DefaultCountry)
	}
	if s.Environment == "production" && s.JWTSigningKey == "dev-secret-key-change-in-production" {
		return fmt.Errorf("JWT_SIGNING_KEY must be set in production")
	}
	if s.AdminToken != "" && len(s.AdminToken) < 16 {
		return fmt.Errorf("ADMIN_API_TOKEN must be at least 16 characters")
	}
	return nil
}

// LoadIdentityPolicy reads thresholds from path over the defaults. An empty
// path yields the defaults. IDENTITY_STRICT_THRESHOLD and
// IDENTITY_RELAXED_THRESHOLD override the file.
func LoadIdentityPolicy(path string) (identity.Policy, error) {
	policy := identity.DefaultPolicy()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return identity.Policy{}, fmt.Errorf("read identity policy: %w", err)
		}
		if err := yaml.Unmarshal(data, &policy); err != nil {
			return identity.Policy{}, fmt.Errorf("parse identity policy: %w", err)
		}
	}
	policy.StrictThreshold = envFloat("IDENTITY_STRICT_THRESHOLD", policy.StrictThreshold)
	policy.RelaxedThreshold = envFloat("IDENTITY_RELAXED_THRESHOLD", policy.RelaxedThreshold)
	if err := policy.Validate(); err != nil {
		return identity.Policy{}, err
	}
	return policy, nil
}

func env(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}
