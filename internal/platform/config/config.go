package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr             string
	JWTSigningKey    string
	JWTIssuer        string
	JWTAudience      string
	TokenTTL         time.Duration
	RefreshThreshold time.Duration
	VerifyCacheTTL   time.Duration
	RedisURL         string
	AuditBuffer      int
	Seed             bool
	ShutdownTimeout  time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("ROSTER_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:             addr,
		JWTSigningKey:    jwtSigningKey,
		JWTIssuer:        envString("JWT_ISSUER", "roster"),
		JWTAudience:      envString("JWT_AUDIENCE", "roster-api"),
		TokenTTL:         envDuration("TOKEN_TTL", 168*time.Hour),
		RefreshThreshold: envDuration("REFRESH_THRESHOLD", 5*time.Minute),
		VerifyCacheTTL:   envDuration("VERIFY_CACHE_TTL", 0),
		RedisURL:         os.Getenv("REDIS_URL"),
		AuditBuffer:      envInt("AUDIT_BUFFER", 256),
		Seed:             envString("SEED", "true") == "true",
		ShutdownTimeout:  envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envInt(key string, fallback int) int {
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
