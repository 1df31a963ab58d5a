package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	StoreRedis = "redis"
	StoreBolt  = "bolt"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Admin credentials and session
	AdminUsername string        // login username
	AdminPassword string        // login password
	SessionSecret string        // session cookie credential; missing = refuse to start
	SessionTTL    time.Duration // login-issued session lifetime (default: 8h)
	SecureCookies bool          // true in production (cookies sent over HTTPS only)

	CatalogFile string // optional path to the service catalog yaml

	// Store selection
	StoreBackend string // "redis" | "bolt"
	BoltPath     string // database file when StoreBackend == "bolt"

	// Redis (StoreBackend == "redis")
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // auth token
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts

	AllowedHosts []string // optional, restrict access to specific Host headers
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("SWITCHBOARD_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("SWITCHBOARD_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("SWITCHBOARD_LOG_LEVEL", "info"),
		PrettyLog: mustBool("SWITCHBOARD_PRETTY_LOG", true),

		// Admin credentials and session. The session secret is required:
		// without it authentication fails closed on every request, so
		// starting up would only produce an unusable panel.
		AdminUsername: requireEnv("SWITCHBOARD_ADMIN_USERNAME"),
		AdminPassword: requireEnv("SWITCHBOARD_ADMIN_PASSWORD"),
		SessionSecret: requireEnv("SWITCHBOARD_SESSION_SECRET"),
		SessionTTL:    mustDuration("SWITCHBOARD_SESSION_TTL", 8*time.Hour),
		SecureCookies: mustBool("SWITCHBOARD_SECURE_COOKIES", false),

		CatalogFile: getenv("SWITCHBOARD_CATALOG_FILE", ""),

		// Store selection
		StoreBackend: getenv("SWITCHBOARD_STORE", StoreRedis),
		BoltPath:     getenv("SWITCHBOARD_BOLT_PATH", "/var/lib/switchboard/state.db"),

		// Redis settings
		RedisUser:           getenv("SWITCHBOARD_REDIS_USERNAME", "default"),
		RedisPassword:       getenv("SWITCHBOARD_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("SWITCHBOARD_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("SWITCHBOARD_ALLOWED_HOSTS", "")),
	}

	switch cfg.StoreBackend {
	case StoreRedis:
		cfg.RedisAddr = requireEnv("SWITCHBOARD_REDIS_ADDR")
	case StoreBolt:
		// embedded file store, no connection settings needed
	default:
		panic(fmt.Sprintf("❌ FATAL: SWITCHBOARD_STORE must be %q or %q, got %q",
			StoreRedis, StoreBolt, cfg.StoreBackend))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.AdminPassword = "***REDACTED***"
		cfgCopy.SessionSecret = "***REDACTED***"
		cfgCopy.RedisPassword = "***REDACTED***"
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
