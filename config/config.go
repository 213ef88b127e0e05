// Package config loads server settings from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Backend names accepted for the user and result stores
const (
	BackendMemory = "memory"
	BackendMongo  = "mongo"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config holds the application's configuration values.
type Config struct {
	Host        string        // HTTP listen host
	Port        int           // HTTP listen port
	LevelDir    string        // Directory with level_<n>.json files
	SessionDir  string        // Directory for saved sessions, empty disables saving
	SessionTTL  time.Duration // Idle time before a session is removed
	TickSeconds int           // Seconds per tick of the session clock

	JWTSecret string        // Secret key for JWT signing
	JWTIssuer string        // Issuer claim for JWTs
	TokenTTL  time.Duration // Lifetime of access tokens

	UserStore   string // memory | mongo
	ResultStore string // memory | sqlite | redis

	MongoURI      string
	MongoDB       string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	NgrokEnabled bool
	NgrokAuth    string
	NgrokDomain  string
}

// Load reads a .env file if present and builds a Config from the environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).Warn("[APP] error loading .env file")
		}
	} else {
		log.Debug("[APP] loaded environment variables from .env file")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only
func FromEnv() (*Config, error) {
	cfg := &Config{
		Host:        getEnvWithDefault("HOST", "localhost"),
		Port:        getEnvAsInt("PORT", 8085),
		LevelDir:    getEnvWithDefault("LEVEL_DIR", "levels"),
		SessionDir:  getEnvWithDefault("SESSION_DIR", ""),
		SessionTTL:  getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		TickSeconds: getEnvAsInt("TICK_SECONDS", 1),

		JWTSecret: getEnvWithDefault("JWT_SECRET", ""),
		JWTIssuer: getEnvWithDefault("JWT_ISSUER", "blockpush"),
		TokenTTL:  getEnvAsDuration("TOKEN_TTL", 24*time.Hour),

		UserStore:   strings.ToLower(getEnvWithDefault("USER_STORE", BackendMemory)),
		ResultStore: strings.ToLower(getEnvWithDefault("RESULT_STORE", BackendMemory)),

		MongoURI:      getEnvWithDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:       getEnvWithDefault("MONGO_DB", "blockpush"),
		SQLitePath:    getEnvWithDefault("SQLITE_PATH", "blockpush.db"),
		RedisAddr:     getEnvWithDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnvWithDefault("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		RedisPrefix:   getEnvWithDefault("REDIS_PREFIX", "blockpush"),

		NgrokEnabled: getEnvAsBool("NGROK_ENABLED", false),
		NgrokAuth:    getEnvWithDefault("NGROK_AUTHTOKEN", ""),
		NgrokDomain:  getEnvWithDefault("NGROK_DOMAIN", ""),
	}

	return cfg, cfg.Validate()
}

// Validate checks backend names and required values
func (c *Config) Validate() error {
	switch c.UserStore {
	case BackendMemory, BackendMongo:
	default:
		return fmt.Errorf("unknown user store %q (want memory or mongo)", c.UserStore)
	}
	switch c.ResultStore {
	case BackendMemory, BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("unknown result store %q (want memory, sqlite or redis)", c.ResultStore)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.TickSeconds <= 0 {
		return fmt.Errorf("tick seconds must be positive, got %d", c.TickSeconds)
	}
	return nil
}

// Addr returns host:port
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// TickInterval returns the session clock period
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickSeconds) * time.Second
}

// getEnvWithDefault retrieves the value of an environment variable or returns a default value if not set.
func getEnvWithDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.WithField("key", key).Warnf("[APP] environment variable must be an integer, using %d", defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.WithField("key", key).Warnf("[APP] environment variable must be a boolean, using %v", defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.WithField("key", key).Warnf("[APP] environment variable must be a duration, using %s", defaultValue)
		return defaultValue
	}
	return value
}
