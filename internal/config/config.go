// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultSecretKey = "your-secret-key-change-in-production"

// Storage backends for the user directory.
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Revocation backends.
const (
	RevocationStore = "store"
	RevocationRedis = "redis"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port                     string  `mapstructure:"PORT"`
	Env                      string  `mapstructure:"APP_ENV"`
	SecretKey                string  `mapstructure:"SECRET_KEY"`
	Algorithm                string  `mapstructure:"ALGORITHM"`
	AccessTokenExpireMinutes int     `mapstructure:"ACCESS_TOKEN_EXPIRE_MINUTES"`
	BcryptCost               int     `mapstructure:"BCRYPT_COST"`
	StoreBackend             string  `mapstructure:"STORE_BACKEND"`
	MongoURI                 string  `mapstructure:"MONGODB_URI"`
	MongoDatabase            string  `mapstructure:"MONGODB_DATABASE"`
	MongoTimeoutSeconds      int     `mapstructure:"MONGODB_TIMEOUT_SECONDS"`
	DBHost                   string  `mapstructure:"DB_HOST"`
	DBPort                   string  `mapstructure:"DB_PORT"`
	DBUser                   string  `mapstructure:"DB_USER"`
	DBPassword               string  `mapstructure:"DB_PASSWORD"`
	DBName                   string  `mapstructure:"DB_NAME"`
	DBSSLMode                string  `mapstructure:"DB_SSLMODE"`
	SQLitePath               string  `mapstructure:"SQLITE_PATH"`
	RedisURL                 string  `mapstructure:"REDIS_URL"`
	RevocationBackend        string  `mapstructure:"REVOCATION_BACKEND"`
	RevocationPruneMinutes   int     `mapstructure:"REVOCATION_PRUNE_INTERVAL_MINUTES"`
	AllowedOrigins           string  `mapstructure:"ALLOWED_ORIGINS"`
	CookieSecure             bool    `mapstructure:"COOKIE_SECURE"`
	TracingEnabled           bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter          string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint             string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampleRatio       float64 `mapstructure:"TRACING_SAMPLE_RATIO"`
}

// LoadConfig loads application configuration from .env, file and environment variables.
func LoadConfig() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base config file is optional.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	viper.SetDefault("PORT", "8000")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("SECRET_KEY", defaultSecretKey)
	viper.SetDefault("ALGORITHM", "HS256")
	viper.SetDefault("ACCESS_TOKEN_EXPIRE_MINUTES", 30)
	viper.SetDefault("BCRYPT_COST", 10)
	viper.SetDefault("STORE_BACKEND", StoreMongo)
	viper.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGODB_DATABASE", "PostBlog")
	viper.SetDefault("MONGODB_TIMEOUT_SECONDS", 10)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "postblog")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("SQLITE_PATH", "postblog.db")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("REVOCATION_BACKEND", RevocationStore)
	viper.SetDefault("REVOCATION_PRUNE_INTERVAL_MINUTES", 60)
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173")
	viper.SetDefault("COOKIE_SECURE", false)
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLE_RATIO", 1.0)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func (c *Config) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	c.RevocationBackend = strings.ToLower(strings.TrimSpace(c.RevocationBackend))
	c.DBSSLMode = strings.ToLower(strings.TrimSpace(c.DBSSLMode))
	c.Algorithm = strings.ToUpper(strings.TrimSpace(c.Algorithm))
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.SecretKey == "" {
		return errors.New("SECRET_KEY is required")
	}

	switch c.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("ALGORITHM %q is not supported (use HS256, HS384 or HS512)", c.Algorithm)
	}

	if c.AccessTokenExpireMinutes <= 0 {
		return errors.New("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	if c.RevocationPruneMinutes < 0 {
		return errors.New("REVOCATION_PRUNE_INTERVAL_MINUTES must not be negative")
	}

	switch c.StoreBackend {
	case StoreMongo:
		if c.MongoURI == "" {
			return errors.New("MONGODB_URI is required for the mongo store")
		}
	case StorePostgres, StoreSQLite:
	default:
		return fmt.Errorf("STORE_BACKEND %q is not supported (use mongo, postgres or sqlite)", c.StoreBackend)
	}

	switch c.RevocationBackend {
	case RevocationStore, RevocationRedis:
	default:
		return fmt.Errorf("REVOCATION_BACKEND %q is not supported (use store or redis)", c.RevocationBackend)
	}

	if c.IsProduction() {
		if c.SecretKey == defaultSecretKey {
			return errors.New("SECRET_KEY must be changed from the default value in production")
		}
		if len(c.SecretKey) < 32 {
			return errors.New("SECRET_KEY must be at least 32 characters in production")
		}
		if c.StoreBackend == StorePostgres {
			if c.DBPassword == "password" || c.DBPassword == "" {
				return errors.New("a strong DB_PASSWORD is required in production")
			}
			if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
				return errors.New("DB_SSLMODE must not be 'disable' in production")
			}
		}
		if c.StoreBackend == StoreSQLite {
			log.Println("WARNING: STORE_BACKEND is 'sqlite' in production.")
		}
		if !c.CookieSecure {
			log.Println("WARNING: COOKIE_SECURE is false in production. Session cookies will be sent over plain HTTP.")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if len(c.SecretKey) < 32 {
		log.Println("WARNING: SECRET_KEY is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}

// IsProduction reports whether the app runs with a production profile.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// RateLimitEnabled reports whether per-endpoint rate limits apply.
// Local development and test runs are never throttled.
func (c *Config) RateLimitEnabled() bool {
	switch c.Env {
	case "", "development", "test":
		return false
	}
	return true
}

// TokenTTL is the lifetime of issued session tokens.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

// MongoTimeout is the connection-level timeout for the Mongo client.
func (c *Config) MongoTimeout() time.Duration {
	if c.MongoTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.MongoTimeoutSeconds) * time.Second
}

// RevocationPruneInterval is how often expired revocations are deleted. Zero disables pruning.
func (c *Config) RevocationPruneInterval() time.Duration {
	return time.Duration(c.RevocationPruneMinutes) * time.Minute
}
