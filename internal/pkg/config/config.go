package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/piresc/geoquery/internal/pkg/models"
	"github.com/spf13/viper"
)

// Store drivers understood by geo.store_driver
const (
	StoreDriverMemory    = "memory"
	StoreDriverRedis     = "redis"
	StoreDriverFirestore = "firestore"
)

// InitConfig loads configPath into the environment when running locally,
// then reads the configuration from defaults and environment variables.
func InitConfig(configPath string) (*models.Config, error) {
	if GetEnv("APP_ENV", "local") == "local" && configPath != "" {
		if err := godotenv.Load(configPath); err != nil {
			log.Println("error loading config from file", err)
		}
	}
	return Load()
}

// Load builds the configuration. Keys map to environment variables by
// upper-casing and replacing dots, e.g. redis.host → REDIS_HOST.
func Load() (*models.Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg models.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "location-service")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.version", "dev")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 9991)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.shutdown_timeout", 10)
	v.SetDefault("server.api_key", "")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.username", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "geoquery")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.idle_conns", 5)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("nats.url", "nats://localhost:4222")

	v.SetDefault("firestore.project_id", "")
	v.SetDefault("firestore.credentials_file", "")

	v.SetDefault("geo.store_driver", StoreDriverMemory)
	v.SetDefault("geo.index", "locations")
	v.SetDefault("geo.default_radius_km", 1.0)
	v.SetDefault("geo.read_timeout", 10)
	v.SetDefault("geo.publish_events", false)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration", 60)
	v.SetDefault("jwt.issuer", "geoquery")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.file_path", "")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Validate checks that required configuration fields are present and sane.
func Validate(c *models.Config) error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Geo.Index == "" {
		errs = append(errs, "geo.index is required")
	}
	if c.Geo.DefaultRadiusKm < 0 {
		errs = append(errs, "geo.default_radius_km must not be negative")
	}

	switch c.Geo.StoreDriver {
	case StoreDriverMemory:
	case StoreDriverRedis:
		if c.Redis.Host == "" {
			errs = append(errs, "redis.host is required by the redis store")
		}
		if c.NATS.URL == "" {
			errs = append(errs, "nats.url is required by the redis store")
		}
	case StoreDriverFirestore:
		if c.Firestore.ProjectID == "" {
			errs = append(errs, "firestore.project_id is required by the firestore store")
		}
	default:
		errs = append(errs, fmt.Sprintf("geo.store_driver %q is not one of memory, redis, firestore", c.Geo.StoreDriver))
	}

	if c.Geo.PublishEvents && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required to publish query events")
	}
	if c.Database.Enabled && c.Database.Host == "" {
		errs = append(errs, "database.host is required when the database is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// GetEnv returns the environment variable key or defaultValue when unset
func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
