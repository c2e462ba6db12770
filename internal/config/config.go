package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

type Config struct {
	ServiceName string
	LogLevel    string
	ServerPort  int

	CatalogURL string

	StorageDriver string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string

	KafkaBrokers []string
	CartTopic    string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	CatalogSeedFile string
}

// Load reads an optional .env file, then the environment.
func Load(envFiles ...string) Config {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	if err := godotenv.Load(envFiles...); err != nil {
		log.Printf("notice: %v, using system environment variables", err)
	}

	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "cart"),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),

		CatalogURL: EnvDefault("CATALOG_URL", "http://localhost:3333"),

		StorageDriver: strings.ToLower(EnvDefault("STORAGE_DRIVER", StorageSQLite)),
		DatabaseURL:   EnvDefault("DATABASE_URL", "cart.db"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),
		CartTopic:    EnvDefault("CART_TOPIC", "cart_events"),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "products"),

		CatalogSeedFile: os.Getenv("CATALOG_SEED_FILE"),
	}
}

// Validate checks the settings the cart host cannot start without.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case StorageMemory:
	case StorageSQLite, StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for storage driver %q", c.StorageDriver)
		}
	case StorageRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for storage driver %q", c.StorageDriver)
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.CatalogURL == "" {
		return fmt.Errorf("CATALOG_URL is required")
	}
	return nil
}

// ForCatalog applies the catalog service's own defaults to a loaded config.
// The catalog only runs on sql databases; any other driver falls back to
// sqlite and overridden reports the driver that was replaced.
func (c Config) ForCatalog() (cfg Config, overridden string) {
	cfg = c
	cfg.ServiceName = EnvDefault("SERVICE_NAME", "catalog")
	cfg.ServerPort = EnvIntDefault("SERVER_PORT", 3333)
	cfg.DatabaseURL = EnvDefault("DATABASE_URL", "catalog.db")

	switch cfg.StorageDriver {
	case StorageSQLite, StoragePostgres:
	default:
		overridden = cfg.StorageDriver
		cfg.StorageDriver = StorageSQLite
	}
	return cfg, overridden
}

func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.ServerPort)
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
