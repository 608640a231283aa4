package shared

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string `envconfig:"APP_ENV" default:"prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:""`

	// Store selects the persistence backend: mysql or memory.
	Store    string `envconfig:"STORE" default:"mysql"`
	MySQLDSN string `envconfig:"MYSQL_DSN" default:"root:root@tcp(localhost:3306)/hotel?parseTime=true&charset=utf8mb4&loc=UTC"`

	RedisAddr string        `envconfig:"REDIS_ADDR" default:""`
	RedisDB   int           `envconfig:"REDIS_DB" default:"0"`
	RedisPass string        `envconfig:"REDIS_PASSWORD" default:""`
	CacheTTL  time.Duration `envconfig:"CACHE_TTL" default:"15m"`
	IdemTTL   time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`

	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"24h"`

	CatalogFile   string `envconfig:"CATALOG_FILE" default:"configs/catalog.toml"`
	SeedWorkers   int    `envconfig:"SEED_WORKERS" default:"8"`
	NotifyWorkers int    `envconfig:"NOTIFY_WORKERS" default:"4"`
	NotifyQueue   int    `envconfig:"NOTIFY_QUEUE" default:"256"`
}

// Load reads .env files (when present) and then the process environment.
// Variables already set in the environment win over .env values.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				log.Debug().Str("file", f).Msg("env file not found; using process environment")
				continue
			}
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	switch c.Store {
	case "mysql", "memory":
	default:
		return Config{}, fmt.Errorf("STORE must be mysql or memory, got %q", c.Store)
	}
	if c.RedisAddr == "" {
		log.Warn().Msg("REDIS_ADDR is empty; hotel cache and idempotency keys are process-local")
	}
	return c, nil
}
