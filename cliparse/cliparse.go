package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults
const (
	DefaultDatabaseType  = "sqlite"
	DefaultStatsCacheTTL = 10 * time.Minute
	DefaultTokenTTL      = 24 * time.Hour
)

type Config struct {
	DatabaseURL    string
	DatabaseType   string
	PasswordPepper string
	TokenSecret    string
	TokenTTL       time.Duration
	RedisAddr      string
	StatsCacheTTL  time.Duration
}

// fileConfig is the layout of the optional YAML config file
type fileConfig struct {
	Database struct {
		URL  string `yaml:"url"`
		Type string `yaml:"type"`
	} `yaml:"database"`
	Secrets struct {
		PasswordPepper string `yaml:"password_pepper"`
		TokenSecret    string `yaml:"token_secret"`
	} `yaml:"secrets"`
	Session struct {
		TokenTTL string `yaml:"token_ttl"`
	} `yaml:"session"`
	Redis struct {
		Addr string `yaml:"addr"`
	} `yaml:"redis"`
	Stats struct {
		CacheTTL string `yaml:"cache_ttl"`
	} `yaml:"stats"`
}

// ParseFlags builds the configuration. Each value comes from the first
// source that sets it: CLI flag, environment (.env is loaded first), YAML
// file given with -c, default.
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var configFile string

	fs := flag.NewFlagSet("quickly-survey", flag.ContinueOnError)

	fs.StringVar(&configFile, "c", "", "YAML config file")

	// Database config (can be CLI args or env)
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.PasswordPepper, "pepper", "", "Survey password pepper (prefer env)")
	fs.StringVar(&cfg.TokenSecret, "token-secret", "", "Session token signing secret (prefer env)")
	fs.DurationVar(&cfg.TokenTTL, "token-ttl", 0, "Session token lifetime")

	// Stats cache
	fs.StringVar(&cfg.RedisAddr, "redis", "", "Redis address for the stats cache (optional)")
	fs.DurationVar(&cfg.StatsCacheTTL, "stats-ttl", 0, "Stats cache entry lifetime")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Values from .env never override the real environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	var file fileConfig
	if configFile != "" {
		if err := loadFile(configFile, &file); err != nil {
			return Config{}, err
		}
	}

	cfg.DatabaseURL = firstSet(cfg.DatabaseURL, os.Getenv("DATABASE_URL"), file.Database.URL)
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	cfg.DatabaseType = firstSet(cfg.DatabaseType, os.Getenv("DATABASE_TYPE"), file.Database.Type, DefaultDatabaseType)
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("invalid database type %q (want sqlite or postgres)", cfg.DatabaseType)
	}

	// Secrets - MUST be provided
	cfg.PasswordPepper = firstSet(cfg.PasswordPepper, os.Getenv("PASSWORD_PEPPER"), file.Secrets.PasswordPepper)
	if cfg.PasswordPepper == "" {
		return Config{}, errors.New("PASSWORD_PEPPER required")
	}

	cfg.TokenSecret = firstSet(cfg.TokenSecret, os.Getenv("TOKEN_SECRET"), file.Secrets.TokenSecret)
	if cfg.TokenSecret == "" {
		return Config{}, errors.New("TOKEN_SECRET required")
	}

	cfg.RedisAddr = firstSet(cfg.RedisAddr, os.Getenv("REDIS_ADDR"), file.Redis.Addr)

	var err error
	if cfg.StatsCacheTTL == 0 {
		cfg.StatsCacheTTL, err = parseDuration("STATS_CACHE_TTL", firstSet(os.Getenv("STATS_CACHE_TTL"), file.Stats.CacheTTL), DefaultStatsCacheTTL)
		if err != nil {
			return Config{}, err
		}
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL, err = parseDuration("TOKEN_TTL", firstSet(os.Getenv("TOKEN_TTL"), file.Session.TokenTTL), DefaultTokenTTL)
		if err != nil {
			return Config{}, err
		}
	}

	return cfg, nil
}

func loadFile(path string, out *fileConfig) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file %s not found", path)
		}
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(out); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseDuration(name, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, value)
	}
	return d, nil
}
