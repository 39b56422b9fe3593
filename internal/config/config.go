package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendSQLite   = "sqlite"
	BackendMySQL    = "mysql"
)

var backends = []string{BackendMemory, BackendPostgres, BackendMongo, BackendSQLite, BackendMySQL}

type Config struct {
	HTTP    HTTPConfig    `toml:"http"`
	Store   StoreConfig   `toml:"store"`
	Connect ConnectConfig `toml:"connect"`
	Log     LogConfig     `toml:"log"`
}

type HTTPConfig struct {
	Port            string        `toml:"port" env:"PORT"`
	StaticDir       string        `toml:"static_dir" env:"STATIC_DIR"`
	CORSOrigins     []string      `toml:"cors_origins" env:"CORS_ORIGINS"`
	RequestTimeout  time.Duration `toml:"request_timeout" env:"REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

type StoreConfig struct {
	Backend    string        `toml:"backend" env:"STORE_BACKEND"`
	URL        string        `toml:"url" env:"DATABASE_URL"`
	Database   string        `toml:"database" env:"MONGODB_DATABASE"`
	Timeout    time.Duration `toml:"timeout" env:"STORE_TIMEOUT"`
	Seed       bool          `toml:"seed_sample_tasks" env:"SEED_SAMPLE_TASKS"`
	LogQueries bool          `toml:"log_queries" env:"LOG_QUERIES"`
}

type ConnectConfig struct {
	Attempts  int           `toml:"attempts" env:"CONNECT_ATTEMPTS"`
	BaseDelay time.Duration `toml:"base_delay" env:"CONNECT_BASE_DELAY"`
	MaxDelay  time.Duration `toml:"max_delay" env:"CONNECT_MAX_DELAY"`

	// RetryInterval spaces background reconnects after the startup loop
	// gives up. Zero disables them.
	RetryInterval time.Duration `toml:"retry_interval" env:"CONNECT_RETRY_INTERVAL"`
}

type LogConfig struct {
	Level  string `toml:"level" env:"LOG_LEVEL"`
	Format string `toml:"format" env:"LOG_FORMAT"`
}

func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Port:            "3000",
			CORSOrigins:     []string{"*"},
			RequestTimeout:  10 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Backend:  BackendMemory,
			Database: "taskdb",
			Timeout:  5 * time.Second,
		},
		Connect: ConnectConfig{
			Attempts:  10,
			BaseDelay: 500 * time.Millisecond,
			MaxDelay:  10 * time.Second,

			RetryInterval: 30 * time.Second,
		},
		Log: LogConfig{
			Level:  "INFO",
			Format: "json",
		},
	}
}

// Load reads ENV_FILE (default ".env") into the environment, then builds the
// config from defaults, the optional TOML file named by CONFIG_FILE and
// finally environment variables.
func Load() (Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading %s: %w", envFile, err)
	}
	return LoadFile(os.Getenv("CONFIG_FILE"))
}

// LoadFile is Load without the .env step. An empty path skips the TOML file.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	// MONGODB_URI is the conventional name in Mongo deployments
	if cfg.Store.URL == "" {
		cfg.Store.URL = os.Getenv("MONGODB_URI")
	}

	cfg.Store.Backend = strings.ToLower(strings.TrimSpace(cfg.Store.Backend))
	if cfg.Store.Backend == BackendSQLite && cfg.Store.URL == "" {
		cfg.Store.URL = "tasks.db"
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if !slices.Contains(backends, c.Store.Backend) {
		return fmt.Errorf("STORE_BACKEND must be one of %s, got %q", strings.Join(backends, "|"), c.Store.Backend)
	}
	if c.Store.Backend != BackendMemory && c.Store.URL == "" {
		return fmt.Errorf("DATABASE_URL is required for the %s backend", c.Store.Backend)
	}
	if strings.TrimSpace(c.HTTP.Port) == "" {
		return errors.New("PORT is required")
	}
	if c.Connect.Attempts < 1 {
		return errors.New("CONNECT_ATTEMPTS must be at least 1")
	}
	if c.Connect.RetryInterval < 0 {
		return errors.New("CONNECT_RETRY_INTERVAL must not be negative")
	}
	if c.HTTP.RequestTimeout <= 0 || c.HTTP.ShutdownTimeout <= 0 || c.Store.Timeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	return nil
}

// Addr turns the configured port into a listen address.
func (h HTTPConfig) Addr() string {
	if strings.Contains(h.Port, ":") {
		return h.Port
	}
	return ":" + h.Port
}
