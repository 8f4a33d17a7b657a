package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port            string        `mapstructure:"port"`
		ReadTimeout     time.Duration `mapstructure:"read_timeout"`
		WriteTimeout    time.Duration `mapstructure:"write_timeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"server"`
	Database struct {
		// Driver is one of "postgres" (lib/pq), "pgx" or "memory".
		Driver       string `mapstructure:"driver"`
		Host         string `mapstructure:"host"`
		Port         int    `mapstructure:"port"`
		User         string `mapstructure:"user"`
		Password     string `mapstructure:"password"`
		Name         string `mapstructure:"name"`
		SSLMode      string `mapstructure:"sslmode"`
		MaxOpenConns int    `mapstructure:"max_open_conns"`
		Migrate      bool   `mapstructure:"migrate"`
	} `mapstructure:"database"`
	Redis struct {
		Enabled  bool          `mapstructure:"enabled"`
		Host     string        `mapstructure:"host"`
		Port     string        `mapstructure:"port"`
		Password string        `mapstructure:"password"`
		DB       int           `mapstructure:"db"`
		TTL      time.Duration `mapstructure:"ttl"`
	} `mapstructure:"redis"`
	JWT struct {
		SecretKey  string        `mapstructure:"secret_key"`
		AccessTTL  time.Duration `mapstructure:"access_ttl"`
		RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
	} `mapstructure:"jwt"`
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
	Ledger struct {
		HistoryPageSize int `mapstructure:"history_page_size"`
	} `mapstructure:"ledger"`
}

var AppConfig Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "bank")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.migrate", true)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 10*time.Minute)

	v.SetDefault("jwt.secret_key", "")
	v.SetDefault("jwt.access_ttl", 15*time.Minute)
	v.SetDefault("jwt.refresh_ttl", 24*time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("ledger.history_page_size", 100)
}

// Load reads config.yml from path (if present) and LEDGER_* environment
// variables, e.g. LEDGER_DATABASE_DRIVER=memory.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.SetEnvPrefix("LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig loads the configuration into AppConfig.
func LoadConfig(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	AppConfig = *cfg
	return nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "pgx", "memory":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.JWT.SecretKey == "" {
		return errors.New("jwt.secret_key must be set")
	}
	if c.Ledger.HistoryPageSize <= 0 {
		return errors.New("ledger.history_page_size must be positive")
	}
	return nil
}

// DSN returns the connection string for the configured Postgres database.
// User and password are escaped.
func (c *Config) DSN() string {
	return c.dsn(url.UserPassword(c.Database.User, c.Database.Password))
}

// SafeDSN is DSN without the password, for logging.
func (c *Config) SafeDSN() string {
	return c.dsn(url.User(c.Database.User))
}

func (c *Config) dsn(user *url.Userinfo) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     user,
		Host:     net.JoinHostPort(c.Database.Host, strconv.Itoa(c.Database.Port)),
		Path:     "/" + c.Database.Name,
		RawQuery: url.Values{"sslmode": {c.Database.SSLMode}}.Encode(),
	}
	return u.String()
}
