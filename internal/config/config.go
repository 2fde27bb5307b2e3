package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		ENV string `mapstructure:"env" validate:"oneof=development test staging production"`
	} `mapstructure:"app"`

	Log struct {
		Level     string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
		Format    string `mapstructure:"format" validate:"oneof=text json"`
		Component string `mapstructure:"component"`
		Source    bool   `mapstructure:"source"`
	} `mapstructure:"log"`

	DB struct {
		Driver   string `mapstructure:"driver" validate:"oneof=mysql postgres"`
		DSN      string `mapstructure:"dsn"`
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
		LogSQL   bool   `mapstructure:"log_sql"`
	} `mapstructure:"db"`

	Redis struct {
		Addr     string `mapstructure:"addr" validate:"required"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db" validate:"gte=0"`
	} `mapstructure:"redis"`

	GRPC struct {
		Host string `mapstructure:"host"`
		Port string `mapstructure:"port" validate:"required,numeric"`
	} `mapstructure:"grpc"`

	Metrics struct {
		Enabled bool   `mapstructure:"enabled"`
		Addr    string `mapstructure:"addr" validate:"required_if=Enabled true"`
	} `mapstructure:"metrics"`
}

// New builds a Config from defaults and environment variables only.
// A malformed env value is reported on the default slog logger and the
// environment is ignored as a whole. Use Load to get the error instead.
func New() *Config {
	cfg, err := read(newViper(true))
	if err == nil {
		return cfg
	}
	slog.Warn("ignoring environment overrides", "err", err)
	cfg, err = read(newViper(false))
	if err != nil {
		panic(fmt.Sprintf("config defaults do not decode: %v", err))
	}
	return cfg
}

// Load reads an optional YAML file on top of defaults and env, then validates the result.
//
// Behavior:
//   - file == "" → only defaults + env (e.g. LOG_LEVEL, DB_DRIVER, MYSQL_DSN, REDIS_ADDR, GRPC_PORT).
//   - env always wins over the file.
//   - Returns a validation error naming the offending field.
func Load(file string) (*Config, error) {
	v := newViper(true)
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", file, err)
		}
	}

	cfg, err := read(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct tags on the whole config tree.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func newViper(withEnv bool) *viper.Viper {
	v := viper.New()
	if withEnv {
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
		_ = v.BindEnv("db.dsn", "DB_DSN", "MYSQL_DSN")
	}

	v.SetDefault("app.env", "development")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.component", "grpc_server")
	v.SetDefault("log.source", false)

	v.SetDefault("db.driver", "mysql")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "")
	v.SetDefault("db.user", "root")
	v.SetDefault("db.password", "root")
	v.SetDefault("db.name", "hirematch")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.log_sql", false)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("grpc.host", "127.0.0.1")
	v.SetDefault("grpc.port", "50051")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.addr", ":9090")
	return v
}

func read(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if cfg.DB.DSN == "" {
		cfg.DB.DSN = cfg.buildDSN()
	}
	return cfg, nil
}

// buildDSN assembles a driver specific DSN from the discrete DB fields.
func (c *Config) buildDSN() string {
	switch c.DB.Driver {
	case "postgres":
		port := c.DB.Port
		if port == "" {
			port = "5432"
		}
		return fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			c.DB.Host, c.DB.User, c.DB.Password, c.DB.Name, port, c.DB.SSLMode,
		)
	default:
		port := c.DB.Port
		if port == "" {
			port = "3306"
		}
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			c.DB.User, c.DB.Password, c.DB.Host, port, c.DB.Name,
		)
	}
}
