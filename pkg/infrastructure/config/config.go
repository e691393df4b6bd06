package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/vsinha/mrpengine/pkg/infrastructure/logger"
)

// Config holds all engine configuration
type Config struct {
	Planning PlanningConfig `mapstructure:"planning"`
	Store    StoreConfig    `mapstructure:"store"`
	Lock     LockConfig     `mapstructure:"lock"`
	Log      logger.Config  `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// PlanningConfig holds the planning policy of a run
type PlanningConfig struct {
	Scope              string        `mapstructure:"scope" validate:"required"`
	BucketDays         int           `mapstructure:"bucket_days" validate:"min=1,max=366"`
	Workers            int           `mapstructure:"workers" validate:"min=1,max=256"`
	RunTimeout         time.Duration `mapstructure:"run_timeout" validate:"min=0"`
	MakeOrBuy          string        `mapstructure:"make_or_buy" validate:"oneof=make buy"`
	EnforceSafetyStock bool          `mapstructure:"enforce_safety_stock"`
	Calendar           string        `mapstructure:"calendar" validate:"oneof=calendar business"`
	Holidays           []string      `mapstructure:"holidays" validate:"dive,datetime=2006-01-02"`
}

// StoreConfig selects where runs and planned orders are persisted
type StoreConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=memory sqlite postgres"`
	DSN    string `mapstructure:"dsn" validate:"required_unless=Driver memory"`
}

// LockConfig selects the run lock backend
type LockConfig struct {
	Backend       string `mapstructure:"backend" validate:"oneof=memory redis"`
	RedisAddr     string `mapstructure:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" validate:"min=0"`
	KeyPrefix     string `mapstructure:"key_prefix"`
}

// MetricsConfig holds the Prometheus endpoint address; empty disables it
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("planning.scope", "DEFAULT")
	v.SetDefault("planning.bucket_days", 1)
	v.SetDefault("planning.workers", 4)
	v.SetDefault("planning.run_timeout", "5m")
	v.SetDefault("planning.make_or_buy", "make")
	v.SetDefault("planning.enforce_safety_stock", true)
	v.SetDefault("planning.calendar", "calendar")
	v.SetDefault("planning.holidays", []string{})

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.dsn", "")

	v.SetDefault("lock.backend", "memory")
	v.SetDefault("lock.redis_addr", "")
	v.SetDefault("lock.redis_password", "")
	v.SetDefault("lock.redis_db", 0)
	v.SetDefault("lock.key_prefix", "mrp:run-lock:")

	defaults := logger.DefaultConfig()
	v.SetDefault("log.level", defaults.Level)
	v.SetDefault("log.format", defaults.Format)
	v.SetDefault("log.output", defaults.Output)

	v.SetDefault("metrics.addr", "")
}

// Load reads configuration. Priority, highest first:
// 1. Environment variables with MRP_ prefix (e.g. MRP_PLANNING_WORKERS)
// 2. The config file: path when given, otherwise config.toml in the working directory
// 3. Built-in defaults
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("MRP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field constraint
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
