package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type RateLimit struct {
	Events   int           `mapstructure:"events" validate:"min=0"`
	Interval time.Duration `mapstructure:"interval" validate:"required_with=Events"`
}

type Config struct {
	Mode            string        `mapstructure:"mode" validate:"oneof=debug release test"`
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	LogLevel        string        `mapstructure:"log_level"`
	Secret          string        `mapstructure:"secret" validate:"required"`
	ReadLimit       int64         `mapstructure:"read_limit" validate:"min=1"`
	PingPeriod      time.Duration `mapstructure:"ping_period" validate:"gt=0"`
	PongWait        time.Duration `mapstructure:"pong_wait" validate:"gtfield=PingPeriod"`
	WriteWait       time.Duration `mapstructure:"write_wait" validate:"gt=0"`
	SendBuffer      int           `mapstructure:"send_buffer" validate:"min=1"`
	CallRingTimeout time.Duration `mapstructure:"call_ring_timeout" validate:"min=0"`
	SlowConsumer    string        `mapstructure:"slow_consumer" validate:"oneof=drop kick"`
	RateLimit       RateLimit     `mapstructure:"rate_limit"`
}

// Load reads config/config.<CONFIG_ENV>.yaml (dev by default) on top of the
// built-in defaults. A missing file is not an error.
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("secret", "relay-dev-secret")
	v.SetDefault("read_limit", 65536)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("write_wait", "10s")
	v.SetDefault("send_buffer", 256)
	v.SetDefault("call_ring_timeout", "0s")
	v.SetDefault("slow_consumer", "drop")
	v.SetDefault("rate_limit.events", 0)
	v.SetDefault("rate_limit.interval", "1s")

	v.SetEnvPrefix("RELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("port", "RELAY_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("bind port env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", fileName, err)
		}
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("slow_consumer", cfg.SlowConsumer).Msg("config ready")
	return &cfg, nil
}
