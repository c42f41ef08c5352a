package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/dkeye/Lobby/internal/session"
)

const EnvPrefix = "LOBBY"

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Mode       string        `mapstructure:"mode" yaml:"mode"`
	Port       int           `mapstructure:"port" yaml:"port"`
	StaticPath string        `mapstructure:"static_path" yaml:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit" yaml:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period" yaml:"ping_period"`
	Secret     string        `mapstructure:"secret" yaml:"secret"`
	LogLevel   string        `mapstructure:"log_level" yaml:"log_level"`

	// PublicURL is where the static UI is served; join links point at it.
	PublicURL  string   `mapstructure:"public_url" yaml:"public_url"`
	SignalURL  string   `mapstructure:"signal_url" yaml:"signal_url"`
	ICEServers []string `mapstructure:"ice_servers" yaml:"ice_servers"`

	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval" yaml:"heartbeat_interval"`
	StaleTimeout      time.Duration `mapstructure:"stale_timeout" yaml:"stale_timeout"`
	SweepInterval     time.Duration `mapstructure:"sweep_interval" yaml:"sweep_interval"`
	DeleteGrace       time.Duration `mapstructure:"delete_grace" yaml:"delete_grace"`
	RoomCodeLength    int           `mapstructure:"room_code_length" yaml:"room_code_length"`
	JoinTimeout       time.Duration `mapstructure:"join_timeout" yaml:"join_timeout"`

	RegisterLimit    int           `mapstructure:"register_limit" yaml:"register_limit"`
	RegisterInterval time.Duration `mapstructure:"register_interval" yaml:"register_interval"`
}

// Load reads config/config.<CONFIG_ENV>.yaml (dev by default). A missing
// file falls back to defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Str("module", "config").Err(err).Msg("could not load .env")
	}
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return load(fmt.Sprintf("config/config.%s.yaml", env), false)
}

// LoadFile reads an explicit config file, which must exist.
func LoadFile(path string) (*Config, error) {
	return load(path, true)
}

func load(fileName string, required bool) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if required {
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
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("static", cfg.StaticPath).Msg("config ready")
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "lobby-dev-secret")
	v.SetDefault("log_level", "info")

	v.SetDefault("public_url", "http://localhost:8080/")
	v.SetDefault("signal_url", "ws://localhost:8080/api/ws/signal")
	v.SetDefault("ice_servers", []string{"stun:stun.l.google.com:19302"})

	v.SetDefault("heartbeat_interval", session.DefaultHeartbeatInterval)
	v.SetDefault("stale_timeout", session.DefaultStaleTimeout)
	v.SetDefault("sweep_interval", session.DefaultHeartbeatInterval)
	v.SetDefault("delete_grace", session.DefaultDeleteGrace)
	v.SetDefault("room_code_length", 6)
	v.SetDefault("join_timeout", "15s")

	v.SetDefault("register_limit", 10)
	v.SetDefault("register_interval", "1m")
}

func (c *Config) Validate() error {
	positive := map[string]time.Duration{
		"ping_period":        c.PingPeriod,
		"heartbeat_interval": c.HeartbeatInterval,
		"stale_timeout":      c.StaleTimeout,
		"sweep_interval":     c.SweepInterval,
		"delete_grace":       c.DeleteGrace,
		"join_timeout":       c.JoinTimeout,
		"register_interval":  c.RegisterInterval,
	}
	for key, d := range positive {
		if d <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalid, key)
		}
	}
	if c.StaleTimeout <= c.HeartbeatInterval {
		return fmt.Errorf("%w: stale_timeout %s must exceed heartbeat_interval %s", ErrInvalid, c.StaleTimeout, c.HeartbeatInterval)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d", ErrInvalid, c.Port)
	}
	if c.RoomCodeLength < 4 {
		return fmt.Errorf("%w: room_code_length %d", ErrInvalid, c.RoomCodeLength)
	}
	if c.RegisterLimit <= 0 {
		return fmt.Errorf("%w: register_limit %d", ErrInvalid, c.RegisterLimit)
	}
	return nil
}

// Session derives the session timing block. Clock and logger stay default.
func (c *Config) Session() session.Config {
	return session.Config{
		HeartbeatInterval: c.HeartbeatInterval,
		StaleTimeout:      c.StaleTimeout,
		SweepInterval:     c.SweepInterval,
		DeleteGrace:       c.DeleteGrace,
		RoomCodeLength:    c.RoomCodeLength,
		CreateAttempts:    session.DefaultCreateAttempts,
	}
}

// YAML renders the effective configuration with the secret masked.
func (c *Config) YAML() ([]byte, error) {
	masked := *c
	if masked.Secret != "" {
		masked.Secret = "***"
	}
	return yaml.Marshal(masked)
}
