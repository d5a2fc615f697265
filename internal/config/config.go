package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	ListenAddr     string   `yaml:"listen_addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	// RedisURL selects the Redis matchmaking queue. Empty keeps the queue in memory.
	RedisURL string `yaml:"redis_url"`

	Rules struct {
		StrictCastling bool `yaml:"strict_castling"`
	} `yaml:"rules"`

	Matchmaking struct {
		Interval time.Duration `yaml:"interval"`
		QueueKey string        `yaml:"queue_key"`
	} `yaml:"matchmaking"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Caller bool   `yaml:"caller"`
	} `yaml:"log"`
}

func Default() *AppConfig {
	cfg := &AppConfig{
		ListenAddr:     ":3000",
		AllowedOrigins: []string{"http://localhost:5173"},
	}
	cfg.Rules.StrictCastling = true
	cfg.Matchmaking.Interval = time.Second
	cfg.Matchmaking.QueueKey = "chess:matchmaking"
	cfg.Log.Level = "info"
	cfg.Log.Format = "console"
	return cfg
}

// Load reads the YAML file at path (optional), then applies environment overrides.
func Load(path string) (*AppConfig, error) {
	cfg := Default()

	if path = strings.TrimSpace(path); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); v != "" {
		cfg.AllowedOrigins = nil
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, s)
			}
		}
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_URL")); v != "" {
		cfg.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("STRICT_CASTLING")); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("STRICT_CASTLING: %w", err)
		}
		cfg.Rules.StrictCastling = strict
	}
	if v := strings.TrimSpace(os.Getenv("MATCHMAKING_INTERVAL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("MATCHMAKING_INTERVAL: %w", err)
		}
		cfg.Matchmaking.Interval = d
	}
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		cfg.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_FORMAT")); v != "" {
		cfg.Log.Format = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.ListenAddr) == "" {
		return errors.New("listen_addr is required")
	}
	if c.Matchmaking.Interval <= 0 {
		return errors.New("matchmaking.interval must be positive")
	}
	if strings.TrimSpace(c.Matchmaking.QueueKey) == "" {
		return errors.New("matchmaking.queue_key is required")
	}
	return nil
}
