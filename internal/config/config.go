package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	NATS struct {
		URL           string `yaml:"url"`
		MaxReconnects int    `yaml:"max_reconnects"`
		ReconnectWait string `yaml:"reconnect_wait"`
	} `yaml:"nats"`
	Bus struct {
		// Kind is one of memory, redis, nats, ws.
		Kind     string `yaml:"kind"`
		Room     string `yaml:"room"`
		RelayURL string `yaml:"relay_url"`
	} `yaml:"bus"`
	Client struct {
		ParticipantID      string `yaml:"participant_id"`
		DisplayName        string `yaml:"display_name"`
		FallbackDelay      string `yaml:"fallback_delay"`
		RecoveryRetryDelay string `yaml:"recovery_retry_delay"`
		BankID             string `yaml:"bank_id"`
		BankTTL            string `yaml:"bank_ttl"`
	} `yaml:"client"`
	Avatar struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
		Size    int    `yaml:"size"`
		Timeout string `yaml:"timeout"`
	} `yaml:"avatar"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
}

// Load reads YAML config from path. A missing file yields defaults so a
// client can run from flags and environment alone.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("POSTGRES_URL"); v != "" {
		c.Postgres.URL = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		c.NATS.URL = v
	}
	if v := os.Getenv("AVATAR_API_KEY"); v != "" {
		c.Avatar.APIKey = v
	}
	if v := os.Getenv("PARTICIPANT_ID"); v != "" {
		c.Client.ParticipantID = v
	}
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Bus.Kind == "" {
		c.Bus.Kind = "memory"
	}
	if c.Bus.Room == "" {
		c.Bus.Room = "default"
	}
	if c.NATS.MaxReconnects == 0 {
		c.NATS.MaxReconnects = -1
	}
	if c.Avatar.Size == 0 {
		c.Avatar.Size = 64
	}
}

// Duration parses a duration string or returns the fallback if empty or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
