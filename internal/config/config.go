package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		PublicURL      string   `yaml:"public_url"`
		StaticDir      string   `yaml:"static_dir"`
		AllowedOrigins []string `yaml:"allowed_origins"`
		ReadTimeout    string   `yaml:"read_timeout"`
		WriteTimeout   string   `yaml:"write_timeout"`
		PingInterval   string   `yaml:"ping_interval"`
	} `yaml:"server"`
	Game struct {
		Tables      int    `yaml:"tables"`
		AnswerGap   string `yaml:"answer_gap"`
		SendBuffer  int    `yaml:"send_buffer"`
		CatalogPath string `yaml:"catalog_path"`
	} `yaml:"game"`
	Catalog struct {
		TTL string `yaml:"ttl"`
	} `yaml:"catalog"`
	Snapshot struct {
		Path    string `yaml:"path"`
		History int    `yaml:"history"`
	} `yaml:"snapshot"`
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
		URL     string `yaml:"url"`
		Subject string `yaml:"subject"`
	} `yaml:"nats"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot start with.
func (c Config) Validate() error {
	if c.Game.Tables < 0 {
		return fmt.Errorf("game.tables must not be negative, got %d", c.Game.Tables)
	}
	if c.Game.SendBuffer < 0 {
		return fmt.Errorf("game.send_buffer must not be negative, got %d", c.Game.SendBuffer)
	}
	for name, raw := range map[string]string{
		"server.read_timeout":  c.Server.ReadTimeout,
		"server.write_timeout": c.Server.WriteTimeout,
		"server.ping_interval": c.Server.PingInterval,
		"game.answer_gap":      c.Game.AnswerGap,
		"catalog.ttl":          c.Catalog.TTL,
		"redis.ttl":            c.Redis.TTL,
	} {
		if raw == "" {
			continue
		}
		if _, err := time.ParseDuration(raw); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
