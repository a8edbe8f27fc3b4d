package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"assessment-engine/internal/judge"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Auth struct {
		// Secret enables bearer-JWT participant auth; empty keeps the
		// X-Participant-ID dev fallback.
		Secret string `yaml:"secret"`
	} `yaml:"auth"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Rounds struct {
		CacheTTL string `yaml:"cacheTtl"`
	} `yaml:"rounds"`
	Judge struct {
		CaseLimit string                        `yaml:"caseLimit"`
		Workers   int                           `yaml:"workers"`
		Languages map[string]judge.LanguageSpec `yaml:"languages"`
	} `yaml:"judge"`
	Sweep struct {
		Interval string `yaml:"interval"`
	} `yaml:"sweep"`
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
	return cfg, nil
}

// Duration parses a duration string or returns the fallback if empty or
// malformed.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
