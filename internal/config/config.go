package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "maintenanced.toml"
	DefaultDBName         = "maintenance.db"
)

// Config keeps runtime settings for the service. Notification hour and preset
// live in the database, not here, because the user edits them at runtime.
type Config struct {
	DBPath         string `toml:"db_path"`
	Timezone       string `toml:"timezone"`
	TelegramToken  string `toml:"telegram_token"`
	TelegramChatID int64  `toml:"telegram_chat_id"`
	TriggerBuffer  int    `toml:"trigger_buffer"`
}

// LoadOrCreate reads the TOML config at path, writing defaults on first run,
// then applies environment overrides. A missing Telegram token is fine: the
// service degrades to log-only reminder delivery.
func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		applyEnv(&cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}
	applyEnv(&cfg)
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBName
	}
	if cfg.TriggerBuffer <= 0 {
		cfg.TriggerBuffer = 16
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("MAINTD_DB_PATH")); v != "" {
		cfg.DBPath = v
	}
	if v := strings.TrimSpace(os.Getenv("MAINTD_TIMEZONE")); v != "" {
		cfg.Timezone = v
	}
	if v := strings.TrimSpace(os.Getenv("MAINTD_TELEGRAM_TOKEN")); v != "" {
		cfg.TelegramToken = v
	}
	if v := strings.TrimSpace(os.Getenv("MAINTD_TELEGRAM_CHAT_ID")); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.TelegramChatID = id
		}
	}
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig() Config {
	return Config{
		DBPath:        DefaultDBName,
		Timezone:      "",
		TriggerBuffer: 16,
	}
}
