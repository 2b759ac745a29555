// Package config loads connection settings from a TOML file, the same
// format and library (BurntSushi/toml) the teacher configuration layer
// uses.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"shoal/internal/db"
)

// Config is the on-disk shape of a connection profile file.
type Config struct {
	Driver   string `toml:"driver"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
}

// Load parses path as TOML into a Config.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode %q: %w", path, err)
	}
	return &cfg, nil
}

// Options converts cfg into db.Options, validating the driver name.
func (cfg *Config) Options() (db.Options, error) {
	var driver db.Driver
	switch cfg.Driver {
	case "postgresql", "postgres":
		driver = db.Postgres
	case "mysql", "mariadb":
		driver = db.MySQL
	default:
		return db.Options{}, fmt.Errorf("config: unknown driver %q", cfg.Driver)
	}
	return db.Options{
		Driver:   driver,
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		Database: cfg.Database,
	}, nil
}
