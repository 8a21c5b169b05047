package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Config struct {
	HTTP      HTTPConfig      `koanf:"http"`
	DB        DBConfig        `koanf:"db"`
	Log       LogConfig       `koanf:"log"`
	Session   SessionConfig   `koanf:"session"`
	WS        WSConfig        `koanf:"ws"`
	Claims    ClaimsConfig    `koanf:"claims"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
}

type HTTPConfig struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DBConfig struct {
	Driver  string `koanf:"driver"`
	DSN     string `koanf:"dsn"`
	Migrate bool   `koanf:"migrate"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type SessionConfig struct {
	Secret string `koanf:"secret"`
	Secure bool   `koanf:"secure"`
	MaxAge int    `koanf:"max_age"`
}

type WSConfig struct {
	// Origins are host patterns accepted besides the request's own host.
	Origins      []string      `koanf:"origins"`
	ActionRate   float64       `koanf:"action_rate"`
	ActionBurst  int           `koanf:"action_burst"`
	Outbox       int           `koanf:"outbox"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

type ClaimsConfig struct {
	TTL time.Duration `koanf:"ttl"`
}

type SchedulerConfig struct {
	ExpireEvery time.Duration `koanf:"expire_every"`
	LiveEvery   time.Duration `koanf:"live_every"`
}

func defaults() map[string]any {
	return map[string]any{
		"http.addr":              ":8080",
		"http.shutdown_timeout":  "10s",
		"db.driver":              "sqlite",
		"db.dsn":                 "league.db",
		"db.migrate":             true,
		"log.level":              "info",
		"log.format":             "json",
		"session.secure":         false,
		"session.max_age":        30 * 24 * 60 * 60,
		"ws.action_rate":         10.0,
		"ws.action_burst":        20,
		"ws.outbox":              64,
		"ws.read_timeout":        "60s",
		"ws.write_timeout":       "5s",
		"claims.ttl":             "168h",
		"scheduler.expire_every": "5m",
		"scheduler.live_every":   "30s",
	}
}

const minSecretLen = 32

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}
	switch c.DB.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("db.driver %q must be postgres or sqlite", c.DB.Driver))
	}
	if c.DB.DSN == "" {
		errs = append(errs, errors.New("db.dsn is required"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be json or console", c.Log.Format))
	}
	if len(c.Session.Secret) < minSecretLen {
		errs = append(errs, fmt.Errorf("session.secret must be at least %d bytes", minSecretLen))
	}
	if c.WS.ActionRate <= 0 || c.WS.ActionBurst <= 0 {
		errs = append(errs, errors.New("ws.action_rate and ws.action_burst must be positive"))
	}
	if c.WS.Outbox <= 0 {
		errs = append(errs, errors.New("ws.outbox must be positive"))
	}
	if c.WS.ReadTimeout <= 0 || c.WS.WriteTimeout <= 0 {
		errs = append(errs, errors.New("ws timeouts must be positive"))
	}
	if c.Claims.TTL <= 0 {
		errs = append(errs, errors.New("claims.ttl must be positive"))
	}
	if c.Scheduler.ExpireEvery <= 0 || c.Scheduler.LiveEvery <= 0 {
		errs = append(errs, errors.New("scheduler intervals must be positive"))
	}
	return errors.Join(errs...)
}
