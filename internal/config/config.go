package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/geoclash.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	// Match engine tunables.
	Countdown       time.Duration `env:"MATCH_COUNTDOWN" envDefault:"3s"`
	RoundTime       time.Duration `env:"ROUND_TIME_LIMIT" envDefault:"60s"`
	WinThreshold    int           `env:"ROUND_WIN_THRESHOLD" envDefault:"5"`
	QueueTimeout    time.Duration `env:"QUEUE_TIMEOUT" envDefault:"2m"`
	DisconnectGrace time.Duration `env:"DISCONNECT_GRACE" envDefault:"15s"`
	AttemptBudget   int           `env:"ATTEMPT_BUDGET" envDefault:"6"`
	RecentWindow    int           `env:"RECENT_TARGET_WINDOW" envDefault:"7"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
