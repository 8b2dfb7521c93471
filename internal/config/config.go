package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Addr        string `env:"ADDR" envDefault:":8080"`
	Env         string `env:"ENV" envDefault:"development"`
	DatabaseURL string `env:"DATABASE_URL"`
	StateFile   string `env:"STATE_FILE"`

	HostCodeLen int `env:"HOST_CODE_LEN" envDefault:"6"`
	JoinCodeLen int `env:"JOIN_CODE_LEN" envDefault:"5"`
	PlayerIDLen int `env:"PLAYER_ID_LEN" envDefault:"4"`

	// A session gets questionCount/PowerUpDivisor power-ups per player;
	// each one adds PowerUpBonus points.
	PowerUpBonus   int `env:"POWERUP_BONUS" envDefault:"100"`
	PowerUpDivisor int `env:"POWERUP_DIVISOR" envDefault:"3"`

	LeaderboardInterval time.Duration `env:"LEADERBOARD_INTERVAL" envDefault:"1s"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the config all env defaults would produce; used by tests.
func Default() Config {
	return Config{
		Addr:                ":8080",
		Env:                 "development",
		HostCodeLen:         6,
		JoinCodeLen:         5,
		PlayerIDLen:         4,
		PowerUpBonus:        100,
		PowerUpDivisor:      3,
		LeaderboardInterval: time.Second,
	}
}
