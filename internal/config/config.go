package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port           string   `env:"PORT" envDefault:"8080"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`
	WSPath         string   `env:"WS_PATH" envDefault:"/ws"`
	SocketIO       bool     `env:"SOCKETIO_ENABLED" envDefault:"true"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
	ExportEnabled  bool     `env:"EXPORT_ENABLED" envDefault:"false"`
	ExportFile     string   `env:"EXPORT_FILE" envDefault:"./undercover-results.txt"`

	DefaultUndercoverCount int `env:"DEFAULT_UNDERCOVER_COUNT" envDefault:"1"`
	DefaultMrWhiteCount    int `env:"DEFAULT_MR_WHITE_COUNT" envDefault:"0"`
}

func FromEnv() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return c, nil
}
