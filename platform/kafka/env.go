package kafka

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// LoadEnv накладывает переменные окружения на cfg через caarlos0/env
func LoadEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse kafka env: %w", err)
	}
	return nil
}
