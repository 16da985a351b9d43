package kafka

import "time"

// Config содержит подключение к брокерам и настройки retry consumer
type Config struct {
	// Brokers - localhost:19092 для go run и kafka:9092 внутри docker compose
	// Несколько брокеров через запятую: "broker1:9092,broker2:9092"
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	// GroupID - consumer group сервиса
	GroupID string `env:"KAFKA_GROUP_ID"`
	// RetryMaxAttempts - число попыток обработки, после которых offset не коммитится
	RetryMaxAttempts int `env:"KAFKA_RETRY_MAX_ATTEMPTS"`
	// RetryBackoffBase - первая задержка retry, удваивается с каждой попыткой
	RetryBackoffBase time.Duration `env:"KAFKA_RETRY_BACKOFF_BASE"`
}

// DefaultConfig возвращает значения для локальной разработки
// LoadEnv переопределяет только заданные переменные
func DefaultConfig() Config {
	return Config{
		Brokers:          []string{"localhost:19092"},
		GroupID:          "stock-service",
		RetryMaxAttempts: 3,
		RetryBackoffBase: time.Second,
	}
}
