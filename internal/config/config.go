package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config aggregates runtime settings, injected through environment
// variables with development defaults.
type Config struct {
	HTTPAddr string

	MySQLDSN      string
	MySQLMaxConns int

	RedisAddr     string
	RedisPoolSize int

	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads and validates the configuration.
func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:     getEnv("HTTP_ADDR", ":8080"),
		MySQLDSN:     getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/stockengine?parseTime=true"),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers: splitCSV(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "item-events"),
	}

	var err error
	if cfg.MySQLMaxConns, err = getEnvInt("MYSQL_MAX_CONNS", 50); err != nil {
		return Config{}, fmt.Errorf("invalid MYSQL_MAX_CONNS: %w", err)
	}
	if cfg.RedisPoolSize, err = getEnvInt("REDIS_POOL_SIZE", 100); err != nil {
		return Config{}, fmt.Errorf("invalid REDIS_POOL_SIZE: %w", err)
	}

	if cfg.MySQLMaxConns <= 0 {
		return Config{}, fmt.Errorf("MYSQL_MAX_CONNS must be > 0")
	}
	if cfg.RedisPoolSize <= 0 {
		return Config{}, fmt.Errorf("REDIS_POOL_SIZE must be > 0")
	}
	if len(cfg.KafkaBrokers) == 0 {
		return Config{}, fmt.Errorf("KAFKA_BROKERS must not be empty")
	}
	if cfg.KafkaTopic == "" {
		return Config{}, fmt.Errorf("KAFKA_TOPIC must not be empty")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
