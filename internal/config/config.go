package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var (
	dbUserEmptyError = errors.New("DB User is Empty")
	dbNameEmptyError = errors.New("DB Name is Empty")
)

type AppConfig struct {
	Env  string
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	Password string
	User     string
	URL      string
}

type RealtimeConfig struct {
	// PresenceTTL время жизни записи присутствия без повторного join
	PresenceTTL time.Duration
	// PresenceReapInterval период фонового вычищения протухших записей
	PresenceReapInterval time.Duration
	// SendQueueSize размер исходящей очереди соединения; при переполнении
	// события молча отбрасываются
	SendQueueSize int
	// AllocatorMaxRetries сколько раз повторяем взятие блокировки счетчика
	AllocatorMaxRetries uint64
}

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Realtime RealtimeConfig
}

func LoadConfig() (*Config, error) {
	// .env опционален: в контейнере конфиг приходит через окружение
	_ = godotenv.Load()

	c := &Config{
		App: AppConfig{
			Env:  getEnv("APP_ENV", "dev"),
			Port: getEnv("APP_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DATABASE_HOST", "localhost"),
			Port:     getEnv("DATABASE_PORT", "5432"),
			Name:     getEnv("DATABASE_NAME", "postgres"),
			Password: getEnv("DATABASE_PASSWORD", "postgres"),
			User:     getEnv("DATABASE_USER", "postgres"),
			URL:      getEnv("DATABASE_URL", ""),
		},
		Realtime: RealtimeConfig{
			PresenceTTL:          getDurationEnv("PRESENCE_TTL", time.Hour),
			PresenceReapInterval: getDurationEnv("PRESENCE_REAP_INTERVAL", time.Minute),
			SendQueueSize:        getIntEnv("WS_SEND_QUEUE_SIZE", 256),
			AllocatorMaxRetries:  uint64(getIntEnv("ALLOCATOR_MAX_RETRIES", 5)),
		},
	}

	if err := makeDbUrl(c); err != nil {
		return nil, err
	}

	return c, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func makeDbUrl(cfg *Config) error {
	if cfg.Database.URL == "" {
		if cfg.Database.User == "" {
			return dbUserEmptyError
		}
		if cfg.Database.Name == "" {
			return dbNameEmptyError
		}
		cfg.Database.URL = fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=disable",
			cfg.Database.User,
			cfg.Database.Password,
			cfg.Database.Host,
			cfg.Database.Port,
			cfg.Database.Name,
		)
	}
	return nil
}
