package util

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string `validate:"required,number"`
	JWTSecret     string `validate:"required"`
	AllowedOrigin string
	// BroadcastInterval is the fixed tick driving snapshot fan-out.
	BroadcastInterval time.Duration `validate:"required,min=10000000"`
}

func LoadConfig() (*Config, error) {
	godotenv.Load()

	config := &Config{
		Port:              getEnv("PORT", "8080"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		AllowedOrigin:     getEnv("ALLOWED_ORIGIN", "http://localhost:8080"),
		BroadcastInterval: time.Duration(getEnvInt("BROADCAST_MS", 50)) * time.Millisecond,
	}

	if err := Validate.Struct(config); err != nil {
		return nil, err
	}

	return config, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
