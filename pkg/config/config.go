package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	APIBaseURL   string
	SocketURL    string
	MediaBaseURL string
	TokenPath    string
	StateDBPath  string
	ShopID       string
	Environment  string
	ServerPort   string
	GreetingText string
	RedirectWait int64
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		APIBaseURL:   getEnv("API_BASE_URL", "http://localhost:8080"),
		SocketURL:    getEnv("SOCKET_URL", "ws://localhost:8080/ws"),
		MediaBaseURL: getEnv("MEDIA_BASE_URL", "http://localhost:8080/uploads"),
		TokenPath:    getEnv("TOKEN_PATH", ".shoplink-token"),
		StateDBPath:  getEnv("STATE_DB_PATH", ".shoplink-state.db"),
		ShopID:       getEnv("SHOP_ID", ""),
		Environment:  getEnv("ENVIRONMENT", "development"),
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		GreetingText: getEnv("GREETING_TEXT", "Hi there! How can we help you today?"),
		RedirectWait: getEnvAsInt64("REDIRECT_WAIT_SECONDS", 3),
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}
