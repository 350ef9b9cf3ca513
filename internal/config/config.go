package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field has a sensible default; the server runs with no environment
// at all.
type Config struct {
	// Server. There is no server-level write timeout: the event stream
	// endpoints hold their connections open indefinitely, so write bounds
	// are applied per write in the stream handlers instead.
	HTTPPort        string
	ReadTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Dispatcher
	DispatchInterval time.Duration

	// Broadcast
	SubscriberBuffer int           // per-subscriber event channel depth
	SubscriberRate   int           // max events/sec delivered per subscriber (0 = unlimited)
	WriteDeadline    time.Duration // bound on a single subscriber write
}

// Load reads configuration from the environment, after loading a .env file
// if one is present in the working directory.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		ReadTimeout:     getDuration("READ_TIMEOUT", 5*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		DispatchInterval: getDuration("DISPATCH_INTERVAL", time.Second),

		SubscriberBuffer: getInt("SUBSCRIBER_BUFFER", 16),
		SubscriberRate:   getInt("SUBSCRIBER_RATE", 100),
		WriteDeadline:    getDuration("WRITE_DEADLINE", 5*time.Second),
	}
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
