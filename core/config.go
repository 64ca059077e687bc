package core

import (
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server ServerConfig
	Output OutputConfig
	Log    LogConfig
}

// ServerConfig holds settings for the local web UI
type ServerConfig struct {
	Addr            string
	MaxUploadBytes  int64
	ShutdownTimeout time.Duration
}

// OutputConfig controls where cleaned files are written by the CLI
type OutputConfig struct {
	Dir string
}

// LogConfig selects the slog handler
type LogConfig struct {
	Level  string
	Format string // text | json
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            getEnv("PICSCRUB_ADDR", "127.0.0.1:8765"),
			MaxUploadBytes:  getEnvAsInt64("PICSCRUB_MAX_UPLOAD_BYTES", 200<<20),
			ShutdownTimeout: getEnvAsDuration("PICSCRUB_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Output: OutputConfig{
			Dir: getEnv("PICSCRUB_OUT_DIR", "."),
		},
		Log: LogConfig{
			Level:  getEnv("PICSCRUB_LOG_LEVEL", "info"),
			Format: getEnv("PICSCRUB_LOG_FORMAT", "text"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks the loaded configuration. The server must only listen on a
// loopback address: image bytes never leave the machine.
func (c *Config) Validate() error {
	host, _, err := net.SplitHostPort(c.Server.Addr)
	if err != nil {
		return NewAppError("CONFIG_ERROR", "PICSCRUB_ADDR must be host:port", err)
	}
	if !isLoopback(host) {
		return NewAppError("CONFIG_ERROR", "PICSCRUB_ADDR must be a loopback address", ErrInvalidInput)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return NewAppError("CONFIG_ERROR", "PICSCRUB_MAX_UPLOAD_BYTES must be positive", ErrInvalidInput)
	}
	if c.Output.Dir == "" {
		return NewAppError("CONFIG_ERROR", "PICSCRUB_OUT_DIR is required", ErrInvalidInput)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return NewAppError("CONFIG_ERROR", "PICSCRUB_LOG_FORMAT must be text or json", ErrInvalidInput)
	}
	return nil
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// NewLogger builds the slog logger described by c.
func (c LogConfig) NewLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
