package core

import (
	"errors"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"PICSCRUB_ADDR", "PICSCRUB_OUT_DIR", "PICSCRUB_MAX_UPLOAD_BYTES",
		"PICSCRUB_LOG_LEVEL", "PICSCRUB_LOG_FORMAT", "PICSCRUB_SHUTDOWN_TIMEOUT"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig()
	if cfg.Server.Addr != "127.0.0.1:8765" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Server.MaxUploadBytes != 200<<20 {
		t.Errorf("MaxUploadBytes = %d", cfg.Server.MaxUploadBytes)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Output.Dir != "." || cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PICSCRUB_ADDR", "localhost:9000")
	t.Setenv("PICSCRUB_MAX_UPLOAD_BYTES", "1024")
	t.Setenv("PICSCRUB_SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("PICSCRUB_LOG_FORMAT", "json")

	cfg := LoadConfig()
	if cfg.Server.Addr != "localhost:9000" || cfg.Server.MaxUploadBytes != 1024 ||
		cfg.Server.ShutdownTimeout != 3*time.Second || cfg.Log.Format != "json" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoadConfigIgnoresBadNumbers(t *testing.T) {
	t.Setenv("PICSCRUB_MAX_UPLOAD_BYTES", "lots")
	t.Setenv("PICSCRUB_SHUTDOWN_TIMEOUT", "soon")
	cfg := LoadConfig()
	if cfg.Server.MaxUploadBytes != 200<<20 || cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("bad values should fall back to defaults: %+v", cfg.Server)
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{Addr: "127.0.0.1:8765", MaxUploadBytes: 1},
			Output: OutputConfig{Dir: "."},
			Log:    LogConfig{Level: "info", Format: "text"},
		}
	}
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"public address", func(c *Config) { c.Server.Addr = "0.0.0.0:8765" }},
		{"no port", func(c *Config) { c.Server.Addr = "127.0.0.1" }},
		{"zero upload limit", func(c *Config) { c.Server.MaxUploadBytes = 0 }},
		{"empty out dir", func(c *Config) { c.Output.Dir = "" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			var appErr *AppError
			if !errors.As(err, &appErr) || appErr.Code != "CONFIG_ERROR" {
				t.Errorf("Validate() = %v, want CONFIG_ERROR", err)
			}
		})
	}

	v6 := valid()
	v6.Server.Addr = "[::1]:8765"
	if err := v6.Validate(); err != nil {
		t.Errorf("IPv6 loopback rejected: %v", err)
	}
}

func TestLogConfigNewLogger(t *testing.T) {
	for _, c := range []LogConfig{{Level: "debug", Format: "json"}, {Level: "nonsense", Format: "text"}} {
		if c.NewLogger() == nil {
			t.Errorf("NewLogger(%+v) = nil", c)
		}
	}
}
