// Package config loads the TOML configuration of the proton echo server.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	EnvAddr         = "PROTON_ADDR"
	EnvMaxBodyBytes = "PROTON_MAX_BODY_BYTES"
	EnvMaxDepth     = "PROTON_MAX_DEPTH"
	EnvLogLevel     = "PROTON_LOG_LEVEL"
	EnvLogNoColor   = "PROTON_LOG_NOCOLOR"
)

type Config struct {
	Server ServerConfig `toml:"server"`
	Codec  CodecConfig  `toml:"codec"`
	Log    LogConfig    `toml:"log"`
}

type ServerConfig struct {
	Addr          string `toml:"addr"`
	MaxBodyBytes  int64  `toml:"max_body_bytes"`
	ReadTimeout   string `toml:"read_timeout"`
	WriteTimeout  string `toml:"write_timeout"`
	ShutdownGrace string `toml:"shutdown_grace"`
	H2C           bool   `toml:"h2c"`

	readTimeout   time.Duration
	writeTimeout  time.Duration
	shutdownGrace time.Duration
}

type CodecConfig struct {
	MaxDepth int `toml:"max_depth"`
}

type LogConfig struct {
	Level     string `toml:"level"`
	Timestamp bool   `toml:"timestamp"`
	NoColor   bool   `toml:"no_color"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:          ":8080",
			MaxBodyBytes:  1 << 20,
			ReadTimeout:   "10s",
			WriteTimeout:  "10s",
			ShutdownGrace: "5s",
			H2C:           true,
		},
		Codec: CodecConfig{MaxDepth: 256},
		Log:   LogConfig{Level: "info", Timestamp: true},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadToml(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	md, err := toml.Decode(string(data), out)
	if err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("config parse failed (%s): unknown key %s", path, undecoded[0])
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv(EnvAddr)); v != "" {
		cfg.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvMaxBodyBytes)); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxBodyBytes, err)
		}
		cfg.Server.MaxBodyBytes = n
	}
	if v := strings.TrimSpace(os.Getenv(EnvMaxDepth)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxDepth, err)
		}
		cfg.Codec.MaxDepth = n
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogNoColor)); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvLogNoColor, err)
		}
		cfg.Log.NoColor = b
	}
	return nil
}

func (c *Config) normalize() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server config missing addr")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server max_body_bytes must be positive")
	}
	if c.Codec.MaxDepth <= 0 {
		return fmt.Errorf("codec max_depth must be positive")
	}
	var err error
	if c.Server.readTimeout, err = parseDuration("read_timeout", c.Server.ReadTimeout); err != nil {
		return err
	}
	if c.Server.writeTimeout, err = parseDuration("write_timeout", c.Server.WriteTimeout); err != nil {
		return err
	}
	if c.Server.shutdownGrace, err = parseDuration("shutdown_grace", c.Server.ShutdownGrace); err != nil {
		return err
	}
	return nil
}

func parseDuration(name, raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("server %s invalid: %w", name, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("server %s must not be negative", name)
	}
	return d, nil
}

func (s ServerConfig) ReadTimeoutDuration() time.Duration   { return s.readTimeout }
func (s ServerConfig) WriteTimeoutDuration() time.Duration  { return s.writeTimeout }
func (s ServerConfig) ShutdownGraceDuration() time.Duration { return s.shutdownGrace }
