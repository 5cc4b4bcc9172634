// SPDX-License-Identifier: Unlicense OR MIT

// Package config loads the touchd configuration from INI files.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"touchio.org/gesture"
	"touchio.org/io/router"
)

// DefaultFileName is looked up in the working directory when no
// configuration file is named.
const DefaultFileName = "touchd.ini"

// ErrInvalid is wrapped by validation errors.
var ErrInvalid = errors.New("invalid configuration")

// Config captures the knobs of the recognizers, the server and
// logging.
type Config struct {
	Gesture GestureConfig
	Server  ServerConfig
	Log     LogConfig

	// Source is the file the configuration was read from, or
	// "defaults".
	Source string
}

// GestureConfig tunes the tap recognizers.
type GestureConfig struct {
	Slop  float32
	Delay time.Duration
}

// ServerConfig controls the websocket feed.
type ServerConfig struct {
	Addr        string
	MaxTargets  int
	AllowOrigin bool
}

// LogConfig defines log verbosity and formatting.
type LogConfig struct {
	Level  string
	Format string
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Gesture: GestureConfig{
			Slop:  gesture.DefaultSlop,
			Delay: gesture.DefaultDelay,
		},
		Server: ServerConfig{
			Addr:       "localhost:12000",
			MaxTargets: router.DefaultMaxTargets,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Source: "defaults",
	}
}

// Load reads the configuration at path over the defaults. An empty
// path loads DefaultFileName if it exists and the defaults otherwise.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat(DefaultFileName); err != nil {
			return cfg, nil
		}
		path = DefaultFileName
	}
	f, err := ini.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("config: load %s: %w", path, err)
	}
	if err := cfg.apply(f); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	cfg.Source = path
	return cfg, cfg.Validate()
}

// Parse reads an INI document over the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	f, err := ini.Load(data)
	if err != nil {
		return cfg, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.apply(f); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c *Config) apply(f *ini.File) error {
	g := f.Section("gesture")
	if g.HasKey("slop") {
		v, err := g.Key("slop").Float64()
		if err != nil {
			return fmt.Errorf("gesture.slop: %w", err)
		}
		c.Gesture.Slop = float32(v)
	}
	if g.HasKey("delay") {
		v, err := g.Key("delay").Duration()
		if err != nil {
			return fmt.Errorf("gesture.delay: %w", err)
		}
		c.Gesture.Delay = v
	}

	s := f.Section("server")
	if s.HasKey("addr") {
		c.Server.Addr = strings.TrimSpace(s.Key("addr").String())
	}
	if s.HasKey("max_targets") {
		v, err := s.Key("max_targets").Int()
		if err != nil {
			return fmt.Errorf("server.max_targets: %w", err)
		}
		c.Server.MaxTargets = v
	}
	if s.HasKey("allow_origin") {
		v, err := s.Key("allow_origin").Bool()
		if err != nil {
			return fmt.Errorf("server.allow_origin: %w", err)
		}
		c.Server.AllowOrigin = v
	}

	l := f.Section("log")
	c.Log.Level = l.Key("level").MustString(c.Log.Level)
	c.Log.Format = l.Key("format").MustString(c.Log.Format)
	return nil
}

// Validate reports the first invalid setting, wrapping ErrInvalid.
func (c Config) Validate() error {
	switch {
	case c.Gesture.Slop <= 0:
		return fmt.Errorf("%w: gesture.slop must be positive, got %v", ErrInvalid, c.Gesture.Slop)
	case c.Gesture.Delay <= 0:
		return fmt.Errorf("%w: gesture.delay must be positive, got %v", ErrInvalid, c.Gesture.Delay)
	case c.Server.MaxTargets <= 0:
		return fmt.Errorf("%w: server.max_targets must be positive, got %d", ErrInvalid, c.Server.MaxTargets)
	case c.Server.Addr == "":
		return fmt.Errorf("%w: server.addr is empty", ErrInvalid)
	}
	switch strings.ToLower(c.Log.Level) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log.level %q", ErrInvalid, c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log.format %q", ErrInvalid, c.Log.Format)
	}
	return nil
}

// SingleTap returns a recognizer configured with the gesture
// settings.
func (c Config) SingleTap() *gesture.SingleTap {
	return &gesture.SingleTap{Slop: c.Gesture.Slop, Delay: c.Gesture.Delay}
}
