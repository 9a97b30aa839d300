// Package config loads a Session's TOML configuration.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config is the on-disk configuration for one daten session.
type Config struct {
	Listen Listen
	Window Window
	Timing Timing
	Log    Log
}

// Listen holds the local UDP-class substrate binding.
type Listen struct {
	// Address is the local address to bind, e.g. "0.0.0.0:7800".
	Address string
}

// Window holds the packet and frame window sizes.
type Window struct {
	// PacketWindowSize bounds in-flight (unacknowledged) packets.
	PacketWindowSize uint32
	// FrameWindowSize bounds outstanding (unacknowledged) frames.
	FrameWindowSize uint32
}

// Timing holds the flush cadence and RTT estimate the session drives
// the Emitter with.
type Timing struct {
	// FlushIntervalMs is the period between successive flushes.
	FlushIntervalMs uint64
	// InitialRTTMs seeds the resend backoff clock before any RTT sample
	// has been observed.
	InitialRTTMs uint64
	// MaxSendSize bounds the bytes emitted per flush.
	MaxSendSize int
}

// Log holds logging verbosity.
type Log struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string
}

// Default returns a Config with the values a session should use absent
// an on-disk file.
func Default() *Config {
	return &Config{
		Listen: Listen{Address: "0.0.0.0:7800"},
		Window: Window{PacketWindowSize: 1024, FrameWindowSize: 1024},
		Timing: Timing{FlushIntervalMs: 50, InitialRTTMs: 200, MaxSendSize: 1400},
		Log:    Log{Level: "info"},
	}
}

// Load reads and decodes a TOML config file, starting from Default and
// overlaying whatever the file specifies.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, newConfigError(path, err)
	}
	return cfg, nil
}

// ConfigError is returned when a configuration file cannot be read or
// decoded as TOML.
type ConfigError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: failed to load %s: %v", e.Path, e.Err)
}

// Unwrap allows errors.Is/As to see through to the underlying cause.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

func newConfigError(path string, err error) error {
	return &ConfigError{Path: path, Err: err}
}
