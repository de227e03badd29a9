// Package config loads the sdgramctl TOML configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/seagrayinc/sdgram/internal/frame"
)

const (
	TransportSerial = "serial"
	TransportUSB    = "usb"
	TransportHID    = "hid"
)

// Config is the link and runtime setup of the CLI.
type Config struct {
	Transport string
	Device    string
	Baud      int
	DataBits  int
	Parity    string
	StopBits  string
	VID       uint16
	PID       uint16

	PollInterval time.Duration
	MaxPayload   int
	Ports        []uint8

	MetricsAddr string
	LogLevel    string
}

func Default() Config {
	return Config{
		Transport:    TransportSerial,
		Baud:         115200,
		DataBits:     8,
		Parity:       "none",
		StopBits:     "1",
		PollInterval: 10 * time.Millisecond,
		MaxPayload:   frame.DefaultMaxPayloadSize,
		Ports:        []uint8{1},
		LogLevel:     "info",
	}
}

type fileConfig struct {
	Transport    string `toml:"transport"`
	Device       string `toml:"device"`
	Baud         int    `toml:"baud"`
	DataBits     int    `toml:"data_bits"`
	Parity       string `toml:"parity"`
	StopBits     string `toml:"stop_bits"`
	VID          int64  `toml:"vid"`
	PID          int64  `toml:"pid"`
	PollInterval string `toml:"poll_interval"`
	MaxPayload   int    `toml:"max_payload"`
	Ports        []int  `toml:"ports"`
	MetricsAddr  string `toml:"metrics_addr"`
	LogLevel     string `toml:"log_level"`
}

// Load reads path and overlays the keys it defines on Default.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("transport") {
		cfg.Transport = strings.ToLower(strings.TrimSpace(raw.Transport))
	}
	if meta.IsDefined("device") {
		cfg.Device = strings.TrimSpace(raw.Device)
	}
	if meta.IsDefined("baud") {
		cfg.Baud = raw.Baud
	}
	if meta.IsDefined("data_bits") {
		cfg.DataBits = raw.DataBits
	}
	if meta.IsDefined("parity") {
		cfg.Parity = strings.TrimSpace(raw.Parity)
	}
	if meta.IsDefined("stop_bits") {
		cfg.StopBits = strings.TrimSpace(raw.StopBits)
	}
	if meta.IsDefined("vid") {
		v, err := parseID("vid", raw.VID)
		if err != nil {
			return Config{}, err
		}
		cfg.VID = v
	}
	if meta.IsDefined("pid") {
		v, err := parseID("pid", raw.PID)
		if err != nil {
			return Config{}, err
		}
		cfg.PID = v
	}
	if meta.IsDefined("poll_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.PollInterval))
		if err != nil {
			return Config{}, fmt.Errorf("parse poll_interval: %w", err)
		}
		cfg.PollInterval = d
	}
	if meta.IsDefined("max_payload") {
		cfg.MaxPayload = raw.MaxPayload
	}
	if meta.IsDefined("ports") {
		ports, err := normalizePorts(raw.Ports)
		if err != nil {
			return Config{}, err
		}
		cfg.Ports = ports
	}
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values that can be checked without opening the link.
func (c Config) Validate() error {
	switch c.Transport {
	case TransportSerial:
		if c.Baud <= 0 {
			return fmt.Errorf("invalid baud: %d", c.Baud)
		}
		if c.DataBits < 5 || c.DataBits > 8 {
			return fmt.Errorf("invalid data_bits: %d", c.DataBits)
		}
	case TransportUSB, TransportHID:
		if c.VID == 0 {
			return fmt.Errorf("vid is required for transport %q", c.Transport)
		}
	default:
		return fmt.Errorf("invalid transport: %q", c.Transport)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("invalid poll_interval: %v", c.PollInterval)
	}
	if c.MaxPayload < 1 || c.MaxPayload > frame.MaxPayloadSize {
		return fmt.Errorf("invalid max_payload: %d", c.MaxPayload)
	}
	return nil
}

func parseID(key string, v int64) (uint16, error) {
	if v < 0 || v > 0xFFFF {
		return 0, fmt.Errorf("invalid %s: %d", key, v)
	}
	return uint16(v), nil
}

// normalizePorts drops duplicates and keeps the file order.
func normalizePorts(in []int) ([]uint8, error) {
	out := make([]uint8, 0, len(in))
	seen := make(map[int]bool, len(in))
	for _, p := range in {
		if p < 0 || p > 0xFF {
			return nil, fmt.Errorf("invalid ports entry: %d", p)
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, uint8(p))
	}
	return out, nil
}
