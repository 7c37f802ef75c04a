// Package config loads remedyd configuration from YAML or TOML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/remedy/internal/core/models"
	"github.com/zeusync/remedy/internal/core/observability/log"
	"github.com/zeusync/remedy/internal/core/systems/remediation"
)

var (
	ErrInvalidConfig     = errors.New("invalid config")
	ErrUnsupportedFormat = errors.New("unsupported config format")
)

// Config is the full remedyd configuration.
type Config struct {
	LogLevel string `json:"log_level" yaml:"log_level" toml:"log_level"`
	// LiveMode names the host mode that counts as a playable world.
	LiveMode string `json:"live_mode" yaml:"live_mode" toml:"live_mode"`

	Host        HostConfig           `json:"host" yaml:"host" toml:"host"`
	Server      ServerConfig         `json:"server" yaml:"server" toml:"server"`
	Remediation remediation.Settings `json:"remediation" yaml:"remediation" toml:"remediation"`
}

// HostConfig drives the simulated host world.
type HostConfig struct {
	TickInterval time.Duration `json:"tick_interval" yaml:"tick_interval" toml:"tick_interval"`
	// ActivateEvery is the number of ticks between engine activations.
	ActivateEvery int   `json:"activate_every" yaml:"activate_every" toml:"activate_every"`
	Seed          int64 `json:"seed" yaml:"seed" toml:"seed"`
	Buildings     int   `json:"buildings" yaml:"buildings" toml:"buildings"`
	// DecayChance is the per tick probability that a healthy building
	// falls into one of the remediation categories.
	DecayChance float64 `json:"decay_chance" yaml:"decay_chance" toml:"decay_chance"`
	// LookupDelay postpones publishing the notification prefab table by
	// this many ticks after load.
	LookupDelay int `json:"lookup_delay" yaml:"lookup_delay" toml:"lookup_delay"`
}

// ServerConfig configures the operator surface.
type ServerConfig struct {
	ListenAddr   string        `json:"listen_addr" yaml:"listen_addr" toml:"listen_addr"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout" toml:"write_timeout"`
}

func Default() Config {
	return Config{
		LogLevel: log.LevelInfo.String(),
		LiveMode: models.ModeGame.String(),
		Host: HostConfig{
			TickInterval:  50 * time.Millisecond,
			ActivateEvery: 16,
			Seed:          1,
			Buildings:     500,
			DecayChance:   0.02,
		},
		Server: ServerConfig{
			ListenAddr:   "127.0.0.1:8787",
			WriteTimeout: 5 * time.Second,
		},
		Remediation: remediation.DefaultSettings(),
	}
}

// Load reads path and overlays it on Default. The format is chosen by
// extension.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(filepath.Ext(path), data)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data in the format named by ext (".yaml", ".yml" or
// ".toml") on top of Default and validates the result.
func Parse(ext string, data []byte) (Config, error) {
	cfg := Default()
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("decode yaml: %w", err)
		}
	case ".toml":
		meta, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("decode toml: %w", err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("%w: unknown key %s", ErrInvalidConfig, undecoded[0])
		}
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if _, ok := models.ParseMode(c.LiveMode); !ok {
		return fmt.Errorf("%w: unknown live_mode %q", ErrInvalidConfig, c.LiveMode)
	}
	if c.Host.TickInterval <= 0 {
		return fmt.Errorf("%w: host.tick_interval must be positive", ErrInvalidConfig)
	}
	if c.Host.ActivateEvery <= 0 {
		return fmt.Errorf("%w: host.activate_every must be positive", ErrInvalidConfig)
	}
	if c.Host.Buildings < 0 {
		return fmt.Errorf("%w: host.buildings must not be negative", ErrInvalidConfig)
	}
	if c.Host.DecayChance < 0 || c.Host.DecayChance > 1 {
		return fmt.Errorf("%w: host.decay_chance must be within [0, 1]", ErrInvalidConfig)
	}
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("%w: server.listen_addr is required", ErrInvalidConfig)
	}
	if err := c.Remediation.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Mode returns the parsed live mode. Call after Validate.
func (c Config) Mode() models.Mode {
	m, _ := models.ParseMode(c.LiveMode)
	return m
}

func (c Config) Level() log.Level { return log.ParseLevel(c.LogLevel) }
